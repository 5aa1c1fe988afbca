package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/taskflow/internal/infrastructure/logger"
	"github.com/taskmaster/taskflow/internal/ports"
)

// AuthHandler handles registration, login and session requests
type AuthHandler struct {
	authService ports.AuthService
	cookies     SessionCookies
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService ports.AuthService, cookies SessionCookies, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookies:     cookies,
		logger:      logger,
	}
}

// Register godoc
// @Summary Register a new account
// @Description Creates the account, opens a session and sets the session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.RegisterRequest true "Account data"
// @Success 201 {object} SuccessResponse{data=ports.AuthResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req ports.RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	resp, err := h.authService.Register(c.Request().Context(), req, sessionMeta(c))
	if err != nil {
		return err
	}

	h.cookies.set(c, resp.Token, resp.ExpiresAt)
	return success(c, http.StatusCreated, resp)
}

// Login godoc
// @Summary Sign in
// @Description Checks credentials, opens a session and sets the session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.LoginRequest true "Credentials"
// @Success 200 {object} SuccessResponse{data=ports.AuthResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req ports.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	resp, err := h.authService.Login(c.Request().Context(), req, sessionMeta(c))
	if err != nil {
		return err
	}

	h.cookies.set(c, resp.Token, resp.ExpiresAt)
	return success(c, http.StatusOK, resp)
}

// Logout godoc
// @Summary Sign out
// @Tags auth
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.authService.Logout(c.Request().Context(), h.cookies.Credential(c)); err != nil {
		return err
	}

	h.cookies.clear(c)
	return success(c, http.StatusOK, nil)
}

// Session godoc
// @Summary Current session identity
// @Tags auth
// @Produce json
// @Success 200 {object} entities.Identity
// @Failure 401 {object} ErrorResponse
// @Security SessionCookie
// @Router /auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	return c.JSON(http.StatusOK, CurrentIdentity(c))
}

func sessionMeta(c echo.Context) ports.SessionMeta {
	return ports.SessionMeta{
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}

// DashboardHandler serves the dashboard read model
type DashboardHandler struct {
	dashboardService ports.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService ports.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetDashboard godoc
// @Summary Dashboard
// @Description Task stats, the five most recent tasks and five projects with task counts
// @Tags dashboard
// @Produce json
// @Success 200 {object} ports.Dashboard
// @Failure 401 {object} ErrorResponse
// @Security SessionCookie
// @Router /dashboard [get]
func (h *DashboardHandler) GetDashboard(c echo.Context) error {
	dashboard, err := h.dashboardService.GetDashboard(c.Request().Context(), CurrentIdentity(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dashboard)
}
