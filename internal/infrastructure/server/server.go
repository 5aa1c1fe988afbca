package server

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/taskmaster/taskflow/docs"
	httpHandlers "github.com/taskmaster/taskflow/internal/adapters/http"
	"github.com/taskmaster/taskflow/internal/application/services"
	"github.com/taskmaster/taskflow/internal/infrastructure/config"
	"github.com/taskmaster/taskflow/internal/infrastructure/logger"
	"github.com/taskmaster/taskflow/internal/infrastructure/metrics"
)

// Server represents the HTTP server
type Server struct {
	echo    *echo.Echo
	config  *config.Config
	logger  *logger.Logger
	backend *Backend
	metrics *metrics.Metrics
}

type handlers struct {
	auth      *httpHandlers.AuthHandler
	projects  *httpHandlers.ProjectHandler
	tasks     *httpHandlers.TaskHandler
	dashboard *httpHandlers.DashboardHandler
}

// New creates a new server instance
func New(cfg *config.Config, backend *Backend, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	e.HTTPErrorHandler = httpHandlers.ErrorHandler(appLogger)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New("taskflow")
	}

	// Initialize services
	validator := services.NewValidator()
	authService := services.NewAuthService(backend.Users, backend.Sessions, cfg.Session, validator, m, appLogger)
	projectService := services.NewProjectService(backend.Projects, backend.Cache, validator, m, appLogger)
	taskService := services.NewTaskService(backend.Tasks, backend.Projects, backend.Cache, validator, m, appLogger)
	dashboardService := services.NewDashboardService(taskService, projectService)

	// Initialize handlers
	cookies := httpHandlers.NewSessionCookies(cfg.Session)
	h := handlers{
		auth:      httpHandlers.NewAuthHandler(authService, cookies, appLogger),
		projects:  httpHandlers.NewProjectHandler(projectService, taskService),
		tasks:     httpHandlers.NewTaskHandler(taskService),
		dashboard: httpHandlers.NewDashboardHandler(dashboardService),
	}

	server := &Server{
		echo:    e,
		config:  cfg,
		logger:  appLogger,
		backend: backend,
		metrics: m,
	}

	server.setupMiddleware()

	if m != nil {
		server.setupMetrics()
	}

	server.setupRoutes(h, httpHandlers.ResolveSession(authService, cookies, appLogger))
	server.setupFrontend(cookies)

	return server, nil
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Logger middleware
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", values.Method,
				"uri", values.URI,
				"status", values.Status,
				"latency_ms", float64(values.Latency.Nanoseconds()) / 1000000,
				"remote_ip", values.RemoteIP,
				"user_agent", values.UserAgent,
				"request_id", values.RequestID,
			}

			if values.Error != nil {
				fields = append(fields, "error", values.Error.Error())
				s.logger.Warnw("HTTP request failed", fields...)
			} else {
				s.logger.Infow("HTTP request", fields...)
			}

			return nil
		},
	}))

	// CORS middleware
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods:     []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowCredentials: s.config.Security.CORSAllowedOrigins != "*",
	}))

	// Rate limiting middleware
	if limit := s.config.Security.RateLimitRequests; limit > 0 {
		s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Skipper: func(c echo.Context) bool {
				return !strings.HasPrefix(c.Request().URL.Path, "/api/")
			},
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(float64(limit) / s.config.Security.RateLimitWindow.Seconds()),
				Burst:     limit,
				ExpiresIn: s.config.Security.RateLimitWindow,
			}),
			IdentifierExtractor: func(c echo.Context) (string, error) {
				return c.RealIP(), nil
			},
			ErrorHandler: func(c echo.Context, err error) error {
				return c.JSON(http.StatusForbidden, httpHandlers.ErrorResponse{Message: "rate limit exceeded"})
			},
			DenyHandler: func(c echo.Context, identifier string, err error) error {
				s.logger.LogSecurityEvent("rate_limited", "", identifier, map[string]interface{}{
					"path": c.Request().URL.Path,
				})
				return c.JSON(http.StatusTooManyRequests, httpHandlers.ErrorResponse{Message: "rate limit exceeded"})
			},
		}))
	}

	// Security headers
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
	}))

	// Request ID middleware
	s.echo.Use(middleware.RequestID())

	if s.config.Server.RequestTimeout > 0 {
		s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Skipper: func(c echo.Context) bool {
				return !strings.HasPrefix(c.Request().URL.Path, "/api/")
			},
			Timeout: s.config.Server.RequestTimeout,
		}))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(h handlers, resolveSession echo.MiddlewareFunc) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// API v1 routes
	v1 := s.echo.Group("/api/v1", resolveSession)

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", h.auth.Register)
	authGroup.POST("/login", h.auth.Login)
	authGroup.POST("/logout", h.auth.Logout)
	authGroup.GET("/session", h.auth.Session, httpHandlers.RequireIdentity)

	projectGroup := v1.Group("/projects", httpHandlers.RequireIdentity)
	projectGroup.GET("", h.projects.ListProjects)
	projectGroup.POST("", h.projects.CreateProject)
	projectGroup.GET("/:id", h.projects.GetProject)
	projectGroup.PATCH("/:id", h.projects.UpdateProject)
	projectGroup.DELETE("/:id", h.projects.DeleteProject)
	projectGroup.GET("/:id/tasks", h.projects.GetProjectTasks)

	taskGroup := v1.Group("/tasks", httpHandlers.RequireIdentity)
	taskGroup.GET("", h.tasks.ListTasks)
	taskGroup.POST("", h.tasks.CreateTask)
	taskGroup.GET("/stats", h.tasks.GetTaskStats)
	taskGroup.GET("/:id", h.tasks.GetTask)
	taskGroup.PATCH("/:id", h.tasks.UpdateTask)
	taskGroup.DELETE("/:id", h.tasks.DeleteTask)

	v1.GET("/dashboard", h.dashboard.GetDashboard, httpHandlers.RequireIdentity)
}

// setupFrontend guards page routes and, when configured, serves the
// prebuilt frontend with index.html fallback.
func (s *Server) setupFrontend(cookies httpHandlers.SessionCookies) {
	s.echo.Use(httpHandlers.Guard(cookies))

	if s.config.Server.StaticDir == "" {
		return
	}
	s.echo.Use(middleware.StaticWithConfig(middleware.StaticConfig{
		Filesystem: http.Dir(s.config.Server.StaticDir),
		HTML5:      true,
		Skipper: func(c echo.Context) bool {
			return isBackendRoute(c.Request().URL.Path)
		},
	}))
}

func isBackendRoute(path string) bool {
	for _, prefix := range []string{"/api/", "/health", "/ready", "/metrics", "/swagger"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// setupMetrics records request counts and latency for every route
func (s *Server) setupMetrics() {
	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			// Render the error now so the recorded status is the one sent.
			if err != nil {
				c.Error(err)
			}
			status := c.Response().Status

			s.metrics.RequestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				strconv.Itoa(status),
			).Inc()

			s.metrics.RequestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(time.Since(start).Seconds())

			return err
		}
	})

	s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	ctx := c.Request().Context()
	status := "ok"
	checks := make(map[string]interface{})

	if s.backend.db != nil {
		if err := s.backend.db.HealthCheck(ctx); err != nil {
			status = "error"
			checks["database"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		} else {
			checks["database"] = map[string]interface{}{
				"status": "ok",
				"stats":  s.backend.db.GetConnectionInfo(),
			}
		}
	} else {
		checks["database"] = map[string]interface{}{
			"status": "ok",
			"driver": s.config.Database.Driver,
		}
	}

	if s.backend.redis != nil {
		if err := s.backend.redis.Ping(ctx).Err(); err != nil {
			status = "error"
			checks["redis"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		} else {
			checks["redis"] = map[string]interface{}{"status": "ok"}
		}
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
			"go":  runtime.Version(),
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	if err := s.backend.Ping(c.Request().Context()); err != nil {
		s.logger.Warnw("Readiness check failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Shutting down server")
	return s.echo.Shutdown(ctx)
}
