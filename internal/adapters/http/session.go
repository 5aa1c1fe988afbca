package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/taskflow/internal/application/guard"
	"github.com/taskmaster/taskflow/internal/domain/entities"
	"github.com/taskmaster/taskflow/internal/infrastructure/config"
	"github.com/taskmaster/taskflow/internal/infrastructure/logger"
	"github.com/taskmaster/taskflow/internal/ports"
)

const identityKey = "identity"

// SessionCookies reads and writes the session cookie
type SessionCookies struct {
	Name   string
	Secure bool
}

// NewSessionCookies builds cookie settings from the session config
func NewSessionCookies(cfg config.SessionConfig) SessionCookies {
	return SessionCookies{Name: cfg.CookieName, Secure: cfg.CookieSecure}
}

// Credential returns the session token from the cookie, falling back to an
// Authorization: Bearer header.
func (s SessionCookies) Credential(c echo.Context) string {
	if cookie, err := c.Cookie(s.Name); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// HasCookie reports cookie presence only
func (s SessionCookies) HasCookie(c echo.Context) bool {
	cookie, err := c.Cookie(s.Name)
	return err == nil && cookie.Value != ""
}

func (s SessionCookies) set(c echo.Context, token string, expiresAt time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     s.Name,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s SessionCookies) clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     s.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// CurrentIdentity returns the identity resolved for this request, if any
func CurrentIdentity(c echo.Context) *entities.Identity {
	identity, _ := c.Get(identityKey).(*entities.Identity)
	return identity
}

// ResolveSession attaches the caller's identity to the request when the
// credential is valid. Requests without a usable credential continue
// anonymously; RequireIdentity rejects them where needed.
func ResolveSession(auth ports.AuthService, cookies SessionCookies, log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			credential := cookies.Credential(c)
			if credential == "" {
				return next(c)
			}

			identity, err := auth.ResolveSession(c.Request().Context(), credential)
			switch {
			case err == nil:
				c.Set(identityKey, identity)
			case errors.Is(err, entities.ErrUnauthorized):
				log.LogSecurityEvent("invalid_session", "", c.RealIP(), map[string]interface{}{
					"path": c.Request().URL.Path,
				})
			default:
				return err
			}
			return next(c)
		}
	}
}

// RequireIdentity rejects anonymous requests with 401
func RequireIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if CurrentIdentity(c) == nil {
			return entities.ErrUnauthorized
		}
		return next(c)
	}
}

// Guard redirects page requests according to guard.Evaluate
func Guard(cookies SessionCookies) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			decision := guard.Evaluate(c.Request().URL.Path, cookies.HasCookie(c))
			if decision.Redirect() {
				return c.Redirect(http.StatusTemporaryRedirect, decision.Location)
			}
			return next(c)
		}
	}
}
