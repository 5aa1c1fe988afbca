package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/taskmaster/taskflow/internal/domain/entities"
	"github.com/taskmaster/taskflow/internal/infrastructure/logger"
)

// SuccessResponse wraps the result of a mutation
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is returned for every failed request
type ErrorResponse struct {
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

func success(c echo.Context, code int, data interface{}) error {
	return c.JSON(code, SuccessResponse{Success: true, Data: data})
}

// parseID reads a uuid path parameter. A malformed id cannot match any row,
// so it is reported the same way as a missing one.
func parseID(c echo.Context, notFound error) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, notFound
	}
	return id, nil
}

func bind(c echo.Context, dest interface{}) error {
	if err := c.Bind(dest); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format").SetInternal(err)
	}
	return nil
}

// ErrorHandler renders domain errors as ErrorResponse with a matching status
func ErrorHandler(log *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := errorResponse(err)
		if code >= http.StatusInternalServerError {
			log.Errorw("Internal server error",
				"error", err,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			)
		}

		var sendErr error
		if c.Request().Method == http.MethodHead {
			sendErr = c.NoContent(code)
		} else {
			sendErr = c.JSON(code, body)
		}
		if sendErr != nil {
			log.Errorw("Error sending response", "error", sendErr)
		}
	}
}

func errorResponse(err error) (int, ErrorResponse) {
	var validationErr *entities.ValidationError
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, ErrorResponse{Message: "Validation failed", Details: validationErr.FieldMessages()}
	case errors.Is(err, entities.ErrUnauthorized):
		return http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized"}
	case errors.Is(err, entities.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrorResponse{Message: "Invalid email or password"}
	case errors.Is(err, entities.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Message: capitalize(err.Error())}
	case errors.Is(err, entities.ErrEmailTaken):
		return http.StatusConflict, ErrorResponse{Message: capitalize(entities.ErrEmailTaken.Error())}
	case errors.As(err, &httpErr):
		msg, ok := httpErr.Message.(string)
		if !ok {
			msg = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, ErrorResponse{Message: msg}
	default:
		return http.StatusInternalServerError, ErrorResponse{Message: http.StatusText(http.StatusInternalServerError)}
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
