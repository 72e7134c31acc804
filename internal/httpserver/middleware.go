package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lmstore/backend/internal/logging"
	"github.com/lmstore/backend/internal/models"
	"github.com/lmstore/backend/internal/service"
)

const userContextKey = "current_user"

type AuthMiddleware struct {
	Auth *service.AuthService
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := m.resolve(c)
		if err != nil {
			return err
		}
		c.Set(userContextKey, user)
		return next(c)
	}
}

func (m *AuthMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := m.resolve(c)
		if err != nil {
			return err
		}
		if user.Role != "admin" {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		c.Set(userContextKey, user)
		return next(c)
	}
}

func (m *AuthMiddleware) resolve(c echo.Context) (*models.User, error) {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}

	user, err := m.Auth.ResolveUser(c.Request().Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "could not validate credentials")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return user, nil
}

func CurrentUser(c echo.Context) *models.User {
	if u, ok := c.Get(userContextKey).(*models.User); ok {
		return u
	}
	return nil
}

// RequestLogger attaches a request-scoped logger to the request context so
// services can pick it up with logging.FromContext.
func RequestLogger(l *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rl := l.With(
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"method", c.Request().Method,
				"path", c.Path(),
			)
			ctx := logging.IntoContext(c.Request().Context(), rl)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// httpError maps the service error taxonomy onto HTTP statuses.
func httpError(err error) error {
	var stockErr *service.StockError
	switch {
	case errors.As(err, &stockErr):
		return echo.NewHTTPError(http.StatusBadRequest, stockErr.Error())
	case errors.Is(err, service.ErrCartEmpty):
		return echo.NewHTTPError(http.StatusBadRequest, "Cart is empty")
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
