package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lmstore/backend/internal/mykafka"
	"github.com/lmstore/backend/internal/service"
	"github.com/lmstore/backend/internal/transport"
)

const refreshCookieName = "refresh_token"

type AuthHandler struct {
	Auth     *service.AuthService
	Producer *mykafka.Producer
}

func refreshCookie(value string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func deleteRefreshCookie() *http.Cookie {
	return &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *AuthHandler) publish(c echo.Context, key string, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", key, event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.Auth.Register(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return httpError(err)
	}

	h.publish(c, fmt.Sprint(user.ID), map[string]any{
		"type":     "user_registered",
		"user_id":  user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusCreated, transport.NewUserResponse(user))
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.Auth.Login(c.Request().Context(), req.Username, req.Password, c.Request().UserAgent())
	if err != nil {
		return httpError(err)
	}

	c.SetCookie(refreshCookie(result.RefreshToken, result.RefreshExp))

	h.publish(c, fmt.Sprint(result.User.ID), map[string]any{
		"type":     "user_logged_in",
		"user_id":  result.User.ID,
		"username": result.User.Username,
	})

	return c.JSON(http.StatusOK, transport.TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   "bearer",
		User:        transport.NewUserResponse(result.User),
	})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
	}

	result, err := h.Auth.Refresh(c.Request().Context(), cookie.Value, c.Request().UserAgent())
	if err != nil {
		return httpError(err)
	}

	c.SetCookie(refreshCookie(result.RefreshToken, result.RefreshExp))

	return c.JSON(http.StatusOK, transport.TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   "bearer",
		User:        transport.NewUserResponse(result.User),
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(refreshCookieName); err == nil {
		if err := h.Auth.RevokeRefreshToken(c.Request().Context(), cookie.Value); err != nil {
			return httpError(err)
		}
	}

	c.SetCookie(deleteRefreshCookie())
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// AdminUsers lists every account; admin only.
func (h *AuthHandler) AdminUsers(c echo.Context) error {
	users, err := h.Auth.Repo.ListUsers(c.Request().Context())
	if err != nil {
		return httpError(err)
	}

	out := make([]transport.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, transport.NewUserResponse(&users[i]))
	}
	return c.JSON(http.StatusOK, out)
}
