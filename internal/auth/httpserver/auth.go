package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/marketbase/platform/internal/auth/service"
	"github.com/marketbase/platform/internal/auth/transport"
	"github.com/marketbase/platform/pkg/kafka"
	"github.com/marketbase/platform/pkg/logging"
	"github.com/marketbase/platform/pkg/tokens"
)

type AuthHTTP struct {
	Svc      *service.AuthService
	Codec    *tokens.Codec
	Producer *kafka.Producer
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			l.Warn("register_error", "status", 400, "reason", "username taken")
			return echo.NewHTTPError(http.StatusBadRequest, "username is already taken")
		case errors.Is(err, service.ErrEmailInUse):
			l.Warn("register_error", "status", 400, "reason", "email in use")
			return echo.NewHTTPError(http.StatusBadRequest, "email is already in use")
		case errors.Is(err, service.ErrValidation):
			l.Warn("register_error", "status", 400, "reason", "validation", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			l.Error("register_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	h.publish(ctx, "user_events", fmt.Sprint(res.User.ID), map[string]any{
		"type":     "user_registered",
		"userId":   res.User.ID,
		"username": res.User.Username,
	})

	l.Info("register_success", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, transport.AuthResponse{
		Token:    res.Token,
		UserID:   res.User.ID,
		Username: res.User.Username,
		Email:    res.User.Email,
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			l.Warn("login_failed", "status", 400)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid username or password")
		}
		l.Error("login_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("login_success", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, transport.AuthResponse{
		Token:    res.Token,
		UserID:   res.User.ID,
		Username: res.User.Username,
		Email:    res.User.Email,
	})
}

// Validate verifies the presented bearer token: signature, expiry and claim
// shape all have to pass, not just the header prefix.
func (h *AuthHTTP) Validate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.validate")

	header := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		l.Warn("validate_failed", "status", 400, "reason", "missing bearer prefix")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid token")
	}

	claims, err := h.Codec.Verify(strings.TrimPrefix(header, prefix))
	if err != nil {
		l.Warn("validate_failed", "status", 400, "reason", err.Error())
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	userID, err := claims.UserID()
	if err != nil {
		l.Warn("validate_failed", "status", 400, "reason", "bad subject")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid token")
	}

	return c.JSON(http.StatusOK, transport.ValidateResponse{
		UserID:   userID,
		Username: claims.Username,
	})
}

func (h *AuthHTTP) publish(ctx context.Context, topic, key string, event any) {
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(pubCtx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "topic", topic, "error", err)
	}
}
