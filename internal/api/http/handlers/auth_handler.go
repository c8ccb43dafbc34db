package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/portal-gateway/internal/api/dto"
	"github.com/spec-kit/portal-gateway/internal/auth"
	"github.com/spec-kit/portal-gateway/internal/domain"
	"github.com/spec-kit/portal-gateway/internal/service"
	apperrors "github.com/spec-kit/portal-gateway/pkg/util"
)

// AuthHandler exposes the session API the portal guard validates against.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return apperrors.NewValidationError("name, email, password required", nil)
	}

	user, session, err := h.auth.Register(c.UserContext(), req.Name, req.Email, req.Password, req.Role)
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		return apperrors.NewConflict(err.Error(), nil)
	case errors.Is(err, service.ErrInvalidRole):
		return apperrors.NewValidationError(err.Error(), map[string]any{"role": req.Role})
	case err != nil:
		return apperrors.NewInternalError(err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": envelope(user, session)})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, session, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return apperrors.NewUnauthorized("invalid credentials")
	case errors.Is(err, service.ErrAccountSuspended):
		return apperrors.NewForbidden(err.Error())
	case err != nil:
		return apperrors.NewInternalError(err)
	}

	return c.JSON(fiber.Map{"data": envelope(user, session)})
}

// ValidateSession handles POST /auth/validate-session. Any rejection is a
// 401 so the guard caches it as invalid; store failures are 5xx.
func (h *AuthHandler) ValidateSession(c *fiber.Ctx) error {
	token := requestToken(c)
	if token == "" {
		return c.Status(http.StatusUnauthorized).JSON(dto.ValidateSessionResponse{Valid: false})
	}

	user, err := h.auth.ValidateSession(c.UserContext(), token)
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, service.ErrSessionRevoked),
		errors.Is(err, service.ErrAccountSuspended):
		return c.Status(http.StatusUnauthorized).JSON(dto.ValidateSessionResponse{Valid: false})
	case err != nil:
		return apperrors.NewInternalError(err)
	}

	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.JSON(dto.ValidateSessionResponse{Valid: true, User: user})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token := requestToken(c)
	if token == "" {
		return apperrors.NewUnauthorized("session token required")
	}
	if err := h.auth.Logout(c.UserContext(), token); err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return apperrors.NewUnauthorized("invalid session token")
		}
		return apperrors.NewInternalError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func envelope(user *domain.User, session *domain.Session) dto.SessionEnvelope {
	return dto.SessionEnvelope{
		User: user.Summary(),
		Auth: dto.AuthResponse{
			Token:     session.Token,
			SessionID: session.ID,
			ExpiresAt: session.ExpiresAt,
		},
	}
}

func requestToken(c *fiber.Ctx) string {
	var req dto.TokenRequest
	if len(c.Body()) > 0 {
		_ = c.BodyParser(&req)
	}
	if req.Token != "" {
		return req.Token
	}
	header := c.Get(fiber.HeaderAuthorization)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return c.Cookies(auth.CookieAuthToken)
}
