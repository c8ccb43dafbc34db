package dto

import (
	"time"

	"github.com/spec-kit/portal-gateway/internal/domain"
)

// RegisterRequest payload for new portal accounts.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenRequest carries a session token in the body; the Authorization
// header is accepted as well.
type TokenRequest struct {
	Token string `json:"token"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionEnvelope is the body of login and register responses.
type SessionEnvelope struct {
	User *domain.UserSummary `json:"user"`
	Auth AuthResponse        `json:"auth"`
}

// ValidateSessionResponse is what the portal guard expects from validate-session.
type ValidateSessionResponse struct {
	Valid bool                `json:"valid"`
	User  *domain.UserSummary `json:"user,omitempty"`
}
