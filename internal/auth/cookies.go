package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/portal-gateway/internal/domain"
)

// Cookie names shared with the portal frontend.
const (
	CookieAuthToken     = "auth_token"
	CookieRefreshToken  = "refresh_token"
	CookieSessionID     = "session_id"
	CookieUserData      = "user_data"
	CookieRedirectCount = "redirect_count"
)

const (
	userDataMaxAge    = 24 * time.Hour
	offlineUserMaxAge = time.Hour
)

// cookieExpired matches the expiry fasthttp uses for deleted cookies.
var cookieExpired = time.Date(2009, time.November, 10, 23, 0, 0, 0, time.UTC)

var sessionCookies = []string{CookieAuthToken, CookieSessionID, CookieUserData}

// ErrEmptyUserData is returned when the user_data cookie has no content.
var ErrEmptyUserData = errors.New("empty user data")

// EncodeUserData renders a user summary as URL-encoded JSON.
func EncodeUserData(user *domain.UserSummary) (string, error) {
	if user == nil {
		return "", ErrEmptyUserData
	}
	payload, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("encode user data: %w", err)
	}
	return url.PathEscape(string(payload)), nil
}

// ParseUserData decodes a user_data cookie value written by EncodeUserData
// or by the frontend's encodeURIComponent.
func ParseUserData(raw string) (*domain.UserSummary, error) {
	if raw == "" {
		return nil, ErrEmptyUserData
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return nil, fmt.Errorf("unescape user data: %w", err)
	}
	var user domain.UserSummary
	if err := json.Unmarshal([]byte(decoded), &user); err != nil {
		return nil, fmt.Errorf("decode user data: %w", err)
	}
	return &user, nil
}

func offlineUser() *domain.UserSummary {
	return &domain.UserSummary{
		ID:      "offline-user",
		Name:    "Offline User",
		Email:   "offline@local",
		Role:    string(domain.RoleStudent),
		Offline: true,
	}
}

func (g *PortalGuard) cookie(name, value string, maxAge time.Duration) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		Secure:   g.production,
		HTTPOnly: false,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

func (g *PortalGuard) expiredCookie(name string) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  cookieExpired,
		Secure:   g.production,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}
