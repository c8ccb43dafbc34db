package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/portal-gateway/internal/api/dto"
	"github.com/spec-kit/portal-gateway/internal/api/http/handlers"
	"github.com/spec-kit/portal-gateway/internal/auth"
	"github.com/spec-kit/portal-gateway/internal/config"
	"github.com/spec-kit/portal-gateway/internal/domain"
	"github.com/spec-kit/portal-gateway/internal/observability"
	"github.com/spec-kit/portal-gateway/internal/repository"
	"github.com/spec-kit/portal-gateway/internal/service"
)

type stubUsers struct {
	mu    sync.Mutex
	users []*domain.User
}

func (s *stubUsers) Create(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = "user-" + string(rune('a'+len(s.users)))
	copied := *user
	s.users = append(s.users, &copied)
	return nil
}

func (s *stubUsers) Update(context.Context, *domain.User) error { return errors.New("not supported") }

func (s *stubUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	return s.find(func(u *domain.User) bool { return u.ID == id })
}

func (s *stubUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return s.find(func(u *domain.User) bool { return u.Email == email })
}

func (s *stubUsers) find(match func(*domain.User) bool) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func newSessionAPI(t *testing.T) *fiber.App {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "k", AccessTokenTTLMinutes: 10, BcryptCost: bcrypt.MinCost}}
	svc := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo: &stubUsers{},
		Sessions: repository.NewSessionStore(client),
	})

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), time.Second)
	RegisterRoutes(app, RouteConfig{
		Health: handlers.NewHealthHandler("portal-session-api", "test", nil),
		Auth:   handlers.NewAuthHandler(svc),
	})
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any, bearer string) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestSessionAPIFlow(t *testing.T) {
	app := newSessionAPI(t)

	resp := postJSON(t, app, "/auth/register", dto.RegisterRequest{
		Name: "Rui", Email: "rui@example.com", Password: "pw-1", Role: "Professor",
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, app, "/auth/login", dto.LoginRequest{Email: "rui@example.com", Password: "pw-1"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login struct {
		Data dto.SessionEnvelope `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	assert.Equal(t, "teacher", login.Data.User.Role)
	token := login.Data.Auth.Token
	require.NotEmpty(t, token)

	resp = postJSON(t, app, "/auth/validate-session", dto.TokenRequest{Token: token}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var validated dto.ValidateSessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&validated))
	assert.True(t, validated.Valid)
	assert.Equal(t, "rui@example.com", validated.User.Email)

	resp = postJSON(t, app, "/auth/logout", struct{}{}, token)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = postJSON(t, app, "/auth/validate-session", dto.TokenRequest{Token: token}, token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSessionAPIErrors(t *testing.T) {
	app := newSessionAPI(t)

	resp := postJSON(t, app, "/auth/login", dto.LoginRequest{Email: "x@example.com"}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, app, "/auth/login", dto.LoginRequest{Email: "x@example.com", Password: "pw"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)

	resp = postJSON(t, app, "/auth/validate-session", dto.TokenRequest{}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, app, "/auth/register", dto.RegisterRequest{
		Name: "Z", Email: "z@example.com", Password: "pw", Role: "janitor",
	}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGatewayRoutes(t *testing.T) {
	metrics := observability.NewMetrics()
	validator, err := auth.NewValidator(auth.ValidatorConfig{BackendURL: "http://127.0.0.1:1"}, nil, nil, metrics)
	require.NoError(t, err)

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	RegisterGatewayRoutes(app, GatewayRouteConfig{
		Health:  handlers.NewHealthHandler("portal-gateway", "test", nil),
		Gateway: handlers.NewGatewayHandler("", metrics, nil),
		Guard: auth.NewPortalGuard(auth.GuardDependencies{
			Validator: validator,
			Routes:    auth.DefaultRoutes(),
			Metrics:   metrics,
		}),
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/_gateway/health/live", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(auth.HeaderRequestPath))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/profile", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/about", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "/about", resp.Header.Get(auth.HeaderRequestPath))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/_gateway/metrics", nil), -1)
	require.NoError(t, err)
	var snap observability.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, int64(1), snap.Decisions["redirect_unauthenticated"])
	assert.Equal(t, int64(1), snap.Decisions["pass"])
}
