package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/portal-gateway/internal/auth"
	"github.com/spec-kit/portal-gateway/internal/config"
	"github.com/spec-kit/portal-gateway/internal/domain"
	"github.com/spec-kit/portal-gateway/internal/events"
	"github.com/spec-kit/portal-gateway/internal/repository"
)

var (
	ErrEmailTaken       = errors.New("email already registered")
	ErrInvalidRole      = errors.New("unknown role")
	ErrAccountSuspended = errors.New("account suspended")
	ErrSessionRevoked   = errors.New("session revoked")
)

// AuthService issues, validates and revokes portal sessions.
type AuthService struct {
	users      repository.UserRepository
	sessions   repository.SessionStore
	dispatcher events.Dispatcher
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
	now        func() time.Time
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Sessions   repository.SessionStore
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		sessions:   deps.Sessions,
		dispatcher: deps.Dispatcher,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
		logger:     logger,
		now:        time.Now,
	}
}

// Register creates a portal account and opens its first session. An empty
// role registers a student.
func (s *AuthService) Register(ctx context.Context, name, email, password, rawRole string) (*domain.User, *domain.Session, error) {
	role := domain.RoleStudent
	if rawRole != "" {
		parsed, ok := domain.ParseRole(rawRole)
		if !ok {
			return nil, nil, ErrInvalidRole
		}
		role = parsed
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role.String(),
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	session, err := s.issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Login authenticates a portal account.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *domain.Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, err
	}
	if user.Status != domain.UserStatusActive {
		return nil, nil, ErrAccountSuspended
	}

	session, err := s.issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// ValidateSession resolves token to the user it belongs to. It fails for
// bad signatures, expired or revoked sessions and suspended accounts.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*domain.UserSummary, error) {
	session, err := s.tokenMgr.Parse(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.sessions.IsRevoked(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrSessionRevoked
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, auth.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if user.Status != domain.UserStatusActive {
		return nil, ErrAccountSuspended
	}
	return user.Summary(), nil
}

// Logout revokes the session behind token until the token would have expired.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	session, err := s.tokenMgr.Parse(token)
	if err != nil {
		return err
	}
	if err := s.sessions.Revoke(ctx, session.ID, session.ExpiresAt.Sub(s.now())); err != nil {
		return err
	}
	s.publish(ctx, events.Event{Type: events.EventSessionRevoked, UserID: session.UserID, Role: session.Role})
	return nil
}

// TokenManager exposes the underlying token manager.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(ctx context.Context, user *domain.User) (*domain.Session, error) {
	session, err := s.tokenMgr.Issue(user)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{Type: events.EventSessionIssued, UserID: user.ID, Role: user.Role})
	return session, nil
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now()
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("auth event handler failed", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
