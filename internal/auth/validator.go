package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/portal-gateway/internal/domain"
	"github.com/spec-kit/portal-gateway/internal/observability"
)

// DegradedPolicy decides what an unreachable validation backend means.
type DegradedPolicy int

const (
	// DegradedAllow provisionally honors a well-formed token when the backend
	// cannot be reached.
	DegradedAllow DegradedPolicy = iota
	// StrictDeny treats an unreachable backend as a rejected token.
	StrictDeny
)

// ParseDegradedPolicy maps "deny" to StrictDeny and anything else to DegradedAllow.
func ParseDegradedPolicy(raw string) DegradedPolicy {
	if strings.EqualFold(strings.TrimSpace(raw), "deny") {
		return StrictDeny
	}
	return DegradedAllow
}

func (p DegradedPolicy) String() string {
	if p == StrictDeny {
		return "deny"
	}
	return "allow"
}

const (
	minTokenLength   = 10
	validatePath     = "/auth/validate-session"
	defaultTimeout   = 3 * time.Second
	defaultCacheTTL  = 5 * time.Second
	defaultCacheSize = 10000
)

// ErrBackendUnreachable marks transport-level failures talking to the backend.
var ErrBackendUnreachable = errors.New("validation backend unreachable")

// ValidationResult is the outcome of Validate.
type ValidationResult struct {
	Valid    bool
	User     *domain.UserSummary
	Degraded bool
}

// AuthResult is the outcome of IsAuthenticated.
type AuthResult struct {
	Authenticated bool
	User          *domain.UserSummary
	Degraded      bool
}

// SessionValidator is what the portal guard needs from a validator.
type SessionValidator interface {
	IsAuthenticated(ctx context.Context, token string) AuthResult
}

// ValidatorConfig configures a Validator.
type ValidatorConfig struct {
	BackendURL string
	Timeout    time.Duration
	Policy     DegradedPolicy
	HTTPClient *http.Client
	Now        Clock
}

// Validator checks session tokens against the backend, caching outcomes.
type Validator struct {
	endpoint string
	timeout  time.Duration
	policy   DegradedPolicy
	client   *http.Client
	cache    ValidationCache
	now      Clock
	logger   *zap.Logger
	metrics  *observability.Metrics
}

type validateRequest struct {
	Token string `json:"token"`
}

type validateResponse struct {
	Valid bool                `json:"valid"`
	User  *domain.UserSummary `json:"user"`
}

// NewValidator builds a validator. A nil cache falls back to an in-memory LRU.
func NewValidator(cfg ValidatorConfig, cache ValidationCache, logger *zap.Logger, metrics *observability.Metrics) (*Validator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	if cache == nil {
		mem, err := NewMemoryCache(defaultCacheSize, defaultCacheTTL, now)
		if err != nil {
			return nil, err
		}
		cache = mem
	}

	return &Validator{
		endpoint: strings.TrimRight(cfg.BackendURL, "/") + validatePath,
		timeout:  timeout,
		policy:   cfg.Policy,
		client:   client,
		cache:    cache,
		now:      now,
		logger:   logger,
		metrics:  metrics,
	}, nil
}

// WellFormedToken reports whether token has the minimal bearer-token shape.
func WellFormedToken(token string) bool {
	return len(token) >= minTokenLength && strings.Contains(token, ".")
}

// Validate checks token, consulting the cache before calling the backend.
func (v *Validator) Validate(ctx context.Context, token string) ValidationResult {
	if !WellFormedToken(token) {
		v.metrics.RecordValidation("malformed")
		v.logger.Debug("token rejected by shape check")
		return ValidationResult{}
	}

	if entry, ok := v.cache.Get(ctx, token); ok {
		v.metrics.RecordValidation("cache_hit")
		return ValidationResult{Valid: entry.Valid, User: entry.User}
	}

	checkedAt := v.now()
	payload, status, err := v.callBackend(ctx, token)
	switch {
	case errors.Is(err, ErrBackendUnreachable):
		if v.policy == StrictDeny {
			v.metrics.RecordValidation("unreachable_denied")
			v.logger.Warn("validation backend unreachable; denying", zap.Error(err))
			return ValidationResult{}
		}
		v.metrics.RecordValidation("degraded")
		v.logger.Warn("validation backend unreachable; allowing degraded access", zap.Error(err))
		return ValidationResult{Valid: true, Degraded: true}
	case err != nil:
		v.metrics.RecordValidation("error")
		v.logger.Error("token validation failed", zap.Error(err))
		return ValidationResult{}
	case status != http.StatusOK:
		v.metrics.RecordValidation("invalid")
		v.logger.Debug("token rejected by backend", zap.Int("status", status))
		v.cache.Set(ctx, token, ValidationEntry{Valid: false, CheckedAt: checkedAt})
		return ValidationResult{}
	}

	if payload.Valid {
		v.metrics.RecordValidation("valid")
	} else {
		v.metrics.RecordValidation("invalid")
	}
	v.cache.Set(ctx, token, ValidationEntry{Valid: payload.Valid, User: payload.User, CheckedAt: checkedAt})
	return ValidationResult{Valid: payload.Valid, User: payload.User}
}

// IsAuthenticated reports whether the cookie token authenticates a session.
func (v *Validator) IsAuthenticated(ctx context.Context, token string) AuthResult {
	if token == "" {
		v.logger.Debug("no session token")
		return AuthResult{}
	}
	res := v.Validate(ctx, token)
	return AuthResult{Authenticated: res.Valid, User: res.User, Degraded: res.Degraded}
}

// Ping checks that the validation endpoint answers at all.
func (v *Validator) Ping(ctx context.Context) error {
	_, _, err := v.callBackend(ctx, "")
	return err
}

func (v *Validator) callBackend(ctx context.Context, token string) (validateResponse, int, error) {
	var out validateResponse

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	body, err := json.Marshal(validateRequest{Token: token})
	if err != nil {
		return out, 0, fmt.Errorf("encode validate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, bytes.NewReader(body))
	if err != nil {
		return out, 0, fmt.Errorf("build validate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Cache-Control", "no-cache, no-store")

	resp, err := v.client.Do(req)
	if err != nil {
		return out, 0, fmt.Errorf("%w: %v", ErrBackendUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return out, resp.StatusCode, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if ctx.Err() != nil {
			return out, resp.StatusCode, fmt.Errorf("%w: %v", ErrBackendUnreachable, ctx.Err())
		}
		return out, resp.StatusCode, fmt.Errorf("decode validate response: %w", err)
	}
	return out, resp.StatusCode, nil
}
