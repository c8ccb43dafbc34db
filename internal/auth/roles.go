package auth

import (
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/portal-gateway/internal/domain"
)

const (
	dashboardRoot   = "/dashboard"
	dashboardPrefix = dashboardRoot + "/"
)

// AccessController decides which dashboards a role may open.
type AccessController struct {
	logger *zap.Logger
}

// NewAccessController constructs the controller.
func NewAccessController(logger *zap.Logger) *AccessController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessController{logger: logger}
}

// ValidateRole accepts a missing role and any known alias; it rejects unknown roles.
func (a *AccessController) ValidateRole(raw string) bool {
	if raw == "" {
		a.logger.Warn("role missing from session; allowing without role-specific access")
		return true
	}
	if _, ok := domain.ParseRole(raw); !ok {
		a.logger.Warn("invalid role in session", zap.String("role", raw))
		return false
	}
	return true
}

// CanAccess reports whether raw may open path.
func (a *AccessController) CanAccess(raw, path string) bool {
	if raw == "" {
		return true
	}
	role, known := domain.ParseRole(raw)
	if known && role.IsSuperuser() {
		return true
	}
	// the bare /dashboard is resolved by a redirect, not here
	if !strings.HasPrefix(path, dashboardPrefix) {
		return true
	}
	if !known {
		return false
	}
	return pathUnder(path, role.Dashboard())
}

// DashboardFor returns the canonical dashboard for raw, or "" when the role is unknown.
func (a *AccessController) DashboardFor(raw string) string {
	if raw == "" {
		return ""
	}
	role, ok := domain.ParseRole(raw)
	if !ok {
		a.logger.Debug("no dashboard for role", zap.String("role", raw))
		return ""
	}
	return role.Dashboard()
}

// pathUnder reports whether path equals prefix or is nested below it.
func pathUnder(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, strings.TrimRight(prefix, "/")+"/")
}
