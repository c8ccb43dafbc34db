package auth

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/portal-gateway/internal/domain"
	"github.com/spec-kit/portal-gateway/internal/events"
	"github.com/spec-kit/portal-gateway/internal/observability"
)

const (
	loginUnauthorized = "/login?error=unauthorized"
	loginLogout       = "/login?logout=true"

	authPageFallbackProduction  = "/portal/books"
	authPageFallbackDevelopment = "/portal/videos"
)

type actionKind int

const (
	actionPass actionKind = iota
	actionRedirect
	actionPreflight
)

// action is the guard's verdict for one request plus the cookies and
// headers that go with it.
type action struct {
	kind       actionKind
	location   string
	decision   string
	setCookies []*fiber.Cookie
	clear      []string
	headers    map[string]string
	// clearsSession is set when the session cookies are being removed.
	clearsSession bool
	// finalize adds session, CORS and security headers on pass-through.
	finalize bool
}

// GuardDependencies bundles collaborators of the portal guard.
type GuardDependencies struct {
	Validator  SessionValidator
	Access     *AccessController
	Redirects  *RedirectGuard
	Routes     RouteTable
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Production bool
	Now        Clock
}

// PortalGuard authenticates and authorizes browser requests before they
// reach the portal frontend. It never returns an error of its own: every
// request ends as a redirect, a preflight answer or a pass-through.
type PortalGuard struct {
	validator  SessionValidator
	access     *AccessController
	redirects  *RedirectGuard
	routes     RouteTable
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	production bool
	now        Clock
}

// NewPortalGuard constructs the guard.
func NewPortalGuard(deps GuardDependencies) *PortalGuard {
	g := &PortalGuard{
		validator:  deps.Validator,
		access:     deps.Access,
		redirects:  deps.Redirects,
		routes:     deps.Routes,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		production: deps.Production,
		now:        deps.Now,
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	if g.access == nil {
		g.access = NewAccessController(g.logger)
	}
	if g.redirects == nil {
		g.redirects = NewRedirectGuard(3, time.Minute)
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

// Handle is the fiber handler.
func (g *PortalGuard) Handle(c *fiber.Ctx) error {
	if g.routes.Skips(c.Path()) {
		return c.Next()
	}

	act := g.decide(c)
	g.metrics.RecordDecision(act.decision)
	g.logger.Debug("portal guard decision",
		zap.String("path", c.Path()),
		zap.String("decision", act.decision),
		zap.String("location", act.location),
	)

	switch act.kind {
	case actionRedirect:
		g.applyCookies(c, act)
		for k, v := range act.headers {
			c.Set(k, v)
		}
		return c.Redirect(act.location, fiber.StatusSeeOther)
	case actionPreflight:
		setCORSHeaders(c)
		return c.SendStatus(fiber.StatusNoContent)
	}

	path := c.Path()
	sessionID := c.Cookies(CookieSessionID)
	if err := c.Next(); err != nil {
		return err
	}
	// the upstream may replace the whole response, so decorate it afterwards
	g.applyCookies(c, act)
	for k, v := range act.headers {
		c.Set(k, v)
	}
	if act.finalize {
		setSessionHeaders(c, sessionID, path, g.now())
		setCORSHeaders(c)
		setSecurityHeaders(c)
	}
	return nil
}

func (g *PortalGuard) decide(c *fiber.Ctx) (act action) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("portal guard panic",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			act = g.redirectWithClear(loginUnauthorized, "recovered_panic")
		}
	}()

	path := c.Path()
	token := c.Cookies(CookieAuthToken)
	userData := c.Cookies(CookieUserData)

	if g.routes.IsPublic(path) {
		return action{kind: actionPass, decision: "public"}
	}

	if g.routes.IsProtected(path) {
		return g.decideProtected(c, path, token, userData)
	}

	if g.routes.IsPortal(path) {
		if token != "" && userData == "" {
			g.logger.Warn("portal degraded mode: token present without user data", zap.String("path", path))
			g.publish(c.UserContext(), events.Event{
				Type:    events.EventDegradedAccess,
				Path:    path,
				Payload: events.DegradedAccessPayload{Reason: "portal_without_user_data"},
			})
			encoded, err := EncodeUserData(offlineUser())
			if err != nil {
				return action{kind: actionPass, decision: "portal_degraded"}
			}
			return action{
				kind:       actionPass,
				decision:   "portal_degraded",
				setCookies: []*fiber.Cookie{g.cookie(CookieUserData, encoded, offlineUserMaxAge)},
			}
		}
		if token == "" {
			return action{kind: actionPass, decision: "portal_public"}
		}
	}

	if g.routes.IsAuth(path) && token != "" {
		if userData != "" {
			if user, err := ParseUserData(userData); err == nil {
				if dashboard := g.access.DashboardFor(user.Role); dashboard != "" {
					return g.redirect(dashboard, "auth_page_to_dashboard")
				}
			}
		}
		fallback := authPageFallbackDevelopment
		if g.production {
			fallback = authPageFallbackProduction
		}
		return g.redirect(fallback, "auth_page_to_portal")
	}

	if act, decided := g.decideRole(c, path, userData, nil); decided {
		return act
	}

	if c.Method() == fiber.MethodOptions {
		return action{kind: actionPreflight, decision: "preflight"}
	}
	return action{kind: actionPass, decision: "pass", finalize: true}
}

func (g *PortalGuard) decideProtected(c *fiber.Ctx, path, token, userData string) action {
	state := ParseRedirectState(c.Cookies(CookieRedirectCount))
	if fallback, tripped := g.redirects.Check(state); tripped {
		g.logger.Warn("redirect loop detected",
			zap.String("path", path),
			zap.Int("count", state.Count),
			zap.String("fallback", fallback),
		)
		g.publish(c.UserContext(), events.Event{
			Type:    events.EventRedirectLoopDetected,
			Path:    path,
			Payload: events.RedirectLoopPayload{Count: state.Count, Fallback: fallback},
		})
		act := g.redirect(fallback, "redirect_loop_fallback")
		act.clear = append(act.clear, CookieRedirectCount)
		return act
	}

	result := g.validator.IsAuthenticated(c.UserContext(), token)
	if !result.Authenticated {
		g.publish(c.UserContext(), events.Event{Type: events.EventSessionRejected, Path: path})
		act := g.redirectWithClear(loginUnauthorized, "redirect_unauthenticated")
		next := g.redirects.Next(state, OriginAuthPage)
		act.setCookies = append(act.setCookies, g.cookie(CookieRedirectCount, next.Encode(), g.redirects.CounterMaxAge()))
		return act
	}

	var fresh *fiber.Cookie
	if result.User != nil && userData == "" {
		encoded, err := EncodeUserData(result.User)
		if err != nil {
			g.logger.Warn("unable to encode user data", zap.Error(err))
		} else {
			fresh = g.cookie(CookieUserData, encoded, userDataMaxAge)
		}
	}

	if result.Degraded {
		g.publish(c.UserContext(), events.Event{
			Type:    events.EventDegradedAccess,
			Path:    path,
			Payload: events.DegradedAccessPayload{Reason: "backend_unreachable"},
		})
	}

	act, decided := g.decideRole(c, path, userData, result.User)
	if !decided {
		act = action{kind: actionPass, decision: "protected_authenticated"}
		if result.Degraded {
			act.decision = "protected_degraded"
		}
	}
	act.clear = append(act.clear, CookieRedirectCount)
	if fresh != nil && !act.clearsSession {
		act.setCookies = append(act.setCookies, fresh)
	}
	return act
}

// decideRole enforces role rules from the user_data cookie, or from the
// validated user when the cookie is absent. The second return value is
// false when the request should continue.
func (g *PortalGuard) decideRole(c *fiber.Ctx, path, userData string, validated *domain.UserSummary) (action, bool) {
	user := validated
	if userData != "" {
		parsed, err := ParseUserData(userData)
		if err != nil {
			g.logger.Warn("invalid user data cookie", zap.Error(err))
			g.publish(c.UserContext(), events.Event{Type: events.EventInvalidUserData, Path: path})
			return g.redirectWithClear(loginUnauthorized, "invalid_user_data"), true
		}
		user = parsed
	}
	if user == nil {
		return action{}, false
	}

	if user.Role != "" && !g.access.ValidateRole(user.Role) {
		g.publish(c.UserContext(), events.Event{
			Type:   events.EventInvalidUserData,
			Path:   path,
			UserID: user.ID,
			Role:   user.Role,
		})
		return g.redirectWithClear(loginUnauthorized, "invalid_role"), true
	}

	if path == dashboardRoot {
		if dashboard := g.access.DashboardFor(user.Role); dashboard != "" {
			act := g.redirect(dashboard, "dashboard_to_role_dashboard")
			act.headers[HeaderRedirectFrom] = dashboardRoot
			act.headers[HeaderRedirectTo] = dashboard
			return act, true
		}
	}

	if g.access.CanAccess(user.Role, path) {
		return action{}, false
	}

	correct := g.access.DashboardFor(user.Role)
	g.logger.Warn("role denied path",
		zap.String("user_id", user.ID),
		zap.String("role", user.Role),
		zap.String("path", path),
	)
	g.publish(c.UserContext(), events.Event{
		Type:    events.EventAccessDenied,
		Path:    path,
		UserID:  user.ID,
		Role:    user.Role,
		Payload: events.AccessDeniedPayload{RedirectTo: correct},
	})

	switch {
	case correct != "" && !pathUnder(path, correct):
		return g.redirect(correct, "access_denied_to_dashboard"), true
	case correct == "":
		return g.redirect(g.routes.portalFallback(path), "access_denied_to_portal"), true
	default:
		// already on its own dashboard; client-side route guards take over
		return action{}, false
	}
}

func (g *PortalGuard) redirect(location, decision string) action {
	if g.production && location == loginUnauthorized {
		location = loginLogout
	}
	return action{
		kind:     actionRedirect,
		location: location,
		decision: decision,
		headers: map[string]string{
			HeaderRedirectReason: "middleware-auth",
		},
	}
}

func (g *PortalGuard) redirectWithClear(location, decision string) action {
	act := g.redirect(location, decision)
	act.clear = append(act.clear, sessionCookies...)
	act.clearsSession = true
	if act.location == loginUnauthorized || act.location == loginLogout {
		act.headers[HeaderClearAllData] = "true"
		act.headers[HeaderLogoutRedirect] = "true"
	}
	return act
}

func (g *PortalGuard) applyCookies(c *fiber.Ctx, act action) {
	if act.kind == actionRedirect {
		setNoStoreHeaders(c)
	}
	for _, name := range act.clear {
		c.Cookie(g.expiredCookie(name))
	}
	for _, ck := range act.setCookies {
		c.Cookie(ck)
	}
}

func (g *PortalGuard) publish(ctx context.Context, event events.Event) {
	if g.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = g.now()
	if err := g.dispatcher.Publish(ctx, event); err != nil {
		g.logger.Warn("auth event handler failed",
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	}
}
