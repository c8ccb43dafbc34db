package auth

import (
	"strconv"
	"strings"
	"time"
)

// RedirectOrigin records what kind of page the last forced redirect targeted.
type RedirectOrigin int

const (
	OriginUnknown RedirectOrigin = iota
	OriginAuthPage
	OriginProtected
)

func (o RedirectOrigin) code() string {
	switch o {
	case OriginAuthPage:
		return "auth"
	case OriginProtected:
		return "protected"
	default:
		return ""
	}
}

func parseOrigin(code string) RedirectOrigin {
	switch code {
	case "auth":
		return OriginAuthPage
	case "protected":
		return OriginProtected
	default:
		return OriginUnknown
	}
}

// RedirectState is the decoded redirect_count cookie: "<count>" or "<count>:<origin>".
type RedirectState struct {
	Count  int
	Origin RedirectOrigin
}

// ParseRedirectState decodes the cookie value. Garbage decodes to the zero state.
func ParseRedirectState(raw string) RedirectState {
	if raw == "" {
		return RedirectState{}
	}
	countPart, originPart, _ := strings.Cut(raw, ":")
	count, err := strconv.Atoi(countPart)
	if err != nil || count < 0 {
		return RedirectState{}
	}
	return RedirectState{Count: count, Origin: parseOrigin(originPart)}
}

// Encode renders the state as a cookie value.
func (s RedirectState) Encode() string {
	value := strconv.Itoa(s.Count)
	if code := s.Origin.code(); code != "" {
		value += ":" + code
	}
	return value
}

const (
	portalLoopFallback = "/portal/videos"
	loginLoopFallback  = "/login?reset=true"
)

// RedirectGuard breaks redirect storms by counting forced redirects per client.
type RedirectGuard struct {
	maxRedirects  int
	counterMaxAge time.Duration
}

// NewRedirectGuard builds a guard tripping once the count exceeds maxRedirects.
func NewRedirectGuard(maxRedirects int, counterMaxAge time.Duration) *RedirectGuard {
	if maxRedirects < 0 {
		maxRedirects = 0
	}
	if counterMaxAge <= 0 {
		counterMaxAge = time.Minute
	}
	return &RedirectGuard{maxRedirects: maxRedirects, counterMaxAge: counterMaxAge}
}

// Check returns the fallback route when state indicates a loop.
func (g *RedirectGuard) Check(state RedirectState) (string, bool) {
	if state.Count <= g.maxRedirects {
		return "", false
	}
	return g.Fallback(state.Origin), true
}

// Fallback picks the loop-breaking route: the portal when the loop runs
// through an auth page, otherwise a login reset.
func (g *RedirectGuard) Fallback(origin RedirectOrigin) string {
	if origin == OriginAuthPage {
		return portalLoopFallback
	}
	return loginLoopFallback
}

// Next is the state to store after one more forced redirect towards origin.
func (g *RedirectGuard) Next(state RedirectState, origin RedirectOrigin) RedirectState {
	return RedirectState{Count: state.Count + 1, Origin: origin}
}

// CounterMaxAge is the lifetime of the counter cookie.
func (g *RedirectGuard) CounterMaxAge() time.Duration {
	return g.counterMaxAge
}

// MaxRedirects is the tolerated number of consecutive forced redirects.
func (g *RedirectGuard) MaxRedirects() int {
	return g.maxRedirects
}
