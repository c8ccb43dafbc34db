package auth

import "strings"

// RouteKind classifies a request path for the portal guard.
type RouteKind int

const (
	RouteOther RouteKind = iota
	RouteSkipped
	RoutePublic
	RouteProtected
	RoutePortal
	RouteAuth
)

// RouteTable holds the path prefixes the guard reasons about.
type RouteTable struct {
	// Excluded prefixes never reach the guard (Next.js style matcher).
	Excluded  []string
	Public    []string
	Auth      []string
	Protected []string
	Portal    string
	// PortalRoutes are cycled through when a denied user has no dashboard.
	PortalRoutes []string
}

// DefaultRoutes is the portal's route layout.
func DefaultRoutes() RouteTable {
	return RouteTable{
		Excluded:     []string{"/api", "/_next/static", "/_next/image", "/favicon.ico"},
		Public:       []string{"/api/auth", "/books", "/test-reader"},
		Auth:         []string{"/login", "/register"},
		Protected:    []string{"/dashboard", "/courses", "/lessons", "/live", "/chat", "/profile"},
		Portal:       "/portal",
		PortalRoutes: []string{"/portal/books", "/portal/courses", "/portal/videos"},
	}
}

// Skips reports whether the matcher excludes path from the guard.
func (r RouteTable) Skips(path string) bool {
	for _, prefix := range r.Excluded {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// IsPublic reports whether path bypasses authentication.
func (r RouteTable) IsPublic(path string) bool {
	return matchesAny(path, r.Public)
}

// IsProtected reports whether path requires a validated session.
func (r RouteTable) IsProtected(path string) bool {
	return matchesAny(path, r.Protected)
}

// IsAuth reports whether path is a login or registration page.
func (r RouteTable) IsAuth(path string) bool {
	return matchesAny(path, r.Auth)
}

// IsPortal reports whether path lives under the degraded-access portal.
func (r RouteTable) IsPortal(path string) bool {
	return r.Portal != "" && pathUnder(path, r.Portal)
}

// Classify returns the first matching kind in guard evaluation order.
func (r RouteTable) Classify(path string) RouteKind {
	switch {
	case r.Skips(path):
		return RouteSkipped
	case r.IsPublic(path):
		return RoutePublic
	case r.IsProtected(path):
		return RouteProtected
	case r.IsPortal(path):
		return RoutePortal
	case r.IsAuth(path):
		return RouteAuth
	default:
		return RouteOther
	}
}

// portalFallback alternates portal routes so a denied user does not bounce
// back to the page they are already on.
func (r RouteTable) portalFallback(path string) string {
	if len(r.PortalRoutes) == 0 {
		return portalLoopFallback
	}
	if matchesAny(path, r.PortalRoutes) {
		return r.PortalRoutes[0]
	}
	return r.PortalRoutes[len(r.PortalRoutes)-1]
}

func matchesAny(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if pathUnder(path, prefix) {
			return true
		}
	}
	return false
}
