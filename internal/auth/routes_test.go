package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyFollowsGuardOrder(t *testing.T) {
	routes := DefaultRoutes()

	cases := map[string]RouteKind{
		"/api/users":           RouteSkipped,
		"/_next/static/a.js":   RouteSkipped,
		"/favicon.ico":         RouteSkipped,
		"/books/12":            RoutePublic,
		"/test-reader":         RoutePublic,
		"/dashboard":           RouteProtected,
		"/dashboard/teacher/x": RouteProtected,
		"/courses":             RouteProtected,
		"/portal":              RoutePortal,
		"/portal/videos/3":     RoutePortal,
		"/login":               RouteAuth,
		"/register":            RouteAuth,
		"/":                    RouteOther,
		"/bookshelf":           RouteOther,
		"/portalish":           RouteOther,
		"/dashboards":          RouteOther,
	}
	for path, want := range cases {
		assert.Equal(t, want, routes.Classify(path), path)
	}
}

func TestPortalFallbackAlternates(t *testing.T) {
	routes := DefaultRoutes()
	assert.Equal(t, "/portal/books", routes.portalFallback("/portal/videos"))
	assert.Equal(t, "/portal/videos", routes.portalFallback("/dashboard/other"))
	assert.Equal(t, portalLoopFallback, RouteTable{}.portalFallback("/x"))
}
