package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS, PATCH"
	corsAllowHeaders = "Content-Type, Authorization, X-Requested-With, X-CSRF-Token, Cache-Control, Pragma, Accept, Origin, Cookie"
	corsMaxAge       = "86400"
)

// Diagnostic headers.
const (
	HeaderSessionID      = "X-Session-ID"
	HeaderRequestPath    = "X-Request-Path"
	HeaderRequestTime    = "X-Request-Time"
	HeaderRedirectReason = "X-Redirect-Reason"
	HeaderRedirectFrom   = "X-Redirect-From"
	HeaderRedirectTo     = "X-Redirect-To"
	HeaderClearAllData   = "X-Clear-All-Data"
	HeaderLogoutRedirect = "X-Logout-Redirect"
)

func setCORSHeaders(c *fiber.Ctx) {
	c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
	// credentials must stay off with a wildcard origin
	c.Set(fiber.HeaderAccessControlAllowCredentials, "false")
	c.Set(fiber.HeaderAccessControlAllowMethods, corsAllowMethods)
	c.Set(fiber.HeaderAccessControlAllowHeaders, corsAllowHeaders)
	c.Set(fiber.HeaderAccessControlMaxAge, corsMaxAge)
}

func setSecurityHeaders(c *fiber.Ctx) {
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	c.Set(fiber.HeaderXFrameOptions, "DENY")
	c.Set(fiber.HeaderXXSSProtection, "1; mode=block")
	c.Set(fiber.HeaderReferrerPolicy, "strict-origin-when-cross-origin")
	c.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
}

func setSessionHeaders(c *fiber.Ctx, sessionID, path string, now time.Time) {
	if sessionID != "" {
		c.Set(HeaderSessionID, sessionID)
	}
	c.Set(HeaderRequestPath, path)
	c.Set(HeaderRequestTime, now.UTC().Format(time.RFC3339Nano))
}

func setNoStoreHeaders(c *fiber.Ctx) {
	c.Set(fiber.HeaderCacheControl, "no-store, no-cache, must-revalidate, proxy-revalidate")
	c.Set(fiber.HeaderPragma, "no-cache")
	c.Set(fiber.HeaderExpires, "0")
}
