// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire gateway.

It defines default timeouts, rate limits, cookie names, and header keys that are
shared between the proxy handlers, the middleware chain, and the CLI client.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Session: Cookie names and lifetimes.
  - Upstream: Header names used when talking to the Folio backend.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "folio-gateway"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	// Must stay above GlobalRequestTimeout plus the upstream timeout budget.
	DefaultWriteTimeout = 35 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second

	// MaxRequestBodyBytes caps the JSON body relayed to the backend.
	MaxRequestBodyBytes = 1 << 20
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 50.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 100

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Session Cookies

const (
	// AuthTokenCookieName holds the bearer credential. Always httpOnly.
	AuthTokenCookieName = "auth_token"

	// UserIDCookieName holds a display-only user identifier readable by page script.
	UserIDCookieName = "user_id"

	// SessionCookiePath scopes both session cookies to the whole site.
	SessionCookiePath = "/"

	// SessionCookieTTL is the lifetime of both session cookies.
	SessionCookieTTL = 7 * 24 * time.Hour
)

// # Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderAPIKey        = "x-api-key"
	HeaderCacheControl  = "Cache-Control"
	HeaderPragma        = "Pragma"
	HeaderExpires       = "Expires"

	// BearerPrefix precedes the token in an Authorization header.
	BearerPrefix = "Bearer "

	ContentTypeJSON = "application/json"

	// NoStoreCacheControl forbids browser and CDN caching of freshness-sensitive data.
	NoStoreCacheControl = "no-cache, no-store, must-revalidate"
)

// # JSON Field Identifiers

const (
	FieldSuccess = "success"
	FieldData    = "data"
	FieldError   = "error"
	FieldDetail  = "detail"
	FieldCode    = "code"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldChecks  = "checks"
	FieldLikes   = "like_count"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixResponse = "gateway:response:"
)
