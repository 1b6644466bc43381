// File: internal/common/context_keys.go
package common

const (
	// SessionCookieName is the cookie carrying the signed session token
	SessionCookieName = "garment_session"
	// ClientSessionKey is the gin context key for the resolved client session
	ClientSessionKey = "clientSession"
	// SessionIDKey is the gin context key for the client session ID
	SessionIDKey = "sessionID"
	// RequestIDKey is the gin context key for the request ID
	RequestIDKey = "requestID"
	// LoggerKey holds a request-scoped *zap.Logger
	LoggerKey = "logger"
	// LoginPath is where guards send unauthenticated visitors
	LoginPath = "/login"
	// HomePath is the recovery target of the fault boundary
	HomePath = "/"
	// FromQueryParam carries the originally requested path on redirect
	FromQueryParam = "from"
)
