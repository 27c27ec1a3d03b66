package constants

import "time"

const (
	// MinPasswordLength is the minimum accepted password length at signup.
	MinPasswordLength = 6

	// TokenTTL is how long an issued bearer token stays valid.
	TokenTTL = 7 * 24 * time.Hour

	// TokenIssuer is the issuer claim on bearer tokens.
	TokenIssuer = "learning-task-api"

	// LoginRateLimit and LoginRateWindow bound login attempts per client.
	LoginRateLimit  = 10
	LoginRateWindow = 15 * time.Minute

	// ContextKeyUser is the gin context key holding the authenticated user.
	ContextKeyUser = "currentUser"
)
