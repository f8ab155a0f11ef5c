package constants

import "time"

// Context keys
const (
	ContextKeyIdentity   = "identity"
	ContextKeyMembership = "membership"
	ContextKeyRequestID  = "request_id"
)

// Credential policy
const (
	MinUsernameLength = 3
	MaxUsernameLength = 50
	MinPasswordLength = 8
)

// Token lifetimes
const (
	DefaultTokenTTL      = 24 * time.Hour
	DefaultResetTokenTTL = 60 * time.Minute
)

// InsecureDevSecret is the signing secret used when none is configured.
// Config refuses it outside development.
const InsecureDevSecret = "change-me-dev-secret-for-local-only"

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)
