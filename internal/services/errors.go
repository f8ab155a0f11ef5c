package services

import (
	"errors"
	"fmt"

	"github.com/tradesdesk/workspace-api/internal/constants"
)

// Error taxonomy. Every error returned by this package that is not a storage
// failure wraps exactly one of these.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("%w: invalid or expired token", ErrUnauthorized)
	ErrNotPlatformAdmin   = fmt.Errorf("%w: platform admin required", ErrForbidden)
	ErrInsufficientRole   = fmt.Errorf("%w: insufficient tenant role", ErrForbidden)

	ErrUserNotFound       = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrTenantNotFound     = fmt.Errorf("%w: tenant not found", ErrNotFound)
	ErrMembershipNotFound = fmt.Errorf("%w: membership not found", ErrNotFound)

	ErrUsernameTaken = fmt.Errorf("%w: username already exists", ErrConflict)

	ErrInvalidUsername = fmt.Errorf("%w: username must be %d-%d characters",
		ErrInvalidInput, constants.MinUsernameLength, constants.MaxUsernameLength)

	ErrPasswordTooShort = fmt.Errorf("%w: password must be at least %d characters",
		ErrInvalidInput, constants.MinPasswordLength)

	ErrPasswordRequired     = fmt.Errorf("%w: password is required for a new user", ErrInvalidInput)
	ErrInvalidTenantName    = fmt.Errorf("%w: tenant name cannot be empty", ErrInvalidInput)
	ErrInvalidRole          = fmt.Errorf("%w: unknown role", ErrInvalidInput)
	ErrInvalidStatus        = fmt.Errorf("%w: unknown membership status", ErrInvalidInput)
	ErrEmptyMembershipPatch = fmt.Errorf("%w: role or status is required", ErrInvalidInput)
)
