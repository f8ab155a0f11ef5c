package services

import (
	"github.com/tradesdesk/workspace-api/internal/models"
	"github.com/tradesdesk/workspace-api/internal/token"
)

// Claim names carried in bearer tokens.
const (
	ClaimUserID        = "userId"
	ClaimUsername      = "username"
	ClaimPlatformAdmin = "platformAdmin"
)

// Identity is the acting user as asserted by a verified token.
type Identity struct {
	UserID        string
	Username      string
	PlatformAdmin bool
}

// ClaimsFor builds the token claims for a user.
func ClaimsFor(user *models.User) token.Claims {
	return token.Claims{
		ClaimUserID:        user.ID,
		ClaimUsername:      user.Username,
		ClaimPlatformAdmin: user.PlatformAdmin,
	}
}

// IdentityFromClaims extracts the identity from verified claims.
func IdentityFromClaims(claims token.Claims) (Identity, error) {
	id := Identity{
		UserID:        claims.String(ClaimUserID),
		Username:      claims.String(ClaimUsername),
		PlatformAdmin: claims.Bool(ClaimPlatformAdmin),
	}
	if id.UserID == "" {
		return Identity{}, ErrInvalidToken
	}
	return id, nil
}
