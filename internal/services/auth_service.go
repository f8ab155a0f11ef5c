package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tradesdesk/workspace-api/internal/models"
	"github.com/tradesdesk/workspace-api/internal/token"
	"go.uber.org/zap"
)

// TokenIssuer signs and verifies bearer tokens.
type TokenIssuer interface {
	Sign(claims token.Claims, ttl time.Duration) (string, error)
	Verify(raw string) (token.Claims, error)
}

// AuthParams configures an AuthService.
type AuthParams struct {
	Credentials           *CredentialService
	Tenants               *TenantService
	Memberships           *MembershipService
	Audit                 *AuditService
	Tokens                TokenIssuer
	TokenTTL              time.Duration
	PlatformAdminUsername string
	Log                   *zap.Logger
}

// AuthService handles registration, login and token authentication.
type AuthService struct {
	credentials           *CredentialService
	tenants               *TenantService
	memberships           *MembershipService
	audit                 *AuditService
	tokens                TokenIssuer
	tokenTTL              time.Duration
	platformAdminUsername string
	log                   *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(p AuthParams) *AuthService {
	return &AuthService{
		credentials:           p.Credentials,
		tenants:               p.Tenants,
		memberships:           p.Memberships,
		audit:                 p.Audit,
		tokens:                p.Tokens,
		tokenTTL:              p.TokenTTL,
		platformAdminUsername: strings.TrimSpace(p.PlatformAdminUsername),
		log:                   p.Log.Named("auth"),
	}
}

// RegisterInput represents the information needed to sign up.
type RegisterInput struct {
	Username   string
	Password   string
	TenantName string
}

// Session is an issued token together with the user it was issued to.
type Session struct {
	Token      string
	User       *models.User
	Tenant     *models.Tenant
	Membership *models.Membership
}

// Register creates a user, a tenant owned by that user and an active owner
// membership, then issues a token.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	username, err := NormalizeUsername(input.Username)
	if err != nil {
		return nil, err
	}

	platformAdmin := s.platformAdminUsername != "" && username == s.platformAdminUsername
	user, err := s.credentials.CreateUser(ctx, username, input.Password, platformAdmin)
	if err != nil {
		return nil, err
	}

	tenantName := strings.TrimSpace(input.TenantName)
	if tenantName == "" {
		tenantName = fmt.Sprintf("%s's workspace", user.Username)
	}
	tenant, err := s.tenants.createTenant(ctx, tenantName)
	if err != nil {
		return nil, err
	}

	membership, _, err := s.memberships.Create(ctx, CreateMembershipInput{
		TenantID: tenant.ID,
		UserID:   user.ID,
		Role:     models.RoleOwner,
		Status:   models.StatusActive,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.audit.Append(ctx, AuditEvent{
		TenantID:    tenant.ID,
		ActorUserID: user.ID,
		Action:      models.AuditTenantCreated,
		TargetType:  TargetTenant,
		TargetID:    tenant.ID,
		Metadata:    map[string]interface{}{"name": tenant.Name, "source": "registration"},
	}); err != nil {
		return nil, err
	}

	signed, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}

	return &Session{Token: signed, User: user, Tenant: tenant, Membership: membership}, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*Session, error) {
	user, err := s.credentials.VerifyPassword(ctx, input.Username, input.Password)
	if err != nil {
		return nil, err
	}

	signed, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}
	return &Session{Token: signed, User: user}, nil
}

// IssueToken signs a token carrying the user's identity claims.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	signed, err := s.tokens.Sign(ClaimsFor(user), s.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return signed, nil
}

// Authenticate verifies a raw bearer token. Every failure kind collapses to
// ErrInvalidToken; the underlying token error is returned alongside for metrics.
func (s *AuthService) Authenticate(raw string) (Identity, error) {
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return IdentityFromClaims(claims)
}

// FreshIdentity re-reads the user so a revoked platform-admin flag takes effect
// before the token expires.
func (s *AuthService) FreshIdentity(ctx context.Context, identity Identity) (Identity, error) {
	user, err := s.credentials.GetUser(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Identity{}, ErrInvalidToken
		}
		return Identity{}, err
	}
	return Identity{UserID: user.ID, Username: user.Username, PlatformAdmin: user.PlatformAdmin}, nil
}

// Profile is the authenticated user together with their memberships.
type Profile struct {
	User        *models.User
	Memberships []models.Membership
}

// Me returns the profile of the acting user.
func (s *AuthService) Me(ctx context.Context, identity Identity) (*Profile, error) {
	user, err := s.credentials.GetUser(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	memberships, err := s.memberships.ListForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, Memberships: memberships}, nil
}
