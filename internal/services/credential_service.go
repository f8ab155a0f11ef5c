package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tradesdesk/workspace-api/internal/constants"
	"github.com/tradesdesk/workspace-api/internal/models"
	"github.com/tradesdesk/workspace-api/internal/password"
	"github.com/tradesdesk/workspace-api/internal/repository"
	"go.uber.org/zap"
)

// CredentialService stores users and verifies their passwords.
type CredentialService struct {
	users  repository.UserRepository
	hasher *password.Hasher
	log    *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewCredentialService creates a new CredentialService.
func NewCredentialService(users repository.UserRepository, hasher *password.Hasher, log *zap.Logger) *CredentialService {
	return &CredentialService{
		users:  users,
		hasher: hasher,
		log:    log.Named("credentials"),
	}
}

// NormalizeUsername trims surrounding whitespace and enforces length limits.
func NormalizeUsername(raw string) (string, error) {
	username := strings.TrimSpace(raw)
	if n := len([]rune(username)); n < constants.MinUsernameLength || n > constants.MaxUsernameLength {
		return "", ErrInvalidUsername
	}
	return username, nil
}

// ValidatePassword enforces the password policy.
func ValidatePassword(raw string) error {
	if len(raw) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// CreateUser stores a new user with a salted password hash.
func (s *CredentialService) CreateUser(ctx context.Context, username, rawPassword string, platformAdmin bool) (*models.User, error) {
	username, err := NormalizeUsername(username)
	if err != nil {
		return nil, err
	}
	if err := ValidatePassword(rawPassword); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hash, err := s.hasher.Hash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:      username,
		PasswordHash:  hash,
		PlatformAdmin: platformAdmin,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("user created", zap.String("user_id", user.ID), zap.Bool("platform_admin", platformAdmin))
	return user, nil
}

// VerifyPassword returns the user when the password matches. Unknown users and
// wrong passwords both yield ErrInvalidCredentials after one key derivation.
func (s *CredentialService) VerifyPassword(ctx context.Context, username, rawPassword string) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_, _ = s.hasher.Verify(rawPassword, s.placeholderHash())
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	ok, err := s.hasher.Verify(rawPassword, user.PasswordHash)
	if err != nil {
		s.log.Error("stored password hash is unreadable", zap.String("user_id", user.ID), zap.Error(err))
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUser retrieves a user by ID.
func (s *CredentialService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username.
func (s *CredentialService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// SetPassword re-hashes and stores a new password for the user.
func (s *CredentialService) SetPassword(ctx context.Context, userID, rawPassword string) error {
	if err := ValidatePassword(rawPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(rawPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// discardUser removes a user created earlier in a flow that failed afterwards.
func (s *CredentialService) discardUser(ctx context.Context, userID string) error {
	if err := s.users.Delete(ctx, userID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	s.log.Info("user discarded", zap.String("user_id", userID))
	return nil
}

func (s *CredentialService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("placeholder-password")
		if err != nil {
			s.log.Error("failed to derive placeholder hash", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
