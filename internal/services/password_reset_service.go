package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/tradesdesk/workspace-api/internal/constants"
	"github.com/tradesdesk/workspace-api/internal/models"
	"github.com/tradesdesk/workspace-api/internal/repository"
	"github.com/tradesdesk/workspace-api/internal/utils"
	"go.uber.org/zap"
)

const resetTokenBytes = 32

// ResetNotifier delivers a raw reset token to its user out of band.
type ResetNotifier interface {
	DeliverResetToken(ctx context.Context, user *models.User, rawToken string, expiresAt time.Time) error
}

// LogResetNotifier writes reset tokens to the log at debug level. It stands in
// for a mail transport in development.
type LogResetNotifier struct {
	log *zap.Logger
}

// NewLogResetNotifier creates a LogResetNotifier.
func NewLogResetNotifier(log *zap.Logger) *LogResetNotifier {
	return &LogResetNotifier{log: log.Named("reset.notifier")}
}

// DeliverResetToken logs the raw token and its expiry for the user.
func (n *LogResetNotifier) DeliverResetToken(_ context.Context, user *models.User, rawToken string, expiresAt time.Time) error {
	n.log.Debug("password reset token issued",
		zap.String("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("token", rawToken),
		zap.Time("expires_at", expiresAt),
	)
	return nil
}

// PasswordResetParams configures a PasswordResetService.
type PasswordResetParams struct {
	Resets      repository.PasswordResetRepository
	Credentials *CredentialService
	Audit       *AuditService
	Notifier    ResetNotifier
	Secret      string
	TTL         time.Duration
	Now         func() time.Time
	Log         *zap.Logger
}

// PasswordResetService issues and redeems single-use password reset tokens.
type PasswordResetService struct {
	resets      repository.PasswordResetRepository
	credentials *CredentialService
	audit       *AuditService
	notifier    ResetNotifier
	secret      []byte
	ttl         time.Duration
	now         func() time.Time
	log         *zap.Logger
}

// NewPasswordResetService creates a new PasswordResetService.
func NewPasswordResetService(p PasswordResetParams) *PasswordResetService {
	s := &PasswordResetService{
		resets:      p.Resets,
		credentials: p.Credentials,
		audit:       p.Audit,
		notifier:    p.Notifier,
		secret:      []byte(p.Secret),
		ttl:         p.TTL,
		now:         p.Now,
		log:         p.Log.Named("password.reset"),
	}
	if s.ttl <= 0 {
		s.ttl = constants.DefaultResetTokenTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *PasswordResetService) hashToken(raw string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// CreateResetToken stores the keyed hash of a fresh random token and returns
// the raw token. ttl <= 0 uses the configured lifetime.
func (s *PasswordResetService) CreateResetToken(ctx context.Context, userID string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}

	raw, err := utils.RandomHex(resetTokenBytes)
	if err != nil {
		return "", time.Time{}, err
	}

	expiresAt := s.now().Add(ttl).UTC()
	record := &models.PasswordResetToken{
		UserID:    userID,
		TokenHash: s.hashToken(raw),
		ExpiresAt: expiresAt,
	}
	if err := s.resets.Create(ctx, record); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to store reset token: %w", err)
	}

	return raw, expiresAt, nil
}

// RequestReset issues a token for the named user and hands it to the notifier.
// Unknown usernames are ignored so callers cannot tell them apart.
func (s *PasswordResetService) RequestReset(ctx context.Context, username string) error {
	user, err := s.credentials.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.log.Debug("reset requested for unknown username")
			return nil
		}
		return err
	}

	raw, expiresAt, err := s.CreateResetToken(ctx, user.ID, 0)
	if err != nil {
		return err
	}

	if err := s.notifier.DeliverResetToken(ctx, user, raw, expiresAt); err != nil {
		return fmt.Errorf("failed to deliver reset token: %w", err)
	}
	return nil
}

// ConsumeResetToken sets a new password if rawToken is known and unexpired.
// Unknown, expired and already used tokens all return false with no error.
func (s *PasswordResetService) ConsumeResetToken(ctx context.Context, rawToken, newPassword string) (bool, error) {
	if err := ValidatePassword(newPassword); err != nil {
		return false, err
	}
	if rawToken == "" {
		return false, nil
	}

	record, err := s.resets.FindByHash(ctx, s.hashToken(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to find reset token: %w", err)
	}

	if !s.now().Before(record.ExpiresAt) {
		if _, err := s.resets.Delete(ctx, record.ID); err != nil {
			s.log.Warn("failed to delete expired reset token", zap.Error(err))
		}
		return false, nil
	}

	claimed, err := s.resets.Delete(ctx, record.ID)
	if err != nil {
		return false, fmt.Errorf("failed to claim reset token: %w", err)
	}
	if !claimed {
		return false, nil
	}

	if err := s.credentials.SetPassword(ctx, record.UserID, newPassword); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}

	if err := s.resets.DeleteByUser(ctx, record.UserID); err != nil {
		s.log.Warn("failed to revoke remaining reset tokens", zap.String("user_id", record.UserID), zap.Error(err))
	}

	if _, err := s.audit.Append(ctx, AuditEvent{
		ActorUserID: record.UserID,
		Action:      models.AuditPasswordReset,
		TargetType:  TargetUser,
		TargetID:    record.UserID,
	}); err != nil {
		return false, err
	}

	s.log.Info("password reset completed", zap.String("user_id", record.UserID))
	return true, nil
}
