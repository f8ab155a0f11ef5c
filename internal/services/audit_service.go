package services

import (
	"context"
	"fmt"

	"github.com/tradesdesk/workspace-api/internal/models"
	"github.com/tradesdesk/workspace-api/internal/repository"
	"github.com/tradesdesk/workspace-api/internal/utils"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Audit target types
const (
	TargetTenant     = "tenant"
	TargetMembership = "membership"
	TargetUser       = "user"
)

// AuditEvent describes one security-relevant mutation.
type AuditEvent struct {
	TenantID    string
	ActorUserID string
	Action      models.AuditAction
	TargetType  string
	TargetID    string
	Metadata    map[string]interface{}
}

// AuditService appends entries to the audit log.
type AuditService struct {
	repo repository.AuditLogRepository
	log  *zap.Logger
}

// NewAuditService creates a new AuditService.
func NewAuditService(repo repository.AuditLogRepository, log *zap.Logger) *AuditService {
	return &AuditService{
		repo: repo,
		log:  log.Named("audit"),
	}
}

// Append writes the event. The request id on ctx, if any, is added to metadata.
func (s *AuditService) Append(ctx context.Context, event AuditEvent) (*models.AuditLogEntry, error) {
	metadata := datatypes.JSONMap{}
	for k, v := range event.Metadata {
		metadata[k] = v
	}
	if requestID := utils.RequestIDFrom(ctx); requestID != "" {
		metadata["request_id"] = requestID
	}

	entry := &models.AuditLogEntry{
		ID:          utils.NewSortableID(),
		TenantID:    optional(event.TenantID),
		ActorUserID: event.ActorUserID,
		Action:      event.Action,
		TargetType:  optional(event.TargetType),
		TargetID:    optional(event.TargetID),
	}
	if len(metadata) > 0 {
		entry.Metadata = metadata
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append audit entry: %w", err)
	}

	s.log.Info("audit",
		zap.String("action", string(event.Action)),
		zap.String("actor_user_id", event.ActorUserID),
		zap.String("tenant_id", event.TenantID),
		zap.String("target_id", event.TargetID),
	)
	return entry, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
