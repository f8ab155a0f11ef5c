package database

import (
	"fmt"
	"strings"

	"github.com/tradesdesk/workspace-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type compositeIndex struct {
	model   interface{}
	name    string
	columns []string
}

// AddIndexes adds composite indexes that struct tags do not express
func AddIndexes(db *gorm.DB, log *zap.Logger) error {
	indexes := []compositeIndex{
		// Audit lookup per tenant, newest first
		{&models.AuditLogEntry{}, "idx_audit_logs_tenant_created", []string{"tenant_id", "created_at"}},

		// Expired reset token sweeps per user
		{&models.PasswordResetToken{}, "idx_password_reset_tokens_user_expires", []string{"user_id", "expires_at"}},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.model, idx.name) {
			log.Debug("index already exists, skipping", zap.String("index", idx.name))
			continue
		}

		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(idx.model); err != nil {
			return fmt.Errorf("failed to parse model for index %s: %w", idx.name, err)
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, stmt.Schema.Table, strings.Join(idx.columns, ", "))
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("created index", zap.String("index", idx.name), zap.String("table", stmt.Schema.Table))
	}

	return nil
}
