package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/tradesdesk/workspace-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMembershipRepository is a GORM implementation of MembershipRepository
type GormMembershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository creates a new MembershipRepository
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &GormMembershipRepository{db: db}
}

// CreateIfAbsent relies on the unique (tenant_id, user_id) index: a losing
// concurrent insert becomes a no-op and the winner's row is returned.
func (r *GormMembershipRepository) CreateIfAbsent(ctx context.Context, membership *models.Membership) (*models.Membership, bool, error) {
	if membership.ID == "" {
		membership.ID = uuid.NewString()
	}

	res := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(membership)
	if res.Error != nil {
		return nil, false, translateError(res.Error)
	}
	if res.RowsAffected > 0 {
		return membership, true, nil
	}

	existing, err := r.FindByTenantAndUser(ctx, membership.TenantID, membership.UserID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// FindByID finds a membership by ID
func (r *GormMembershipRepository) FindByID(ctx context.Context, id string) (*models.Membership, error) {
	var membership models.Membership
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&membership).Error; err != nil {
		return nil, translateError(err)
	}
	return &membership, nil
}

// FindByTenantAndUser finds the membership of a user in a tenant
func (r *GormMembershipRepository) FindByTenantAndUser(ctx context.Context, tenantID, userID string) (*models.Membership, error) {
	var membership models.Membership
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		First(&membership).Error; err != nil {
		return nil, translateError(err)
	}
	return &membership, nil
}

// ListByTenant lists all members of a tenant with their users
func (r *GormMembershipRepository) ListByTenant(ctx context.Context, tenantID string) ([]models.MemberWithUser, error) {
	var memberships []models.Membership
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC, id ASC").
		Find(&memberships).Error; err != nil {
		return nil, err
	}

	members := make([]models.MemberWithUser, 0, len(memberships))
	for _, m := range memberships {
		member := models.MemberWithUser{Membership: m}
		if m.User != nil {
			member.User = *m.User
		}
		member.Membership.User = nil
		members = append(members, member)
	}
	return members, nil
}

// ListByUser lists all memberships held by a user
func (r *GormMembershipRepository) ListByUser(ctx context.Context, userID string) ([]models.Membership, error) {
	memberships := []models.Membership{}
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// Update applies a partial role/status update
func (r *GormMembershipRepository) Update(ctx context.Context, id string, patch models.MembershipPatch) (*models.Membership, error) {
	var updated models.Membership
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&updated).Error; err != nil {
			return err
		}

		fields := map[string]interface{}{}
		if patch.Role != nil {
			fields["role"] = *patch.Role
			updated.Role = *patch.Role
		}
		if patch.Status != nil {
			fields["status"] = *patch.Status
			updated.Status = *patch.Status
		}
		if len(fields) == 0 {
			return nil
		}

		return tx.Model(&models.Membership{}).Where("id = ?", id).Updates(fields).Error
	})
	if err != nil {
		return nil, translateError(err)
	}
	return &updated, nil
}
