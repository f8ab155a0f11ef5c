package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/tradesdesk/workspace-api/internal/database"
	"github.com/tradesdesk/workspace-api/internal/models"
	"github.com/tradesdesk/workspace-api/internal/utils"
	"gorm.io/gorm"
)

// GormTenantRepository is a GORM implementation of TenantRepository
type GormTenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository creates a new TenantRepository
func NewTenantRepository(db *gorm.DB) TenantRepository {
	return &GormTenantRepository{db: db}
}

// Create creates a new tenant
func (r *GormTenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	if tenant.ID == "" {
		tenant.ID = uuid.NewString()
	}
	return translateError(r.db.WithContext(ctx).Create(tenant).Error)
}

// FindByID finds a tenant by ID
func (r *GormTenantRepository) FindByID(ctx context.Context, id string) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&tenant).Error; err != nil {
		return nil, translateError(err)
	}
	return &tenant, nil
}

// List returns a page of tenants and the total number of tenants
func (r *GormTenantRepository) List(ctx context.Context, params utils.PaginationParams) ([]models.Tenant, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Tenant{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tenants []models.Tenant
	if err := r.db.WithContext(ctx).
		Scopes(database.Paginate(params)).
		Order("created_at ASC, id ASC").
		Find(&tenants).Error; err != nil {
		return nil, 0, err
	}
	return tenants, total, nil
}
