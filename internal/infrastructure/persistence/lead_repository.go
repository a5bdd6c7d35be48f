package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/crmsuite/backend/internal/domain/crm"
	"github.com/crmsuite/backend/internal/domain/shared"
	"github.com/crmsuite/backend/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LeadSortFields contains allowed sort fields for leads
var LeadSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"lead_name":    true,
	"company_name": true,
	"email":        true,
	"status":       true,
	"source":       true,
}

// GormLeadRepository implements crm.LeadRepository using GORM
type GormLeadRepository struct {
	db *gorm.DB
}

// NewGormLeadRepository creates a new GormLeadRepository
func NewGormLeadRepository(db *gorm.DB) *GormLeadRepository {
	return &GormLeadRepository{db: db}
}

// FindByID finds a lead by ID within the tenant scope. A lead belonging to a
// different org is reported as not found, never as forbidden.
func (r *GormLeadRepository) FindByID(ctx context.Context, scope shared.TenantScope, id uuid.UUID) (*crm.Lead, error) {
	var lead crm.Lead
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(scope)).
		First(&lead, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &lead, nil
}

// FindAll finds leads in the tenant scope with filtering and pagination
func (r *GormLeadRepository) FindAll(ctx context.Context, scope shared.TenantScope, filter shared.Filter) ([]crm.Lead, error) {
	var leads []crm.Lead
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&crm.Lead{}).Scopes(tenant.Scope(scope)),
		filter,
	)

	if err := query.Find(&leads).Error; err != nil {
		return nil, err
	}
	return leads, nil
}

// Count counts leads in the tenant scope matching the filter
func (r *GormLeadRepository) Count(ctx context.Context, scope shared.TenantScope, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&crm.Lead{}).Scopes(tenant.Scope(scope)),
		filter,
	)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a lead
func (r *GormLeadRepository) Save(ctx context.Context, lead *crm.Lead) error {
	return r.db.WithContext(ctx).Save(lead).Error
}

// Delete removes a lead within the tenant scope
func (r *GormLeadRepository) Delete(ctx context.Context, scope shared.TenantScope, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Scopes(tenant.Scope(scope)).
		Delete(&crm.Lead{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormLeadRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, LeadSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// applyFilterWithoutPagination applies search and field filters only
func (r *GormLeadRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + strings.TrimSpace(filter.Search) + "%"
		query = query.Where("lead_name ILIKE ? OR company_name ILIKE ? OR email ILIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "source":
			query = query.Where("source = ?", value)
		}
	}

	return query
}
