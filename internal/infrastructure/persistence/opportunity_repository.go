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

// OpportunitySortFields contains allowed sort fields for opportunities
var OpportunitySortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"name":        true,
	"sales_stage": true,
	"total":       true,
	"base_total":  true,
}

// GormOpportunityRepository implements crm.OpportunityRepository using GORM
type GormOpportunityRepository struct {
	db *gorm.DB
}

// NewGormOpportunityRepository creates a new GormOpportunityRepository
func NewGormOpportunityRepository(db *gorm.DB) *GormOpportunityRepository {
	return &GormOpportunityRepository{db: db}
}

// FindByID finds an opportunity with its items within the tenant scope
func (r *GormOpportunityRepository) FindByID(ctx context.Context, scope shared.TenantScope, id uuid.UUID) (*crm.Opportunity, error) {
	var opp crm.Opportunity
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Scopes(tenant.Scope(scope)).
		First(&opp, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &opp, nil
}

// FindAll finds opportunities in the tenant scope with filtering and pagination
func (r *GormOpportunityRepository) FindAll(ctx context.Context, scope shared.TenantScope, filter shared.Filter) ([]crm.Opportunity, error) {
	var opps []crm.Opportunity
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&crm.Opportunity{}).
			Preload("Items").
			Scopes(tenant.Scope(scope)),
		filter,
	)

	if err := query.Find(&opps).Error; err != nil {
		return nil, err
	}
	return opps, nil
}

// Count counts opportunities in the tenant scope matching the filter
func (r *GormOpportunityRepository) Count(ctx context.Context, scope shared.TenantScope, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&crm.Opportunity{}).Scopes(tenant.Scope(scope)),
		filter,
	)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates an opportunity with its items in one transaction.
// Items removed from the aggregate are deleted so the persisted children
// always mirror the in-memory aggregate the totals were derived from.
func (r *GormOpportunityRepository) Save(ctx context.Context, opp *crm.Opportunity) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(opp).Error; err != nil {
			return err
		}

		currentItemIDs := make([]uuid.UUID, len(opp.Items))
		for i, item := range opp.Items {
			currentItemIDs[i] = item.ID
		}

		if len(currentItemIDs) > 0 {
			if err := tx.Where("opportunity_id = ? AND id NOT IN ?", opp.ID, currentItemIDs).
				Delete(&crm.OpportunityItem{}).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("opportunity_id = ?", opp.ID).
				Delete(&crm.OpportunityItem{}).Error; err != nil {
				return err
			}
		}

		for i := range opp.Items {
			opp.Items[i].OpportunityID = opp.ID
			if err := tx.Save(&opp.Items[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// Delete removes an opportunity and its items within the tenant scope
func (r *GormOpportunityRepository) Delete(ctx context.Context, scope shared.TenantScope, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var opp crm.Opportunity
		if err := tx.Scopes(tenant.Scope(scope)).
			First(&opp, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if err := tx.Where("opportunity_id = ?", id).
			Delete(&crm.OpportunityItem{}).Error; err != nil {
			return err
		}

		return tx.Delete(&crm.Opportunity{}, "id = ?", id).Error
	})
}

// applyFilter applies filter options to the query
func (r *GormOpportunityRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, OpportunitySortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// applyFilterWithoutPagination applies search and field filters only
func (r *GormOpportunityRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + strings.TrimSpace(filter.Search) + "%"
		query = query.Where("name ILIKE ?", searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "sales_stage":
			query = query.Where("sales_stage = ?", value)
		}
	}

	return query
}
