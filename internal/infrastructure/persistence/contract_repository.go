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

// ContractSortFields contains allowed sort fields for contracts
var ContractSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"party_name": true,
	"status":     true,
	"start_date": true,
	"end_date":   true,
	"signed_on":  true,
}

// GormContractRepository implements crm.ContractRepository using GORM
type GormContractRepository struct {
	db *gorm.DB
}

// NewGormContractRepository creates a new GormContractRepository
func NewGormContractRepository(db *gorm.DB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

// FindByID finds a contract with its checklist within the tenant scope
func (r *GormContractRepository) FindByID(ctx context.Context, scope shared.TenantScope, id uuid.UUID) (*crm.Contract, error) {
	var contract crm.Contract
	if err := r.db.WithContext(ctx).
		Preload("Checklist").
		Scopes(tenant.Scope(scope)).
		First(&contract, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &contract, nil
}

// FindAll finds contracts in the tenant scope with filtering and pagination
func (r *GormContractRepository) FindAll(ctx context.Context, scope shared.TenantScope, filter shared.Filter) ([]crm.Contract, error) {
	var contracts []crm.Contract
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&crm.Contract{}).
			Preload("Checklist").
			Scopes(tenant.Scope(scope)),
		filter,
	)

	if err := query.Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

// Count counts contracts in the tenant scope matching the filter
func (r *GormContractRepository) Count(ctx context.Context, scope shared.TenantScope, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&crm.Contract{}).Scopes(tenant.Scope(scope)),
		filter,
	)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a contract with its checklist in one transaction.
// The checklist and the contract's derived fulfilment status are written
// together so readers never observe one without the other.
func (r *GormContractRepository) Save(ctx context.Context, contract *crm.Contract) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Checklist").Save(contract).Error; err != nil {
			return err
		}

		currentItemIDs := make([]uuid.UUID, len(contract.Checklist))
		for i, item := range contract.Checklist {
			currentItemIDs[i] = item.ID
		}

		if len(currentItemIDs) > 0 {
			if err := tx.Where("contract_id = ? AND id NOT IN ?", contract.ID, currentItemIDs).
				Delete(&crm.FulfilmentChecklistItem{}).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("contract_id = ?", contract.ID).
				Delete(&crm.FulfilmentChecklistItem{}).Error; err != nil {
				return err
			}
		}

		for i := range contract.Checklist {
			contract.Checklist[i].ContractID = contract.ID
			if err := tx.Save(&contract.Checklist[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// Delete removes a contract and its checklist within the tenant scope
func (r *GormContractRepository) Delete(ctx context.Context, scope shared.TenantScope, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var contract crm.Contract
		if err := tx.Scopes(tenant.Scope(scope)).
			First(&contract, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if err := tx.Where("contract_id = ?", id).
			Delete(&crm.FulfilmentChecklistItem{}).Error; err != nil {
			return err
		}

		return tx.Delete(&crm.Contract{}, "id = ?", id).Error
	})
}

// applyFilter applies filter options to the query
func (r *GormContractRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, ContractSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// applyFilterWithoutPagination applies search and field filters only
func (r *GormContractRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + strings.TrimSpace(filter.Search) + "%"
		query = query.Where("party_name ILIKE ?", searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "fulfilment_status":
			query = query.Where("fulfilment_status = ?", value)
		}
	}

	return query
}
