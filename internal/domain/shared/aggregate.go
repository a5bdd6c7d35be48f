package shared

import (
	"github.com/google/uuid"
)

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
}

// BaseAggregateRoot provides common fields for aggregate roots
type BaseAggregateRoot struct {
	BaseEntity
	Version int `gorm:"not null;default:1"`
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}

// TenantAggregateRoot extends BaseAggregateRoot with multi-tenant ownership.
// OrgID is set once at creation and never reassigned; CompanyID is an optional
// sub-scope within the organization. Update paths must not move a record to a
// different tenant.
type TenantAggregateRoot struct {
	BaseAggregateRoot
	OrgID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	CompanyID *uuid.UUID `gorm:"type:uuid;index"`
}

// NewTenantAggregateRoot creates a new tenant-scoped aggregate root stamped
// from the acting scope
func NewTenantAggregateRoot(scope TenantScope) TenantAggregateRoot {
	root := TenantAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		OrgID:             scope.OrgID,
	}
	if scope.HasCompany() {
		companyID := *scope.CompanyID
		root.CompanyID = &companyID
	}
	return root
}

// OwnedBy reports whether the record belongs to the given organization
func (t *TenantAggregateRoot) OwnedBy(orgID uuid.UUID) bool {
	return t.OrgID == orgID
}
