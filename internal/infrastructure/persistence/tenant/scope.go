// Package tenant provides multi-tenant database scoping for GORM.
//
// Two conventions coexist on purpose. Repositories pass an explicit
// shared.TenantScope and apply Scope(scope) themselves; that path is
// authoritative. In addition, GORM callbacks (see callback.go) read the org
// scope from the request context and inject an org_id filter into any query
// that does not already carry one, as a safety net against a repository that
// forgets to scope.
//
// Usage:
//
//	db.Scopes(tenant.Scope(scope)).Find(&leads) // WHERE org_id = ? [AND company_id = ?]
package tenant

import (
	"errors"

	"github.com/crmsuite/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrOrgIDRequired is returned when org_id is required but not found
var ErrOrgIDRequired = errors.New("org_id is required but not found in context")

// ErrInvalidOrgID is returned when org_id format is invalid
var ErrInvalidOrgID = errors.New("invalid org_id format")

// OrgScope applies mandatory organization filtering to GORM queries
func OrgScope(orgID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("org_id = ?", orgID)
	}
}

// Scope applies a full tenant scope: the mandatory org filter plus the
// company filter when the scope carries one. Records with a NULL company_id
// are org-level records and stay visible to every company scope within the
// org, matching how shared records behave across company boundaries.
func Scope(scope shared.TenantScope) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if scope.OrgID == uuid.Nil {
			_ = db.AddError(ErrOrgIDRequired)
			return db
		}
		db = db.Where("org_id = ?", scope.OrgID)
		if scope.HasCompany() {
			db = db.Where("(company_id = ? OR company_id IS NULL)", *scope.CompanyID)
		}
		return db
	}
}
