package shared

import (
	"github.com/google/uuid"
)

// TenantScope identifies the tenant partition an operation acts on.
// OrgID is mandatory for every tenant-scoped operation; CompanyID narrows
// visibility to a company sub-scope within the organization when the acting
// user belongs to one. Elevated scopes (superadmin) may create records for an
// explicit organization other than their own; nothing else bypasses scoping.
type TenantScope struct {
	OrgID     uuid.UUID
	CompanyID *uuid.UUID
	Elevated  bool
}

// NewTenantScope creates a scope for the given organization
func NewTenantScope(orgID uuid.UUID) TenantScope {
	return TenantScope{OrgID: orgID}
}

// WithCompany narrows the scope to a company within the organization
func (s TenantScope) WithCompany(companyID uuid.UUID) TenantScope {
	s.CompanyID = &companyID
	return s
}

// Elevate marks the scope as elevated. Only authenticated superadmin
// credentials may produce an elevated scope.
func (s TenantScope) Elevate() TenantScope {
	s.Elevated = true
	return s
}

// Validate checks that the scope can be used for tenant-scoped operations
func (s TenantScope) Validate() error {
	if s.OrgID == uuid.Nil {
		return ErrOrgScopeRequired
	}
	return nil
}

// HasCompany reports whether the scope carries a company sub-scope
func (s TenantScope) HasCompany() bool {
	return s.CompanyID != nil && *s.CompanyID != uuid.Nil
}

// CanCreateFor reports whether the scope may create a record owned by orgID.
// A regular scope may only create within its own organization; an elevated
// scope may target any organization.
func (s TenantScope) CanCreateFor(orgID uuid.UUID) bool {
	if s.Elevated {
		return true
	}
	return s.OrgID == orgID
}
