package crm

import (
	"github.com/crmsuite/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// creationScope resolves the scope a new record is stamped from. Create
// requests may target an explicit organization; a regular scope may only
// target its own, an elevated scope may target any. The resolved scope for a
// foreign organization carries no company sub-scope, since company IDs are
// not meaningful across organizations.
func creationScope(scope shared.TenantScope, orgID *uuid.UUID) (shared.TenantScope, error) {
	if orgID == nil || *orgID == scope.OrgID {
		return scope, nil
	}
	if !scope.CanCreateFor(*orgID) {
		return shared.TenantScope{}, shared.ErrCrossTenantWrite
	}
	return shared.NewTenantScope(*orgID), nil
}
