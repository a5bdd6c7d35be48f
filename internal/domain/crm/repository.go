package crm

import (
	"context"

	"github.com/crmsuite/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// LeadRepository defines persistence operations for leads.
// Every read and delete is constrained to the given tenant scope; a record
// outside the scope behaves exactly as if it did not exist.
type LeadRepository interface {
	FindByID(ctx context.Context, scope shared.TenantScope, id uuid.UUID) (*Lead, error)
	FindAll(ctx context.Context, scope shared.TenantScope, filter shared.Filter) ([]Lead, error)
	Count(ctx context.Context, scope shared.TenantScope, filter shared.Filter) (int64, error)
	Save(ctx context.Context, lead *Lead) error
	Delete(ctx context.Context, scope shared.TenantScope, id uuid.UUID) error
}

// OpportunityRepository defines persistence operations for opportunities.
// Save persists the aggregate and its items in a single transaction so the
// derived totals are never visible half-updated.
type OpportunityRepository interface {
	FindByID(ctx context.Context, scope shared.TenantScope, id uuid.UUID) (*Opportunity, error)
	FindAll(ctx context.Context, scope shared.TenantScope, filter shared.Filter) ([]Opportunity, error)
	Count(ctx context.Context, scope shared.TenantScope, filter shared.Filter) (int64, error)
	Save(ctx context.Context, opportunity *Opportunity) error
	Delete(ctx context.Context, scope shared.TenantScope, id uuid.UUID) error
}

// ContractRepository defines persistence operations for contracts.
// Save persists the aggregate and its fulfilment checklist in a single
// transaction.
type ContractRepository interface {
	FindByID(ctx context.Context, scope shared.TenantScope, id uuid.UUID) (*Contract, error)
	FindAll(ctx context.Context, scope shared.TenantScope, filter shared.Filter) ([]Contract, error)
	Count(ctx context.Context, scope shared.TenantScope, filter shared.Filter) (int64, error)
	Save(ctx context.Context, contract *Contract) error
	Delete(ctx context.Context, scope shared.TenantScope, id uuid.UUID) error
}
