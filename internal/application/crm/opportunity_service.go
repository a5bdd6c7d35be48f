package crm

import (
	"context"

	"github.com/crmsuite/backend/internal/domain/crm"
	"github.com/crmsuite/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// OpportunityService handles opportunity business operations. All item
// mutations go through the aggregate root so header totals and item base
// amounts are recomputed in the same transaction as the item write.
type OpportunityService struct {
	oppRepo crm.OpportunityRepository
}

// NewOpportunityService creates a new OpportunityService
func NewOpportunityService(oppRepo crm.OpportunityRepository) *OpportunityService {
	return &OpportunityService{oppRepo: oppRepo}
}

// Create creates a new opportunity with optional initial items. The record
// is stamped from the caller's scope unless an elevated caller targets an
// explicit organization.
func (s *OpportunityService) Create(ctx context.Context, scope shared.TenantScope, req CreateOpportunityRequest) (*OpportunityResponse, error) {
	createScope, err := creationScope(scope, req.OrgID)
	if err != nil {
		return nil, err
	}

	opp, err := crm.NewOpportunity(createScope, req.Name, req.ConversionRate)
	if err != nil {
		return nil, err
	}

	for _, item := range req.Items {
		if _, err := opp.AddItem(item.ItemName, item.Rate, item.Qty); err != nil {
			return nil, err
		}
	}

	if err := s.oppRepo.Save(ctx, opp); err != nil {
		return nil, err
	}

	response := ToOpportunityResponse(opp)
	return &response, nil
}

// GetByID retrieves an opportunity by ID
func (s *OpportunityService) GetByID(ctx context.Context, scope shared.TenantScope, oppID uuid.UUID) (*OpportunityResponse, error) {
	opp, err := s.oppRepo.FindByID(ctx, scope, oppID)
	if err != nil {
		return nil, err
	}
	response := ToOpportunityResponse(opp)
	return &response, nil
}

// List retrieves opportunities with filtering and pagination
func (s *OpportunityService) List(ctx context.Context, scope shared.TenantScope, filter OpportunityListFilter) ([]OpportunityResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	domainFilter.Search = filter.Search
	if filter.SalesStage != nil {
		domainFilter.Filters["sales_stage"] = string(*filter.SalesStage)
	}

	opps, err := s.oppRepo.FindAll(ctx, scope, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.oppRepo.Count(ctx, scope, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]OpportunityResponse, 0, len(opps))
	for idx := range opps {
		responses = append(responses, ToOpportunityResponse(&opps[idx]))
	}
	return responses, total, nil
}

// Update applies header-level changes. Changing the conversion rate rederives
// every item's base amounts and the totals.
func (s *OpportunityService) Update(ctx context.Context, scope shared.TenantScope, oppID uuid.UUID, req UpdateOpportunityRequest) (*OpportunityResponse, error) {
	opp, err := s.oppRepo.FindByID(ctx, scope, oppID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := opp.Rename(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.SalesStage != nil {
		if err := opp.SetSalesStage(*req.SalesStage); err != nil {
			return nil, err
		}
	}
	if req.ConversionRate != nil {
		if err := opp.SetConversionRate(*req.ConversionRate); err != nil {
			return nil, err
		}
	}

	if err := s.oppRepo.Save(ctx, opp); err != nil {
		return nil, err
	}

	response := ToOpportunityResponse(opp)
	return &response, nil
}

// AddItem adds a line item to an opportunity
func (s *OpportunityService) AddItem(ctx context.Context, scope shared.TenantScope, oppID uuid.UUID, req OpportunityItemInput) (*OpportunityResponse, error) {
	opp, err := s.oppRepo.FindByID(ctx, scope, oppID)
	if err != nil {
		return nil, err
	}

	if _, err := opp.AddItem(req.ItemName, req.Rate, req.Qty); err != nil {
		return nil, err
	}

	if err := s.oppRepo.Save(ctx, opp); err != nil {
		return nil, err
	}

	response := ToOpportunityResponse(opp)
	return &response, nil
}

// UpdateItem changes the rate or quantity of a line item
func (s *OpportunityService) UpdateItem(ctx context.Context, scope shared.TenantScope, oppID, itemID uuid.UUID, req OpportunityItemInput) (*OpportunityResponse, error) {
	opp, err := s.oppRepo.FindByID(ctx, scope, oppID)
	if err != nil {
		return nil, err
	}

	if err := opp.UpdateItem(itemID, req.Rate, req.Qty); err != nil {
		return nil, err
	}
	if req.ItemName != "" {
		if err := opp.RenameItem(itemID, req.ItemName); err != nil {
			return nil, err
		}
	}

	if err := s.oppRepo.Save(ctx, opp); err != nil {
		return nil, err
	}

	response := ToOpportunityResponse(opp)
	return &response, nil
}

// RemoveItem removes a line item from an opportunity
func (s *OpportunityService) RemoveItem(ctx context.Context, scope shared.TenantScope, oppID, itemID uuid.UUID) (*OpportunityResponse, error) {
	opp, err := s.oppRepo.FindByID(ctx, scope, oppID)
	if err != nil {
		return nil, err
	}

	if err := opp.RemoveItem(itemID); err != nil {
		return nil, err
	}

	if err := s.oppRepo.Save(ctx, opp); err != nil {
		return nil, err
	}

	response := ToOpportunityResponse(opp)
	return &response, nil
}

// Delete removes an opportunity with its items
func (s *OpportunityService) Delete(ctx context.Context, scope shared.TenantScope, oppID uuid.UUID) error {
	return s.oppRepo.Delete(ctx, scope, oppID)
}
