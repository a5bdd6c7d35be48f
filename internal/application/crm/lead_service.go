package crm

import (
	"context"

	"github.com/crmsuite/backend/internal/domain/crm"
	"github.com/crmsuite/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// LeadService handles lead business operations
type LeadService struct {
	leadRepo crm.LeadRepository
}

// NewLeadService creates a new LeadService
func NewLeadService(leadRepo crm.LeadRepository) *LeadService {
	return &LeadService{leadRepo: leadRepo}
}

// Create creates a new lead. The record is stamped from the caller's scope
// unless an elevated caller targets an explicit organization.
func (s *LeadService) Create(ctx context.Context, scope shared.TenantScope, req CreateLeadRequest) (*LeadResponse, error) {
	createScope, err := creationScope(scope, req.OrgID)
	if err != nil {
		return nil, err
	}

	name := crm.LeadName{
		Salutation:  req.Salutation,
		FirstName:   req.FirstName,
		MiddleName:  req.MiddleName,
		LastName:    req.LastName,
		CompanyName: req.CompanyName,
	}

	lead, err := crm.NewLead(createScope, name, req.Email, req.Phone)
	if err != nil {
		return nil, err
	}
	if req.Source != "" {
		lead.SetSource(req.Source)
	}
	if req.Notes != "" {
		lead.SetNotes(req.Notes)
	}

	if err := s.leadRepo.Save(ctx, lead); err != nil {
		return nil, err
	}

	response := ToLeadResponse(lead)
	return &response, nil
}

// GetByID retrieves a lead by ID
func (s *LeadService) GetByID(ctx context.Context, scope shared.TenantScope, leadID uuid.UUID) (*LeadResponse, error) {
	lead, err := s.leadRepo.FindByID(ctx, scope, leadID)
	if err != nil {
		return nil, err
	}
	response := ToLeadResponse(lead)
	return &response, nil
}

// List retrieves leads with filtering and pagination
func (s *LeadService) List(ctx context.Context, scope shared.TenantScope, filter LeadListFilter) ([]LeadResponse, int64, error) {
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
	if filter.Status != nil {
		domainFilter.Filters["status"] = string(*filter.Status)
	}

	leads, err := s.leadRepo.FindAll(ctx, scope, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.leadRepo.Count(ctx, scope, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]LeadResponse, 0, len(leads))
	for idx := range leads {
		responses = append(responses, ToLeadResponse(&leads[idx]))
	}
	return responses, total, nil
}

// Update replaces the mutable fields of a lead and rederives its display name
func (s *LeadService) Update(ctx context.Context, scope shared.TenantScope, leadID uuid.UUID, req UpdateLeadRequest) (*LeadResponse, error) {
	lead, err := s.leadRepo.FindByID(ctx, scope, leadID)
	if err != nil {
		return nil, err
	}

	lead.UpdateName(crm.LeadName{
		Salutation:  req.Salutation,
		FirstName:   req.FirstName,
		MiddleName:  req.MiddleName,
		LastName:    req.LastName,
		CompanyName: req.CompanyName,
	})
	if err := lead.SetContact(req.Email, req.Phone); err != nil {
		return nil, err
	}
	lead.SetSource(req.Source)
	lead.SetNotes(req.Notes)

	if err := s.leadRepo.Save(ctx, lead); err != nil {
		return nil, err
	}

	response := ToLeadResponse(lead)
	return &response, nil
}

// UpdateStatus moves a lead to a new status
func (s *LeadService) UpdateStatus(ctx context.Context, scope shared.TenantScope, leadID uuid.UUID, status crm.LeadStatus) (*LeadResponse, error) {
	lead, err := s.leadRepo.FindByID(ctx, scope, leadID)
	if err != nil {
		return nil, err
	}

	if err := lead.SetStatus(status); err != nil {
		return nil, err
	}

	if err := s.leadRepo.Save(ctx, lead); err != nil {
		return nil, err
	}

	response := ToLeadResponse(lead)
	return &response, nil
}

// Delete removes a lead
func (s *LeadService) Delete(ctx context.Context, scope shared.TenantScope, leadID uuid.UUID) error {
	return s.leadRepo.Delete(ctx, scope, leadID)
}
