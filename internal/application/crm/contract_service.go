package crm

import (
	"context"
	"time"

	"github.com/crmsuite/backend/internal/domain/crm"
	"github.com/crmsuite/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ContractService handles contract business operations. Every checklist
// mutation re-saves the parent contract so the derived fulfilment status is
// recomputed in the same transaction as the checklist write.
type ContractService struct {
	contractRepo crm.ContractRepository
	now          func() time.Time
}

// NewContractService creates a new ContractService
func NewContractService(contractRepo crm.ContractRepository) *ContractService {
	return &ContractService{
		contractRepo: contractRepo,
		now:          time.Now,
	}
}

// Create creates a new contract. The record is stamped from the caller's
// scope unless an elevated caller targets an explicit organization.
func (s *ContractService) Create(ctx context.Context, scope shared.TenantScope, req CreateContractRequest) (*ContractResponse, error) {
	createScope, err := creationScope(scope, req.OrgID)
	if err != nil {
		return nil, err
	}

	contract, err := crm.NewContract(createScope, req.PartyName)
	if err != nil {
		return nil, err
	}
	if err := contract.SetPeriod(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}
	contract.SetRequiresFulfilment(req.RequiresFulfilment)
	if req.Terms != "" {
		contract.SetTerms(req.Terms)
	}
	contract.Refresh(s.now())

	if err := s.contractRepo.Save(ctx, contract); err != nil {
		return nil, err
	}

	response := ToContractResponse(contract)
	return &response, nil
}

// GetByID retrieves a contract by ID. The derived status is refreshed on read
// so an end date passing between writes is reflected without a mutation.
func (s *ContractService) GetByID(ctx context.Context, scope shared.TenantScope, contractID uuid.UUID) (*ContractResponse, error) {
	contract, err := s.contractRepo.FindByID(ctx, scope, contractID)
	if err != nil {
		return nil, err
	}
	contract.Refresh(s.now())
	response := ToContractResponse(contract)
	return &response, nil
}

// List retrieves contracts with filtering and pagination
func (s *ContractService) List(ctx context.Context, scope shared.TenantScope, filter ContractListFilter) ([]ContractResponse, int64, error) {
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

	contracts, err := s.contractRepo.FindAll(ctx, scope, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.contractRepo.Count(ctx, scope, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	now := s.now()
	responses := make([]ContractResponse, 0, len(contracts))
	for idx := range contracts {
		contracts[idx].Refresh(now)
		responses = append(responses, ToContractResponse(&contracts[idx]))
	}
	return responses, total, nil
}

// Update applies header-level changes and rederives the contract's status
func (s *ContractService) Update(ctx context.Context, scope shared.TenantScope, contractID uuid.UUID, req UpdateContractRequest) (*ContractResponse, error) {
	contract, err := s.contractRepo.FindByID(ctx, scope, contractID)
	if err != nil {
		return nil, err
	}

	if req.PartyName != nil {
		if err := contract.SetPartyName(*req.PartyName); err != nil {
			return nil, err
		}
	}
	if req.StartDate != nil || req.EndDate != nil {
		start := contract.StartDate
		end := contract.EndDate
		if req.StartDate != nil {
			start = req.StartDate
		}
		if req.EndDate != nil {
			end = req.EndDate
		}
		if err := contract.SetPeriod(start, end); err != nil {
			return nil, err
		}
	}
	if req.RequiresFulfilment != nil {
		contract.SetRequiresFulfilment(*req.RequiresFulfilment)
	}
	if req.Terms != nil {
		contract.SetTerms(*req.Terms)
	}
	contract.Refresh(s.now())

	if err := s.contractRepo.Save(ctx, contract); err != nil {
		return nil, err
	}

	response := ToContractResponse(contract)
	return &response, nil
}

// Sign marks the contract as signed and rederives its status
func (s *ContractService) Sign(ctx context.Context, scope shared.TenantScope, contractID uuid.UUID, signedOn time.Time) (*ContractResponse, error) {
	contract, err := s.contractRepo.FindByID(ctx, scope, contractID)
	if err != nil {
		return nil, err
	}

	if err := contract.Sign(signedOn); err != nil {
		return nil, err
	}

	if err := s.contractRepo.Save(ctx, contract); err != nil {
		return nil, err
	}

	response := ToContractResponse(contract)
	return &response, nil
}

// Cancel cancels the contract. Cancellation is terminal: no later derivation
// ever moves the contract out of cancelled.
func (s *ContractService) Cancel(ctx context.Context, scope shared.TenantScope, contractID uuid.UUID) (*ContractResponse, error) {
	contract, err := s.contractRepo.FindByID(ctx, scope, contractID)
	if err != nil {
		return nil, err
	}

	if err := contract.Cancel(); err != nil {
		return nil, err
	}

	if err := s.contractRepo.Save(ctx, contract); err != nil {
		return nil, err
	}

	response := ToContractResponse(contract)
	return &response, nil
}

// AddChecklistItem appends a fulfilment requirement and rederives the parent's
// fulfilment status
func (s *ContractService) AddChecklistItem(ctx context.Context, scope shared.TenantScope, contractID uuid.UUID, requirement string) (*ContractResponse, error) {
	contract, err := s.contractRepo.FindByID(ctx, scope, contractID)
	if err != nil {
		return nil, err
	}

	if _, err := contract.AddChecklistItem(requirement); err != nil {
		return nil, err
	}

	if err := s.contractRepo.Save(ctx, contract); err != nil {
		return nil, err
	}

	response := ToContractResponse(contract)
	return &response, nil
}

// SetChecklistItemFulfilled marks a checklist item fulfilled or unfulfilled
// and rederives the parent's fulfilment status
func (s *ContractService) SetChecklistItemFulfilled(ctx context.Context, scope shared.TenantScope, contractID, itemID uuid.UUID, fulfilled bool) (*ContractResponse, error) {
	contract, err := s.contractRepo.FindByID(ctx, scope, contractID)
	if err != nil {
		return nil, err
	}

	if err := contract.SetChecklistItemFulfilled(itemID, fulfilled); err != nil {
		return nil, err
	}

	if err := s.contractRepo.Save(ctx, contract); err != nil {
		return nil, err
	}

	response := ToContractResponse(contract)
	return &response, nil
}

// RemoveChecklistItem deletes a checklist item and rederives the parent's
// fulfilment status
func (s *ContractService) RemoveChecklistItem(ctx context.Context, scope shared.TenantScope, contractID, itemID uuid.UUID) (*ContractResponse, error) {
	contract, err := s.contractRepo.FindByID(ctx, scope, contractID)
	if err != nil {
		return nil, err
	}

	if err := contract.RemoveChecklistItem(itemID); err != nil {
		return nil, err
	}

	if err := s.contractRepo.Save(ctx, contract); err != nil {
		return nil, err
	}

	response := ToContractResponse(contract)
	return &response, nil
}

// Delete removes a contract with its checklist
func (s *ContractService) Delete(ctx context.Context, scope shared.TenantScope, contractID uuid.UUID) error {
	return s.contractRepo.Delete(ctx, scope, contractID)
}
