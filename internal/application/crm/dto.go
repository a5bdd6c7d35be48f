package crm

import (
	"time"

	"github.com/crmsuite/backend/internal/domain/crm"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateLeadRequest carries the fields for creating a lead. OrgID optionally
// targets an organization other than the caller's own; only elevated scopes
// may use it.
type CreateLeadRequest struct {
	OrgID       *uuid.UUID
	Salutation  string
	FirstName   string
	MiddleName  string
	LastName    string
	CompanyName string
	Email       string
	Phone       string
	Source      string
	Notes       string
}

// UpdateLeadRequest carries the fields for updating a lead.
// Derived fields (lead_name, title) are intentionally absent: they are
// recomputed, never accepted from callers.
type UpdateLeadRequest struct {
	Salutation  string
	FirstName   string
	MiddleName  string
	LastName    string
	CompanyName string
	Email       string
	Phone       string
	Source      string
	Notes       string
}

// LeadListFilter carries list filtering options for leads
type LeadListFilter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Status   *crm.LeadStatus
}

// LeadResponse is the application-level representation of a lead
type LeadResponse struct {
	ID          string    `json:"id"`
	OrgID       string    `json:"org_id"`
	CompanyID   *string   `json:"company_id,omitempty"`
	Salutation  string    `json:"salutation,omitempty"`
	FirstName   string    `json:"first_name,omitempty"`
	MiddleName  string    `json:"middle_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	CompanyName string    `json:"company_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Source      string    `json:"source,omitempty"`
	Status      string    `json:"status"`
	LeadName    string    `json:"lead_name"`
	Title       string    `json:"title"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int       `json:"version"`
}

// ToLeadResponse maps a lead aggregate to its response representation
func ToLeadResponse(lead *crm.Lead) LeadResponse {
	return LeadResponse{
		ID:          lead.ID.String(),
		OrgID:       lead.OrgID.String(),
		CompanyID:   uuidPtrToString(lead.CompanyID),
		Salutation:  lead.Salutation,
		FirstName:   lead.FirstName,
		MiddleName:  lead.MiddleName,
		LastName:    lead.LastName,
		CompanyName: lead.CompanyName,
		Email:       lead.Email,
		Phone:       lead.Phone,
		Source:      lead.Source,
		Status:      lead.Status.String(),
		LeadName:    lead.LeadName,
		Title:       lead.Title,
		Notes:       lead.Notes,
		CreatedAt:   lead.CreatedAt,
		UpdatedAt:   lead.UpdatedAt,
		Version:     lead.Version,
	}
}

// OpportunityItemInput carries the fields for an opportunity line item
type OpportunityItemInput struct {
	ItemName string
	Rate     decimal.Decimal
	Qty      decimal.Decimal
}

// CreateOpportunityRequest carries the fields for creating an opportunity.
// OrgID optionally targets another organization (elevated scopes only).
type CreateOpportunityRequest struct {
	OrgID          *uuid.UUID
	Name           string
	ConversionRate decimal.Decimal
	Items          []OpportunityItemInput
}

// UpdateOpportunityRequest carries the updatable opportunity header fields
type UpdateOpportunityRequest struct {
	Name           *string
	SalesStage     *crm.SalesStage
	ConversionRate *decimal.Decimal
}

// OpportunityListFilter carries list filtering options for opportunities
type OpportunityListFilter struct {
	Page       int
	PageSize   int
	OrderBy    string
	OrderDir   string
	Search     string
	SalesStage *crm.SalesStage
}

// OpportunityItemResponse is the application-level representation of a line item
type OpportunityItemResponse struct {
	ID         string    `json:"id"`
	ItemName   string    `json:"item_name"`
	Rate       string    `json:"rate"`
	Qty        string    `json:"qty"`
	Amount     string    `json:"amount"`
	BaseRate   string    `json:"base_rate"`
	BaseAmount string    `json:"base_amount"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// OpportunityResponse is the application-level representation of an opportunity
type OpportunityResponse struct {
	ID             string                    `json:"id"`
	OrgID          string                    `json:"org_id"`
	CompanyID      *string                   `json:"company_id,omitempty"`
	Name           string                    `json:"name"`
	SalesStage     string                    `json:"sales_stage"`
	ConversionRate string                    `json:"conversion_rate"`
	Items          []OpportunityItemResponse `json:"items"`
	Total          string                    `json:"total"`
	BaseTotal      string                    `json:"base_total"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
	Version        int                       `json:"version"`
}

// ToOpportunityResponse maps an opportunity aggregate to its response
// representation
func ToOpportunityResponse(opp *crm.Opportunity) OpportunityResponse {
	items := make([]OpportunityItemResponse, 0, len(opp.Items))
	for idx := range opp.Items {
		items = append(items, ToOpportunityItemResponse(&opp.Items[idx]))
	}
	return OpportunityResponse{
		ID:             opp.ID.String(),
		OrgID:          opp.OrgID.String(),
		CompanyID:      uuidPtrToString(opp.CompanyID),
		Name:           opp.Name,
		SalesStage:     opp.SalesStage.String(),
		ConversionRate: opp.ConversionRate.StringFixed(4),
		Items:          items,
		Total:          opp.Total.StringFixed(2),
		BaseTotal:      opp.BaseTotal.StringFixed(2),
		CreatedAt:      opp.CreatedAt,
		UpdatedAt:      opp.UpdatedAt,
		Version:        opp.Version,
	}
}

// ToOpportunityItemResponse maps a line item to its response representation
func ToOpportunityItemResponse(item *crm.OpportunityItem) OpportunityItemResponse {
	return OpportunityItemResponse{
		ID:         item.ID.String(),
		ItemName:   item.ItemName,
		Rate:       item.Rate.StringFixed(2),
		Qty:        item.Qty.String(),
		Amount:     item.Amount.StringFixed(2),
		BaseRate:   item.BaseRate.StringFixed(2),
		BaseAmount: item.BaseAmount.StringFixed(2),
		CreatedAt:  item.CreatedAt,
		UpdatedAt:  item.UpdatedAt,
	}
}

// CreateContractRequest carries the fields for creating a contract.
// OrgID optionally targets another organization (elevated scopes only).
type CreateContractRequest struct {
	OrgID              *uuid.UUID
	PartyName          string
	RequiresFulfilment bool
	StartDate          *time.Time
	EndDate            *time.Time
	Terms              string
}

// UpdateContractRequest carries the updatable contract header fields.
// Status and fulfilment status are derived and cannot be set here; Cancel is
// a dedicated operation.
type UpdateContractRequest struct {
	PartyName          *string
	RequiresFulfilment *bool
	StartDate          *time.Time
	EndDate            *time.Time
	Terms              *string
}

// ContractListFilter carries list filtering options for contracts
type ContractListFilter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Status   *crm.ContractStatus
}

// ChecklistItemResponse is the application-level representation of a
// fulfilment checklist item
type ChecklistItemResponse struct {
	ID          string    `json:"id"`
	Requirement string    `json:"requirement"`
	Fulfilled   bool      `json:"fulfilled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ContractResponse is the application-level representation of a contract
type ContractResponse struct {
	ID                 string                  `json:"id"`
	OrgID              string                  `json:"org_id"`
	CompanyID          *string                 `json:"company_id,omitempty"`
	PartyName          string                  `json:"party_name"`
	IsSigned           bool                    `json:"is_signed"`
	SignedOn           *time.Time              `json:"signed_on,omitempty"`
	StartDate          *time.Time              `json:"start_date,omitempty"`
	EndDate            *time.Time              `json:"end_date,omitempty"`
	Status             string                  `json:"status"`
	RequiresFulfilment bool                    `json:"requires_fulfilment"`
	FulfilmentStatus   string                  `json:"fulfilment_status"`
	Checklist          []ChecklistItemResponse `json:"checklist"`
	Terms              string                  `json:"terms,omitempty"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`
	Version            int                     `json:"version"`
}

// ToContractResponse maps a contract aggregate to its response representation
func ToContractResponse(contract *crm.Contract) ContractResponse {
	checklist := make([]ChecklistItemResponse, 0, len(contract.Checklist))
	for idx := range contract.Checklist {
		item := &contract.Checklist[idx]
		checklist = append(checklist, ChecklistItemResponse{
			ID:          item.ID.String(),
			Requirement: item.Requirement,
			Fulfilled:   item.Fulfilled,
			CreatedAt:   item.CreatedAt,
			UpdatedAt:   item.UpdatedAt,
		})
	}
	return ContractResponse{
		ID:                 contract.ID.String(),
		OrgID:              contract.OrgID.String(),
		CompanyID:          uuidPtrToString(contract.CompanyID),
		PartyName:          contract.PartyName,
		IsSigned:           contract.IsSigned,
		SignedOn:           contract.SignedOn,
		StartDate:          contract.StartDate,
		EndDate:            contract.EndDate,
		Status:             contract.Status.String(),
		RequiresFulfilment: contract.RequiresFulfilment,
		FulfilmentStatus:   contract.FulfilmentStatus.String(),
		Checklist:          checklist,
		Terms:              contract.Terms,
		CreatedAt:          contract.CreatedAt,
		UpdatedAt:          contract.UpdatedAt,
		Version:            contract.Version,
	}
}

func uuidPtrToString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
