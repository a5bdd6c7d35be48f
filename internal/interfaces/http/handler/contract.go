package handler

import (
	"time"

	appcrm "github.com/crmsuite/backend/internal/application/crm"
	"github.com/crmsuite/backend/internal/domain/crm"
	"github.com/crmsuite/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContractHandler handles contract API endpoints
type ContractHandler struct {
	BaseHandler
	service *appcrm.ContractService
}

// NewContractHandler creates a new ContractHandler
func NewContractHandler(service *appcrm.ContractService) *ContractHandler {
	return &ContractHandler{service: service}
}

// CreateContractRequest represents the request body for creating a contract.
// org_id targets an explicit organization; honored for elevated scopes only.
type CreateContractRequest struct {
	OrgID              *uuid.UUID `json:"org_id,omitempty"`
	PartyName          string     `json:"party_name" binding:"required,max=200"`
	RequiresFulfilment bool       `json:"requires_fulfilment"`
	StartDate          *time.Time `json:"start_date"`
	EndDate            *time.Time `json:"end_date"`
	Terms              string     `json:"terms"`
}

// UpdateContractRequest represents the request body for updating a contract
// header. Status and fulfilment status are derived and cannot be set here.
type UpdateContractRequest struct {
	PartyName          *string    `json:"party_name" binding:"omitempty,max=200"`
	RequiresFulfilment *bool      `json:"requires_fulfilment"`
	StartDate          *time.Time `json:"start_date"`
	EndDate            *time.Time `json:"end_date"`
	Terms              *string    `json:"terms"`
}

// SignContractRequest represents the request body for signing a contract.
// SignedOn defaults to the current time when omitted.
type SignContractRequest struct {
	SignedOn *time.Time `json:"signed_on"`
}

// AddChecklistItemRequest represents the request body for adding a
// fulfilment checklist item
type AddChecklistItemRequest struct {
	Requirement string `json:"requirement" binding:"required,max=200"`
}

// SetChecklistItemFulfilledRequest represents the request body for marking a
// checklist item fulfilled or unfulfilled
type SetChecklistItemFulfilledRequest struct {
	Fulfilled *bool `json:"fulfilled" binding:"required"`
}

// ListContractsRequest represents query parameters for listing contracts
type ListContractsRequest struct {
	dto.ListRequest
	Status string `form:"status"`
}

// Create handles POST /contracts
func (h *ContractHandler) Create(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	var req CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	contract, err := h.service.Create(c.Request.Context(), scope, appcrm.CreateContractRequest{
		OrgID:              req.OrgID,
		PartyName:          req.PartyName,
		RequiresFulfilment: req.RequiresFulfilment,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		Terms:              req.Terms,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, contract)
}

// Get handles GET /contracts/:id
func (h *ContractHandler) Get(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}

	contract, err := h.service.GetByID(c.Request.Context(), scope, contractID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, contract)
}

// List handles GET /contracts
func (h *ContractHandler) List(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	req := ListContractsRequest{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter := appcrm.ContractListFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
	}
	if req.Status != "" {
		status := crm.ContractStatus(req.Status)
		if !status.IsValid() {
			h.BadRequest(c, "Invalid contract status: "+req.Status)
			return
		}
		filter.Status = &status
	}

	contracts, total, err := h.service.List(c.Request.Context(), scope, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, contracts, total, filter.Page, filter.PageSize)
}

// Update handles PUT /contracts/:id
func (h *ContractHandler) Update(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}

	var req UpdateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	contract, err := h.service.Update(c.Request.Context(), scope, contractID, appcrm.UpdateContractRequest{
		PartyName:          req.PartyName,
		RequiresFulfilment: req.RequiresFulfilment,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		Terms:              req.Terms,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, contract)
}

// Sign handles POST /contracts/:id/sign
func (h *ContractHandler) Sign(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}

	req := SignContractRequest{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}
	signedOn := time.Now()
	if req.SignedOn != nil {
		signedOn = *req.SignedOn
	}

	contract, err := h.service.Sign(c.Request.Context(), scope, contractID, signedOn)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, contract)
}

// Cancel handles POST /contracts/:id/cancel
func (h *ContractHandler) Cancel(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}

	contract, err := h.service.Cancel(c.Request.Context(), scope, contractID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, contract)
}

// AddChecklistItem handles POST /contracts/:id/checklist
func (h *ContractHandler) AddChecklistItem(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}

	var req AddChecklistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	contract, err := h.service.AddChecklistItem(c.Request.Context(), scope, contractID, req.Requirement)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, contract)
}

// SetChecklistItemFulfilled handles PUT /contracts/:id/checklist/:item_id
func (h *ContractHandler) SetChecklistItemFulfilled(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}
	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		h.BadRequest(c, "Invalid checklist item ID")
		return
	}

	var req SetChecklistItemFulfilledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	contract, err := h.service.SetChecklistItemFulfilled(c.Request.Context(), scope, contractID, itemID, *req.Fulfilled)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, contract)
}

// RemoveChecklistItem handles DELETE /contracts/:id/checklist/:item_id
func (h *ContractHandler) RemoveChecklistItem(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}
	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		h.BadRequest(c, "Invalid checklist item ID")
		return
	}

	contract, err := h.service.RemoveChecklistItem(c.Request.Context(), scope, contractID, itemID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, contract)
}

// Delete handles DELETE /contracts/:id
func (h *ContractHandler) Delete(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), scope, contractID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
