package handler

import (
	appcrm "github.com/crmsuite/backend/internal/application/crm"
	"github.com/crmsuite/backend/internal/domain/crm"
	"github.com/crmsuite/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OpportunityHandler handles opportunity API endpoints
type OpportunityHandler struct {
	BaseHandler
	service *appcrm.OpportunityService
}

// NewOpportunityHandler creates a new OpportunityHandler
func NewOpportunityHandler(service *appcrm.OpportunityService) *OpportunityHandler {
	return &OpportunityHandler{service: service}
}

// OpportunityItemRequest represents a line item in an opportunity request
type OpportunityItemRequest struct {
	ItemName string  `json:"item_name" binding:"required,max=200"`
	Rate     float64 `json:"rate" binding:"gte=0"`
	Qty      float64 `json:"qty" binding:"gt=0"`
}

// CreateOpportunityRequest represents the request body for creating an
// opportunity. org_id targets an explicit organization; honored for elevated
// scopes only.
type CreateOpportunityRequest struct {
	OrgID          *uuid.UUID               `json:"org_id,omitempty"`
	Name           string                   `json:"name" binding:"required,max=200"`
	ConversionRate *float64                 `json:"conversion_rate" binding:"omitempty,gt=0"`
	Items          []OpportunityItemRequest `json:"items" binding:"omitempty,dive"`
}

// UpdateOpportunityRequest represents the request body for updating an
// opportunity header. Totals are derived from items and never accepted.
type UpdateOpportunityRequest struct {
	Name           *string  `json:"name" binding:"omitempty,max=200"`
	SalesStage     *string  `json:"sales_stage"`
	ConversionRate *float64 `json:"conversion_rate" binding:"omitempty,gt=0"`
}

// ListOpportunitiesRequest represents query parameters for listing opportunities
type ListOpportunitiesRequest struct {
	dto.ListRequest
	SalesStage string `form:"sales_stage"`
}

// Create handles POST /opportunities
func (h *OpportunityHandler) Create(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	var req CreateOpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	// Omitted conversion_rate means the document currency is the base
	// currency, so the rate defaults to 1.
	appReq := appcrm.CreateOpportunityRequest{OrgID: req.OrgID, Name: req.Name, ConversionRate: decimal.NewFromInt(1)}
	if req.ConversionRate != nil {
		appReq.ConversionRate = toDecimal(*req.ConversionRate)
	}
	for _, item := range req.Items {
		appReq.Items = append(appReq.Items, appcrm.OpportunityItemInput{
			ItemName: item.ItemName,
			Rate:     toDecimal(item.Rate),
			Qty:      toDecimal(item.Qty),
		})
	}

	opp, err := h.service.Create(c.Request.Context(), scope, appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, opp)
}

// Get handles GET /opportunities/:id
func (h *OpportunityHandler) Get(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	oppID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid opportunity ID")
		return
	}

	opp, err := h.service.GetByID(c.Request.Context(), scope, oppID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, opp)
}

// List handles GET /opportunities
func (h *OpportunityHandler) List(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	req := ListOpportunitiesRequest{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter := appcrm.OpportunityListFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
	}
	if req.SalesStage != "" {
		stage := crm.SalesStage(req.SalesStage)
		if !stage.IsValid() {
			h.BadRequest(c, "Invalid sales stage: "+req.SalesStage)
			return
		}
		filter.SalesStage = &stage
	}

	opps, total, err := h.service.List(c.Request.Context(), scope, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, opps, total, filter.Page, filter.PageSize)
}

// Update handles PUT /opportunities/:id
func (h *OpportunityHandler) Update(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	oppID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid opportunity ID")
		return
	}

	var req UpdateOpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	appReq := appcrm.UpdateOpportunityRequest{Name: req.Name}
	if req.SalesStage != nil {
		stage := crm.SalesStage(*req.SalesStage)
		if !stage.IsValid() {
			h.BadRequest(c, "Invalid sales stage: "+*req.SalesStage)
			return
		}
		appReq.SalesStage = &stage
	}
	if req.ConversionRate != nil {
		appReq.ConversionRate = toDecimalPtr(*req.ConversionRate)
	}

	opp, err := h.service.Update(c.Request.Context(), scope, oppID, appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, opp)
}

// AddItem handles POST /opportunities/:id/items
func (h *OpportunityHandler) AddItem(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	oppID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid opportunity ID")
		return
	}

	var req OpportunityItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	opp, err := h.service.AddItem(c.Request.Context(), scope, oppID, appcrm.OpportunityItemInput{
		ItemName: req.ItemName,
		Rate:     toDecimal(req.Rate),
		Qty:      toDecimal(req.Qty),
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, opp)
}

// UpdateItem handles PUT /opportunities/:id/items/:item_id
func (h *OpportunityHandler) UpdateItem(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	oppID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid opportunity ID")
		return
	}
	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID")
		return
	}

	var req OpportunityItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	opp, err := h.service.UpdateItem(c.Request.Context(), scope, oppID, itemID, appcrm.OpportunityItemInput{
		ItemName: req.ItemName,
		Rate:     toDecimal(req.Rate),
		Qty:      toDecimal(req.Qty),
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, opp)
}

// RemoveItem handles DELETE /opportunities/:id/items/:item_id
func (h *OpportunityHandler) RemoveItem(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	oppID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid opportunity ID")
		return
	}
	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID")
		return
	}

	opp, err := h.service.RemoveItem(c.Request.Context(), scope, oppID, itemID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, opp)
}

// Delete handles DELETE /opportunities/:id
func (h *OpportunityHandler) Delete(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	oppID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid opportunity ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), scope, oppID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
