package handler

import (
	appcrm "github.com/crmsuite/backend/internal/application/crm"
	"github.com/crmsuite/backend/internal/domain/crm"
	"github.com/crmsuite/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LeadHandler handles lead API endpoints
type LeadHandler struct {
	BaseHandler
	service *appcrm.LeadService
}

// NewLeadHandler creates a new LeadHandler
func NewLeadHandler(service *appcrm.LeadService) *LeadHandler {
	return &LeadHandler{service: service}
}

// CreateLeadRequest represents the request body for creating a lead.
// org_id targets an explicit organization; honored for elevated scopes only.
type CreateLeadRequest struct {
	OrgID       *uuid.UUID `json:"org_id,omitempty"`
	Salutation  string     `json:"salutation" binding:"max=50"`
	FirstName   string     `json:"first_name" binding:"max=100"`
	MiddleName  string     `json:"middle_name" binding:"max=100"`
	LastName    string     `json:"last_name" binding:"max=100"`
	CompanyName string     `json:"company_name" binding:"max=200"`
	Email       string     `json:"email" binding:"omitempty,email"`
	Phone       string     `json:"phone" binding:"max=50"`
	Source      string     `json:"source" binding:"max=100"`
	Notes       string     `json:"notes"`
}

// UpdateLeadRequest represents the request body for updating a lead.
// Derived fields (lead_name, title) are never accepted from callers.
type UpdateLeadRequest struct {
	Salutation  string `json:"salutation" binding:"max=50"`
	FirstName   string `json:"first_name" binding:"max=100"`
	MiddleName  string `json:"middle_name" binding:"max=100"`
	LastName    string `json:"last_name" binding:"max=100"`
	CompanyName string `json:"company_name" binding:"max=200"`
	Email       string `json:"email" binding:"omitempty,email"`
	Phone       string `json:"phone" binding:"max=50"`
	Source      string `json:"source" binding:"max=100"`
	Notes       string `json:"notes"`
}

// UpdateLeadStatusRequest represents the request body for a status change
type UpdateLeadStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListLeadsRequest represents query parameters for listing leads
type ListLeadsRequest struct {
	dto.ListRequest
	Status string `form:"status"`
}

// Create handles POST /leads
func (h *LeadHandler) Create(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	var req CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	lead, err := h.service.Create(c.Request.Context(), scope, appcrm.CreateLeadRequest{
		OrgID:       req.OrgID,
		Salutation:  req.Salutation,
		FirstName:   req.FirstName,
		MiddleName:  req.MiddleName,
		LastName:    req.LastName,
		CompanyName: req.CompanyName,
		Email:       req.Email,
		Phone:       req.Phone,
		Source:      req.Source,
		Notes:       req.Notes,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, lead)
}

// Get handles GET /leads/:id
func (h *LeadHandler) Get(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lead ID")
		return
	}

	lead, err := h.service.GetByID(c.Request.Context(), scope, leadID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, lead)
}

// List handles GET /leads
func (h *LeadHandler) List(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	req := ListLeadsRequest{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter := appcrm.LeadListFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
	}
	if req.Status != "" {
		status := crm.LeadStatus(req.Status)
		if !status.IsValid() {
			h.BadRequest(c, "Invalid lead status: "+req.Status)
			return
		}
		filter.Status = &status
	}

	leads, total, err := h.service.List(c.Request.Context(), scope, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, leads, total, filter.Page, filter.PageSize)
}

// Update handles PUT /leads/:id
func (h *LeadHandler) Update(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lead ID")
		return
	}

	var req UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	lead, err := h.service.Update(c.Request.Context(), scope, leadID, appcrm.UpdateLeadRequest{
		Salutation:  req.Salutation,
		FirstName:   req.FirstName,
		MiddleName:  req.MiddleName,
		LastName:    req.LastName,
		CompanyName: req.CompanyName,
		Email:       req.Email,
		Phone:       req.Phone,
		Source:      req.Source,
		Notes:       req.Notes,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, lead)
}

// UpdateStatus handles PUT /leads/:id/status
func (h *LeadHandler) UpdateStatus(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lead ID")
		return
	}

	var req UpdateLeadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	status := crm.LeadStatus(req.Status)
	if !status.IsValid() {
		h.BadRequest(c, "Invalid lead status: "+req.Status)
		return
	}

	lead, err := h.service.UpdateStatus(c.Request.Context(), scope, leadID, status)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, lead)
}

// Delete handles DELETE /leads/:id
func (h *LeadHandler) Delete(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lead ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), scope, leadID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
