package crm

import (
	"strings"
	"time"

	"github.com/crmsuite/backend/internal/domain/shared"
	"github.com/crmsuite/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesStage represents the pipeline stage of an opportunity
type SalesStage string

const (
	SalesStageProspecting   SalesStage = "prospecting"
	SalesStageQualification SalesStage = "qualification"
	SalesStageProposal      SalesStage = "proposal"
	SalesStageNegotiation   SalesStage = "negotiation"
	SalesStageClosedWon     SalesStage = "closed_won"
	SalesStageClosedLost    SalesStage = "closed_lost"
)

// IsValid checks if the stage is a valid SalesStage
func (s SalesStage) IsValid() bool {
	switch s {
	case SalesStageProspecting, SalesStageQualification, SalesStageProposal,
		SalesStageNegotiation, SalesStageClosedWon, SalesStageClosedLost:
		return true
	}
	return false
}

// String returns the string representation of SalesStage
func (s SalesStage) String() string {
	return string(s)
}

// OpportunityItem represents a line item in an opportunity.
// Amount, BaseRate and BaseAmount are derived: Amount from rate and quantity,
// the base variants from the parent opportunity's conversion rate.
type OpportunityItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OpportunityID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemName      string          `gorm:"type:varchar(200);not null"`
	Rate          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Qty           decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null"` // derived: rate * qty
	BaseRate      decimal.Decimal `gorm:"type:decimal(18,2)"`          // derived: conversion_rate * rate
	BaseAmount    decimal.Decimal `gorm:"type:decimal(18,2)"`          // derived: conversion_rate * amount
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName returns the table name for GORM
func (OpportunityItem) TableName() string {
	return "opportunity_items"
}

// NewOpportunityItem creates a new opportunity line item
func NewOpportunityItem(opportunityID uuid.UUID, itemName string, rate, qty decimal.Decimal) (*OpportunityItem, error) {
	itemName = strings.TrimSpace(itemName)
	if itemName == "" {
		return nil, shared.NewDomainError("INVALID_ITEM_NAME", "Item name cannot be empty")
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if rate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_RATE", "Rate cannot be negative")
	}

	now := time.Now()
	return &OpportunityItem{
		ID:            uuid.New(),
		OpportunityID: opportunityID,
		ItemName:      itemName,
		Rate:          rate.Round(valueobject.MoneyPrecision),
		Qty:           qty,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Derive recomputes the item's derived amounts from rate and quantity.
// conversionRate is the parent opportunity's currency conversion rate; a nil
// conversionRate means the parent could not be resolved, in which case
// BaseRate and BaseAmount keep their prior values rather than erroring.
func (i *OpportunityItem) Derive(conversionRate *decimal.Decimal) {
	i.Amount = i.Rate.Mul(i.Qty).Round(valueobject.MoneyPrecision)
	if conversionRate != nil {
		i.BaseRate = conversionRate.Mul(i.Rate).Round(valueobject.MoneyPrecision)
		i.BaseAmount = conversionRate.Mul(i.Amount).Round(valueobject.MoneyPrecision)
	}
	i.UpdatedAt = time.Now()
}

// Opportunity represents a sales opportunity aggregate root.
// Total and BaseTotal are derived: they must equal the sums of the child
// items' Amount and BaseAmount after every item mutation.
type Opportunity struct {
	shared.TenantAggregateRoot
	Name           string            `gorm:"type:varchar(200);not null"`
	SalesStage     SalesStage        `gorm:"type:varchar(20);not null;default:'prospecting'"`
	ConversionRate decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:1"`
	Items          []OpportunityItem `gorm:"foreignKey:OpportunityID"`
	Total          decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"` // derived
	BaseTotal      decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"` // derived
}

// TableName returns the table name for GORM
func (Opportunity) TableName() string {
	return "opportunities"
}

// NewOpportunity creates a new opportunity owned by the acting scope
func NewOpportunity(scope shared.TenantScope, name string, conversionRate decimal.Decimal) (*Opportunity, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Opportunity name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Opportunity name cannot exceed 200 characters")
	}
	if conversionRate.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_CONVERSION_RATE", "Conversion rate must be positive")
	}

	return &Opportunity{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(scope),
		Name:                name,
		SalesStage:          SalesStageProspecting,
		ConversionRate:      conversionRate.Round(valueobject.RatePrecision),
		Items:               make([]OpportunityItem, 0),
		Total:               decimal.Zero,
		BaseTotal:           decimal.Zero,
	}, nil
}

// Rename changes the opportunity name
func (o *Opportunity) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Opportunity name cannot be empty")
	}
	o.Name = name
	o.touch()
	return nil
}

// SetSalesStage moves the opportunity to a new pipeline stage
func (o *Opportunity) SetSalesStage(stage SalesStage) error {
	if !stage.IsValid() {
		return shared.NewDomainError("INVALID_SALES_STAGE", "Unknown sales stage")
	}
	o.SalesStage = stage
	o.touch()
	return nil
}

// SetConversionRate changes the currency conversion rate and re-derives every
// item's base amounts along with the totals
func (o *Opportunity) SetConversionRate(rate decimal.Decimal) error {
	if rate.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_CONVERSION_RATE", "Conversion rate must be positive")
	}
	o.ConversionRate = rate.Round(valueobject.RatePrecision)
	for idx := range o.Items {
		o.Items[idx].Derive(&o.ConversionRate)
	}
	o.recalculateTotals()
	o.touch()
	return nil
}

// AddItem adds a new line item and recalculates the totals
func (o *Opportunity) AddItem(itemName string, rate, qty decimal.Decimal) (*OpportunityItem, error) {
	item, err := NewOpportunityItem(o.ID, itemName, rate, qty)
	if err != nil {
		return nil, err
	}
	item.Derive(&o.ConversionRate)

	o.Items = append(o.Items, *item)
	o.recalculateTotals()
	o.touch()

	return item, nil
}

// UpdateItem updates an existing line item's rate and quantity and
// recalculates the totals
func (o *Opportunity) UpdateItem(itemID uuid.UUID, rate, qty decimal.Decimal) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if rate.IsNegative() {
		return shared.NewDomainError("INVALID_RATE", "Rate cannot be negative")
	}

	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			o.Items[idx].Rate = rate.Round(valueobject.MoneyPrecision)
			o.Items[idx].Qty = qty
			o.Items[idx].Derive(&o.ConversionRate)
			o.recalculateTotals()
			o.touch()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Opportunity item not found")
}

// RenameItem changes a line item's display name
func (o *Opportunity) RenameItem(itemID uuid.UUID, itemName string) error {
	itemName = strings.TrimSpace(itemName)
	if itemName == "" {
		return shared.NewDomainError("INVALID_ITEM_NAME", "Item name cannot be empty")
	}
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			o.Items[idx].ItemName = itemName
			o.Items[idx].UpdatedAt = time.Now()
			o.touch()
			return nil
		}
	}
	return shared.NewDomainError("ITEM_NOT_FOUND", "Opportunity item not found")
}

// RemoveItem removes a line item and recalculates the totals
func (o *Opportunity) RemoveItem(itemID uuid.UUID) error {
	for idx, item := range o.Items {
		if item.ID == itemID {
			o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
			o.recalculateTotals()
			o.touch()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Opportunity item not found")
}

// ItemByID returns the line item with the given ID, or nil
func (o *Opportunity) ItemByID(itemID uuid.UUID) *OpportunityItem {
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			return &o.Items[idx]
		}
	}
	return nil
}

// recalculateTotals recomputes Total and BaseTotal from scratch over all
// current items. Full recomputation rather than incremental deltas: it is
// idempotent and self-healing if a previous write left a stale total.
func (o *Opportunity) recalculateTotals() {
	total := decimal.Zero
	baseTotal := decimal.Zero
	for idx := range o.Items {
		total = total.Add(o.Items[idx].Amount)
		baseTotal = baseTotal.Add(o.Items[idx].BaseAmount)
	}
	o.Total = total
	o.BaseTotal = baseTotal
}

// touch bumps the update timestamp and version
func (o *Opportunity) touch() {
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
}
