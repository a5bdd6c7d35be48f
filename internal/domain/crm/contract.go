package crm

import (
	"strings"
	"time"

	"github.com/crmsuite/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ContractStatus represents the lifecycle status of a contract.
// All values except Cancelled are derived from is_signed and end_date;
// Cancelled is a terminal, sticky state reachable only through Cancel.
type ContractStatus string

const (
	ContractStatusUnsigned  ContractStatus = "unsigned"
	ContractStatusActive    ContractStatus = "active"
	ContractStatusInactive  ContractStatus = "inactive"
	ContractStatusCancelled ContractStatus = "cancelled"
)

// IsValid checks if the status is a valid ContractStatus
func (s ContractStatus) IsValid() bool {
	switch s {
	case ContractStatusUnsigned, ContractStatusActive, ContractStatusInactive, ContractStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of ContractStatus
func (s ContractStatus) String() string {
	return string(s)
}

// FulfilmentStatus represents how much of a contract's fulfilment checklist
// has been completed
type FulfilmentStatus string

const (
	FulfilmentStatusNA        FulfilmentStatus = "n/a"
	FulfilmentStatusNone      FulfilmentStatus = "unfulfilled"
	FulfilmentStatusPartially FulfilmentStatus = "partially_fulfilled"
	FulfilmentStatusFulfilled FulfilmentStatus = "fulfilled"
)

// String returns the string representation of FulfilmentStatus
func (s FulfilmentStatus) String() string {
	return string(s)
}

// FulfilmentChecklistItem is a single completion requirement on a contract.
// Items are exclusively owned by their contract and cascade-delete with it.
type FulfilmentChecklistItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ContractID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Requirement string    `gorm:"type:varchar(500);not null"`
	Fulfilled   bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for GORM
func (FulfilmentChecklistItem) TableName() string {
	return "contract_fulfilment_checklists"
}

// Contract represents a contract aggregate root.
// Status and FulfilmentStatus are derived fields, refreshed before every
// save; every checklist mutation refreshes the parent so the fulfilment
// ratio can never go stale.
type Contract struct {
	shared.TenantAggregateRoot
	PartyName          string                    `gorm:"type:varchar(200);not null"`
	IsSigned           bool                      `gorm:"not null;default:false"`
	SignedOn           *time.Time                `gorm:"type:date"`
	StartDate          *time.Time                `gorm:"type:date"`
	EndDate            *time.Time                `gorm:"type:date"`
	Status             ContractStatus            `gorm:"type:varchar(20);not null;default:'unsigned'"` // derived (Cancelled sticky)
	RequiresFulfilment bool                      `gorm:"not null;default:false"`
	FulfilmentStatus   FulfilmentStatus          `gorm:"type:varchar(30);not null;default:'n/a'"` // derived
	Checklist          []FulfilmentChecklistItem `gorm:"foreignKey:ContractID"`
	Terms              string                    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Contract) TableName() string {
	return "contracts"
}

// NewContract creates a new unsigned contract owned by the acting scope
func NewContract(scope shared.TenantScope, partyName string) (*Contract, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	partyName = strings.TrimSpace(partyName)
	if partyName == "" {
		return nil, shared.NewDomainError("INVALID_PARTY_NAME", "Contract party name cannot be empty")
	}
	if len(partyName) > 200 {
		return nil, shared.NewDomainError("INVALID_PARTY_NAME", "Contract party name cannot exceed 200 characters")
	}

	contract := &Contract{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(scope),
		PartyName:           partyName,
		Status:              ContractStatusUnsigned,
		FulfilmentStatus:    FulfilmentStatusNA,
		Checklist:           make([]FulfilmentChecklistItem, 0),
	}

	contract.Refresh(time.Now())

	return contract, nil
}

// Refresh re-derives Status and FulfilmentStatus from the contract's current
// field values and checklist. It is called before every save; now is passed
// explicitly so status derivation stays deterministic and testable.
func (c *Contract) Refresh(now time.Time) {
	c.deriveStatus(now)
	c.deriveFulfilment()
}

// deriveStatus computes Status from IsSigned and EndDate. A Cancelled
// contract is never touched: Cancelled is terminal and only Cancel produces
// it.
func (c *Contract) deriveStatus(now time.Time) {
	if c.Status == ContractStatusCancelled {
		return
	}
	if !c.IsSigned {
		c.Status = ContractStatusUnsigned
		return
	}
	if c.EndDate != nil && now.After(*c.EndDate) {
		c.Status = ContractStatusInactive
		return
	}
	c.Status = ContractStatusActive
}

// deriveFulfilment computes FulfilmentStatus from the checklist completion
// ratio. An empty checklist counts as unfulfilled when fulfilment is
// required.
func (c *Contract) deriveFulfilment() {
	if !c.RequiresFulfilment {
		c.FulfilmentStatus = FulfilmentStatusNA
		return
	}

	total := len(c.Checklist)
	fulfilled := 0
	for idx := range c.Checklist {
		if c.Checklist[idx].Fulfilled {
			fulfilled++
		}
	}

	switch {
	case total == 0 || fulfilled == 0:
		c.FulfilmentStatus = FulfilmentStatusNone
	case fulfilled == total:
		c.FulfilmentStatus = FulfilmentStatusFulfilled
	default:
		c.FulfilmentStatus = FulfilmentStatusPartially
	}
}

// Sign marks the contract as signed and re-derives the status
func (c *Contract) Sign(signedOn time.Time) error {
	if c.Status == ContractStatusCancelled {
		return shared.NewDomainError("CONTRACT_CANCELLED", "Cannot sign a cancelled contract")
	}
	c.IsSigned = true
	c.SignedOn = &signedOn
	c.Refresh(time.Now())
	c.touch()
	return nil
}

// Cancel moves the contract into the terminal Cancelled state. This is the
// only way Cancelled is produced; derivation will never overwrite it.
func (c *Contract) Cancel() error {
	if c.Status == ContractStatusCancelled {
		return shared.NewDomainError("CONTRACT_CANCELLED", "Contract is already cancelled")
	}
	c.Status = ContractStatusCancelled
	c.touch()
	return nil
}

// SetPeriod sets the contract's start and end dates and re-derives the status
func (c *Contract) SetPeriod(startDate, endDate *time.Time) error {
	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return shared.NewDomainError("INVALID_PERIOD", "End date cannot be before start date")
	}
	c.StartDate = startDate
	c.EndDate = endDate
	c.Refresh(time.Now())
	c.touch()
	return nil
}

// SetRequiresFulfilment toggles fulfilment tracking and re-derives the
// fulfilment status
func (c *Contract) SetRequiresFulfilment(required bool) {
	c.RequiresFulfilment = required
	c.Refresh(time.Now())
	c.touch()
}

// SetPartyName renames the counterparty on the contract
func (c *Contract) SetPartyName(partyName string) error {
	partyName = strings.TrimSpace(partyName)
	if partyName == "" {
		return shared.NewDomainError("INVALID_PARTY_NAME", "Contract party name cannot be empty")
	}
	if len(partyName) > 200 {
		return shared.NewDomainError("INVALID_PARTY_NAME", "Contract party name cannot exceed 200 characters")
	}
	c.PartyName = partyName
	c.touch()
	return nil
}

// SetTerms sets the contract's free-form terms text
func (c *Contract) SetTerms(terms string) {
	c.Terms = terms
	c.touch()
}

// AddChecklistItem appends a fulfilment requirement and re-derives the
// fulfilment status
func (c *Contract) AddChecklistItem(requirement string) (*FulfilmentChecklistItem, error) {
	requirement = strings.TrimSpace(requirement)
	if requirement == "" {
		return nil, shared.NewDomainError("INVALID_REQUIREMENT", "Checklist requirement cannot be empty")
	}
	if len(requirement) > 500 {
		return nil, shared.NewDomainError("INVALID_REQUIREMENT", "Checklist requirement cannot exceed 500 characters")
	}

	now := time.Now()
	item := FulfilmentChecklistItem{
		ID:          uuid.New(),
		ContractID:  c.ID,
		Requirement: requirement,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	c.Checklist = append(c.Checklist, item)
	c.Refresh(now)
	c.touch()

	return &c.Checklist[len(c.Checklist)-1], nil
}

// SetChecklistItemFulfilled marks a checklist item as fulfilled or not and
// re-derives the fulfilment status
func (c *Contract) SetChecklistItemFulfilled(itemID uuid.UUID, fulfilled bool) error {
	for idx := range c.Checklist {
		if c.Checklist[idx].ID == itemID {
			c.Checklist[idx].Fulfilled = fulfilled
			c.Checklist[idx].UpdatedAt = time.Now()
			c.Refresh(time.Now())
			c.touch()
			return nil
		}
	}
	return shared.NewDomainError("CHECKLIST_ITEM_NOT_FOUND", "Checklist item not found")
}

// RemoveChecklistItem removes a checklist item and re-derives the fulfilment
// status
func (c *Contract) RemoveChecklistItem(itemID uuid.UUID) error {
	for idx, item := range c.Checklist {
		if item.ID == itemID {
			c.Checklist = append(c.Checklist[:idx], c.Checklist[idx+1:]...)
			c.Refresh(time.Now())
			c.touch()
			return nil
		}
	}
	return shared.NewDomainError("CHECKLIST_ITEM_NOT_FOUND", "Checklist item not found")
}

// IsCancelled reports whether the contract is in the terminal Cancelled state
func (c *Contract) IsCancelled() bool {
	return c.Status == ContractStatusCancelled
}

// touch bumps the update timestamp and version
func (c *Contract) touch() {
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}
