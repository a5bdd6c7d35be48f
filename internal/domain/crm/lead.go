package crm

import (
	"regexp"
	"strings"
	"time"

	"github.com/crmsuite/backend/internal/domain/shared"
)

// LeadStatus represents the pipeline status of a lead
type LeadStatus string

const (
	LeadStatusOpen      LeadStatus = "open"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"
)

// IsValid checks if the status is a valid LeadStatus
func (s LeadStatus) IsValid() bool {
	switch s {
	case LeadStatusOpen, LeadStatusContacted, LeadStatusQualified, LeadStatusConverted, LeadStatusLost:
		return true
	}
	return false
}

// String returns the string representation of LeadStatus
func (s LeadStatus) String() string {
	return string(s)
}

// LeadName holds the person and company naming fields a lead's display name
// is derived from. All fields are optional; derivation degrades gracefully
// when inputs are missing.
type LeadName struct {
	Salutation  string
	FirstName   string
	MiddleName  string
	LastName    string
	CompanyName string
}

// Lead represents a sales lead aggregate root.
// LeadName and Title are derived fields: they are recomputed on every
// mutation and are never directly editable.
type Lead struct {
	shared.TenantAggregateRoot
	Salutation  string     `gorm:"type:varchar(20)"`
	FirstName   string     `gorm:"type:varchar(100)"`
	MiddleName  string     `gorm:"type:varchar(100)"`
	LastName    string     `gorm:"type:varchar(100)"`
	CompanyName string     `gorm:"type:varchar(200);index"`
	Email       string     `gorm:"type:varchar(200);index"`
	Phone       string     `gorm:"type:varchar(50)"`
	Source      string     `gorm:"type:varchar(100)"`
	Status      LeadStatus `gorm:"type:varchar(20);not null;default:'open'"`
	LeadName    string     `gorm:"type:varchar(400);index"` // derived
	Title       string     `gorm:"type:varchar(400)"`       // derived
	Notes       string     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Lead) TableName() string {
	return "leads"
}

// NewLead creates a new lead owned by the acting scope
func NewLead(scope shared.TenantScope, name LeadName, email, phone string) (*Lead, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if err := validateLeadEmail(email); err != nil {
		return nil, err
	}

	lead := &Lead{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(scope),
		Salutation:          strings.TrimSpace(name.Salutation),
		FirstName:           strings.TrimSpace(name.FirstName),
		MiddleName:          strings.TrimSpace(name.MiddleName),
		LastName:            strings.TrimSpace(name.LastName),
		CompanyName:         strings.TrimSpace(name.CompanyName),
		Email:               strings.TrimSpace(email),
		Phone:               strings.TrimSpace(phone),
		Status:              LeadStatusOpen,
	}

	lead.derive()

	return lead, nil
}

// UpdateName updates the lead's naming fields and re-derives the display name
func (l *Lead) UpdateName(name LeadName) {
	l.Salutation = strings.TrimSpace(name.Salutation)
	l.FirstName = strings.TrimSpace(name.FirstName)
	l.MiddleName = strings.TrimSpace(name.MiddleName)
	l.LastName = strings.TrimSpace(name.LastName)
	l.CompanyName = strings.TrimSpace(name.CompanyName)
	l.derive()
	l.touch()
}

// SetContact updates the lead's contact information
func (l *Lead) SetContact(email, phone string) error {
	if err := validateLeadEmail(email); err != nil {
		return err
	}
	l.Email = strings.TrimSpace(email)
	l.Phone = strings.TrimSpace(phone)
	l.derive()
	l.touch()
	return nil
}

// SetSource sets where the lead originated (web form, referral, import, ...)
func (l *Lead) SetSource(source string) {
	l.Source = strings.TrimSpace(source)
	l.touch()
}

// SetNotes sets free-form notes on the lead
func (l *Lead) SetNotes(notes string) {
	l.Notes = notes
	l.touch()
}

// SetStatus moves the lead to a new pipeline status
func (l *Lead) SetStatus(status LeadStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_LEAD_STATUS", "Unknown lead status")
	}
	l.Status = status
	l.touch()
	return nil
}

// derive recomputes LeadName and Title from the current field values.
// Rules, in order:
//  1. A non-empty first name wins: join the non-empty salutation/first/
//     middle/last parts with single spaces.
//  2. Otherwise, if the display name is still empty, fall back to the
//     company name.
//  3. Otherwise fall back to the email local part.
//
// Title mirrors the company name when set, else the display name. If no
// input is available both fields stay empty; that is accepted, not an error -
// required-field validation belongs to the request layer.
func (l *Lead) derive() {
	if l.FirstName != "" {
		parts := make([]string, 0, 4)
		for _, part := range []string{l.Salutation, l.FirstName, l.MiddleName, l.LastName} {
			if part != "" {
				parts = append(parts, part)
			}
		}
		l.LeadName = strings.TrimSpace(strings.Join(parts, " "))
	}
	if l.LeadName == "" && l.CompanyName != "" {
		l.LeadName = l.CompanyName
	}
	if l.LeadName == "" && l.Email != "" {
		l.LeadName = strings.SplitN(l.Email, "@", 2)[0]
	}

	if l.CompanyName != "" {
		l.Title = l.CompanyName
	} else {
		l.Title = l.LeadName
	}
}

// touch bumps the update timestamp and version
func (l *Lead) touch() {
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
}

var leadEmailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func validateLeadEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !leadEmailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}
