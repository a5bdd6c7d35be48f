package crm

import (
	"testing"

	"github.com/crmsuite/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScope() shared.TenantScope {
	return shared.NewTenantScope(uuid.New())
}

func TestNewLead_DisplayNameDerivation(t *testing.T) {
	tests := []struct {
		name         string
		leadName     LeadName
		email        string
		wantLeadName string
		wantTitle    string
	}{
		{
			name: "full person name",
			leadName: LeadName{
				Salutation: "Dr",
				FirstName:  "Jane",
				MiddleName: "Q",
				LastName:   "Doe",
			},
			wantLeadName: "Dr Jane Q Doe",
			wantTitle:    "Dr Jane Q Doe",
		},
		{
			name: "first name only",
			leadName: LeadName{
				FirstName: "Jane",
			},
			wantLeadName: "Jane",
			wantTitle:    "Jane",
		},
		{
			name: "skips empty middle parts",
			leadName: LeadName{
				FirstName: "Jane",
				LastName:  "Doe",
			},
			wantLeadName: "Jane Doe",
			wantTitle:    "Jane Doe",
		},
		{
			name: "falls back to company name",
			leadName: LeadName{
				CompanyName: "Acme Corp",
			},
			wantLeadName: "Acme Corp",
			wantTitle:    "Acme Corp",
		},
		{
			name:         "falls back to email local part",
			leadName:     LeadName{},
			email:        "a@b.com",
			wantLeadName: "a",
			wantTitle:    "a",
		},
		{
			name: "company name wins over email",
			leadName: LeadName{
				CompanyName: "Acme Corp",
			},
			email:        "sales@acme.com",
			wantLeadName: "Acme Corp",
			wantTitle:    "Acme Corp",
		},
		{
			name: "title mirrors company even with person name",
			leadName: LeadName{
				FirstName:   "Jane",
				LastName:    "Doe",
				CompanyName: "Acme Corp",
			},
			wantLeadName: "Jane Doe",
			wantTitle:    "Acme Corp",
		},
		{
			name:         "no inputs leaves both empty",
			leadName:     LeadName{},
			wantLeadName: "",
			wantTitle:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead, err := NewLead(testScope(), tt.leadName, tt.email, "")
			require.NoError(t, err)
			assert.Equal(t, tt.wantLeadName, lead.LeadName)
			assert.Equal(t, tt.wantTitle, lead.Title)
		})
	}
}

func TestNewLead_RequiresOrgScope(t *testing.T) {
	_, err := NewLead(shared.TenantScope{}, LeadName{FirstName: "Jane"}, "", "")
	assert.ErrorIs(t, err, shared.ErrOrgScopeRequired)
}

func TestNewLead_StampsTenantFromScope(t *testing.T) {
	orgID := uuid.New()
	companyID := uuid.New()
	scope := shared.NewTenantScope(orgID).WithCompany(companyID)

	lead, err := NewLead(scope, LeadName{FirstName: "Jane"}, "", "")
	require.NoError(t, err)
	assert.Equal(t, orgID, lead.OrgID)
	require.NotNil(t, lead.CompanyID)
	assert.Equal(t, companyID, *lead.CompanyID)
}

func TestNewLead_RejectsInvalidEmail(t *testing.T) {
	_, err := NewLead(testScope(), LeadName{FirstName: "Jane"}, "not-an-email", "")
	assert.Error(t, err)
}

func TestLead_UpdateName_Rederives(t *testing.T) {
	lead, err := NewLead(testScope(), LeadName{FirstName: "Jane", LastName: "Doe"}, "", "")
	require.NoError(t, err)
	require.Equal(t, "Jane Doe", lead.LeadName)

	lead.UpdateName(LeadName{FirstName: "Janet", LastName: "Doe"})
	assert.Equal(t, "Janet Doe", lead.LeadName)
	assert.Equal(t, "Janet Doe", lead.Title)
}

func TestLead_ClearingFirstNameKeepsPriorDisplayName(t *testing.T) {
	lead, err := NewLead(testScope(), LeadName{FirstName: "Jane"}, "", "")
	require.NoError(t, err)

	// Display name derived from first_name sticks around when the first
	// name is cleared and no other source is available.
	lead.UpdateName(LeadName{})
	assert.Equal(t, "Jane", lead.LeadName)
}

func TestLead_SetContact_RederivesFromEmail(t *testing.T) {
	lead, err := NewLead(testScope(), LeadName{}, "", "")
	require.NoError(t, err)
	require.Empty(t, lead.LeadName)

	require.NoError(t, lead.SetContact("jane.doe@acme.com", "+1-202-555-0100"))
	assert.Equal(t, "jane.doe", lead.LeadName)
	assert.Equal(t, "jane.doe", lead.Title)
}

func TestLead_SetStatus(t *testing.T) {
	lead, err := NewLead(testScope(), LeadName{FirstName: "Jane"}, "", "")
	require.NoError(t, err)
	assert.Equal(t, LeadStatusOpen, lead.Status)

	require.NoError(t, lead.SetStatus(LeadStatusQualified))
	assert.Equal(t, LeadStatusQualified, lead.Status)

	assert.Error(t, lead.SetStatus(LeadStatus("bogus")))
}

func TestLeadStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  LeadStatus
		isValid bool
	}{
		{LeadStatusOpen, true},
		{LeadStatusContacted, true},
		{LeadStatusQualified, true},
		{LeadStatusConverted, true},
		{LeadStatusLost, true},
		{LeadStatus("INVALID"), false},
		{LeadStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}
