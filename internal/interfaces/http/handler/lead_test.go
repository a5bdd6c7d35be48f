package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	appcrm "github.com/crmsuite/backend/internal/application/crm"
	"github.com/crmsuite/backend/internal/domain/crm"
	"github.com/crmsuite/backend/internal/domain/shared"
	"github.com/crmsuite/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func leadFixtures(t *testing.T, scope shared.TenantScope, firstNames ...string) []crm.Lead {
	t.Helper()
	leads := make([]crm.Lead, 0, len(firstNames))
	for _, name := range firstNames {
		lead, err := crm.NewLead(scope, crm.LeadName{FirstName: name}, "", "")
		require.NoError(t, err)
		leads = append(leads, *lead)
	}
	return leads
}

func setupLeadRouter(repo *MockLeadRepository, scope shared.TenantScope) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ScopeKey, scope)
		c.Next()
	})

	h := NewLeadHandler(appcrm.NewLeadService(repo))
	r.POST("/leads", h.Create)
	r.GET("/leads", h.List)
	r.GET("/leads/:id", h.Get)
	r.PUT("/leads/:id", h.Update)
	r.PUT("/leads/:id/status", h.UpdateStatus)
	r.DELETE("/leads/:id", h.Delete)
	return r
}

func TestLeadHandler_Create(t *testing.T) {
	scope := shared.NewTenantScope(uuid.New())

	t.Run("creates lead and derives display name", func(t *testing.T) {
		repo := new(MockLeadRepository)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil)
		router := setupLeadRouter(repo, scope)

		body, _ := json.Marshal(gin.H{
			"salutation": "Ms",
			"first_name": "Jane",
			"last_name":  "Doe",
			"email":      "jane@example.com",
		})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/leads", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"lead_name":"Ms Jane Doe"`)
		assert.Contains(t, w.Body.String(), `"title":"Ms Jane Doe"`)
		repo.AssertExpectations(t)
	})

	t.Run("elevated scope creates for the requested org", func(t *testing.T) {
		repo := new(MockLeadRepository)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil)
		router := setupLeadRouter(repo, scope.Elevate())
		targetOrg := uuid.New()

		body, _ := json.Marshal(gin.H{"first_name": "Jane", "org_id": targetOrg.String()})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/leads", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"org_id":"`+targetOrg.String()+`"`)
	})

	t.Run("cross-org create without elevation is forbidden", func(t *testing.T) {
		repo := new(MockLeadRepository)
		router := setupLeadRouter(repo, scope)

		body, _ := json.Marshal(gin.H{"first_name": "Jane", "org_id": uuid.New().String()})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/leads", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		repo.AssertNotCalled(t, "Save")
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		repo := new(MockLeadRepository)
		router := setupLeadRouter(repo, scope)

		body, _ := json.Marshal(gin.H{"first_name": "Jane", "email": "not-an-email"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/leads", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		repo.AssertNotCalled(t, "Save")
	})
}

func TestLeadHandler_Get(t *testing.T) {
	scope := shared.NewTenantScope(uuid.New())

	t.Run("rejects malformed lead id", func(t *testing.T) {
		repo := new(MockLeadRepository)
		router := setupLeadRouter(repo, scope)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leads/not-a-uuid", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		repo.AssertNotCalled(t, "FindByID")
	})

	t.Run("maps repository not-found to 404", func(t *testing.T) {
		repo := new(MockLeadRepository)
		leadID := uuid.New()
		repo.On("FindByID", mock.Anything, scope, leadID).Return(nil, shared.ErrNotFound)
		router := setupLeadRouter(repo, scope)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leads/"+leadID.String(), nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_NOT_FOUND")
	})
}

func TestLeadHandler_List(t *testing.T) {
	scope := shared.NewTenantScope(uuid.New())

	t.Run("returns paginated leads", func(t *testing.T) {
		repo := new(MockLeadRepository)
		repo.On("FindAll", mock.Anything, scope, mock.Anything).Return(leadFixtures(t, scope, "Alice", "Bob"), nil)
		repo.On("Count", mock.Anything, scope, mock.Anything).Return(int64(2), nil)
		router := setupLeadRouter(repo, scope)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leads?page=1&page_size=20", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Alice")
		assert.Contains(t, w.Body.String(), "Bob")
		assert.Contains(t, w.Body.String(), `"total":2`)
	})

	t.Run("rejects unknown status filter", func(t *testing.T) {
		repo := new(MockLeadRepository)
		router := setupLeadRouter(repo, scope)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leads?status=Bogus", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		repo.AssertNotCalled(t, "FindAll")
	})

	t.Run("rejects out-of-range page size", func(t *testing.T) {
		repo := new(MockLeadRepository)
		router := setupLeadRouter(repo, scope)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leads?page_size=500", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLeadHandler_UpdateStatus(t *testing.T) {
	scope := shared.NewTenantScope(uuid.New())

	t.Run("rejects unknown status", func(t *testing.T) {
		repo := new(MockLeadRepository)
		router := setupLeadRouter(repo, scope)

		body, _ := json.Marshal(gin.H{"status": "Bogus"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/leads/"+uuid.New().String()+"/status", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		repo.AssertNotCalled(t, "FindByID")
	})
}

func TestLeadHandler_Delete(t *testing.T) {
	scope := shared.NewTenantScope(uuid.New())

	t.Run("returns no content on success", func(t *testing.T) {
		repo := new(MockLeadRepository)
		leadID := uuid.New()
		repo.On("Delete", mock.Anything, scope, leadID).Return(nil)
		router := setupLeadRouter(repo, scope)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/leads/"+leadID.String(), nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		repo.AssertExpectations(t)
	})
}
