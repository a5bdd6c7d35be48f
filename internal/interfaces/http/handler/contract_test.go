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

func setupContractRouter(repo *MockContractRepository, scope shared.TenantScope) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ScopeKey, scope)
		c.Next()
	})

	h := NewContractHandler(appcrm.NewContractService(repo))
	r.POST("/contracts", h.Create)
	r.GET("/contracts", h.List)
	r.GET("/contracts/:id", h.Get)
	r.PUT("/contracts/:id", h.Update)
	r.POST("/contracts/:id/sign", h.Sign)
	r.POST("/contracts/:id/cancel", h.Cancel)
	r.POST("/contracts/:id/checklist", h.AddChecklistItem)
	r.PUT("/contracts/:id/checklist/:item_id", h.SetChecklistItemFulfilled)
	r.DELETE("/contracts/:id/checklist/:item_id", h.RemoveChecklistItem)
	r.DELETE("/contracts/:id", h.Delete)
	return r
}

func contractFixture(t *testing.T, scope shared.TenantScope, requiresFulfilment bool) *crm.Contract {
	t.Helper()
	contract, err := crm.NewContract(scope, "Acme Corp")
	require.NoError(t, err)
	if requiresFulfilment {
		contract.SetRequiresFulfilment(true)
	}
	return contract
}

func TestContractHandler_Create(t *testing.T) {
	scope := shared.NewTenantScope(uuid.New())

	t.Run("creates unsigned contract", func(t *testing.T) {
		repo := new(MockContractRepository)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil)
		router := setupContractRouter(repo, scope)

		body, _ := json.Marshal(gin.H{"party_name": "Acme Corp"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/contracts", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"unsigned"`)
		repo.AssertExpectations(t)
	})

	t.Run("rejects missing party name", func(t *testing.T) {
		repo := new(MockContractRepository)
		router := setupContractRouter(repo, scope)

		body, _ := json.Marshal(gin.H{"terms": "net 30"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/contracts", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		repo.AssertNotCalled(t, "Save")
	})
}

func TestContractHandler_Sign(t *testing.T) {
	scope := shared.NewTenantScope(uuid.New())

	t.Run("signs contract without a body", func(t *testing.T) {
		repo := new(MockContractRepository)
		contract := contractFixture(t, scope, false)
		repo.On("FindByID", mock.Anything, scope, contract.ID).Return(contract, nil)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil)
		router := setupContractRouter(repo, scope)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/contracts/"+contract.ID.String()+"/sign", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"is_signed":true`)
		assert.Contains(t, w.Body.String(), `"status":"active"`)
	})

	t.Run("signing a cancelled contract is rejected", func(t *testing.T) {
		repo := new(MockContractRepository)
		contract := contractFixture(t, scope, false)
		require.NoError(t, contract.Cancel())
		repo.On("FindByID", mock.Anything, scope, contract.ID).Return(contract, nil)
		router := setupContractRouter(repo, scope)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/contracts/"+contract.ID.String()+"/sign", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_INVALID_STATE")
		repo.AssertNotCalled(t, "Save")
	})
}

func TestContractHandler_Checklist(t *testing.T) {
	scope := shared.NewTenantScope(uuid.New())

	t.Run("adding checklist item recomputes fulfilment", func(t *testing.T) {
		repo := new(MockContractRepository)
		contract := contractFixture(t, scope, true)
		repo.On("FindByID", mock.Anything, scope, contract.ID).Return(contract, nil)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil)
		router := setupContractRouter(repo, scope)

		body, _ := json.Marshal(gin.H{"requirement": "Countersigned copy received"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/contracts/"+contract.ID.String()+"/checklist", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Countersigned copy received")
		assert.Contains(t, w.Body.String(), `"fulfilment_status":"unfulfilled"`)
	})

	t.Run("rejects fulfilled flag missing from body", func(t *testing.T) {
		repo := new(MockContractRepository)
		router := setupContractRouter(repo, scope)

		body, _ := json.Marshal(gin.H{})
		w := httptest.NewRecorder()
		url := "/contracts/" + uuid.New().String() + "/checklist/" + uuid.New().String()
		req := httptest.NewRequest(http.MethodPut, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		repo.AssertNotCalled(t, "FindByID")
	})

	t.Run("missing checklist item maps to 404", func(t *testing.T) {
		repo := new(MockContractRepository)
		contract := contractFixture(t, scope, true)
		repo.On("FindByID", mock.Anything, scope, contract.ID).Return(contract, nil)
		router := setupContractRouter(repo, scope)

		body, _ := json.Marshal(gin.H{"fulfilled": true})
		w := httptest.NewRecorder()
		url := "/contracts/" + contract.ID.String() + "/checklist/" + uuid.New().String()
		req := httptest.NewRequest(http.MethodPut, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_NOT_FOUND")
	})
}

func TestContractHandler_List(t *testing.T) {
	scope := shared.NewTenantScope(uuid.New())

	t.Run("rejects unknown status filter", func(t *testing.T) {
		repo := new(MockContractRepository)
		router := setupContractRouter(repo, scope)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/contracts?status=Bogus", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		repo.AssertNotCalled(t, "FindAll")
	})
}
