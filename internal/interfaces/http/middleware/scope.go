package middleware

import (
	"net/http"
	"strings"

	"github.com/crmsuite/backend/internal/domain/shared"
	"github.com/crmsuite/backend/internal/infrastructure/auth"
	"github.com/crmsuite/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Scope context keys and headers
const (
	ScopeKey         = "tenant_scope"
	OrgHeaderKey     = "X-Org-ID"
	CompanyHeaderKey = "X-Company-ID"
)

// ScopeMiddlewareConfig holds configuration for the tenant scope middleware
type ScopeMiddlewareConfig struct {
	// HeaderEnabled enables X-Org-ID / X-Company-ID header extraction
	HeaderEnabled bool
	// JWTEnabled enables JWT claim extraction (requires JWT middleware to run first)
	JWTEnabled bool
	// SkipPaths are paths that don't require a tenant scope (e.g., health check)
	SkipPaths []string
	// Required determines if an org scope is mandatory
	Required bool
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultScopeConfig returns default scope middleware configuration
func DefaultScopeConfig() ScopeMiddlewareConfig {
	return ScopeMiddlewareConfig{
		HeaderEnabled: true,
		JWTEnabled:    true,
		SkipPaths:     []string{"/health", "/healthz", "/ready", "/api/v1/health"},
		Required:      true,
		Logger:        nil,
	}
}

// ScopeMiddleware builds the tenant scope for the request.
// Extraction order: JWT claims > X-Org-ID / X-Company-ID headers.
// Every scoped request must resolve to an organization; the company
// sub-scope is optional and narrows reads within the organization.
func ScopeMiddleware() gin.HandlerFunc {
	return ScopeMiddlewareWithConfig(DefaultScopeConfig())
}

// ScopeMiddlewareWithConfig returns scope middleware with custom configuration
func ScopeMiddlewareWithConfig(cfg ScopeMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check if path should be skipped
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath || strings.HasPrefix(path, skipPath+"/") {
				c.Next()
				return
			}
		}

		var orgID, companyID string
		var extractionMethod string
		var elevated bool

		// Priority 1: JWT claims (if JWT middleware has already run)
		if cfg.JWTEnabled {
			if id := GetJWTOrgID(c); id != "" {
				orgID = id
				companyID = GetJWTCompanyID(c)
				extractionMethod = "jwt"
				for _, capability := range GetJWTCapabilities(c) {
					if capability == auth.CapabilityElevated {
						elevated = true
						break
					}
				}
			}
		}

		// Priority 2: headers
		if orgID == "" && cfg.HeaderEnabled {
			if id := c.GetHeader(OrgHeaderKey); id != "" {
				orgID = id
				companyID = c.GetHeader(CompanyHeaderKey)
				extractionMethod = "header"
			}
		}

		if orgID == "" {
			if cfg.Required {
				respondScopeUnauthorized(c, "Organization identification required")
				return
			}
			c.Next()
			return
		}

		orgUUID, err := uuid.Parse(orgID)
		if err != nil {
			respondScopeUnauthorized(c, "Invalid organization ID format")
			return
		}

		scope := shared.NewTenantScope(orgUUID)
		if companyID != "" {
			companyUUID, err := uuid.Parse(companyID)
			if err != nil {
				respondScopeUnauthorized(c, "Invalid company ID format")
				return
			}
			scope = scope.WithCompany(companyUUID)
		}
		// Elevation comes from authenticated claims only, never from headers
		if elevated {
			scope = scope.Elevate()
		}

		// Set in gin context for handlers
		c.Set(ScopeKey, scope)

		// Set in request context so the persistence safety net can read it
		ctx := c.Request.Context()
		log := logger.FromContext(ctx)
		ctx, _ = logger.WithOrgID(ctx, log, orgID)
		if companyID != "" {
			ctx, _ = logger.WithCompanyID(ctx, log, companyID)
		}
		c.Request = c.Request.WithContext(ctx)

		if cfg.Logger != nil {
			cfg.Logger.Debug("Tenant scope resolved",
				zap.String("org_id", orgID),
				zap.String("company_id", companyID),
				zap.String("method", extractionMethod),
			)
		}

		c.Next()
	}
}

// respondScopeUnauthorized sends an unauthorized response
func respondScopeUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}

// GetScope retrieves the tenant scope from gin.Context.
// The second return value reports whether a scope was resolved.
func GetScope(c *gin.Context) (shared.TenantScope, bool) {
	if v, exists := c.Get(ScopeKey); exists {
		if scope, ok := v.(shared.TenantScope); ok {
			return scope, true
		}
	}
	return shared.TenantScope{}, false
}

// MustGetScope retrieves the tenant scope or panics if not present.
// Use this only in handlers behind the scope middleware.
func MustGetScope(c *gin.Context) shared.TenantScope {
	scope, ok := GetScope(c)
	if !ok {
		panic("tenant scope not found in context")
	}
	return scope
}

// OptionalScopeMiddleware creates middleware that doesn't require a scope
func OptionalScopeMiddleware() gin.HandlerFunc {
	cfg := DefaultScopeConfig()
	cfg.Required = false
	return ScopeMiddlewareWithConfig(cfg)
}
