package tenant

import (
	"strings"

	"github.com/crmsuite/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrgCallback provides GORM callback hooks that automatically inject an
// org_id filter into queries that do not already carry one. This is the
// safety-net convention: repositories still apply explicit scopes, and the
// callback only catches queries where that was forgotten.
type OrgCallback struct {
	orgColumn string
	required  bool
}

// NewOrgCallback creates a new org scope callback handler
func NewOrgCallback(orgColumn string, required bool) *OrgCallback {
	if orgColumn == "" {
		orgColumn = "org_id"
	}
	return &OrgCallback{
		orgColumn: orgColumn,
		required:  required,
	}
}

// RegisterCallbacks registers org scope callbacks with GORM
func (oc *OrgCallback) RegisterCallbacks(db *gorm.DB) {
	_ = db.Callback().Query().Before("gorm:query").Register("tenant:before_query", oc.beforeQuery)
	_ = db.Callback().Update().Before("gorm:update").Register("tenant:before_update", oc.beforeUpdate)
	_ = db.Callback().Delete().Before("gorm:delete").Register("tenant:before_delete", oc.beforeDelete)
	_ = db.Callback().Row().Before("gorm:row").Register("tenant:before_row", oc.beforeQuery)

	// Create is not hooked: org_id is stamped on the aggregate by the domain
	// layer when the record is constructed from a scope.
}

func (oc *OrgCallback) beforeQuery(db *gorm.DB) {
	oc.addOrgFilter(db)
}

func (oc *OrgCallback) beforeUpdate(db *gorm.DB) {
	oc.addOrgFilter(db)
}

func (oc *OrgCallback) beforeDelete(db *gorm.DB) {
	oc.addOrgFilter(db)
}

// addOrgFilter adds org filtering to the query unless one is already present
func (oc *OrgCallback) addOrgFilter(db *gorm.DB) {
	if db.Statement.Context == nil {
		return
	}

	if db.Statement.Unscoped {
		return
	}

	if oc.hasOrgCondition(db) {
		return
	}

	orgID := logger.GetOrgID(db.Statement.Context)
	if orgID == "" {
		if oc.required {
			_ = db.AddError(ErrOrgIDRequired)
		}
		return
	}

	if _, err := uuid.Parse(orgID); err != nil {
		_ = db.AddError(ErrInvalidOrgID)
		return
	}

	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: clause.CurrentTable, Name: oc.orgColumn},
				Value:  orgID,
			},
		},
	})
}

// hasOrgCondition checks if an org_id condition is already present
func (oc *OrgCallback) hasOrgCondition(db *gorm.DB) bool {
	if db.Statement.Unscoped {
		return true
	}

	if whereClause, ok := db.Statement.Clauses["WHERE"]; ok {
		if where, ok := whereClause.Expression.(clause.Where); ok {
			for _, expr := range where.Exprs {
				if oc.exprContainsOrg(expr) {
					return true
				}
			}
		}
	}

	sql := db.Statement.SQL.String()
	if sql != "" && strings.Contains(sql, oc.orgColumn) {
		return true
	}

	return false
}

// exprContainsOrg checks if an expression references the org column
func (oc *OrgCallback) exprContainsOrg(expr clause.Expression) bool {
	switch e := expr.(type) {
	case clause.Eq:
		if col, ok := e.Column.(clause.Column); ok {
			return col.Name == oc.orgColumn
		}
	case clause.IN:
		if col, ok := e.Column.(clause.Column); ok {
			return col.Name == oc.orgColumn
		}
	case clause.Expr:
		return strings.Contains(e.SQL, oc.orgColumn)
	case clause.AndConditions:
		for _, cond := range e.Exprs {
			if oc.exprContainsOrg(cond) {
				return true
			}
		}
	case clause.OrConditions:
		for _, cond := range e.Exprs {
			if oc.exprContainsOrg(cond) {
				return true
			}
		}
	}
	return false
}

// EnableAutoOrgFilter registers callbacks that automatically add org_id
// filtering to all queries on the given GORM DB instance
func EnableAutoOrgFilter(db *gorm.DB, required bool) {
	oc := NewOrgCallback("org_id", required)
	oc.RegisterCallbacks(db)
}

// DisableAutoOrgFilter removes the org scope callbacks. Mainly for tests;
// GORM has no clean way to unregister callbacks in production.
func DisableAutoOrgFilter(db *gorm.DB) {
	_ = db.Callback().Query().Remove("tenant:before_query")
	_ = db.Callback().Update().Remove("tenant:before_update")
	_ = db.Callback().Delete().Remove("tenant:before_delete")
	_ = db.Callback().Row().Remove("tenant:before_row")
}
