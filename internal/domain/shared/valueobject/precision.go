// Package valueobject holds shared domain values that cut across aggregates.
package valueobject

// Monetary amounts carry 2 decimal places; currency conversion rates carry 4.
// Aggregates round with these before persisting so stored totals match what
// the API reports.
const (
	MoneyPrecision = 2
	RatePrecision  = 4
)
