package domain

import "errors"

// Engine failure taxonomy. A disallowed dose is NOT an error: it is a
// normal SafetyCheckResult with Allowed=false. These sentinels cover
// the two actual failure classes the engine reports upward; the web
// layer maps them to status codes with errors.Is.
var (
	// ErrNotFound marks required reference data or records absent for a
	// given key (percentile row outside table coverage, unknown baby,
	// missing measurement). Never silently defaulted.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput marks caller errors rejected before computation
	// begins (category not valid for interval aggregation, malformed
	// date range, non-positive amounts).
	ErrInvalidInput = errors.New("invalid input")
)
