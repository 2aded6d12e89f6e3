package models

import "errors"

// CycleDayCount is the fixed number of days per cycle.
const CycleDayCount = 7

// Domain errors returned by the store and mapped onto the HTTP error
// taxonomy by the server. They are sentinels so callers can use
// errors.Is across the transaction boundary.
var (
	ErrNotFound      = errors.New("not found")
	ErrAccessDenied  = errors.New("access denied")
	ErrCycleArchived = errors.New("cycle already archived")
	ErrCycleNotReady = errors.New("complete all days before starting a new cycle")
	ErrSchemaMissing = errors.New("database schema missing: run `kyklos migrate` to provision it")
)

// ValidDayIndex reports whether index is a legal day slot (1..7).
func ValidDayIndex(index int) bool {
	return index >= 1 && index <= CycleDayCount
}
