package server

const (
	// Validation (1xxx)
	ErrCodeInvalidArgument = 1000
	ErrCodeInvalidJSON     = 1001
	ErrCodeRequestTooLarge = 1002
	ErrCodeInvalidID       = 1003
	ErrCodeMissingRequired = 1004

	// Domain state (2xxx)
	ErrCodeCycleNotFound  = 2001
	ErrCodeDayNotFound    = 2002
	ErrCodeTaskNotFound   = 2003
	ErrCodeUserNotFound   = 2004
	ErrCodeCycleArchived  = 2101
	ErrCodeCycleNotReady  = 2102
	ErrCodeConflict       = 2103
	ErrCodeUsernameExists = 2104

	// Auth & limits (3xxx)
	ErrCodeUnauthorized      = 3001
	ErrCodeAccessDenied      = 3002
	ErrCodeResourceExhausted = 3003

	// Internal/system (4xxx)
	ErrCodeInternal      = 4001
	ErrCodeStoreFailure  = 4002
	ErrCodeSchemaMissing = 4003
)

func defaultErrorCodeByStatus(status int) int {
	switch status {
	case 400:
		return ErrCodeInvalidArgument
	case 401:
		return ErrCodeUnauthorized
	case 403:
		return ErrCodeAccessDenied
	case 404:
		return ErrCodeCycleNotFound
	case 409:
		return ErrCodeConflict
	case 429:
		return ErrCodeResourceExhausted
	case 500:
		return ErrCodeInternal
	case 503:
		return ErrCodeSchemaMissing
	default:
		return 0
	}
}
