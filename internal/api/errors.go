package api

import "fmt"

// APIError carries the structured error payload the server attaches to
// non-2xx responses. Code is the stable machine-readable string (for
// example "cycle_not_ready"), ErrorCode the numeric identifier from the
// server's error table, and Message the user-facing text.
type APIError struct {
	Status    int
	Code      string
	ErrorCode int
	Message   string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Code != "" && e.Message != "":
		return e.Code + ": " + e.Message
	case e.Message != "":
		return e.Message
	case e.Status > 0:
		return fmt.Sprintf("api error: %d", e.Status)
	}
	return "api error"
}
