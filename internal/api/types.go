package api

import "time"

// ErrorResponse is a generic JSON error wrapper.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// ActionResponse acknowledges a mutation.
type ActionResponse struct {
	Success bool `json:"success"`
}

// TaskView is one checklist item in the dashboard projection.
type TaskView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Completed   bool   `json:"completed"`
}

// DayView is one day slot with its checklist.
type DayView struct {
	ID        string     `json:"id"`
	DayNumber int        `json:"day_number"`
	Completed bool       `json:"completed"`
	Tasks     []TaskView `json:"tasks"`
}

// CycleView is the active cycle with days, tasks and aggregates.
type CycleView struct {
	ID             string     `json:"id"`
	SequenceNumber int        `json:"sequence_number"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Days           []DayView  `json:"days"`
	CompletedCount int        `json:"completed_count"`
}

// DashboardResponse is the full view model for the dashboard.
type DashboardResponse struct {
	Username        string    `json:"username"`
	Cycle           CycleView `json:"cycle"`
	PastCyclesCount int       `json:"past_cycles_count"`
}

// CompletionRequest sets the target completion state for a day or task.
type CompletionRequest struct {
	Completed bool `json:"completed"`
}

// AdvanceResponse reports a successful cycle rollover.
type AdvanceResponse struct {
	Success    bool   `json:"success"`
	NewCycleID string `json:"new_cycle_id"`
}

// AuthCredentialsRequest carries signup and login credentials.
type AuthCredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthMeResponse describes the current authentication state.
type AuthMeResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	Role          string `json:"role,omitempty"`
}

// AdminUserCreateRequest provisions one user over the admin API.
type AdminUserCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminUserUpdateRequest updates one user's disabled state.
type AdminUserUpdateRequest struct {
	Disabled *bool `json:"disabled"`
}

// AdminUserResponse is the admin view of one user.
type AdminUserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Disabled  bool      `json:"disabled"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminUserListResponse lists provisioned users.
type AdminUserListResponse struct {
	Count int                 `json:"count"`
	Users []AdminUserResponse `json:"users"`
}

// InfoResponse reports server and store metadata.
type InfoResponse struct {
	DBPath        string `json:"db_path"`
	SchemaVersion int    `json:"schema_version"`
	UserCount     int    `json:"user_count"`
	CycleCount    int    `json:"cycle_count"`
}
