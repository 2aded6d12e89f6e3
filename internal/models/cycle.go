package models

import "time"

// Cycle is one 7-day unit of tracked activity owned by a single user.
// A non-nil CompletedAt marks the cycle archived; archived cycles are
// immutable.
type Cycle struct {
	ID             string     `json:"id"`
	OwnerID        string     `json:"owner_id"`
	SequenceNumber int        `json:"sequence_number"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// Archived reports whether the cycle has been archived.
func (c *Cycle) Archived() bool {
	return c != nil && c.CompletedAt != nil
}

// Day is one of the seven fixed slots within a cycle.
type Day struct {
	ID        string `json:"id"`
	CycleID   string `json:"cycle_id"`
	DayIndex  int    `json:"day_index"`
	Completed bool   `json:"completed"`
}

// Task is a single checklist item under a day. Identity fields are
// fixed at creation; only Completed is mutated afterwards.
type Task struct {
	ID          string    `json:"id"`
	DayID       string    `json:"day_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
}
