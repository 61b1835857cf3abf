package httpapi

import "time"

// Status is the live view of the current run.
type Status struct {
	RunID     string    `json:"run_id"`
	Running   bool      `json:"running"`
	StartedAt time.Time `json:"started_at"`
	Total     int       `json:"total"`
	Done      int       `json:"done"`
	Item      string    `json:"item,omitempty"`
	Label     string    `json:"label,omitempty"`
	Attempt   int       `json:"attempt,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	Aborted   bool      `json:"aborted,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
