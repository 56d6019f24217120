package milestone

import "time"

// Status is the execution state of a milestone.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusComplete   Status = "complete"
)

var cycle = []Status{StatusNotStarted, StatusInProgress, StatusBlocked, StatusComplete}

// Valid reports whether the status is known.
func (s Status) Valid() bool {
	for _, c := range cycle {
		if c == s {
			return true
		}
	}
	return false
}

// NextStatus rotates through the statuses; complete wraps to not_started.
func NextStatus(s Status) Status {
	for i, c := range cycle {
		if c == s {
			return cycle[(i+1)%len(cycle)]
		}
	}
	return StatusNotStarted
}

// Milestone is one tracked item of an execution plan.
type Milestone struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenant_id"`
	SessionID   string     `json:"session_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Owner       string     `json:"owner,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Status      Status     `json:"status"`
	Position    int        `json:"position"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Draft is an unsaved milestone derived from an execution plan phase.
type Draft struct {
	Title       string
	Description string
	Owner       string
	DueDate     *time.Time
}
