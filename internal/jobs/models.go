package jobs

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

var allStatuses = []Status{StatusQueued, StatusRunning, StatusDone, StatusError}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// IsTerminal reports whether the status ends the job lifecycle.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusError
}

// Result holds the assembled output payload of a finished job.
type Result struct {
	Title    string `json:"title"`
	Authors  string `json:"authors"`
	Abstract string `json:"abstract"`
	Script   string `json:"script"`
	AudioRef string `json:"audio_ref,omitempty"`
}

// Snapshot is an immutable copy of a job's observable state at one instant.
type Snapshot struct {
	ID           string
	Status       Status
	Progress     float64
	Stage        string
	Message      string
	Result       *Result
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Clone returns a deep copy so callers can hold snapshots without aliasing
// the stored result.
func (s Snapshot) Clone() Snapshot {
	cp := s
	if s.Result != nil {
		result := *s.Result
		cp.Result = &result
	}
	return cp
}

// Patch describes a partial update merged into a job. Nil fields are left
// untouched.
type Patch struct {
	Status   *Status
	Progress *float64
	Stage    *string
	Message  *string
	Result   *Result
	Error    *string
}

// Ptr is a convenience for building Patch literals.
func Ptr[T any](v T) *T { return &v }
