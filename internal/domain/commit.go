package domain

import "time"

// CommitStatus is the outcome of a commit.
type CommitStatus string

const (
	CommitSuccess CommitStatus = "success"
	CommitError   CommitStatus = "error"
)

// CommitRun is the history entry written for every commit attempt.
type CommitRun struct {
	ID         string       `json:"id"`
	Document   string       `json:"document"`
	Mode       string       `json:"mode"` // "iterate" | "direct"
	Records    int          `json:"records"`
	Bound      int          `json:"bound"`
	Failed     int          `json:"failed"`
	Status     CommitStatus `json:"status"`
	Error      string       `json:"error,omitempty"`
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt time.Time    `json:"finishedAt"`
}

// CommitRunStore persists commit history.
type CommitRunStore interface {
	CreateRun(r *CommitRun) error
	ListRuns(limit int) ([]CommitRun, error)
}
