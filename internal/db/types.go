package db

import (
	"time"

	"github.com/google/uuid"
)

// Run represents one persisted scan run
type Run struct {
	ID          uuid.UUID  `json:"id"`
	Profile     string     `json:"profile"`
	Status      string     `json:"status"`
	Logs        int        `json:"logs"`
	Records     int        `json:"records"`
	Failures    int        `json:"failures"`
	Missing     int        `json:"missing"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Run status values
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// RunCounts are the totals stored when a run completes
type RunCounts struct {
	Logs     int
	Records  int
	Failures int
	Missing  int
}
