// Package storage persists validation runs. The memory backend is the
// default; the sqlite backend keeps runs across invocations.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pthm-cable/gridmapf/validate"
)

// Run is one stored validation of a path tensor.
type Run struct {
	SchemaVersion int             `json:"schema_version"`
	ID            string          `json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	PathsFile     string          `json:"paths_file"`
	Map           string          `json:"map"`
	Steps         int             `json:"steps"`
	Agents        int             `json:"agents"`
	Connectivity  int             `json:"connectivity"`
	Report        validate.Report `json:"report"`
}

// NewRun stamps a report with a fresh id and the current time.
func NewRun(report validate.Report) Run {
	return Run{
		SchemaVersion: CurrentSchemaVersion,
		ID:            uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		Report:        report,
	}
}

// Store defines persistence operations for validation runs.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	// ListRuns returns up to limit runs, newest first. limit ≤ 0 means all.
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}
