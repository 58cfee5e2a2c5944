package webcrawl

import (
	"context"
	"time"
)

// Run is a stored report of a finished crawl.
type Run struct {
	ID         string    `json:"id"`
	SeedURL    string    `json:"seedUrl"`
	Depth      int       `json:"depth"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	PageCount  int       `json:"pageCount"`
	ErrorCount int       `json:"errorCount"`

	// URLs and Errors are only populated when a single run is loaded.
	URLs   []string          `json:"urls,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Validate returns an error if the run contains invalid fields.
func (r *Run) Validate() error {
	if r.SeedURL == "" {
		return Errorf(EINVALID, "run seed URL required")
	}
	if r.Depth < 1 {
		return Errorf(EINVALID, "run depth must be at least 1")
	}
	return nil
}

// NewRun builds a Run report from a crawl result.
func NewRun(seedURL string, depth int, startedAt time.Time, result *Result) *Run {
	run := &Run{
		SeedURL:    seedURL,
		Depth:      depth,
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC(),
		Errors:     make(map[string]string),
	}
	if result == nil {
		return run
	}
	run.URLs = append(run.URLs, result.URLs...)
	for u, err := range result.Errors {
		run.Errors[u] = err.Error()
	}
	run.PageCount = len(run.URLs)
	run.ErrorCount = len(run.Errors)
	return run
}

// RunService represents a service for managing stored crawl reports.
// Reports are written after a crawl finishes and are never used to resume one.
type RunService interface {
	// CreateRun stores a new run and assigns its ID.
	CreateRun(ctx context.Context, run *Run) error

	// FindRunByID retrieves a run including its URLs and errors.
	// Returns ENOTFOUND if the run does not exist.
	FindRunByID(ctx context.Context, id string) (*Run, error)

	// FindRuns retrieves runs matching the filter, newest first.
	// URLs and Errors are not populated.
	FindRuns(ctx context.Context, filter RunFilter) ([]*Run, error)

	// DeleteRun permanently removes a run.
	// Returns ENOTFOUND if the run does not exist.
	DeleteRun(ctx context.Context, id string) error
}

// RunFilter represents a filter for FindRuns.
type RunFilter struct {
	ID      *string `json:"id"`
	SeedURL *string `json:"seedUrl"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
