package sqlite

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/fwojciec/webcrawl"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ webcrawl.RunService = (*RunService)(nil)

// RunService implements webcrawl.RunService using SQLite.
type RunService struct {
	db *DB
}

// NewRunService creates a new RunService.
func NewRunService(db *DB) *RunService {
	return &RunService{db: db}
}

// CreateRun stores the run and its pages in one transaction.
func (s *RunService) CreateRun(ctx context.Context, run *webcrawl.Run) error {
	if err := run.Validate(); err != nil {
		return err
	}

	run.ID = uuid.New().String()
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}
	run.PageCount = len(run.URLs)
	run.ErrorCount = len(run.Errors)

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, seed_url, depth, started_at, finished_at, page_count, error_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.SeedURL, run.Depth,
		formatTime(run.StartedAt), formatTime(run.FinishedAt),
		run.PageCount, run.ErrorCount); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_pages (run_id, url, failed, error) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, u := range run.URLs {
		if _, err := stmt.ExecContext(ctx, run.ID, u, 0, ""); err != nil {
			return err
		}
	}
	for u, msg := range run.Errors {
		if _, err := stmt.ExecContext(ctx, run.ID, u, 1, msg); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FindRunByID retrieves a run with its URLs and errors.
func (s *RunService) FindRunByID(ctx context.Context, id string) (*webcrawl.Run, error) {
	runs, err := s.FindRuns(ctx, webcrawl.RunFilter{ID: &id, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, webcrawl.Errorf(webcrawl.ENOTFOUND, "run not found")
	}
	run := runs[0]

	rows, err := s.db.QueryContext(ctx, `
		SELECT url, failed, error FROM run_pages WHERE run_id = ? ORDER BY url
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	run.URLs = []string{}
	run.Errors = make(map[string]string)
	for rows.Next() {
		var u, msg string
		var failed bool
		if err := rows.Scan(&u, &failed, &msg); err != nil {
			return nil, err
		}
		if failed {
			run.Errors[u] = msg
		} else {
			run.URLs = append(run.URLs, u)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(run.URLs)

	return run, nil
}

// FindRuns retrieves runs matching the filter, newest first.
// URLs and Errors are left empty; PageCount and ErrorCount are set.
func (s *RunService) FindRuns(ctx context.Context, filter webcrawl.RunFilter) ([]*webcrawl.Run, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, seed_url, depth, started_at, finished_at, page_count, error_count FROM runs WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.SeedURL != nil {
		query.WriteString(" AND seed_url = ?")
		args = append(args, *filter.SeedURL)
	}

	query.WriteString(" ORDER BY started_at DESC, id")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []*webcrawl.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteRun permanently removes a run and its pages.
func (s *RunService) DeleteRun(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return webcrawl.Errorf(webcrawl.ENOTFOUND, "run not found")
	}
	return nil
}

func scanRun(rows *sql.Rows) (*webcrawl.Run, error) {
	var run webcrawl.Run
	var startedAt, finishedAt string

	if err := rows.Scan(&run.ID, &run.SeedURL, &run.Depth, &startedAt, &finishedAt,
		&run.PageCount, &run.ErrorCount); err != nil {
		return nil, err
	}

	var err error
	if run.StartedAt, err = parseRFC3339(startedAt, "started_at"); err != nil {
		return nil, err
	}
	if run.FinishedAt, err = parseRFC3339(finishedAt, "finished_at"); err != nil {
		return nil, err
	}
	return &run, nil
}
