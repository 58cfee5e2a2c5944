package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/fwojciec/webcrawl"
)

// seedColumnWidth is the widest seed URL shown by the runs listing.
const seedColumnWidth = 50

// Run executes the runs command.
func (c *RunsCmd) Run(deps *Dependencies) error {
	filter := webcrawl.RunFilter{Limit: c.Limit}
	if c.Seed != "" {
		filter.SeedURL = &c.Seed
	}

	runs, err := deps.Runs.FindRuns(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", webcrawl.ErrorMessage(err))
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(deps.Stdout, "No runs found. Use 'webcrawl crawl' to start one.")
		return nil
	}

	for _, r := range runs {
		fmt.Fprintf(deps.Stdout, "%s  %s  %-*s  depth=%d  pages=%d  errors=%d\n",
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			seedColumnWidth, truncateURL(r.SeedURL, seedColumnWidth),
			r.Depth, r.PageCount, r.ErrorCount,
		)
	}

	return nil
}

// Run executes the show command.
func (c *ShowCmd) Run(deps *Dependencies) error {
	run, err := deps.Runs.FindRunByID(deps.Ctx, c.ID)
	if err != nil {
		if webcrawl.ErrorCode(err) == webcrawl.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: run %q not found. Use 'webcrawl runs' to see stored runs.\n", c.ID)
			return err
		}
		fmt.Fprintf(deps.Stderr, "error: %s\n", webcrawl.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Run %s\n", run.ID)
	fmt.Fprintf(deps.Stdout, "  Seed:     %s\n", run.SeedURL)
	fmt.Fprintf(deps.Stdout, "  Depth:    %d\n", run.Depth)
	fmt.Fprintf(deps.Stdout, "  Started:  %s\n", run.StartedAt.Local().Format(time.DateTime))
	fmt.Fprintf(deps.Stdout, "  Duration: %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))

	fmt.Fprintf(deps.Stdout, "\nPages (%d):\n", len(run.URLs))
	for _, u := range run.URLs {
		fmt.Fprintf(deps.Stdout, "  %s\n", u)
	}

	if len(run.Errors) > 0 {
		failed := make([]string, 0, len(run.Errors))
		for u := range run.Errors {
			failed = append(failed, u)
		}
		sort.Strings(failed)

		fmt.Fprintf(deps.Stdout, "\nErrors (%d):\n", len(failed))
		for _, u := range failed {
			fmt.Fprintf(deps.Stdout, "  %s\n    %s\n", u, run.Errors[u])
		}
	}

	return nil
}

// Run executes the delete command.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return webcrawl.Errorf(webcrawl.EINVALID, "use --force to confirm deletion")
	}

	if err := deps.Runs.DeleteRun(deps.Ctx, c.ID); err != nil {
		if webcrawl.ErrorCode(err) == webcrawl.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: run %q not found. Use 'webcrawl runs' to see stored runs.\n", c.ID)
			return err
		}
		fmt.Fprintf(deps.Stderr, "error: %s\n", webcrawl.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Deleted run %s\n", c.ID)
	return nil
}
