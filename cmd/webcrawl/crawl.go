package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/fwojciec/webcrawl"
	"golang.org/x/sync/errgroup"
)

// maxParallelSeeds bounds how many seeds are crawled at once. Every seed
// shares the crawler's pools, so this only caps per-run bookkeeping.
const maxParallelSeeds = 8

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	if c.Depth < 1 {
		fmt.Fprintf(deps.Stderr, "error: --depth must be at least 1\n")
		return webcrawl.Errorf(webcrawl.EINVALID, "depth must be at least 1, got %d", c.Depth)
	}

	seeds := make([]seed, 0, len(c.URLs))
	for _, u := range c.URLs {
		seeds = append(seeds, seed{url: u, depth: c.Depth})
	}
	if c.Sitemap && deps.Sitemaps != nil {
		for _, u := range c.URLs {
			discovered, err := deps.Sitemaps.DiscoverURLs(deps.Ctx, u)
			if err != nil {
				fmt.Fprintf(deps.Stderr, "error: sitemap %s: %s\n", u, webcrawl.ErrorMessage(err))
				return err
			}
			// Sitemap pages are downloaded without following their links;
			// the given seeds already reach the rest of the site.
			for _, d := range discovered {
				seeds = append(seeds, seed{url: d, depth: 1})
			}
		}
	}
	seeds = uniqueSeeds(seeds)

	runs := make([]*webcrawl.Run, len(seeds))
	g, ctx := errgroup.WithContext(deps.Ctx)
	g.SetLimit(maxParallelSeeds)
	for i, s := range seeds {
		g.Go(func() error {
			started := time.Now().UTC()
			result, err := deps.Crawler.Download(ctx, s.url, s.depth)
			if err != nil {
				return fmt.Errorf("crawl %s: %w", s.url, err)
			}
			runs[i] = webcrawl.NewRun(s.url, s.depth, started, result)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return err
	}

	for _, run := range runs {
		if !c.NoSave && deps.Runs != nil {
			if err := deps.Runs.CreateRun(deps.Ctx, run); err != nil {
				fmt.Fprintf(deps.Stderr, "error: %s\n", webcrawl.ErrorMessage(err))
				return err
			}
		}
		printRun(deps, run)
	}

	return nil
}

// printRun writes downloaded URLs to stdout, then failures and a summary to stderr.
func printRun(deps *Dependencies, run *webcrawl.Run) {
	for _, u := range run.URLs {
		fmt.Fprintln(deps.Stdout, u)
	}

	failed := make([]string, 0, len(run.Errors))
	for u := range run.Errors {
		failed = append(failed, u)
	}
	sort.Strings(failed)
	for _, u := range failed {
		fmt.Fprintf(deps.Stderr, "error %s: %s\n", u, run.Errors[u])
	}

	summary := fmt.Sprintf("Crawled %s: %d pages, %d errors in %s",
		run.SeedURL, run.PageCount, run.ErrorCount, run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	if run.ID != "" {
		summary += fmt.Sprintf(" (run %s)", run.ID)
	}
	fmt.Fprintln(deps.Stderr, summary)
}

// seed is a URL to crawl and the depth to crawl it to.
type seed struct {
	url   string
	depth int
}

// uniqueSeeds removes repeated seed URLs, keeping the first occurrence.
func uniqueSeeds(seeds []seed) []seed {
	seen := make(map[string]struct{}, len(seeds))
	unique := make([]seed, 0, len(seeds))
	for _, s := range seeds {
		if _, ok := seen[s.url]; ok {
			continue
		}
		seen[s.url] = struct{}{}
		unique = append(unique, s)
	}
	return unique
}
