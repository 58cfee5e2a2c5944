package main_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fwojciec/webcrawl"
	main "github.com/fwojciec/webcrawl/cmd/webcrawl"
	"github.com/fwojciec/webcrawl/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrawlCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("prints URLs, errors and a summary, then saves the run", func(t *testing.T) {
		t.Parallel()

		crawler := &mock.Crawler{
			DownloadFn: func(_ context.Context, url string, depth int) (*webcrawl.Result, error) {
				assert.Equal(t, "https://example.com/", url)
				assert.Equal(t, 3, depth)
				return &webcrawl.Result{
					URLs: []string{"https://example.com/", "https://example.com/a"},
					Errors: map[string]error{
						"https://example.com/b": &webcrawl.Failure{Kind: webcrawl.FailureFetch, URL: "https://example.com/b", Err: errors.New("HTTP 404 for https://example.com/b")},
					},
				}, nil
			},
		}

		var saved *webcrawl.Run
		runs := &mock.RunService{
			CreateRunFn: func(_ context.Context, run *webcrawl.Run) error {
				run.ID = "run-1"
				saved = run
				return nil
			},
		}

		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  stdout,
			Stderr:  stderr,
			Runs:    runs,
			Crawler: crawler,
		}

		cmd := &main.CrawlCmd{URLs: []string{"https://example.com/"}, Depth: 3}
		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "https://example.com/\nhttps://example.com/a\n", stdout.String())
		assert.Contains(t, stderr.String(), "error https://example.com/b: ")
		assert.Contains(t, stderr.String(), "HTTP 404")
		assert.Contains(t, stderr.String(), "2 pages, 1 errors")
		assert.Contains(t, stderr.String(), "(run run-1)")

		require.NotNil(t, saved)
		assert.Equal(t, "https://example.com/", saved.SeedURL)
		assert.Equal(t, 3, saved.Depth)
		assert.Equal(t, 2, saved.PageCount)
		assert.Equal(t, 1, saved.ErrorCount)
	})

	t.Run("does not save with --no-save", func(t *testing.T) {
		t.Parallel()

		crawler := &mock.Crawler{
			DownloadFn: func(_ context.Context, url string, _ int) (*webcrawl.Result, error) {
				return &webcrawl.Result{URLs: []string{url}, Errors: map[string]error{}}, nil
			},
		}
		runs := &mock.RunService{
			CreateRunFn: func(_ context.Context, _ *webcrawl.Run) error {
				t.Error("CreateRun should not be called")
				return nil
			},
		}

		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  &bytes.Buffer{},
			Stderr:  stderr,
			Runs:    runs,
			Crawler: crawler,
		}

		cmd := &main.CrawlCmd{URLs: []string{"https://example.com/"}, Depth: 1, NoSave: true}
		require.NoError(t, cmd.Run(deps))
		assert.NotContains(t, stderr.String(), "(run ")
	})

	t.Run("crawls every seed once in order", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var crawled []string
		crawler := &mock.Crawler{
			DownloadFn: func(_ context.Context, url string, _ int) (*webcrawl.Result, error) {
				mu.Lock()
				crawled = append(crawled, url)
				mu.Unlock()
				return &webcrawl.Result{URLs: []string{url}, Errors: map[string]error{}}, nil
			},
		}

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  stdout,
			Stderr:  &bytes.Buffer{},
			Crawler: crawler,
		}

		cmd := &main.CrawlCmd{
			URLs:   []string{"https://a.example/", "https://b.example/", "https://a.example/"},
			Depth:  1,
			NoSave: true,
		}
		require.NoError(t, cmd.Run(deps))

		assert.ElementsMatch(t, []string{"https://a.example/", "https://b.example/"}, crawled)
		assert.Equal(t, "https://a.example/\nhttps://b.example/\n", stdout.String())
	})

	t.Run("adds sitemap URLs as seeds", func(t *testing.T) {
		t.Parallel()

		sitemaps := &mock.SitemapService{
			DiscoverURLsFn: func(_ context.Context, baseURL string) ([]string, error) {
				assert.Equal(t, "https://example.com/docs", baseURL)
				return []string{"https://example.com/docs/a", "https://example.com/docs"}, nil
			},
		}

		var mu sync.Mutex
		crawled := map[string]int{}
		crawler := &mock.Crawler{
			DownloadFn: func(_ context.Context, url string, depth int) (*webcrawl.Result, error) {
				mu.Lock()
				crawled[url] = depth
				mu.Unlock()
				return &webcrawl.Result{URLs: []string{url}, Errors: map[string]error{}}, nil
			},
		}

		var saved []*webcrawl.Run
		runs := &mock.RunService{
			CreateRunFn: func(_ context.Context, run *webcrawl.Run) error {
				saved = append(saved, run)
				return nil
			},
		}

		deps := &main.Dependencies{
			Ctx:      context.Background(),
			Stdout:   &bytes.Buffer{},
			Stderr:   &bytes.Buffer{},
			Runs:     runs,
			Sitemaps: sitemaps,
			Crawler:  crawler,
		}

		cmd := &main.CrawlCmd{URLs: []string{"https://example.com/docs"}, Depth: 3, Sitemap: true}
		require.NoError(t, cmd.Run(deps))

		// The given seed keeps --depth; sitemap URLs are downloaded alone.
		assert.Equal(t, map[string]int{
			"https://example.com/docs":   3,
			"https://example.com/docs/a": 1,
		}, crawled)
		require.Len(t, saved, 2)
		assert.Equal(t, 3, saved[0].Depth)
		assert.Equal(t, 1, saved[1].Depth)
	})

	t.Run("returns sitemap discovery error", func(t *testing.T) {
		t.Parallel()

		sitemaps := &mock.SitemapService{
			DiscoverURLsFn: func(_ context.Context, _ string) ([]string, error) {
				return nil, webcrawl.Errorf(webcrawl.EINVALID, "invalid base URL %q", "nope")
			},
		}

		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:      context.Background(),
			Stdout:   &bytes.Buffer{},
			Stderr:   stderr,
			Sitemaps: sitemaps,
		}

		cmd := &main.CrawlCmd{URLs: []string{"nope"}, Depth: 1, Sitemap: true}
		err := cmd.Run(deps)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), `invalid base URL "nope"`)
	})

	t.Run("returns crawler error", func(t *testing.T) {
		t.Parallel()

		crawler := &mock.Crawler{
			DownloadFn: func(_ context.Context, _ string, _ int) (*webcrawl.Result, error) {
				return nil, webcrawl.Errorf(webcrawl.ECLOSED, "crawler is closed")
			},
		}

		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  stdout,
			Stderr:  stderr,
			Crawler: crawler,
		}

		cmd := &main.CrawlCmd{URLs: []string{"https://example.com/"}, Depth: 2}
		err := cmd.Run(deps)

		require.Error(t, err)
		assert.Equal(t, webcrawl.ECLOSED, webcrawl.ErrorCode(err))
		assert.Contains(t, stderr.String(), "error: crawl https://example.com/")
		assert.Empty(t, stdout.String())
	})

	t.Run("rejects depth below one", func(t *testing.T) {
		t.Parallel()

		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: &bytes.Buffer{},
			Stderr: stderr,
		}

		cmd := &main.CrawlCmd{URLs: []string{"https://example.com/"}, Depth: 0}
		err := cmd.Run(deps)

		require.Error(t, err)
		assert.Equal(t, webcrawl.EINVALID, webcrawl.ErrorCode(err))
		assert.Contains(t, stderr.String(), "--depth")
	})

	t.Run("returns save error", func(t *testing.T) {
		t.Parallel()

		crawler := &mock.Crawler{
			DownloadFn: func(_ context.Context, url string, _ int) (*webcrawl.Result, error) {
				return &webcrawl.Result{URLs: []string{url}, Errors: map[string]error{}}, nil
			},
		}
		runs := &mock.RunService{
			CreateRunFn: func(_ context.Context, _ *webcrawl.Run) error {
				return errors.New("disk full")
			},
		}

		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  &bytes.Buffer{},
			Stderr:  stderr,
			Runs:    runs,
			Crawler: crawler,
		}

		cmd := &main.CrawlCmd{URLs: []string{"https://example.com/"}, Depth: 1}
		err := cmd.Run(deps)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "error: Internal error.")
	})
}
