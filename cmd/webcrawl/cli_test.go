package main_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	main "github.com/fwojciec/webcrawl/cmd/webcrawl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLI_HelpShowsAllCommands(t *testing.T) {
	t.Parallel()

	cli := &main.CLI{}
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	parser, err := kong.New(cli,
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	require.NoError(t, err)

	_, _ = parser.Parse([]string{"--help"})

	helpOutput := stdout.String()
	for _, cmd := range []string{"crawl", "runs", "show", "delete"} {
		assert.Contains(t, helpOutput, cmd, "Help should mention %s command", cmd)
	}
}

func TestCLI_CrawlFlags(t *testing.T) {
	t.Parallel()

	t.Run("applies defaults", func(t *testing.T) {
		t.Parallel()

		cli := &main.CLI{}
		parser, err := kong.New(cli, kong.Exit(func(int) {}))
		require.NoError(t, err)

		_, err = parser.Parse([]string{"crawl", "https://example.com/"})
		require.NoError(t, err)

		assert.Equal(t, []string{"https://example.com/"}, cli.Crawl.URLs)
		assert.Equal(t, 2, cli.Crawl.Depth)
		assert.Equal(t, "webcrawl/1.0", cli.Crawl.UserAgent)
		assert.Zero(t, cli.Crawl.Downloaders)
		assert.Zero(t, cli.Crawl.RPS)
		assert.False(t, cli.Crawl.NoSave)
		assert.False(t, cli.Crawl.ClearCache)
	})

	t.Run("parses short and long flags", func(t *testing.T) {
		t.Parallel()

		cli := &main.CLI{}
		parser, err := kong.New(cli, kong.Exit(func(int) {}))
		require.NoError(t, err)

		_, err = parser.Parse([]string{
			"crawl", "https://a.example/", "https://b.example/",
			"-d", "4", "-e", "2", "-p", "1",
			"--depth", "3",
			"--rps", "0.5",
			"--timeout", "30s",
			"--approx-dedup", "100000",
			"--cache-dir", "/tmp/pages", "--clear-cache",
			"--same-host", "--sitemap", "--no-save", "-v",
		})
		require.NoError(t, err)

		assert.Len(t, cli.Crawl.URLs, 2)
		assert.Equal(t, 4, cli.Crawl.Downloaders)
		assert.Equal(t, 2, cli.Crawl.Extractors)
		assert.Equal(t, 1, cli.Crawl.PerHost)
		assert.Equal(t, 3, cli.Crawl.Depth)
		assert.InDelta(t, 0.5, cli.Crawl.RPS, 1e-9)
		assert.Equal(t, "30s", cli.Crawl.Timeout.String())
		assert.Equal(t, uint(100000), cli.Crawl.ApproxDedup)
		assert.Equal(t, "/tmp/pages", cli.Crawl.CacheDir)
		assert.True(t, cli.Crawl.ClearCache)
		assert.True(t, cli.Crawl.SameHost)
		assert.True(t, cli.Crawl.Sitemap)
		assert.True(t, cli.Crawl.NoSave)
		assert.True(t, cli.Crawl.Verbose)
	})

	t.Run("requires a URL", func(t *testing.T) {
		t.Parallel()

		cli := &main.CLI{}
		parser, err := kong.New(cli, kong.Exit(func(int) {}))
		require.NoError(t, err)

		_, err = parser.Parse([]string{"crawl"})
		assert.Error(t, err)
	})
}

func TestMain_Run(t *testing.T) {
	t.Parallel()

	t.Run("help shows kong output", func(t *testing.T) {
		t.Parallel()

		m := main.NewMain()
		m.DBPath = filepath.Join(t.TempDir(), "test.db")

		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		err := m.Run(context.Background(), []string{"--help"}, stdout, stderr)
		require.NoError(t, err)

		helpOutput := stdout.String()
		assert.Contains(t, helpOutput, "crawl")
		assert.Contains(t, helpOutput, "Usage:")
		assert.Contains(t, helpOutput, "Flags:")
	})

	t.Run("returns error without a command", func(t *testing.T) {
		t.Parallel()

		m := main.NewMain()
		m.DBPath = filepath.Join(t.TempDir(), "test.db")

		err := m.Run(context.Background(), nil, &bytes.Buffer{}, &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no command specified")
	})

	t.Run("lists runs from a fresh database", func(t *testing.T) {
		t.Parallel()

		m := main.NewMain()
		m.DBPath = filepath.Join(t.TempDir(), "test.db")

		stdout := &bytes.Buffer{}
		err := m.Run(context.Background(), []string{"runs"}, stdout, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "No runs found")
	})

	t.Run("show reports missing run", func(t *testing.T) {
		t.Parallel()

		m := main.NewMain()
		m.DBPath = filepath.Join(t.TempDir(), "test.db")

		stderr := &bytes.Buffer{}
		err := m.Run(context.Background(), []string{"show", "missing"}, &bytes.Buffer{}, stderr)
		require.Error(t, err)
		assert.Contains(t, stderr.String(), `run "missing" not found`)
	})

	t.Run("reports database open failure", func(t *testing.T) {
		t.Parallel()

		m := main.NewMain()
		m.DBPath = filepath.Join(t.TempDir(), "missing", "dir", "test.db")

		stderr := &bytes.Buffer{}
		err := m.Run(context.Background(), []string{"runs"}, &bytes.Buffer{}, stderr)
		require.Error(t, err)
		assert.Contains(t, stderr.String(), "WEBCRAWL_DB")
	})
	t.Run("crawl clears the cache before fetching", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(`<html><body><p>fresh</p></body></html>`))
		}))
		t.Cleanup(srv.Close)

		cacheDir := t.TempDir()
		stale := filepath.Join(cacheDir, "00000000deadbeef.html")
		require.NoError(t, os.WriteFile(stale, []byte("<p>stale</p>"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(cacheDir, "notes.txt"), []byte("keep"), 0644))

		m := main.NewMain()
		m.DBPath = filepath.Join(t.TempDir(), "test.db")

		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}
		err := m.Run(context.Background(), []string{
			"crawl", srv.URL + "/", "--depth", "1", "--no-save",
			"--cache-dir", cacheDir, "--clear-cache",
		}, stdout, stderr)
		require.NoError(t, err)

		assert.Contains(t, stdout.String(), srv.URL)
		assert.Contains(t, stderr.String(), `msg="cache cleared"`)
		assert.NoFileExists(t, stale)
		assert.FileExists(t, filepath.Join(cacheDir, "notes.txt"))

		pages, err := filepath.Glob(filepath.Join(cacheDir, "*.html"))
		require.NoError(t, err)
		assert.Len(t, pages, 1)
	})

	t.Run("rejects --clear-cache without --cache-dir", func(t *testing.T) {
		t.Parallel()

		m := main.NewMain()
		m.DBPath = filepath.Join(t.TempDir(), "test.db")

		err := m.Run(context.Background(), []string{
			"crawl", "https://example.com/", "--clear-cache",
		}, &bytes.Buffer{}, &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--clear-cache requires --cache-dir")
	})
}
