package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/webcrawl"
	"github.com/fwojciec/webcrawl/crawl"
	"github.com/fwojciec/webcrawl/fs"
	"github.com/fwojciec/webcrawl/goquery"
	webcrawlhttp "github.com/fwojciec/webcrawl/http"
	"github.com/fwojciec/webcrawl/rod"
	webcrawlslog "github.com/fwojciec/webcrawl/slog"
	"github.com/fwojciec/webcrawl/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	RunService webcrawl.RunService
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("webcrawl"),
		kong.Description("Bounded-concurrency recursive web crawler."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'webcrawl --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set WEBCRAWL_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	defer m.Close()

	m.RunService = sqlite.NewRunService(m.DB)
	deps.DB = m.DB
	deps.Runs = m.RunService

	if cmd == "crawl" {
		logger := newLogger(stderr, cli.Crawl.Verbose)

		crawler, cleanup, err := newCrawler(&cli.Crawl, logger)
		if err != nil {
			if cli.Crawl.Browser {
				fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
			}
			return fmt.Errorf("failed to start crawler: %w", err)
		}
		defer cleanup()
		deps.Crawler = crawler

		if cli.Crawl.Sitemap {
			sitemaps := webcrawlhttp.NewSitemapService(nil)
			sitemaps.UserAgent = cli.Crawl.UserAgent
			deps.Sitemaps = webcrawlslog.NewLoggingSitemapService(sitemaps, logger)
		}
	}

	return kongCtx.Run(deps)
}

// newLogger returns a text logger on w at info level, or debug when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newCrawler assembles the fetch pipeline described by the crawl flags.
// The returned cleanup closes the crawler and then the fetcher.
func newCrawler(c *CrawlCmd, logger *slog.Logger) (webcrawl.Crawler, func(), error) {
	if c.ClearCache && c.CacheDir == "" {
		return nil, nil, webcrawl.Errorf(webcrawl.EINVALID, "--clear-cache requires --cache-dir")
	}

	var fetcher webcrawl.Fetcher
	var browser *rod.Fetcher
	if c.Browser {
		f, err := rod.NewFetcher(rod.WithFetchTimeout(c.Timeout))
		if err != nil {
			return nil, nil, err
		}
		fetcher, browser = f, f
	} else {
		opts := []webcrawlhttp.Option{
			webcrawlhttp.WithTimeout(c.Timeout),
			webcrawlhttp.WithUserAgent(c.UserAgent),
			webcrawlhttp.WithLogger(logger),
		}
		if c.RPS > 0 {
			opts = append(opts, webcrawlhttp.WithDomainLimiter(webcrawlhttp.NewDomainLimiter(c.RPS)))
		}
		fetcher = webcrawlhttp.NewFetcher(opts...)
	}

	if c.CacheDir != "" {
		cache := fs.NewCachingFetcher(fetcher, c.CacheDir, fs.WithLogger(logger))
		if c.ClearCache {
			if err := cache.Clear(); err != nil {
				_ = cache.Close()
				return nil, nil, fmt.Errorf("clearing cache: %w", err)
			}
			logger.Info("cache cleared", "dir", c.CacheDir)
		}
		fetcher = cache
	}
	if c.Verbose {
		fetcher = webcrawlslog.NewLoggingFetcher(fetcher, logger)
	}

	var downloaderOpts []goquery.Option
	if c.SameHost {
		downloaderOpts = append(downloaderOpts, goquery.WithSameHost())
	}
	downloader := goquery.NewDownloader(fetcher, downloaderOpts...)

	crawlOpts := []crawl.Option{
		crawl.WithProgress(webcrawlslog.NewProgressLogger(logger)),
	}
	if c.ApproxDedup > 0 {
		crawlOpts = append(crawlOpts, crawl.WithApproximateDedup(c.ApproxDedup, approxDedupFPRate))
	}
	crawler := webcrawlslog.NewLoggingCrawler(
		crawl.NewCrawler(downloader, c.Downloaders, c.Extractors, c.PerHost, crawlOpts...),
		logger,
	)

	cleanup := func() {
		_ = crawler.Close()
		if browser != nil {
			stats := browser.Stats()
			logger.Info("browser", "pages", stats.Pages, "restarts", stats.Restarts)
		}
		_ = fetcher.Close()
	}
	return crawler, cleanup, nil
}

// approxDedupFPRate is the Bloom filter false positive rate used by --approx-dedup.
const approxDedupFPRate = 0.001

func defaultDBPath() string {
	if path := os.Getenv("WEBCRAWL_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "webcrawl.db"
	}
	dir := filepath.Join(home, ".webcrawl")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "webcrawl.db")
}
