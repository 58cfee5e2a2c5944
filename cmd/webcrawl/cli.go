package main

import (
	"context"
	"io"
	"time"

	"github.com/fwojciec/webcrawl"
	"github.com/fwojciec/webcrawl/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	DB       *sqlite.DB
	Runs     webcrawl.RunService
	Sitemaps webcrawl.SitemapService
	Crawler  webcrawl.Crawler
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Crawl  CrawlCmd  `cmd:"" help:"Crawl one or more seed URLs"`
	Runs   RunsCmd   `cmd:"" help:"List stored crawl runs"`
	Show   ShowCmd   `cmd:"" help:"Show the pages and errors of a stored run"`
	Delete DeleteCmd `cmd:"" help:"Delete a stored run"`
}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	URLs        []string      `arg:"" name:"url" help:"Seed URLs"`
	Depth       int           `default:"2" env:"WEBCRAWL_DEPTH" help:"Link depth to follow (1 downloads only the seeds)"`
	Downloaders int           `short:"d" env:"WEBCRAWL_DOWNLOADERS" help:"Concurrent downloads (default: number of CPUs)"`
	Extractors  int           `short:"e" env:"WEBCRAWL_EXTRACTORS" help:"Concurrent link extractions (default: number of CPUs)"`
	PerHost     int           `short:"p" name:"per-host" env:"WEBCRAWL_PER_HOST" help:"Concurrent downloads per host (default: twice the number of CPUs)"`
	Timeout     time.Duration `default:"10s" env:"WEBCRAWL_TIMEOUT" help:"Per-page fetch timeout"`
	RPS         float64       `name:"rps" env:"WEBCRAWL_RPS" help:"Requests per second per domain (0 disables)"`
	UserAgent   string        `name:"user-agent" default:"webcrawl/1.0" env:"WEBCRAWL_USER_AGENT" help:"User-Agent header"`
	CacheDir    string        `name:"cache-dir" env:"WEBCRAWL_CACHE_DIR" help:"Cache fetched pages in this directory"`
	ClearCache  bool          `name:"clear-cache" help:"Remove cached pages before crawling (requires --cache-dir)"`
	Browser     bool          `help:"Render pages in a headless browser"`
	SameHost    bool          `name:"same-host" help:"Only follow links to the page's own host"`
	ApproxDedup uint          `name:"approx-dedup" placeholder:"N" help:"Track visited URLs in a Bloom filter sized for N URLs"`
	Sitemap     bool          `help:"Also download every URL in the site's sitemaps (without following their links)"`
	NoSave      bool          `name:"no-save" help:"Do not store the run"`
	Verbose     bool          `short:"v" help:"Log every fetch and page outcome"`
}

// RunsCmd is the "runs" subcommand.
type RunsCmd struct {
	Seed  string `help:"Only list runs for this seed URL"`
	Limit int    `short:"n" default:"20" help:"Maximum number of runs to list"`
}

// ShowCmd is the "show" subcommand.
type ShowCmd struct {
	ID string `arg:"" help:"Run ID"`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	ID    string `arg:"" help:"Run ID"`
	Force bool   `help:"Confirm deletion"`
}
