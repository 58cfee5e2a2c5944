package slog

import (
	"log/slog"

	"github.com/fwojciec/webcrawl/crawl"
)

// NewProgressLogger returns a crawl.ProgressFunc that logs each event.
// Downloads and extractions are logged at debug level, failures as warnings.
func NewProgressLogger(logger *slog.Logger) crawl.ProgressFunc {
	return func(e crawl.ProgressEvent) {
		switch e.Type {
		case crawl.ProgressDownloaded:
			logger.Debug("downloaded", "url", e.URL, "depth", e.Depth, "pending", e.Pending)
		case crawl.ProgressExtracted:
			logger.Debug("extracted", "url", e.URL, "depth", e.Depth, "links", e.Links, "pending", e.Pending)
		case crawl.ProgressFailed:
			logger.Warn("failed", "url", e.URL, "depth", e.Depth, "err", e.Error)
		}
	}
}
