// Package scrape runs the first pass of the pipeline: iterate the catalog,
// drive the navigation engine per item, download the located image, and keep
// the result ledger current after every item.
package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/belleparfumerie/fragscrape/internal/catalog"
	"github.com/belleparfumerie/fragscrape/internal/ledger"
	"github.com/belleparfumerie/fragscrape/internal/navigate"
	"github.com/belleparfumerie/fragscrape/internal/observability"
	"github.com/belleparfumerie/fragscrape/internal/transport"
)

// ImageFinder runs the per-item navigation flow. Satisfied by
// *navigate.Navigator; faked in tests.
type ImageFinder interface {
	FindImage(ctx context.Context, item catalog.Item) (navigate.Result, error)
}

// Downloader fetches a URL to a local file. Satisfied by *transport.Client.
type Downloader interface {
	Download(ctx context.Context, url, dest string) error
}

// Options are the per-run policies.
type Options struct {
	// DryRun skips all browser interaction and downloads; only the intended
	// query is logged.
	DryRun bool

	// SkipExisting skips items that already have a downloaded file and an ok
	// ledger entry. File presence alone is not trusted: a file without an ok
	// outcome gets re-scraped.
	SkipExisting bool

	// Limit processes only the first N items when > 0.
	Limit int
}

// Summary tallies one run.
type Summary struct {
	Success int
	Failed  int
	Skipped int
}

// Config carries the runner's fixed settings.
type Config struct {
	ImagesDir    string
	ItemDelayMin time.Duration
	ItemDelayMax time.Duration
}

// Runner is the scrape orchestrator. Items are processed strictly serially:
// the browser session's navigation state is shared mutable context.
type Runner struct {
	finder     ImageFinder
	downloader Downloader
	results    *ledger.Ledger[ledger.ScrapeOutcome]
	cfg        Config
	logger     *slog.Logger
	metrics    *observability.Metrics

	pause func(min, max time.Duration)
}

// New creates a scrape runner. metrics may be nil.
func New(finder ImageFinder, downloader Downloader, results *ledger.Ledger[ledger.ScrapeOutcome], cfg Config, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	return &Runner{
		finder:     finder,
		downloader: downloader,
		results:    results,
		cfg:        cfg,
		logger:     logger.With("component", "scrape"),
		metrics:    metrics,
		pause:      transport.Pause,
	}
}

// Run processes the catalog. Per-item failures become ledger entries and never
// abort the loop; only context cancellation and ledger write failures do.
func (r *Runner) Run(ctx context.Context, items []catalog.Item, opts Options) (Summary, error) {
	if opts.Limit > 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
	}

	var sum Summary
	for i, item := range items {
		select {
		case <-ctx.Done():
			return sum, ctx.Err()
		default:
		}

		fileName := item.ID + ".jpg"
		filePath := filepath.Join(r.cfg.ImagesDir, fileName)
		r.logger.Info("item",
			"progress", fmt.Sprintf("%d/%d", i+1, len(items)),
			"marca", item.Marca,
			"nombre", item.Nombre,
		)

		if opts.SkipExisting && r.alreadyScraped(item.ID, filePath) {
			r.logger.Info("already scraped, skipping", "id", item.ID)
			sum.Skipped++
			continue
		}

		if opts.DryRun {
			r.logger.Info("dry run, would search", "query", item.Nombre)
			continue
		}

		outcome := r.scrapeOne(ctx, item, filePath, fileName)
		if err := r.results.Put(item.ID, outcome); err != nil {
			return sum, fmt.Errorf("persist result for %s: %w", item.ID, err)
		}
		r.metrics.ObserveItem(string(outcome.Status))

		if outcome.Status == ledger.StatusOK {
			sum.Success++
			r.logger.Info("saved", "id", item.ID, "file", fileName)
		} else {
			sum.Failed++
			r.logger.Warn("item failed", "id", item.ID, "status", outcome.Status, "error", outcome.Error)
		}

		if i < len(items)-1 {
			r.pause(r.cfg.ItemDelayMin, r.cfg.ItemDelayMax)
		}
	}

	return sum, nil
}

// alreadyScraped is the idempotent-resume check: the file must exist and the
// ledger must record a successful outcome for the id.
func (r *Runner) alreadyScraped(id, filePath string) bool {
	if _, err := os.Stat(filePath); err != nil {
		return false
	}
	prior, ok := r.results.Get(id)
	return ok && prior.Status == ledger.StatusOK
}

// scrapeOne maps one item's navigation result to its ledger outcome. Errors
// from any stage are converted, never propagated.
func (r *Runner) scrapeOne(ctx context.Context, item catalog.Item, filePath, fileName string) ledger.ScrapeOutcome {
	res, err := r.finder.FindImage(ctx, item)
	if err != nil {
		return ledger.ScrapeOutcome{Status: ledger.StatusError, Error: err.Error()}
	}

	switch res.Status {
	case navigate.StatusNotFound:
		return ledger.ScrapeOutcome{Status: ledger.StatusNotFound, Query: res.Query}

	case navigate.StatusNoImage:
		return ledger.ScrapeOutcome{Status: ledger.StatusNoImage, URL: res.PageURL}

	case navigate.StatusFound:
		start := time.Now()
		if err := r.downloader.Download(ctx, res.ImageURL, filePath); err != nil {
			return ledger.ScrapeOutcome{Status: ledger.StatusError, Error: err.Error()}
		}
		r.metrics.ObserveDownload(time.Since(start))
		return ledger.ScrapeOutcome{
			Status:      ledger.StatusOK,
			URL:         res.ImageURL,
			File:        fileName,
			Fragrantica: res.PageURL,
		}

	default:
		return ledger.ScrapeOutcome{Status: ledger.StatusError, Error: fmt.Sprintf("unexpected navigation status %d", res.Status)}
	}
}
