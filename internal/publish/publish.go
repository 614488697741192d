// Package publish runs the second pass of the pipeline: take every item the
// scrape pass marked ok, upload its local image to the asset host, and patch
// the hosted URL back into the catalog database. Progress goes to its own
// upload ledger so interrupted runs resume where they stopped.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/belleparfumerie/fragscrape/internal/ledger"
	"github.com/belleparfumerie/fragscrape/internal/observability"
	"github.com/belleparfumerie/fragscrape/internal/store"
	"github.com/belleparfumerie/fragscrape/internal/transport"
)

// Uploader pushes one local file to the asset host. Satisfied by
// *cloudinary.Client.
type Uploader interface {
	Upload(ctx context.Context, filePath, publicID string) (string, error)
}

// Options are the per-run policies.
type Options struct {
	// DryRun logs what would be uploaded without touching the asset host, the
	// database, or the upload ledger.
	DryRun bool

	// SkipUploaded skips items whose upload ledger entry already carries a
	// hosted URL.
	SkipUploaded bool

	// Limit processes only the first N eligible items when > 0.
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

// Runner is the publish orchestrator.
type Runner struct {
	uploader Uploader
	store    store.Store
	results  *ledger.Ledger[ledger.ScrapeOutcome]
	uploads  *ledger.Ledger[ledger.UploadOutcome]
	cfg      Config
	logger   *slog.Logger
	metrics  *observability.Metrics

	pause func(min, max time.Duration)
	now   func() time.Time
}

// New creates a publish runner. metrics may be nil.
func New(uploader Uploader, st store.Store, results *ledger.Ledger[ledger.ScrapeOutcome], uploads *ledger.Ledger[ledger.UploadOutcome], cfg Config, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	return &Runner{
		uploader: uploader,
		store:    st,
		results:  results,
		uploads:  uploads,
		cfg:      cfg,
		logger:   logger.With("component", "publish"),
		metrics:  metrics,
		pause:    transport.Pause,
		now:      time.Now,
	}
}

// Run publishes every scraped image. Only items with an ok scrape outcome are
// eligible; everything else never reaches the asset host. Per-item failures
// become upload ledger entries and never abort the loop.
func (r *Runner) Run(ctx context.Context, opts Options) (Summary, error) {
	ids := r.eligibleIDs()
	if opts.Limit > 0 && len(ids) > opts.Limit {
		ids = ids[:opts.Limit]
	}
	r.logger.Info("publish run", "eligible", len(ids))

	var sum Summary
	for i, id := range ids {
		select {
		case <-ctx.Done():
			return sum, ctx.Err()
		default:
		}

		outcome, _ := r.results.Get(id)
		filePath := filepath.Join(r.cfg.ImagesDir, outcome.File)
		r.logger.Info("item", "progress", fmt.Sprintf("%d/%d", i+1, len(ids)), "id", id)

		if opts.SkipUploaded {
			if prior, ok := r.uploads.Get(id); ok && prior.CloudinaryURL != "" {
				r.logger.Info("already uploaded, skipping", "id", id, "url", prior.CloudinaryURL)
				sum.Skipped++
				continue
			}
		}

		if opts.DryRun {
			r.logger.Info("dry run, would upload", "id", id, "file", outcome.File)
			continue
		}

		up := r.publishOne(ctx, id, filePath, outcome)
		if err := r.uploads.Put(id, up); err != nil {
			return sum, fmt.Errorf("persist upload result for %s: %w", id, err)
		}

		if up.Error == "" {
			sum.Success++
			r.metrics.ObserveUpload("success")
			r.logger.Info("published", "id", id, "url", up.CloudinaryURL)
		} else {
			sum.Failed++
			r.metrics.ObserveUpload("failure")
			r.logger.Warn("publish failed", "id", id, "error", up.Error)
		}

		if i < len(ids)-1 {
			r.pause(r.cfg.ItemDelayMin, r.cfg.ItemDelayMax)
		}
	}

	return sum, nil
}

// eligibleIDs returns the ids with an ok scrape outcome, in sorted order.
func (r *Runner) eligibleIDs() []string {
	var ids []string
	for id, outcome := range r.results.Entries() {
		if outcome.Status == ledger.StatusOK {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// publishOne uploads one image and patches the database. A missing local file
// is recorded as a failed attempt without contacting the asset host; the
// scrape ledger said the file exists, so its absence is a real inconsistency
// worth surfacing in the upload log.
func (r *Runner) publishOne(ctx context.Context, id, filePath string, outcome ledger.ScrapeOutcome) ledger.UploadOutcome {
	if _, err := os.Stat(filePath); err != nil {
		return ledger.UploadOutcome{
			Error:       fmt.Sprintf("local file missing: %s", filePath),
			AttemptedAt: r.now(),
		}
	}

	url, err := r.uploader.Upload(ctx, filePath, id)
	if err != nil {
		return ledger.UploadOutcome{Error: err.Error(), AttemptedAt: r.now()}
	}

	if err := r.store.PatchImage(ctx, id, url); err != nil {
		return ledger.UploadOutcome{
			Error:       fmt.Sprintf("uploaded but database update failed: %v", err),
			AttemptedAt: r.now(),
		}
	}

	return ledger.UploadOutcome{
		CloudinaryURL: url,
		Fragrantica:   outcome.Fragrantica,
		UploadedAt:    r.now(),
	}
}
