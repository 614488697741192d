package scrape

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/belleparfumerie/fragscrape/internal/catalog"
	"github.com/belleparfumerie/fragscrape/internal/ledger"
	"github.com/belleparfumerie/fragscrape/internal/navigate"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeFinder returns a canned result per item id and counts calls.
type fakeFinder struct {
	results map[string]navigate.Result
	errs    map[string]error
	calls   map[string]int
}

func (f *fakeFinder) FindImage(ctx context.Context, item catalog.Item) (navigate.Result, error) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[item.ID]++
	if err, ok := f.errs[item.ID]; ok {
		return navigate.Result{}, err
	}
	return f.results[item.ID], nil
}

// fakeDownloader writes a marker file, or fails for configured URLs.
type fakeDownloader struct {
	failURLs map[string]bool
	calls    int
}

func (f *fakeDownloader) Download(ctx context.Context, url, dest string) error {
	f.calls++
	if f.failURLs[url] {
		return errors.New("connection reset")
	}
	return os.WriteFile(dest, []byte("img:"+url), 0o644)
}

func newRunner(t *testing.T, finder ImageFinder, dl Downloader) (*Runner, *ledger.Ledger[ledger.ScrapeOutcome], string) {
	t.Helper()
	dir := t.TempDir()
	results, err := ledger.Open[ledger.ScrapeOutcome](filepath.Join(dir, "results.json"))
	if err != nil {
		t.Fatal(err)
	}
	r := New(finder, dl, results, Config{ImagesDir: dir}, testLogger, nil)
	r.pause = func(min, max time.Duration) {}
	return r, results, dir
}

func TestRunMixedOutcomes(t *testing.T) {
	finder := &fakeFinder{
		results: map[string]navigate.Result{
			"a": {Status: navigate.StatusFound, ImageURL: "https://fimgs.net/a.jpg", PageURL: "https://site/perfume/x/a-1.html"},
			"b": {Status: navigate.StatusNotFound, Query: "Perfume B"},
			"c": {Status: navigate.StatusNoImage, PageURL: "https://site/perfume/x/c-3.html"},
		},
		errs: map[string]error{"d": errors.New("browser crashed")},
	}
	dl := &fakeDownloader{}
	r, results, dir := newRunner(t, finder, dl)

	items := []catalog.Item{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	sum, err := r.Run(context.Background(), items, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if sum.Success != 1 || sum.Failed != 3 || sum.Skipped != 0 {
		t.Errorf("summary = %+v", sum)
	}

	a, _ := results.Get("a")
	if a.Status != ledger.StatusOK || a.File != "a.jpg" || a.URL != "https://fimgs.net/a.jpg" || a.Fragrantica != "https://site/perfume/x/a-1.html" {
		t.Errorf("a = %+v", a)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.jpg")); err != nil {
		t.Errorf("a.jpg missing: %v", err)
	}

	b, _ := results.Get("b")
	if b.Status != ledger.StatusNotFound || b.Query != "Perfume B" {
		t.Errorf("b = %+v", b)
	}

	c, _ := results.Get("c")
	if c.Status != ledger.StatusNoImage || c.URL != "https://site/perfume/x/c-3.html" {
		t.Errorf("c = %+v", c)
	}

	d, _ := results.Get("d")
	if d.Status != ledger.StatusError || d.Error != "browser crashed" {
		t.Errorf("d = %+v", d)
	}

	if results.Len() != 4 {
		t.Errorf("every item must have a ledger entry, got %d", results.Len())
	}
}

func TestRunDownloadFailure(t *testing.T) {
	finder := &fakeFinder{results: map[string]navigate.Result{
		"a": {Status: navigate.StatusFound, ImageURL: "https://fimgs.net/a.jpg"},
	}}
	dl := &fakeDownloader{failURLs: map[string]bool{"https://fimgs.net/a.jpg": true}}
	r, results, dir := newRunner(t, finder, dl)

	sum, err := r.Run(context.Background(), []catalog.Item{{ID: "a"}}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Failed != 1 {
		t.Errorf("summary = %+v", sum)
	}
	got, _ := results.Get("a")
	if got.Status != ledger.StatusError {
		t.Errorf("status = %q", got.Status)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "a.jpg")); !os.IsNotExist(statErr) {
		t.Error("no file should exist after a failed download")
	}
}

func TestRunSkipExisting(t *testing.T) {
	finder := &fakeFinder{results: map[string]navigate.Result{
		"a": {Status: navigate.StatusFound, ImageURL: "https://fimgs.net/a.jpg"},
		"b": {Status: navigate.StatusFound, ImageURL: "https://fimgs.net/b.jpg"},
	}}
	dl := &fakeDownloader{}
	r, results, dir := newRunner(t, finder, dl)

	// a is fully done: file on disk and ok ledger entry.
	if err := os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := results.Put("a", ledger.ScrapeOutcome{Status: ledger.StatusOK, File: "a.jpg"}); err != nil {
		t.Fatal(err)
	}
	// b has a file but its last outcome was an error, so it must be retried.
	if err := os.WriteFile(filepath.Join(dir, "b.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := results.Put("b", ledger.ScrapeOutcome{Status: ledger.StatusError, Error: "old failure"}); err != nil {
		t.Fatal(err)
	}

	sum, err := r.Run(context.Background(), []catalog.Item{{ID: "a"}, {ID: "b"}}, Options{SkipExisting: true})
	if err != nil {
		t.Fatal(err)
	}

	if sum.Skipped != 1 || sum.Success != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if finder.calls["a"] != 0 {
		t.Error("a should not have been scraped again")
	}
	if finder.calls["b"] != 1 {
		t.Errorf("b should have been retried, calls = %d", finder.calls["b"])
	}
}

func TestRunWithoutSkipExistingRescrapesAll(t *testing.T) {
	finder := &fakeFinder{results: map[string]navigate.Result{
		"a": {Status: navigate.StatusFound, ImageURL: "https://fimgs.net/a.jpg"},
	}}
	r, results, dir := newRunner(t, finder, &fakeDownloader{})

	if err := os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := results.Put("a", ledger.ScrapeOutcome{Status: ledger.StatusOK, File: "a.jpg"}); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Run(context.Background(), []catalog.Item{{ID: "a"}}, Options{}); err != nil {
		t.Fatal(err)
	}
	if finder.calls["a"] != 1 {
		t.Errorf("without skip-existing the item must be re-scraped, calls = %d", finder.calls["a"])
	}
}

func TestRunLimit(t *testing.T) {
	finder := &fakeFinder{results: map[string]navigate.Result{
		"a": {Status: navigate.StatusNotFound},
		"b": {Status: navigate.StatusNotFound},
		"c": {Status: navigate.StatusNotFound},
	}}
	r, results, _ := newRunner(t, finder, &fakeDownloader{})

	items := []catalog.Item{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	if _, err := r.Run(context.Background(), items, Options{Limit: 2}); err != nil {
		t.Fatal(err)
	}
	if results.Len() != 2 {
		t.Errorf("limit 2 processed %d items", results.Len())
	}
	if finder.calls["c"] != 0 {
		t.Error("item beyond the limit was processed")
	}
}

func TestRunDryRun(t *testing.T) {
	finder := &fakeFinder{}
	dl := &fakeDownloader{}
	r, results, _ := newRunner(t, finder, dl)

	sum, err := r.Run(context.Background(), []catalog.Item{{ID: "a", Nombre: "Sauvage"}}, Options{DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(finder.calls) != 0 || dl.calls != 0 {
		t.Error("dry run must not touch the finder or downloader")
	}
	if results.Len() != 0 {
		t.Error("dry run must not write the ledger")
	}
	if sum.Success != 0 || sum.Failed != 0 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestRunContextCancelled(t *testing.T) {
	finder := &fakeFinder{results: map[string]navigate.Result{"a": {Status: navigate.StatusNotFound}}}
	r, _, _ := newRunner(t, finder, &fakeDownloader{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, []catalog.Item{{ID: "a"}}, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(finder.calls) != 0 {
		t.Error("no item should run after cancellation")
	}
}
