// Package ledger persists per-item outcomes so batch runs are resumable. Each
// ledger is one pretty-printed JSON object keyed by item id, reloaded at open
// and fully rewritten after every change, atomic via temp file + rename, so
// the file on disk never reflects a half-written item.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Status classifies a scrape attempt.
type Status string

const (
	StatusOK       Status = "ok"
	StatusNotFound Status = "not_found"
	StatusNoImage  Status = "no_image"
	StatusError    Status = "error"
)

// ScrapeOutcome is the recorded result of one scrape attempt. At most one
// outcome exists per item id; re-running overwrites it (last write wins).
type ScrapeOutcome struct {
	Status Status `json:"status"`

	// URL is the detail-page or image URL reached, when applicable.
	URL string `json:"url,omitempty"`

	// File is the local image filename, when Status is ok.
	File string `json:"file,omitempty"`

	// Fragrantica is the canonical detail-page URL, when Status is ok.
	Fragrantica string `json:"fragrantica,omitempty"`

	// Query is the search query used, when Status is not_found.
	Query string `json:"query,omitempty"`

	// Error is the failure description, when Status is error.
	Error string `json:"error,omitempty"`
}

// UploadOutcome is the recorded result of one publish attempt. A populated
// CloudinaryURL is the skip condition for idempotent re-upload.
type UploadOutcome struct {
	CloudinaryURL string    `json:"cloudinaryUrl,omitempty"`
	Fragrantica   string    `json:"fragrantica,omitempty"`
	UploadedAt    time.Time `json:"uploadedAt,omitzero"`

	Error       string    `json:"error,omitempty"`
	AttemptedAt time.Time `json:"attemptedAt,omitzero"`
}

// Ledger is a durable id→outcome map with immediate persistence.
type Ledger[T any] struct {
	path    string
	entries map[string]T
	mu      sync.Mutex
}

// Open loads the ledger at path. A missing file yields an empty ledger; a
// present but unparsable file is an error (fatal for the run, by policy).
func Open[T any](path string) (*Ledger[T], error) {
	l := &Ledger[T]{
		path:    path,
		entries: make(map[string]T),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &l.entries); err != nil {
		return nil, fmt.Errorf("parse ledger %s: %w", path, err)
	}
	return l, nil
}

// Get returns the outcome for id.
func (l *Ledger[T]) Get(id string) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.entries[id]
	return v, ok
}

// Put records the outcome for id and rewrites the ledger file.
func (l *Ledger[T]) Put(id string, v T) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[id] = v
	return l.save()
}

// Len returns the number of recorded outcomes.
func (l *Ledger[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// IDs returns all recorded ids in sorted order.
func (l *Ledger[T]) IDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.entries))
	for id := range l.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Entries returns a copy of the full id→outcome map.
func (l *Ledger[T]) Entries() map[string]T {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]T, len(l.entries))
	for k, v := range l.entries {
		out[k] = v
	}
	return out
}

// Path returns the backing file path.
func (l *Ledger[T]) Path() string { return l.path }

// save writes the whole map to a temp file and renames it into place.
// Callers hold l.mu.
func (l *Ledger[T]) save() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}

	tmpPath := l.path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create ledger file: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l.entries); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close ledger file: %w", err)
	}

	if err := os.Rename(tmpPath, l.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename ledger file: %w", err)
	}
	return nil
}
