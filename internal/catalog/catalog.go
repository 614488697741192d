// Package catalog loads the product catalog the scraper iterates over.
// Items are read-only input; the only contract is a stable unique id plus a
// human-readable search name.
package catalog

import (
	"context"
	"sort"
)

// Item is one catalog entry needing an image.
type Item struct {
	ID     string `json:"id"     bson:"_id"`
	Nombre string `json:"nombre" bson:"nombre"`
	Marca  string `json:"marca"  bson:"marca"`
}

// Source yields the full catalog. Implementations: Firebase Realtime Database
// REST, local JSON file, MongoDB collection.
type Source interface {
	Items(ctx context.Context) ([]Item, error)

	// Name returns the source identifier for logging.
	Name() string
}

// sortItems orders items by id so --limit selects a stable prefix across runs.
func sortItems(items []Item) {
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
}
