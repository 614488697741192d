// Package store writes hosted image URLs back to the catalog database. Only
// the image field of an item is ever touched.
package store

import "context"

// Store updates one catalog item's image URL.
type Store interface {
	// PatchImage sets the item's image field to url, leaving every other
	// field untouched.
	PatchImage(ctx context.Context, id, url string) error

	// Name identifies the backend for logging.
	Name() string
}
