package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// FileSource reads the catalog from a local JSON array. The file may carry
// full product records; fields beyond id/nombre/marca are ignored.
type FileSource struct {
	path string
}

// NewFileSource creates a catalog source backed by a JSON file.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string { return "file" }

func (s *FileSource) Items(ctx context.Context) ([]Item, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file %s: %w", s.path, err)
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", s.path, err)
	}

	sortItems(items)
	return items, nil
}
