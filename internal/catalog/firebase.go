package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// FirebaseSource reads the catalog from a Firebase Realtime Database over its
// REST API. The perfumes node is a single object keyed by item id.
type FirebaseSource struct {
	client      *resty.Client
	databaseURL string
	authToken   string
	logger      *slog.Logger
}

// NewFirebaseSource creates a catalog source backed by the Realtime Database
// REST API.
func NewFirebaseSource(databaseURL, authToken string, logger *slog.Logger) *FirebaseSource {
	client := resty.New().
		SetBaseURL(strings.TrimRight(databaseURL, "/")).
		SetTimeout(30 * time.Second)

	return &FirebaseSource{
		client:      client,
		databaseURL: databaseURL,
		authToken:   authToken,
		logger:      logger.With("component", "firebase_catalog"),
	}
}

func (s *FirebaseSource) Name() string { return "firebase" }

// Client exposes the underlying resty client for tests.
func (s *FirebaseSource) Client() *resty.Client { return s.client }

func (s *FirebaseSource) Items(ctx context.Context) ([]Item, error) {
	req := s.client.R().SetContext(ctx)
	if s.authToken != "" {
		req.SetQueryParam("auth", s.authToken)
	}

	resp, err := req.Get("/perfumes.json")
	if err != nil {
		return nil, fmt.Errorf("firebase catalog request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("firebase catalog: HTTP %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	body := resp.Body()
	if len(body) == 0 || string(body) == "null" {
		return nil, fmt.Errorf("firebase catalog: perfumes node is empty")
	}

	var byID map[string]Item
	if err := json.Unmarshal(body, &byID); err != nil {
		return nil, fmt.Errorf("firebase catalog: decode: %w", err)
	}

	items := make([]Item, 0, len(byID))
	for key, item := range byID {
		if item.ID == "" {
			item.ID = key
		}
		items = append(items, item)
	}
	sortItems(items)

	s.logger.Debug("catalog loaded", "items", len(items))
	return items, nil
}
