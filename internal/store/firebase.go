package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// FirebaseStore patches item records in a Firebase Realtime Database over its
// REST API. PATCH merges fields, so only imagen is written.
type FirebaseStore struct {
	client    *resty.Client
	authToken string
}

// NewFirebaseStore creates a store backed by the Realtime Database REST API.
func NewFirebaseStore(databaseURL, authToken string) *FirebaseStore {
	client := resty.New().
		SetBaseURL(strings.TrimRight(databaseURL, "/")).
		SetTimeout(30 * time.Second)
	return &FirebaseStore{client: client, authToken: authToken}
}

func (s *FirebaseStore) Name() string { return "firebase" }

// Client exposes the underlying resty client for tests.
func (s *FirebaseStore) Client() *resty.Client { return s.client }

func (s *FirebaseStore) PatchImage(ctx context.Context, id, url string) error {
	req := s.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"imagen": url})
	if s.authToken != "" {
		req.SetQueryParam("auth", s.authToken)
	}

	resp, err := req.Patch(fmt.Sprintf("/perfumes/%s.json", id))
	if err != nil {
		return fmt.Errorf("firebase patch %s: %w", id, err)
	}
	if resp.IsError() {
		return fmt.Errorf("firebase patch %s: HTTP %d: %s", id, resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return nil
}
