package catalog

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/jarcoal/httpmock"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parfums.json")
	data := `[
		{"id": "p2", "nombre": "Bleu de Chanel", "marca": "Chanel", "precio": 120},
		{"id": "p1", "nombre": "Sauvage", "marca": "Dior"}
	]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	items, err := NewFileSource(path).Items(context.Background())
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items", len(items))
	}
	// Sorted by id, extra fields ignored.
	if items[0].ID != "p1" || items[0].Nombre != "Sauvage" || items[0].Marca != "Dior" {
		t.Errorf("items[0] = %+v", items[0])
	}
	if items[1].ID != "p2" {
		t.Errorf("items[1] = %+v", items[1])
	}
}

func TestFileSourceMissing(t *testing.T) {
	if _, err := NewFileSource(filepath.Join(t.TempDir(), "nope.json")).Items(context.Background()); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFirebaseSource(t *testing.T) {
	src := NewFirebaseSource("https://demo.firebaseio.com", "secret-token", testLogger)
	httpmock.ActivateNonDefault(src.Client().GetClient())
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodGet, "https://demo.firebaseio.com/perfumes.json",
		func(req *http.Request) (*http.Response, error) {
			if got := req.URL.Query().Get("auth"); got != "secret-token" {
				t.Errorf("auth param = %q", got)
			}
			return httpmock.NewStringResponse(200, `{
				"p2": {"nombre": "Bleu de Chanel", "marca": "Chanel"},
				"p1": {"id": "p1", "nombre": "Sauvage", "marca": "Dior"}
			}`), nil
		})

	items, err := src.Items(context.Background())
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items", len(items))
	}
	// The record key fills in a missing id field.
	if items[0].ID != "p1" || items[1].ID != "p2" {
		t.Errorf("items = %+v", items)
	}
	if items[1].Nombre != "Bleu de Chanel" {
		t.Errorf("items[1] = %+v", items[1])
	}
}

func TestFirebaseSourceEmptyNode(t *testing.T) {
	src := NewFirebaseSource("https://demo.firebaseio.com", "", testLogger)
	httpmock.ActivateNonDefault(src.Client().GetClient())
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodGet, "https://demo.firebaseio.com/perfumes.json",
		httpmock.NewStringResponder(200, `null`))

	if _, err := src.Items(context.Background()); err == nil {
		t.Fatal("expected error for empty perfumes node")
	}
}

func TestFirebaseSourceHTTPError(t *testing.T) {
	src := NewFirebaseSource("https://demo.firebaseio.com", "", testLogger)
	httpmock.ActivateNonDefault(src.Client().GetClient())
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodGet, "https://demo.firebaseio.com/perfumes.json",
		httpmock.NewStringResponder(401, `{"error":"Permission denied"}`))

	if _, err := src.Items(context.Background()); err == nil {
		t.Fatal("expected error for HTTP 401")
	}
}
