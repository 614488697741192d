package cloudinary

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c := NewClient(Config{
		CloudName:    "demo",
		UploadPreset: "unsigned-preset",
		Folder:       "belle-parfumerie/perfumes",
	})
	httpmock.ActivateNonDefault(c.Client().GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "perfume-1.jpg")
	if err := os.WriteFile(path, []byte("jpeg bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUpload(t *testing.T) {
	c := newTestClient(t)
	path := writeImage(t)

	httpmock.RegisterResponder(http.MethodPost, "https://api.cloudinary.com/v1_1/demo/image/upload",
		func(req *http.Request) (*http.Response, error) {
			if err := req.ParseMultipartForm(1 << 20); err != nil {
				t.Fatalf("parse multipart: %v", err)
			}
			if got := req.FormValue("upload_preset"); got != "unsigned-preset" {
				t.Errorf("upload_preset = %q", got)
			}
			if got := req.FormValue("folder"); got != "belle-parfumerie/perfumes" {
				t.Errorf("folder = %q", got)
			}
			if got := req.FormValue("public_id"); got != "perfume-1" {
				t.Errorf("public_id = %q", got)
			}
			file, header, err := req.FormFile("file")
			if err != nil {
				t.Fatalf("file part: %v", err)
			}
			file.Close()
			if header.Filename != "perfume-1.jpg" {
				t.Errorf("filename = %q", header.Filename)
			}
			return httpmock.NewJsonResponse(200, map[string]any{
				"secure_url": "https://res.cloudinary.com/demo/image/upload/v1/belle-parfumerie/perfumes/perfume-1.jpg",
				"public_id":  "belle-parfumerie/perfumes/perfume-1",
			})
		})

	url, err := c.Upload(context.Background(), path, "perfume-1")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasSuffix(url, "/perfume-1.jpg") {
		t.Errorf("url = %q", url)
	}
}

func TestUploadAPIError(t *testing.T) {
	c := newTestClient(t)
	path := writeImage(t)

	httpmock.RegisterResponder(http.MethodPost, "https://api.cloudinary.com/v1_1/demo/image/upload",
		httpmock.NewStringResponder(400, `{"error":{"message":"Upload preset not found"}}`))

	_, err := c.Upload(context.Background(), path, "perfume-1")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "status 400") || !strings.Contains(err.Error(), "Upload preset not found") {
		t.Errorf("err = %v", err)
	}
}

func TestUploadMissingSecureURL(t *testing.T) {
	c := newTestClient(t)
	path := writeImage(t)

	httpmock.RegisterResponder(http.MethodPost, "https://api.cloudinary.com/v1_1/demo/image/upload",
		httpmock.NewStringResponder(200, `{}`))

	if _, err := c.Upload(context.Background(), path, "perfume-1"); err == nil {
		t.Fatal("expected error for response without secure_url")
	}
}

func TestUploadMissingFile(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterNoResponder(httpmock.NewStringResponder(500, "should not be reached"))

	_, err := c.Upload(context.Background(), filepath.Join(t.TempDir(), "nope.jpg"), "perfume-1")
	if err == nil {
		t.Fatal("expected error")
	}
	if httpmock.GetTotalCallCount() != 0 {
		t.Error("no request should be sent when the file cannot be opened")
	}
}
