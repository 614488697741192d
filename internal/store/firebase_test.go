package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
)

func TestFirebasePatchImage(t *testing.T) {
	st := NewFirebaseStore("https://demo.firebaseio.com", "secret-token")
	httpmock.ActivateNonDefault(st.Client().GetClient())
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPatch, "https://demo.firebaseio.com/perfumes/p1.json",
		func(req *http.Request) (*http.Response, error) {
			if got := req.URL.Query().Get("auth"); got != "secret-token" {
				t.Errorf("auth param = %q", got)
			}
			raw, _ := io.ReadAll(req.Body)
			var body map[string]string
			if err := json.Unmarshal(raw, &body); err != nil {
				t.Fatalf("body: %v", err)
			}
			// PATCH must carry only the image field so nothing else is merged.
			if len(body) != 1 || body["imagen"] != "https://res.cloudinary.com/demo/p1.jpg" {
				t.Errorf("body = %v", body)
			}
			return httpmock.NewStringResponse(200, `{"imagen":"https://res.cloudinary.com/demo/p1.jpg"}`), nil
		})

	if err := st.PatchImage(context.Background(), "p1", "https://res.cloudinary.com/demo/p1.jpg"); err != nil {
		t.Fatalf("patch: %v", err)
	}
}

func TestFirebasePatchImageError(t *testing.T) {
	st := NewFirebaseStore("https://demo.firebaseio.com", "")
	httpmock.ActivateNonDefault(st.Client().GetClient())
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPatch, "https://demo.firebaseio.com/perfumes/p1.json",
		httpmock.NewStringResponder(401, `{"error":"Permission denied"}`))

	if err := st.PatchImage(context.Background(), "p1", "https://x/p1.jpg"); err == nil {
		t.Fatal("expected error for HTTP 401")
	}
}
