// Package cloudinary uploads local images through Cloudinary's unsigned
// upload endpoint. Only the upload-preset flow is supported; no API secret is
// ever required or sent.
package cloudinary

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://api.cloudinary.com"

// Config identifies the target cloud and preset.
type Config struct {
	CloudName    string
	UploadPreset string
	Folder       string
}

// Client talks to the Cloudinary upload API.
type Client struct {
	http *resty.Client
	cfg  Config
}

// uploadResponse is the subset of the API response we read back.
type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

// NewClient creates a Cloudinary upload client.
func NewClient(cfg Config) *Client {
	http := resty.New().
		SetBaseURL(defaultBaseURL).
		SetTimeout(60 * time.Second)
	return &Client{http: http, cfg: cfg}
}

// Client exposes the underlying resty client so tests can install a mock
// transport.
func (c *Client) Client() *resty.Client { return c.http }

// Upload sends the file as multipart form data and returns the hosted asset's
// secure URL. publicID becomes the asset name inside the configured folder, so
// re-uploading the same id overwrites rather than duplicates.
func (c *Client) Upload(ctx context.Context, filePath, publicID string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", filePath, err)
	}
	defer f.Close()

	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("file", publicID+".jpg", f).
		SetFormData(map[string]string{
			"upload_preset": c.cfg.UploadPreset,
			"cloud_name":    c.cfg.CloudName,
			"folder":        c.cfg.Folder,
			"public_id":     publicID,
		}).
		Post(fmt.Sprintf("/v1_1/%s/image/upload", c.cfg.CloudName))
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("cloudinary upload: status %d: %s", resp.StatusCode(), resp.String())
	}

	var body uploadResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", fmt.Errorf("cloudinary response: %w", err)
	}
	if body.SecureURL == "" {
		return "", fmt.Errorf("cloudinary response: missing secure_url")
	}
	return body.SecureURL, nil
}
