// Package transport provides the raw-network helpers the pipeline uses against
// non-cooperative hosts: a redirect-aware file downloader and request pacing.
package transport

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/andybalholm/brotli"
)

// ErrTooManyRedirects is returned when a download chain exceeds the redirect cap.
var ErrTooManyRedirects = errors.New("too many redirects")

// HTTPStatusError reports a non-200, non-redirect response status.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d fetching %s", e.StatusCode, e.URL)
}

// TransportError wraps connection-level failures (DNS, resets, TLS).
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error fetching %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

const defaultMaxRedirects = 5

// Client downloads resources to local files. Redirects are followed manually
// so each hop can discard partial state and so the chain depth stays capped.
type Client struct {
	hc           *http.Client
	userAgent    string
	maxRedirects int
	logger       *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithUserAgent sets the User-Agent sent on downloads.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithMaxRedirects overrides the redirect depth cap.
func WithMaxRedirects(n int) Option {
	return func(c *Client) { c.maxRedirects = n }
}

// NewClient creates a download client. Automatic redirect following is
// disabled on the inner http.Client; Download handles redirects itself.
func NewClient(logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		hc: &http.Client{
			Timeout: 60 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
		maxRedirects: defaultMaxRedirects,
		logger:       logger.With("component", "downloader"),
	}
	for _, opt := range opts {
		opt(c)
	}
	// Callers may hand in a client that still follows redirects; neutralize it.
	c.hc.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return c
}

// Download fetches rawURL and writes the full body to dest. On any failure no
// file is left at dest; on success the file is complete and flushed. 301/302
// responses are re-fetched at the Location target up to the redirect cap.
func (c *Client) Download(ctx context.Context, rawURL, dest string) error {
	current := rawURL

	for hop := 0; ; hop++ {
		if hop > c.maxRedirects {
			return fmt.Errorf("%w: %s (depth %d)", ErrTooManyRedirects, rawURL, c.maxRedirects)
		}

		next, done, err := c.fetchOnce(ctx, current, dest)
		if err != nil {
			return err
		}
		if done {
			c.logger.Debug("download complete", "url", rawURL, "dest", dest, "hops", hop)
			return nil
		}

		resolved, err := resolveLocation(current, next)
		if err != nil {
			return &TransportError{URL: current, Err: err}
		}
		current = resolved
	}
}

// fetchOnce performs one GET. It returns (location, false, nil) on a redirect,
// (_, true, nil) once the body has been fully written to dest, or an error.
func (c *Client) fetchOnce(ctx context.Context, rawURL, dest string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", false, &TransportError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", false, &TransportError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusMovedPermanently || resp.StatusCode == http.StatusFound:
		loc := resp.Header.Get("Location")
		if loc == "" {
			return "", false, &HTTPStatusError{URL: rawURL, StatusCode: resp.StatusCode}
		}
		return loc, false, nil

	case resp.StatusCode != http.StatusOK:
		return "", false, &HTTPStatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := decompressReader(resp.Header.Get("Content-Encoding"), resp.Body)
	if err != nil {
		return "", false, &TransportError{URL: rawURL, Err: err}
	}

	if err := writeAtomic(dest, body); err != nil {
		return "", false, fmt.Errorf("write %s: %w", dest, err)
	}
	return "", true, nil
}

// writeAtomic streams r to a temp file next to dest and renames it into place,
// so dest never holds a truncated body.
func writeAtomic(dest string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".tmp*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// decompressReader unwraps gzip/deflate/brotli response bodies.
func decompressReader(encoding string, body io.Reader) (io.Reader, error) {
	switch encoding {
	case "gzip":
		return gzip.NewReader(body)
	case "deflate":
		return flate.NewReader(body), nil
	case "br":
		return brotli.NewReader(body), nil
	default:
		return body, nil
	}
}

func resolveLocation(base, loc string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(loc)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(ref).String(), nil
}
