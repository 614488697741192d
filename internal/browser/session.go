// Package browser owns the single long-lived automation session shared across
// all items. Navigation state (which page is loaded, whether we sit on the
// site entry point) is mutable context that only makes sense serialized, so
// there is exactly one page and no concurrent item handling.
package browser

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// htmlDumpLimit caps debug HTML dumps; full pages run into megabytes.
const htmlDumpLimit = 80000

// Config controls the browser launch.
type Config struct {
	// Headed shows the browser window. Environmental, not behavioral.
	Headed    bool
	UserAgent string
	DebugDir  string
	Width     int
	Height    int
}

// Session wraps one controlled browser with one page. The onHomepage flag
// tracks whether the page is positioned at the site entry point, so items can
// skip redundant navigation; any error that may corrupt navigation state must
// clear it.
type Session struct {
	browser *rod.Browser
	page    *rod.Page
	cfg     Config
	logger  *slog.Logger

	onHomepage bool
}

// NewSession launches the browser and prepares a stealth page.
func NewSession(cfg Config, logger *slog.Logger) (*Session, error) {
	if cfg.Width == 0 {
		cfg.Width = 1280
	}
	if cfg.Height == 0 {
		cfg.Height = 900
	}

	l := launcher.New().
		Headless(!cfg.Headed).
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-blink-features", "AutomationControlled").
		Set("window-size", fmt.Sprintf("%d,%d", cfg.Width, cfg.Height))

	launchURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(launchURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := stealth.Page(b)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("stealth page: %w", err)
	}

	if cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: cfg.UserAgent}); err != nil {
			logger.Warn("failed to set user agent", "error", err)
		}
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             cfg.Width,
		Height:            cfg.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		logger.Warn("failed to set viewport", "error", err)
	}

	if cfg.DebugDir != "" {
		if err := os.MkdirAll(cfg.DebugDir, 0o755); err != nil {
			logger.Warn("failed to create debug dir", "dir", cfg.DebugDir, "error", err)
		}
	}

	return &Session{
		browser: b,
		page:    page,
		cfg:     cfg,
		logger:  logger.With("component", "browser"),
	}, nil
}

// Page returns the session's single page.
func (s *Session) Page() *rod.Page { return s.page }

// OnHomepage reports whether the page is positioned at the site entry point.
func (s *Session) OnHomepage() bool { return s.onHomepage }

// SetOnHomepage records whether the page is positioned at the site entry point.
func (s *Session) SetOnHomepage(v bool) { s.onHomepage = v }

// Close shuts down the browser.
func (s *Session) Close() error {
	if s.browser != nil {
		return s.browser.Close()
	}
	return nil
}

// CaptureScreenshot saves a {id}_{reason}.png debug screenshot. Best-effort:
// failures are logged and swallowed, since screenshots are diagnostic aids,
// not core behavior. Returns the written path, or "" if nothing was written.
func (s *Session) CaptureScreenshot(id, reason string) string {
	if s.cfg.DebugDir == "" {
		return ""
	}
	data, err := s.page.Screenshot(false, nil)
	if err != nil {
		s.logger.Warn("screenshot failed", "id", id, "reason", reason, "error", err)
		return ""
	}
	path := filepath.Join(s.cfg.DebugDir, fmt.Sprintf("%s_%s.png", id, reason))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.logger.Warn("screenshot write failed", "path", path, "error", err)
		return ""
	}
	return path
}

// CaptureHTML saves a truncated {id}_{reason}.html page dump. Best-effort.
func (s *Session) CaptureHTML(id, reason string) string {
	if s.cfg.DebugDir == "" {
		return ""
	}
	html, err := s.page.HTML()
	if err != nil {
		s.logger.Warn("html dump failed", "id", id, "reason", reason, "error", err)
		return ""
	}
	if len(html) > htmlDumpLimit {
		html = html[:htmlDumpLimit]
	}
	path := filepath.Join(s.cfg.DebugDir, fmt.Sprintf("%s_%s.html", id, reason))
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		s.logger.Warn("html dump write failed", "path", path, "error", err)
		return ""
	}
	return path
}
