// Package navigate drives the controlled browser through the site's
// search-and-select flow for one catalog item: homepage bootstrap, search
// modal, autocomplete disambiguation, detail-page image extraction.
package navigate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"

	"github.com/belleparfumerie/fragscrape/internal/browser"
	"github.com/belleparfumerie/fragscrape/internal/catalog"
	"github.com/belleparfumerie/fragscrape/internal/extract"
	"github.com/belleparfumerie/fragscrape/internal/transport"
)

// ErrInputNotFound means the search UI did not appear as expected: no visible
// modal input could be located after opening the search overlay.
var ErrInputNotFound = errors.New("search modal input not found")

// Status is the terminal state of one item's navigation flow.
type Status int

const (
	// StatusFound means an image URL was located on the detail page.
	StatusFound Status = iota
	// StatusNotFound means the autocomplete yielded no matching result.
	StatusNotFound
	// StatusNoImage means the detail page was reached but no image was located.
	StatusNoImage
)

// Result carries the terminal state plus whatever URLs the flow reached.
type Result struct {
	Status   Status
	ImageURL string
	PageURL  string
	Query    string
}

// Config carries the site contract and timing for the navigation flow.
type Config struct {
	HomeURL             string
	CookieSelectors     string
	SearchBarSelector   string
	ModalInputSelectors string
	MinInputWidth       float64
	ResultHeading       string
	ImageSelectors      []string
	AssetHosts          []string
	MinImageWidth       int

	HomeTimeout      time.Duration
	NavTimeout       time.Duration
	SelectAttempts   int
	SelectRetryDelay time.Duration
	TypeDelayMin     time.Duration
	TypeDelayMax     time.Duration
	SettleDelayMin   time.Duration
	SettleDelayMax   time.Duration
}

// Fixed settle bounds for the intermediate steps.
const (
	homeSettleMin  = 1500 * time.Millisecond
	homeSettleMax  = 2500 * time.Millisecond
	modalOpenMin   = 800 * time.Millisecond
	modalOpenMax   = 1500 * time.Millisecond
	detailWaitMin  = 2 * time.Second
	detailWaitMax  = 3500 * time.Millisecond
	clearTextWait  = 200 * time.Millisecond
	modalCloseWait = 500 * time.Millisecond
)

// Navigator runs the per-item state machine against one browser session.
type Navigator struct {
	session    *browser.Session
	cfg        Config
	strategies []extract.ImageStrategy
	logger     *slog.Logger
	pause      func(min, max time.Duration)
}

// New creates a Navigator over an existing session.
func New(session *browser.Session, cfg Config, logger *slog.Logger) *Navigator {
	return &Navigator{
		session:    session,
		cfg:        cfg,
		strategies: extract.HTMLStrategies(cfg.ImageSelectors),
		logger:     logger.With("component", "navigator"),
		pause:      transport.Pause,
	}
}

// FindImage runs the whole flow for one item. A returned error is recorded by
// the caller as an error outcome; the homepage flag is cleared on every path
// that may leave navigation state corrupted, so the next item re-bootstraps
// from the entry point.
func (n *Navigator) FindImage(ctx context.Context, item catalog.Item) (Result, error) {
	page := n.session.Page().Context(ctx)
	res := Result{Query: item.Nombre}

	if !n.session.OnHomepage() {
		if err := n.goHome(page); err != nil {
			n.session.SetOnHomepage(false)
			n.session.CaptureScreenshot(item.ID, "error")
			return res, err
		}
	}

	if err := n.openSearch(page); err != nil {
		n.session.SetOnHomepage(false)
		n.session.CaptureScreenshot(item.ID, "error")
		return res, fmt.Errorf("open search: %w", err)
	}

	field, err := n.findModalInput(page)
	if err != nil {
		n.session.CaptureScreenshot(item.ID, "no_input")
		n.session.SetOnHomepage(false)
		return res, err
	}

	if err := n.typeQuery(page, field, item.Nombre); err != nil {
		n.session.SetOnHomepage(false)
		n.session.CaptureScreenshot(item.ID, "error")
		return res, fmt.Errorf("type query: %w", err)
	}

	clickedURL, ok := n.selectResult(page)
	if !ok {
		n.session.CaptureScreenshot(item.ID, "autocomplete")
		n.session.CaptureHTML(item.ID, "autocomplete")
		// Close the modal; the page underneath is still the entry point.
		_ = page.Keyboard.Press(input.Escape)
		time.Sleep(modalCloseWait)
		res.Status = StatusNotFound
		return res, nil
	}
	n.logger.Info("result selected", "id", item.ID, "url", clickedURL)

	// A timeout here is tolerated: the click may have navigated already and
	// the page is assumed ready.
	if err := page.Timeout(n.cfg.NavTimeout).WaitStable(500 * time.Millisecond); err != nil {
		n.logger.Debug("navigation wait timed out, continuing", "error", err)
	}
	n.pause(detailWaitMin, detailWaitMax)
	n.session.SetOnHomepage(false)

	pageURL := clickedURL
	if info, err := page.Info(); err == nil && info != nil {
		pageURL = info.URL
	}
	res.PageURL = pageURL

	imageURL, strategy, found := n.extractImage(page, pageURL)
	if !found {
		n.session.CaptureScreenshot(item.ID, "detail")
		res.Status = StatusNoImage
		return res, nil
	}

	n.logger.Debug("image located", "id", item.ID, "strategy", strategy, "url", imageURL)
	res.Status = StatusFound
	res.ImageURL = imageURL
	return res, nil
}

// goHome navigates to the entry point, waits for it to settle, and dismisses
// the consent overlay if present.
func (n *Navigator) goHome(page *rod.Page) error {
	if err := page.Timeout(n.cfg.HomeTimeout).Navigate(n.cfg.HomeURL); err != nil {
		return fmt.Errorf("navigate home: %w", err)
	}
	if err := page.Timeout(n.cfg.HomeTimeout).WaitLoad(); err != nil {
		n.logger.Warn("homepage load wait failed, continuing", "error", err)
	}
	n.pause(homeSettleMin, homeSettleMax)

	// Best-effort: the overlay only shows on fresh sessions.
	if el, err := page.Timeout(2 * time.Second).Element(n.cfg.CookieSelectors); err == nil {
		if err := el.Click(proto.InputMouseButtonLeft, 1); err == nil {
			time.Sleep(modalCloseWait)
		}
	}

	n.session.SetOnHomepage(true)
	return nil
}

// openSearch activates the search modal: click the search bar, or fall back
// to the Ctrl+K shortcut when the bar is not in the current layout variant.
func (n *Navigator) openSearch(page *rod.Page) error {
	if el, err := page.Timeout(5 * time.Second).Element(n.cfg.SearchBarSelector); err == nil {
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return fmt.Errorf("click search bar: %w", err)
		}
	} else {
		kb := page.Keyboard
		if err := kb.Press(input.ControlLeft); err != nil {
			return fmt.Errorf("shortcut: %w", err)
		}
		_ = kb.Type(input.KeyK)
		if err := kb.Release(input.ControlLeft); err != nil {
			return fmt.Errorf("shortcut: %w", err)
		}
	}
	n.pause(modalOpenMin, modalOpenMax)
	return nil
}

// findModalInput picks, among all candidate search inputs, the first one that
// is actually rendered wide enough to be the overlay input rather than a
// hidden background field.
func (n *Navigator) findModalInput(page *rod.Page) (*rod.Element, error) {
	els, err := page.Elements(n.cfg.ModalInputSelectors)
	if err != nil {
		return nil, fmt.Errorf("query modal inputs: %w", err)
	}
	for _, el := range els {
		shape, err := el.Shape()
		if err != nil {
			continue
		}
		if box := shape.Box(); box != nil && box.Width > n.cfg.MinInputWidth {
			return el, nil
		}
	}
	return nil, ErrInputNotFound
}

// typeQuery clears any pre-filled text and types the query character by
// character with randomized inter-key delays, then waits for the suggestion
// list to populate.
func (n *Navigator) typeQuery(page *rod.Page, field *rod.Element, query string) error {
	// Triple-click selects existing text so one Backspace clears it.
	if err := field.Click(proto.InputMouseButtonLeft, 3); err != nil {
		return err
	}
	if err := page.Keyboard.Press(input.Backspace); err != nil {
		return err
	}
	time.Sleep(clearTextWait)

	for _, r := range query {
		if err := page.InsertText(string(r)); err != nil {
			return err
		}
		n.pause(n.cfg.TypeDelayMin, n.cfg.TypeDelayMax)
	}

	n.pause(n.cfg.SettleDelayMin, n.cfg.SettleDelayMax)
	return nil
}

// selectResult finds and activates the first detail-page link in the
// autocomplete overlay. The overlay-container heuristic runs on the page HTML
// first; when no container is identifiable, the live viewport-band heuristic
// takes over. The whole lookup retries because the suggestion list may still
// be populating.
func (n *Navigator) selectResult(page *rod.Page) (string, bool) {
	for attempt := 0; attempt < n.cfg.SelectAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(n.cfg.SelectRetryDelay)
		}

		if html, err := page.HTML(); err == nil {
			if href, ok := extract.OverlayDetailLink(html, n.cfg.ResultHeading); ok {
				clicked, err := page.Eval(jsClickDetailLink, href)
				if err == nil && clicked.Value.Str() != "" {
					return clicked.Value.Str(), true
				}
			}
		}

		clicked, err := page.Eval(jsDropdownClick)
		if err == nil && clicked.Value.Str() != "" {
			return clicked.Value.Str(), true
		}
	}
	return "", false
}

// extractImage tries the HTML strategies in priority order, then the live
// asset-host fallback that needs rendered widths.
func (n *Navigator) extractImage(page *rod.Page, pageURL string) (string, string, bool) {
	if html, err := page.HTML(); err == nil {
		if src, strategy, ok := extract.FindImage(html, n.strategies); ok {
			return extract.ResolveURL(pageURL, src), strategy, true
		}
	}

	res, err := page.Eval(jsAssetHostImage, n.cfg.AssetHosts, n.cfg.MinImageWidth)
	if err == nil && res.Value.Str() != "" {
		return res.Value.Str(), "asset-host", true
	}
	return "", "", false
}
