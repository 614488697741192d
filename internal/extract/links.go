// Package extract holds the DOM heuristics for the fragrance site: locating
// the detail-page link inside the autocomplete overlay and locating the
// product image on a detail page. Everything here works on serialized page
// HTML so the heuristics are testable without a browser; the one heuristic
// that needs live layout (rendered width, hit-testing) stays in the
// navigation engine as injected JavaScript.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// detailLinkRe matches an item detail-page path: brand segment, slug, numeric id.
var detailLinkRe = regexp.MustCompile(`/perfume/[^/]+/[^/]+-\d+\.html`)

// IsDetailLink reports whether href points at an item detail page.
func IsDetailLink(href string) bool {
	return detailLinkRe.MatchString(href)
}

// containerHints marks an ancestor as the overlay container: explicit dialog
// roles, or class names the site uses for its search layers.
var containerRoles = map[string]bool{"dialog": true, "listbox": true}
var containerClassHints = []string{"search", "modal", "overlay", "dropdown"}

// OverlayDetailLink finds the first detail-page link inside the autocomplete
// overlay, identified as the subtree around a section heading whose exact text
// is heading. Links outside that subtree (sidebar, reviews, background page)
// are never considered. Returns false when no overlay or no matching link is
// present; the caller falls back to the live viewport heuristic.
func OverlayDetailLink(pageHTML, heading string) (string, bool) {
	doc, err := htmlquery.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return "", false
	}

	marker, err := htmlquery.Query(doc, fmt.Sprintf("//*[normalize-space()=%s]", xpathString(heading)))
	if err != nil || marker == nil {
		return "", false
	}

	container := overlayContainer(marker)
	if container == nil {
		return "", false
	}

	links, err := htmlquery.QueryAll(container, ".//a[@href]")
	if err != nil {
		return "", false
	}
	for _, a := range links {
		href := htmlquery.SelectAttr(a, "href")
		if IsDetailLink(href) {
			return href, true
		}
	}
	return "", false
}

// overlayContainer walks up from the heading node to the element that holds
// the whole suggestion list: the nearest ancestor with a dialog-like role or
// an overlay-ish class name, else three parents up.
func overlayContainer(marker *html.Node) *html.Node {
	var fallback *html.Node
	depth := 0
	for n := marker.Parent; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		depth++
		if depth == 3 {
			fallback = n
		}
		if containerRoles[attr(n, "role")] {
			return n
		}
		class := strings.ToLower(attr(n, "class"))
		for _, hint := range containerClassHints {
			if strings.Contains(class, hint) {
				return n
			}
		}
	}
	return fallback
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// xpathString quotes s as an XPath string literal.
func xpathString(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	return "concat('" + strings.Join(parts, `', "'", '`) + "')"
}
