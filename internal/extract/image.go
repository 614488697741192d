package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ImageStrategy is one heuristic for locating the product image on a detail
// page. Strategies are tried in priority order; the first hit wins, so the
// list can be reordered or extended without touching the navigation engine.
type ImageStrategy interface {
	Name() string
	Locate(doc *goquery.Document) (string, bool)
}

// semanticImage matches an element whose semantic role explicitly marks it as
// the product image. Most reliable when present.
type semanticImage struct{}

func (semanticImage) Name() string { return "itemprop" }

func (semanticImage) Locate(doc *goquery.Document) (string, bool) {
	src, ok := doc.Find("img[itemprop='image']").First().Attr("src")
	return src, ok && src != ""
}

// layoutSelectors tries a fixed list of known page-layout selectors.
type layoutSelectors struct {
	selectors []string
}

func (layoutSelectors) Name() string { return "layout" }

func (s layoutSelectors) Locate(doc *goquery.Document) (string, bool) {
	for _, sel := range s.selectors {
		if src, ok := doc.Find(sel).First().Attr("src"); ok && src != "" {
			return src, true
		}
	}
	return "", false
}

// HTMLStrategies returns the strategies that run against serialized page HTML,
// in priority order. The rendered-width CDN fallback needs live layout and is
// evaluated in the browser by the navigation engine.
func HTMLStrategies(selectors []string) []ImageStrategy {
	return []ImageStrategy{
		semanticImage{},
		layoutSelectors{selectors: selectors},
	}
}

// FindImage runs the strategies against pageHTML and returns the first match
// plus the name of the strategy that produced it.
func FindImage(pageHTML string, strategies []ImageStrategy) (imageURL, strategy string, ok bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return "", "", false
	}
	for _, s := range strategies {
		if src, found := s.Locate(doc); found {
			return src, s.Name(), true
		}
	}
	return "", "", false
}

// ResolveURL makes ref absolute against base. A ref that is already absolute
// (or a base that does not parse) is returned as is.
func ResolveURL(base, ref string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}
