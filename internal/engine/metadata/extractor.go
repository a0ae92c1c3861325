// internal/engine/metadata/extractor.go
package metadata

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/offers/internal/config"
)

// DefaultKeywords is the vocabulary an offer line must touch to be kept.
var DefaultKeywords = []string{
	"cashback", "reward", "rewards", "points", "miles", "fuel", "octane", "bpcl",
	"lounge", "joining fee", "annual fee", "waived", "waiver", "lifetime free",
	"welcome bonus", "offer", "discount", "save", "cash back", "%",
}

// Extractor derives the promotional snippet and offer highlights from a
// rendered document.
type Extractor struct {
	cfg      config.TextConfig
	keywords []string
}

// New returns an Extractor using cfg. cfg.Keywords replaces DefaultKeywords
// when it has any non-blank entry; keywords are matched lowercase.
func New(cfg config.TextConfig) *Extractor {
	keywords := make([]string, 0, len(cfg.Keywords))
	for _, k := range cfg.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	return &Extractor{cfg: cfg, keywords: keywords}
}

// ResolveSnippet keeps existing unless it is empty or force is set.
func (e *Extractor) ResolveSnippet(doc *goquery.Document, existing string, force bool) string {
	if existing != "" && !force {
		return existing
	}
	return e.Snippet(doc)
}

// ResolveOffers keeps existing unless it is empty or force is set.
func (e *Extractor) ResolveOffers(doc *goquery.Document, existing []string, force bool) []string {
	if len(existing) > 0 && !force {
		return existing
	}
	return e.Offers(doc)
}

// Snippet returns the first non-empty of: og:title and description joined
// by a dash, og:title, <title>, the first h1/h2, description. The result is
// trimmed and cut to SnippetMaxLen characters.
func (e *Extractor) Snippet(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}

	ogTitle := metaContent(doc, `meta[property="og:title"]`)
	desc := metaContent(doc, `meta[name="description"]`)

	var candidates []string
	if ogTitle != "" && desc != "" {
		candidates = append(candidates, ogTitle+" — "+desc)
	}
	candidates = append(candidates,
		ogTitle,
		CollapseWhitespace(doc.Find("title").First().Text()),
		CollapseWhitespace(doc.Find("h1, h2").First().Text()),
		desc,
	)

	for _, c := range candidates {
		if c != "" {
			return Truncate(c, e.cfg.SnippetMaxLen)
		}
	}
	return ""
}

// Offers scans li and p elements in document order and keeps lines that
// mention a keyword and fall within the configured length bounds. Exact
// duplicates are dropped. Scanning stops after OfferScanLimit accepted lines
// and at most MaxOffers are returned.
func (e *Extractor) Offers(doc *goquery.Document) []string {
	if doc == nil {
		return nil
	}

	var items []string
	seen := make(map[string]struct{})

	doc.Find("li, p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		txt := CollapseWhitespace(NodeText(sel))
		if txt == "" || !e.hasKeyword(txt) {
			return true
		}
		if n := RuneLen(txt); n < e.cfg.OfferMinLen || n > e.cfg.OfferMaxLen {
			return true
		}
		if _, dup := seen[txt]; dup {
			return true
		}
		seen[txt] = struct{}{}
		items = append(items, txt)
		return len(items) < e.cfg.OfferScanLimit
	})

	if len(items) > e.cfg.MaxOffers {
		items = items[:e.cfg.MaxOffers]
	}
	return items
}

func (e *Extractor) hasKeyword(txt string) bool {
	low := strings.ToLower(txt)
	for _, k := range e.keywords {
		if strings.Contains(low, k) {
			return true
		}
	}
	return false
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}
