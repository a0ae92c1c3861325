// Package images picks a hero image for a rendered landing page.
package images

import (
	"context"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/offers/internal/config"
	"github.com/law-makers/offers/internal/engine"
	urlutil "github.com/law-makers/offers/internal/utils/url"
	"github.com/rs/zerolog/log"
)

// Tier identifies the step of the chain that produced an image.
type Tier int

const (
	TierNone Tier = iota
	TierCached
	TierOverride
	TierOGImage
	TierTwitterImage
	TierHeaderImage
	TierBackground
	TierLargest
	TierFavicon
	TierAvatar
)

var tierNames = map[Tier]string{
	TierNone:         "none",
	TierCached:       "cached",
	TierOverride:     "override",
	TierOGImage:      "og:image",
	TierTwitterImage: "twitter:image",
	TierHeaderImage:  "header-img",
	TierBackground:   "background",
	TierLargest:      "largest-img",
	TierFavicon:      "favicon",
	TierAvatar:       "avatar",
}

func (t Tier) String() string {
	if s, ok := tierNames[t]; ok {
		return s
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// Result is the chosen image and the tier that produced it.
type Result struct {
	URL  string
	Tier Tier
}

// Resolver runs the image resolution chain.
type Resolver struct {
	cfg config.ImageConfig
}

// New returns a Resolver. cfg.Overrides is the per-domain selector table.
func New(cfg config.ImageConfig) *Resolver {
	return &Resolver{cfg: cfg}
}

// Resolve returns existing untouched unless it is empty or force is set.
// Otherwise the first tier yielding a URL wins. The last two tiers build a
// URL from the host, so a successful Resolve on a page with a host is never
// empty. The only error is a failed live DOM query in the largest-image tier.
func (r *Resolver) Resolve(ctx context.Context, page engine.Page, existing string, force bool) (Result, error) {
	if existing != "" && !force {
		return Result{URL: existing, Tier: TierCached}, nil
	}

	base := page.FinalURL()
	doc := page.Document()
	host := urlutil.Hostname(base)

	steps := []struct {
		tier Tier
		find func() string
	}{
		{TierOverride, func() string { return r.override(doc, base, host) }},
		{TierOGImage, func() string { return metaImage(doc, base, `meta[property="og:image"]`) }},
		{TierTwitterImage, func() string {
			return metaImage(doc, base, `meta[name="twitter:image"], meta[property="twitter:image"]`)
		}},
		{TierHeaderImage, func() string { return r.headerImage(doc, base) }},
		{TierBackground, func() string { return r.backgroundImage(doc, base) }},
	}
	for _, s := range steps {
		if u := s.find(); u != "" {
			return r.hit(base, s.tier, u), nil
		}
	}

	u, err := r.largestImage(ctx, page, base)
	if err != nil {
		return Result{}, engine.ExtractionError("measure images", err).WithDetail("url", base)
	}
	if u != "" {
		return r.hit(base, TierLargest, u), nil
	}

	if u := r.favicon(host); u != "" {
		return r.hit(base, TierFavicon, u), nil
	}
	return r.hit(base, TierAvatar, r.avatar(host)), nil
}

func (r *Resolver) hit(base string, tier Tier, u string) Result {
	log.Debug().Str("url", base).Str("tier", tier.String()).Str("image", u).Msg("Image resolved")
	return Result{URL: u, Tier: tier}
}

// accept absolutises raw against base and applies the validity filter.
func accept(base, raw string) string {
	abs := urlutil.ResolveURL(base, raw)
	if !IsValidImage(abs) {
		return ""
	}
	return abs
}

func (r *Resolver) override(doc *goquery.Document, base, host string) string {
	for _, rule := range r.cfg.Overrides {
		if !urlutil.MatchHost(host, rule.Host) {
			continue
		}
		found := ""
		doc.Find(rule.Selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			found = accept(base, sel.AttrOr(rule.Attribute(), ""))
			return found == ""
		})
		if found != "" {
			return found
		}
	}
	return ""
}

func metaImage(doc *goquery.Document, base, selector string) string {
	found := ""
	doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		found = accept(base, sel.AttrOr("content", ""))
		return found == ""
	})
	return found
}

func (r *Resolver) headerImage(doc *goquery.Document, base string) string {
	imgs := doc.Find("header img, nav img")
	if imgs.Length() == 0 {
		imgs = doc.Find("img")
	}

	found := ""
	imgs.EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= r.cfg.HeaderScanLimit {
			return false
		}
		if u := accept(base, selSrc(sel)); u != "" && HasImageExt(u) {
			found = u
			return false
		}
		return true
	})
	return found
}

func (r *Resolver) backgroundImage(doc *goquery.Document, base string) string {
	found := ""
	doc.Find(`[style*="background"]`).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= r.cfg.BackgroundScanLimit {
			return false
		}
		if raw := BackgroundURL(sel.AttrOr("style", "")); raw != "" {
			found = accept(base, raw)
		}
		return found == ""
	})
	return found
}

func (r *Resolver) largestImage(ctx context.Context, page engine.Page, base string) (string, error) {
	boxes, err := page.ImageBoxes(ctx, r.cfg.ImageScanLimit)
	if err != nil {
		return "", err
	}

	best, maxArea := "", 0.0
	for _, b := range boxes {
		u := accept(base, pickSrc(b.Src, b.DataSrc, b.SrcSet))
		if u == "" {
			continue
		}
		if area := b.Area(); area > maxArea && area >= r.cfg.AreaThreshold {
			best, maxArea = u, area
		}
	}
	return best, nil
}

func (r *Resolver) favicon(host string) string {
	if host == "" {
		return ""
	}
	return fmt.Sprintf(r.cfg.FaviconURL, url.QueryEscape(host))
}

func (r *Resolver) avatar(host string) string {
	label := urlutil.DomainLabel(host)
	if label == "" {
		label = "offer"
	}
	return fmt.Sprintf(r.cfg.AvatarURL, url.QueryEscape(label))
}
