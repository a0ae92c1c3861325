package images

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	urlutil "github.com/law-makers/offers/internal/utils/url"
)

var (
	decorativeRe = regexp.MustCompile(`(?i)(sprite|favicon|1x1|pixel|blank|spacer)`)
	cssURLRe     = regexp.MustCompile(`(?i)url\(\s*['"]?([^)'"]+)`)
)

// headerExts are the extensions accepted for header/nav images.
var headerExts = map[string]bool{"png": true, "jpg": true, "jpeg": true, "webp": true}

// IsValidImage rejects empty URLs and those that look like sprites, favicons,
// tracking pixels or spacers.
func IsValidImage(u string) bool {
	if strings.TrimSpace(u) == "" {
		return false
	}
	return !decorativeRe.MatchString(u)
}

// HasImageExt reports whether the URL path ends in png, jpg, jpeg or webp.
func HasImageExt(u string) bool {
	return headerExts[urlutil.Ext(u)]
}

// BackgroundURL returns the first url(...) token of an inline style that
// mentions background, or "". The token may sit anywhere in the value, as in
// shorthand or after a gradient.
func BackgroundURL(style string) string {
	if !strings.Contains(strings.ToLower(style), "background") {
		return ""
	}
	m := cssURLRe.FindStringSubmatch(style)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// pickSrc prefers src, then data-src, then the first srcset candidate.
func pickSrc(src, dataSrc, srcset string) string {
	if s := strings.TrimSpace(src); s != "" {
		return s
	}
	if s := strings.TrimSpace(dataSrc); s != "" {
		return s
	}
	first, _, _ := strings.Cut(srcset, ",")
	if fields := strings.Fields(first); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

func selSrc(sel *goquery.Selection) string {
	return pickSrc(sel.AttrOr("src", ""), sel.AttrOr("data-src", ""), sel.AttrOr("srcset", ""))
}
