package engine

import (
	"strings"

	"github.com/law-makers/offers/pkg/models"
)

// BestLink picks the canonical landing URL for a record: the first official
// link with a URL, else the first link with a URL, else "".
func BestLink(links models.Links) string {
	for _, l := range links {
		if l.Type == models.OfficialLinkType && strings.TrimSpace(l.URL) != "" {
			return strings.TrimSpace(l.URL)
		}
	}
	for _, l := range links {
		if u := strings.TrimSpace(l.URL); u != "" {
			return u
		}
	}
	return ""
}
