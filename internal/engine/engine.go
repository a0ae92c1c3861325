package engine

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/offers/pkg/models"
)

// Renderer opens a landing page in a browser tab and returns it once the
// DOM has settled.
type Renderer interface {
	// Render navigates to url. On success the caller owns the returned Page
	// and must Close it; on failure no tab is left open.
	Render(ctx context.Context, url string) (Page, error)

	// Name returns the name of the renderer implementation
	Name() string
}

// Page is a rendered landing page bound to a live browser tab.
type Page interface {
	// FinalURL is the document URL after redirects. Relative URLs found on
	// the page resolve against it, never against the requested link.
	FinalURL() string

	// HTML is the serialised DOM captured after the settle delay.
	HTML() string

	// Document is HTML parsed with goquery.
	Document() *goquery.Document

	// ImageBoxes returns the src and rendered size of the first limit <img>
	// elements in document order.
	ImageBoxes(ctx context.Context, limit int) ([]models.ImageBox, error)

	// Close releases the tab. Safe to call more than once.
	Close()
}
