// Package enginetest provides in-memory Renderer and Page implementations so
// the image chain and the batch enricher can be tested without Chrome.
package enginetest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/offers/internal/engine"
	"github.com/law-makers/offers/pkg/models"
)

// Page is a static engine.Page.
type Page struct {
	URL      string
	Body     string
	Boxes    []models.ImageBox
	BoxesErr error
	// DocPanic makes Document panic with this value.
	DocPanic any

	doc    *goquery.Document
	closed atomic.Bool
}

// NewPage parses body and returns a Page whose final URL is finalURL.
func NewPage(finalURL, body string, boxes ...models.ImageBox) *Page {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		panic(fmt.Sprintf("enginetest: parse page: %v", err))
	}
	return &Page{URL: finalURL, Body: body, Boxes: boxes, doc: doc}
}

func (p *Page) FinalURL() string            { return p.URL }
func (p *Page) HTML() string                { return p.Body }
func (p *Page) Close()                      { p.closed.Store(true) }

func (p *Page) Document() *goquery.Document {
	if p.DocPanic != nil {
		panic(p.DocPanic)
	}
	return p.doc
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool { return p.closed.Load() }

func (p *Page) ImageBoxes(ctx context.Context, limit int) ([]models.ImageBox, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.BoxesErr != nil {
		return nil, p.BoxesErr
	}
	if limit > 0 && len(p.Boxes) > limit {
		return p.Boxes[:limit], nil
	}
	return p.Boxes, nil
}

// Response is what Renderer returns for one URL.
type Response struct {
	FinalURL string
	Body     string
	Boxes    []models.ImageBox
	Err      error
	// BoxesErr is returned by the rendered page's ImageBoxes.
	BoxesErr error
	// DocPanic is passed to the rendered page.
	DocPanic any
	// Delay blocks Render until it elapses or ctx is done.
	Delay time.Duration
	// Panic makes Render panic with this value.
	Panic any
}

// Renderer serves canned pages keyed by requested URL.
type Renderer struct {
	Pages map[string]Response

	mu       sync.Mutex
	calls    []string
	rendered []*Page
}

func NewRenderer(pages map[string]Response) *Renderer {
	return &Renderer{Pages: pages}
}

func (r *Renderer) Name() string { return "fake" }

func (r *Renderer) Render(ctx context.Context, url string) (engine.Page, error) {
	r.mu.Lock()
	r.calls = append(r.calls, url)
	resp, ok := r.Pages[url]
	r.mu.Unlock()

	if !ok {
		return nil, engine.NavigationError(url, fmt.Errorf("net::ERR_NAME_NOT_RESOLVED"))
	}
	if resp.Panic != nil {
		panic(resp.Panic)
	}
	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-ctx.Done():
			return nil, engine.NavigationError(url, ctx.Err())
		}
	}
	if resp.Err != nil {
		return nil, resp.Err
	}

	final := resp.FinalURL
	if final == "" {
		final = url
	}
	page := NewPage(final, resp.Body, resp.Boxes...)
	page.BoxesErr = resp.BoxesErr
	page.DocPanic = resp.DocPanic

	r.mu.Lock()
	r.rendered = append(r.rendered, page)
	r.mu.Unlock()
	return page, nil
}

// Calls returns the URLs passed to Render, in call order.
func (r *Renderer) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// OpenPages counts rendered pages that were never closed.
func (r *Renderer) OpenPages() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.rendered {
		if !p.Closed() {
			n++
		}
	}
	return n
}
