// internal/engine/dynamic/page.go
package dynamic

import (
	"context"
	"fmt"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/law-makers/offers/pkg/models"
)

// imageBoxesJS measures the first %d <img> elements in document order.
const imageBoxesJS = `Array.from(document.querySelectorAll('img')).slice(0, %d).map(img => {
	const r = img.getBoundingClientRect();
	return {
		src: img.getAttribute('src') || '',
		dataSrc: img.getAttribute('data-src') || '',
		srcset: img.getAttribute('srcset') || '',
		width: r.width,
		height: r.height
	};
})`

// Page is a rendered tab. It stays open until Close so the image chain can
// measure live elements.
type Page struct {
	ctx      context.Context
	close    func()
	once     sync.Once
	finalURL string
	html     string
	doc      *goquery.Document
}

func (p *Page) FinalURL() string            { return p.finalURL }
func (p *Page) HTML() string                { return p.html }
func (p *Page) Document() *goquery.Document { return p.doc }

// ImageBoxes evaluates bounding boxes in the live tab. ctx bounds the call in
// addition to the tab's own lifetime.
func (p *Page) ImageBoxes(ctx context.Context, limit int) ([]models.ImageBox, error) {
	if limit <= 0 {
		return nil, nil
	}

	evalCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var boxes []models.ImageBox
	if err := chromedp.Run(evalCtx, chromedp.Evaluate(fmt.Sprintf(imageBoxesJS, limit), &boxes)); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("measure images: %w", err)
	}
	return boxes, nil
}

// Close closes the tab and frees its slot.
func (p *Page) Close() {
	p.once.Do(p.close)
}
