// internal/engine/dynamic/renderer.go
package dynamic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/law-makers/offers/internal/engine"
	"github.com/law-makers/offers/internal/ratelimit"
	"github.com/law-makers/offers/internal/retry"
	urlutil "github.com/law-makers/offers/internal/utils/url"
	"github.com/rs/zerolog/log"
)

// Renderer implements engine.Renderer with headless Chrome. Every Render gets
// its own tab, navigates, waits for DOMContentLoaded and then the settle delay
// so client-side scripts can inject meta tags and lazy images.
type Renderer struct {
	browser    *Browser
	limiter    ratelimit.RateLimiter
	navTimeout time.Duration
	settle     time.Duration
	retry      retry.Config
}

// New creates a Renderer. limiter may be nil.
func New(b *Browser, lim ratelimit.RateLimiter, navTimeout, settle time.Duration, rc retry.Config) *Renderer {
	return &Renderer{
		browser:    b,
		limiter:    lim,
		navTimeout: navTimeout,
		settle:     settle,
		retry:      rc,
	}
}

// Name returns the name of this renderer
func (r *Renderer) Name() string {
	return "chrome"
}

// Render opens url in a fresh tab. Timeouts are retried when the retry
// config allows more than one attempt.
func (r *Renderer) Render(ctx context.Context, url string) (engine.Page, error) {
	if err := urlutil.ValidateURL(url); err != nil {
		return nil, engine.NavigationError(url, fmt.Errorf("%w: %v", engine.ErrInvalidURL, err))
	}

	var rendered *Page
	err := retry.WithRetry(ctx, r.retry, func(ctx context.Context) error {
		p, err := r.renderOnce(ctx, url)
		if err != nil {
			return err
		}
		rendered = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rendered, nil
}

func (r *Renderer) renderOnce(ctx context.Context, url string) (*Page, error) {
	start := time.Now()

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx, url); err != nil {
			return nil, engine.NavigationError(url, fmt.Errorf("rate limit: %w", err))
		}
	}

	tab, err := r.browser.Acquire(ctx)
	if err != nil {
		return nil, engine.NavigationError(url, err)
	}

	// Cancelling the record context must stop work in the tab, whose
	// context descends from the browser instead.
	tabCtx, cancel := context.WithCancel(tab.Ctx)
	stop := context.AfterFunc(ctx, cancel)
	closeTab := func() {
		stop()
		cancel()
		tab.Close()
	}

	status, err := r.navigate(tabCtx, url)
	if err != nil {
		closeTab()
		return nil, engine.NavigationError(url, err)
	}

	if r.settle > 0 {
		if err := chromedp.Run(tabCtx, chromedp.Sleep(r.settle)); err != nil {
			closeTab()
			return nil, engine.NavigationError(url, fmt.Errorf("settle: %w", err))
		}
	}

	var finalURL, html string
	if err := chromedp.Run(tabCtx,
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		closeTab()
		if ctx.Err() != nil {
			return nil, engine.NavigationError(url, ctx.Err())
		}
		return nil, engine.ExtractionError("capture page", err).WithDetail("url", url)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		closeTab()
		return nil, engine.ExtractionError("parse html", fmt.Errorf("%w: %v", engine.ErrParseError, err))
	}

	log.Debug().
		Str("url", url).
		Str("final_url", finalURL).
		Int64("status", status).
		Dur("elapsed", time.Since(start)).
		Msg("Page rendered")

	return &Page{
		ctx:      tabCtx,
		close:    closeTab,
		finalURL: finalURL,
		html:     html,
		doc:      doc,
	}, nil
}

// navigate loads url and returns once DOMContentLoaded fires, without
// waiting for images and other subresources. It returns the HTTP status of
// the main document when one was seen.
func (r *Renderer) navigate(ctx context.Context, url string) (int64, error) {
	navCtx, cancel := context.WithTimeout(ctx, r.navTimeout)
	defer cancel()

	var (
		once    sync.Once
		mu      sync.Mutex
		status  int64
		loaded  = make(chan struct{})
		frameID cdp.FrameID
	)

	listenCtx, stopListening := context.WithCancel(ctx)
	defer stopListening()
	chromedp.ListenTarget(listenCtx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *page.EventDomContentEventFired:
			once.Do(func() { close(loaded) })
		case *network.EventResponseReceived:
			if ev.Type == network.ResourceTypeDocument {
				mu.Lock()
				if status == 0 || ev.FrameID == frameID {
					status = ev.Response.Status
				}
				mu.Unlock()
			}
		}
	})

	err := chromedp.Run(navCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var res page.NavigateReturns
		if err := cdp.Execute(ctx, page.CommandNavigate, page.Navigate(url), &res); err != nil {
			return err
		}
		if res.ErrorText != "" {
			return errors.New(res.ErrorText)
		}
		mu.Lock()
		frameID = res.FrameID
		mu.Unlock()
		return nil
	}))
	if err != nil {
		if navCtx.Err() != nil {
			return 0, fmt.Errorf("%w after %s: %w", engine.ErrTimeout, r.navTimeout, navCtx.Err())
		}
		return 0, err
	}

	select {
	case <-loaded:
	case <-navCtx.Done():
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("%w after %s waiting for DOMContentLoaded: %w", engine.ErrTimeout, r.navTimeout, navCtx.Err())
	}

	mu.Lock()
	defer mu.Unlock()
	return status, nil
}
