// internal/engine/dynamic/browser_pool.go
package dynamic

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/law-makers/offers/internal/config"
	"github.com/law-makers/offers/internal/engine"
	"github.com/law-makers/offers/internal/utils/headers"
	"github.com/rs/zerolog/log"
)

// Browser owns one Chrome process for a whole run and hands out tabs.
// At most Size tabs are open at once; Acquire blocks beyond that.
type Browser struct {
	size          int
	slots         chan struct{}
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	mu            sync.Mutex
	closed        bool
	headers       network.Headers
}

// Tab is one isolated browsing context. Close it exactly once; extra calls are no-ops.
type Tab struct {
	Ctx     context.Context
	cancel  context.CancelFunc
	release func()
	once    sync.Once
}

// Close closes the tab, disposes its browser context and frees the slot.
func (t *Tab) Close() {
	t.once.Do(func() {
		t.cancel()
		t.release()
	})
}

// BrowserOptions configures the browser
type BrowserOptions struct {
	Size       int
	Headless   bool
	UserAgent  string
	Proxy      string
	Headers    map[string]string
	ChromePath string
	ExtraArgs  []chromedp.ExecAllocatorOption
}

func allocatorOptions(opts BrowserOptions) []chromedp.ExecAllocatorOption {
	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-client-side-phishing-detection", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-prompt-on-repost", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("force-color-profile", "srgb"),
		chromedp.Flag("log-level", "3"),
		chromedp.Flag("metrics-recording-only", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("safebrowsing-disable-auto-update", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		// Bounding boxes are measured in this viewport.
		chromedp.Flag("window-size", "1920,1080"),
		chromedp.UserAgent(opts.UserAgent),
	}

	if opts.ChromePath != "" {
		allocOpts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(opts.ChromePath)}, allocOpts...)
	}

	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}

	if opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Proxy))
	}

	return append(allocOpts, opts.ExtraArgs...)
}

// NewBrowser starts Chrome and waits until it answers.
func NewBrowser(opts BrowserOptions) (*Browser, error) {
	if opts.Size <= 0 {
		opts.Size = config.DefaultBrowserPoolSize
	}
	if opts.Size > config.DefaultMaxBrowserPoolSize {
		opts.Size = config.DefaultMaxBrowserPoolSize
	}
	if opts.UserAgent == "" {
		opts.UserAgent = config.DefaultUserAgent
	}
	opts.ChromePath = FindChrome(opts.ChromePath)

	log.Debug().Int("size", opts.Size).Str("chrome", opts.ChromePath).Msg("Starting browser")

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(opts)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// The first Run launches the process.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("%w: %v", engine.ErrBrowserNotFound, err)
	}

	b := &Browser{
		size:          opts.Size,
		slots:         make(chan struct{}, opts.Size),
		allocCtx:      allocCtx,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}
	if len(opts.Headers) > 0 {
		b.headers = network.Headers(headers.ToCDP(opts.Headers))
	}

	log.Info().Int("tabs", opts.Size).Str("version", GetChromeVersion(opts.ChromePath)).Msg("Browser ready")

	return b, nil
}

// Acquire opens a new tab in its own browser context. It blocks while all
// slots are taken and fails when ctx ends first.
func (b *Browser) Acquire(ctx context.Context) (*Tab, error) {
	select {
	case b.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for a browser tab: %w", ctx.Err())
	}
	release := func() { <-b.slots }

	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		release()
		return nil, engine.ErrBrowserClosed
	}

	tabCtx, cancel := chromedp.NewContext(b.browserCtx, chromedp.WithNewBrowserContext())
	tab := &Tab{Ctx: tabCtx, cancel: cancel, release: release}

	// Create the target before any deadline is attached to it; a deadline on
	// the first Run would bound the tab's whole lifetime.
	actions := []chromedp.Action{network.Enable()}
	if b.headers != nil {
		actions = append(actions, network.SetExtraHTTPHeaders(b.headers))
	}
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		tab.Close()
		return nil, fmt.Errorf("open tab: %w", err)
	}

	log.Debug().Int("in_use", b.InUse()).Msg("Browser tab opened")
	return tab, nil
}

// Close shuts down Chrome. Tabs still open are closed with it.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	log.Debug().Msg("Closing browser")

	b.browserCancel()
	b.allocCancel()

	log.Info().Msg("Browser closed")

	return nil
}

// Size returns the maximum number of concurrent tabs
func (b *Browser) Size() int {
	return b.size
}

// InUse returns the number of open tabs
func (b *Browser) InUse() int {
	return len(b.slots)
}
