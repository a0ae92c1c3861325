// Package app wires configuration into the enrichment components and owns their lifecycle.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/law-makers/offers/internal/config"
	"github.com/law-makers/offers/internal/engine"
	"github.com/law-makers/offers/internal/engine/batch"
	"github.com/law-makers/offers/internal/engine/dynamic"
	"github.com/law-makers/offers/internal/engine/images"
	"github.com/law-makers/offers/internal/engine/metadata"
	"github.com/law-makers/offers/internal/ratelimit"
	"github.com/law-makers/offers/internal/retry"
	"github.com/law-makers/offers/internal/runctx"
	"github.com/law-makers/offers/internal/utils/headers"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once per command. The browser is started lazily so commands
// that never render a page (links, help) do not launch Chrome.
type Application struct {
	Config      *config.Config
	RunID       string
	RateLimiter *ratelimit.DomainLimiter
	Images      *images.Resolver
	Text        *metadata.Extractor

	browser   *dynamic.Browser
	browserMu sync.Mutex
	startTime time.Time
}

// New creates an Application from cfg and configures the global logger.
func New(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	SetupLogging(cfg, os.Stderr)

	a := &Application{
		Config:      cfg,
		RunID:       runctx.NewRunID(),
		RateLimiter: ratelimit.NewDomainLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Images:      images.New(cfg.Images),
		Text:        metadata.New(cfg.Text),
		startTime:   time.Now(),
	}

	log.Debug().
		Str("run_id", a.RunID).
		Float64("rps", cfg.RateLimitRPS).
		Int("burst", cfg.RateLimitBurst).
		Int("overrides", len(cfg.Images.Overrides)).
		Msg("Application initialized")
	return a, nil
}

// SetupLogging points the global zerolog logger at w using the configured
// level and format.
func SetupLogging(cfg *config.Config, w io.Writer) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.JSONLog {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).With().Timestamp().Logger()
}

// Context tags ctx with the application's run id.
func (a *Application) Context(ctx context.Context) context.Context {
	return runctx.WithRun(ctx, a.RunID)
}

// Browser returns the shared browser, starting Chrome on first use.
func (a *Application) Browser() (*dynamic.Browser, error) {
	a.browserMu.Lock()
	defer a.browserMu.Unlock()

	if a.browser != nil {
		return a.browser, nil
	}

	extra, err := headers.Parse(a.Config.ExtraHeaders)
	if err != nil {
		return nil, err
	}

	b, err := dynamic.NewBrowser(dynamic.BrowserOptions{
		Size:       a.Config.BrowserPoolSize,
		Headless:   a.Config.BrowserHeadless,
		UserAgent:  a.Config.UserAgent,
		Proxy:      a.Config.Proxy,
		ChromePath: a.Config.ChromePath,
		Headers:    extra,
	})
	if err != nil {
		return nil, err
	}
	a.browser = b
	return b, nil
}

// Renderer returns a Chrome-backed renderer sharing the application's
// browser and per-domain limiter.
func (a *Application) Renderer() (engine.Renderer, error) {
	b, err := a.Browser()
	if err != nil {
		return nil, err
	}
	return dynamic.New(b, a.RateLimiter, a.Config.NavigationTimeout, a.Config.SettleDelay, a.retryConfig()), nil
}

// Enricher builds a batch enricher on top of Renderer. onDone may be nil.
func (a *Application) Enricher(onDone func(batch.RecordResult)) (*batch.Enricher, error) {
	r, err := a.Renderer()
	if err != nil {
		return nil, err
	}
	return a.enricher(r, onDone), nil
}

func (a *Application) enricher(r engine.Renderer, onDone func(batch.RecordResult)) *batch.Enricher {
	return batch.New(r, a.Images, a.Text, batch.Options{
		Workers:       a.Config.Workers,
		MaxTabs:       a.Config.BrowserPoolSize,
		RecordTimeout: a.Config.RecordTimeout(),
		OnRecordDone:  onDone,
	})
}

func (a *Application) retryConfig() retry.Config {
	rc := retry.DefaultConfig()
	rc.MaxAttempts = a.Config.NavAttempts
	if a.Config.RetryBackoff > 0 {
		rc.InitialBackoff = a.Config.RetryBackoff
	}
	return rc
}

// Close shuts the browser down. It is safe to call when no browser was started.
func (a *Application) Close(ctx context.Context) error {
	a.browserMu.Lock()
	b := a.browser
	a.browser = nil
	a.browserMu.Unlock()

	if b != nil {
		done := make(chan error, 1)
		go func() { done <- b.Close() }()
		select {
		case err := <-done:
			if err != nil {
				log.Warn().Err(err).Msg("Error closing browser")
			}
		case <-ctx.Done():
			log.Warn().Err(ctx.Err()).Msg("Browser did not close in time")
		}
	}

	log.Debug().Str("run_id", a.RunID).Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
