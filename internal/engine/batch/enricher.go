// internal/engine/batch/enricher.go
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/law-makers/offers/internal/engine"
	"github.com/law-makers/offers/internal/engine/images"
	"github.com/law-makers/offers/internal/engine/metadata"
	"github.com/law-makers/offers/internal/runctx"
	"github.com/law-makers/offers/pkg/models"
	"github.com/rs/zerolog/log"
)

// Options tunes a batch run.
type Options struct {
	// Workers is the number of records processed at once. Zero or less
	// picks OptimalConcurrency(MaxTabs).
	Workers int
	// MaxTabs caps Workers at the number of browser tabs available.
	MaxTabs int
	// RecordTimeout bounds one record end to end. Zero means no deadline
	// beyond the renderer's own navigation timeout.
	RecordTimeout time.Duration
	// Now stamps last_checked_ts. Defaults to time.Now.
	Now func() time.Time
	// OnRecordDone is called once per record, from worker goroutines.
	OnRecordDone func(RecordResult)
}

// RecordResult describes what happened to one record.
type RecordResult struct {
	Index   int
	Name    string
	URL     string
	Outcome models.Outcome
	Tier    images.Tier
	Err     error
	Elapsed time.Duration
}

// Enricher refreshes image, snippet and offers for a record collection.
type Enricher struct {
	renderer engine.Renderer
	images   *images.Resolver
	text     *metadata.Extractor
	opts     Options
	mu       sync.Mutex // serialises OnRecordDone
}

// New creates an Enricher
func New(r engine.Renderer, img *images.Resolver, txt *metadata.Extractor, opts Options) *Enricher {
	if opts.Workers <= 0 {
		opts.Workers = OptimalConcurrency(opts.MaxTabs)
	}
	opts.Workers = clampWorkers(opts.Workers, opts.MaxTabs)
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Enricher{renderer: r, images: img, text: txt, opts: opts}
}

// Workers returns the effective worker count.
func (e *Enricher) Workers() int {
	return e.opts.Workers
}

// Run enriches every record and returns the updated collection in input
// order with a histogram of outcomes. Per-record failures are recorded as
// the error outcome and never abort the run; failed records keep their
// previous fields apart from last_checked_ts. The input slice is not modified.
func (e *Enricher) Run(ctx context.Context, records []models.OfferRecord, force bool) ([]models.OfferRecord, models.Histogram) {
	start := time.Now()
	runID := runctx.GetRun(ctx).RunID

	log.Info().
		Str("run_id", runID).
		Int("records", len(records)).
		Int("workers", e.opts.Workers).
		Bool("force", force).
		Msg("Enrichment started")

	out := make([]models.OfferRecord, len(records))
	results := make([]RecordResult, len(records))

	runPool(ctx, e.opts.Workers, len(records), func(ctx context.Context, i int) {
		out[i], results[i] = e.EnrichOne(ctx, i, records[i], force)
	})

	hist := models.Histogram{}
	for _, res := range results {
		hist.Add(res.Outcome)
	}

	log.Info().
		Str("run_id", runID).
		Int("records", len(records)).
		Int("ok", hist[models.OutcomeOK]).
		Int("skipped", hist[models.OutcomeSkipNoURL]).
		Int("errors", hist[models.OutcomeError]).
		Dur("elapsed", time.Since(start)).
		Msg("STATS: " + hist.String())

	return out, hist
}

// EnrichOne processes a single record. idx only labels logs and errors.
func (e *Enricher) EnrichOne(ctx context.Context, idx int, rec models.OfferRecord, force bool) (out models.OfferRecord, res RecordResult) {
	start := time.Now()
	out = rec.Clone()
	res = RecordResult{Index: idx, Name: rec.Name, URL: engine.BestLink(rec.Links)}

	defer func() {
		out.LastCheckedTS = e.opts.Now().Unix()
		res.Elapsed = time.Since(start)
		e.report(ctx, res)
	}()

	if res.URL == "" {
		res.Outcome = models.OutcomeSkipNoURL
		return out, res
	}

	recCtx := runctx.WithRecord(ctx, idx, rec.Name, res.URL)
	if e.opts.RecordTimeout > 0 {
		var cancel context.CancelFunc
		recCtx, cancel = context.WithTimeout(recCtx, e.opts.RecordTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			out = rec.Clone()
			res.Outcome = models.OutcomeError
			res.Tier = images.TierNone
			res.Err = runctx.NewRecordError(recCtx, engine.ExtractionError("panic", fmt.Errorf("%v", r)))
		}
	}()

	fields, tier, err := e.extract(recCtx, res.URL, rec, force)
	if err != nil {
		res.Outcome = models.OutcomeError
		res.Err = runctx.NewRecordError(recCtx, err)
		return out, res
	}

	if fields.Image != "" {
		out.Image = fields.Image
	}
	if fields.Snippet != "" {
		out.Snippet = fields.Snippet
	}
	if len(fields.Offers) > 0 {
		out.Offers = fields.Offers
	}
	res.Outcome = models.OutcomeOK
	res.Tier = tier
	return out, res
}

type extracted struct {
	Image   string
	Snippet string
	Offers  []string
}

// extract renders url and derives all fields. The page is closed on every
// path, including a panic in the image chain or text extraction.
func (e *Enricher) extract(ctx context.Context, url string, rec models.OfferRecord, force bool) (extracted, images.Tier, error) {
	page, err := e.renderer.Render(ctx, url)
	if err != nil {
		return extracted{}, images.TierNone, err
	}
	defer page.Close()

	doc := page.Document()
	if doc == nil {
		return extracted{}, images.TierNone, engine.ExtractionError("parse html", engine.ErrParseError)
	}

	img, err := e.images.Resolve(ctx, page, rec.Image, force)
	if err != nil {
		return extracted{}, images.TierNone, err
	}

	return extracted{
		Image:   img.URL,
		Snippet: e.text.ResolveSnippet(doc, rec.Snippet, force),
		Offers:  e.text.ResolveOffers(doc, rec.Offers, force),
	}, img.Tier, nil
}

func (e *Enricher) report(ctx context.Context, res RecordResult) {
	ev := log.Info()
	if res.Outcome == models.OutcomeError {
		ev = log.Warn().Err(res.Err).Bool("retryable", engine.IsRetryable(res.Err))
	}
	ev.Str("run_id", runctx.GetRun(ctx).RunID).
		Int("record", res.Index).
		Str("name", res.Name).
		Str("url", res.URL).
		Str("outcome", string(res.Outcome)).
		Str("tier", res.Tier.String()).
		Dur("elapsed", res.Elapsed).
		Msg("Record processed")

	if e.opts.OnRecordDone != nil {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.opts.OnRecordDone(res)
	}
}
