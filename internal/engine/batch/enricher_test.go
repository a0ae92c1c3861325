package batch

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/law-makers/offers/internal/config"
	"github.com/law-makers/offers/internal/engine/enginetest"
	"github.com/law-makers/offers/internal/engine/images"
	"github.com/law-makers/offers/internal/engine/metadata"
	"github.com/law-makers/offers/internal/runctx"
	"github.com/law-makers/offers/pkg/models"
)

const fixedTS = 1700000000

const cardPage = `<html><head>
	<meta property="og:image" content="/hero.png">
	<meta property="og:title" content="5% Cashback Card">
	<meta name="description" content="Earn more on every spend">
</head><body><ul>
	<li>5% cashback on online shopping</li>
	<li>1% cashback on all other spends</li>
	<li>Unlimited cashback with no cap</li>
</ul></body></html>`

func newEnricher(r *enginetest.Renderer, opts Options) *Enricher {
	cfg := config.Default()
	cfg.Images.Overrides = nil
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Unix(fixedTS, 0) }
	}
	return New(r, images.New(cfg.Images), metadata.New(cfg.Text), opts)
}

func official(url string) models.Links {
	return models.Links{{Type: models.OfficialLinkType, URL: url}}
}

func TestRun_Scenario(t *testing.T) {
	r := enginetest.NewRenderer(map[string]enginetest.Response{
		"https://example.test/card": {Body: cardPage},
	})
	e := newEnricher(r, Options{Workers: 1})

	in := []models.OfferRecord{{Name: "Card", Links: official("https://example.test/card"), Status: "active"}}
	out, hist := e.Run(context.Background(), in, false)

	got := out[0]
	if got.Image != "https://example.test/hero.png" {
		t.Errorf("Image = %q", got.Image)
	}
	if !strings.HasPrefix(got.Snippet, "5% Cashback Card") {
		t.Errorf("Snippet = %q", got.Snippet)
	}
	if len(got.Offers) != 3 {
		t.Errorf("Offers = %q, want 3 entries", got.Offers)
	}
	if got.Status != "active" {
		t.Errorf("Status changed to %q", got.Status)
	}
	if got.LastCheckedTS != fixedTS {
		t.Errorf("LastCheckedTS = %d", got.LastCheckedTS)
	}
	if hist[models.OutcomeOK] != 1 || hist.Total() != 1 {
		t.Errorf("histogram = %v", hist)
	}
	if r.OpenPages() != 0 {
		t.Errorf("%d pages left open", r.OpenPages())
	}
	if in[0].Image != "" {
		t.Error("input record was modified")
	}
}

func TestRun_SkipNoURL(t *testing.T) {
	r := enginetest.NewRenderer(nil)
	e := newEnricher(r, Options{Workers: 1})

	in := []models.OfferRecord{
		{Name: "no links"},
		{Name: "links without url", Links: models.Links{{Type: "official"}}, Image: "keep.png"},
	}
	out, hist := e.Run(context.Background(), in, true)

	if hist[models.OutcomeSkipNoURL] != 2 {
		t.Errorf("histogram = %v", hist)
	}
	if len(r.Calls()) != 0 {
		t.Errorf("renderer called for skipped records: %v", r.Calls())
	}
	for i, rec := range out {
		if rec.LastCheckedTS != fixedTS {
			t.Errorf("record %d not stamped", i)
		}
	}
	if out[1].Image != "keep.png" {
		t.Errorf("skipped record changed: %+v", out[1])
	}
}

func TestRun_FailureIsolation(t *testing.T) {
	pages := map[string]enginetest.Response{}
	var in []models.OfferRecord
	for i := 0; i < 6; i++ {
		url := fmt.Sprintf("https://bank%d.test/card", i)
		pages[url] = enginetest.Response{Body: cardPage}
		in = append(in, models.OfferRecord{
			Name:    fmt.Sprintf("card %d", i),
			Links:   official(url),
			Snippet: "old snippet",
			Offers:  []string{"old offer"},
		})
	}
	pages["https://bank3.test/card"] = enginetest.Response{Body: cardPage, Delay: time.Minute}

	r := enginetest.NewRenderer(pages)
	e := newEnricher(r, Options{Workers: 3, MaxTabs: 3, RecordTimeout: 50 * time.Millisecond})

	var done atomic.Int32
	e.opts.OnRecordDone = func(RecordResult) { done.Add(1) }

	out, hist := e.Run(context.Background(), in, false)

	if len(out) != 6 || done.Load() != 6 {
		t.Fatalf("got %d records and %d callbacks, want 6", len(out), done.Load())
	}
	if hist[models.OutcomeError] != 1 || hist[models.OutcomeOK] != 5 {
		t.Errorf("histogram = %v", hist)
	}

	failed := out[3]
	want := in[3].Clone()
	want.LastCheckedTS = fixedTS
	if !reflect.DeepEqual(failed, want) {
		t.Errorf("failed record changed:\n got %+v\nwant %+v", failed, want)
	}

	for i, rec := range out {
		if rec.Name != in[i].Name {
			t.Errorf("output order broken at %d: %q", i, rec.Name)
		}
		if i != 3 && rec.Image != fmt.Sprintf("https://bank%d.test/hero.png", i) {
			t.Errorf("record %d image = %q", i, rec.Image)
		}
	}
}

func TestRun_CacheIdempotence(t *testing.T) {
	r := enginetest.NewRenderer(map[string]enginetest.Response{
		"https://example.test/card": {Body: cardPage},
	})
	e := newEnricher(r, Options{Workers: 1})

	cached := models.OfferRecord{
		Name:    "Card",
		Links:   official("https://example.test/card"),
		Image:   "https://cdn.test/cached.png",
		Snippet: "Cached snippet",
		Offers:  []string{"cached offer one"},
	}

	out, _ := e.Run(context.Background(), []models.OfferRecord{cached}, false)
	if out[0].Image != cached.Image || out[0].Snippet != cached.Snippet || !reflect.DeepEqual(out[0].Offers, cached.Offers) {
		t.Errorf("cached fields changed without force: %+v", out[0])
	}

	out, _ = e.Run(context.Background(), []models.OfferRecord{cached}, true)
	if out[0].Image != "https://example.test/hero.png" {
		t.Errorf("forced Image = %q", out[0].Image)
	}
	if !strings.HasPrefix(out[0].Snippet, "5% Cashback Card") || len(out[0].Offers) != 3 {
		t.Errorf("forced text not refreshed: %+v", out[0])
	}
}

func TestRun_EmptyResultsNeverOverwrite(t *testing.T) {
	r := enginetest.NewRenderer(map[string]enginetest.Response{
		"https://empty.test/": {Body: `<html><body><div>nothing here</div></body></html>`},
	})
	e := newEnricher(r, Options{Workers: 1})

	rec := models.OfferRecord{
		Links:   official("https://empty.test/"),
		Snippet: "Keep me",
		Offers:  []string{"keep this offer"},
	}
	out, hist := e.Run(context.Background(), []models.OfferRecord{rec}, true)

	if hist[models.OutcomeOK] != 1 {
		t.Fatalf("histogram = %v", hist)
	}
	if out[0].Snippet != "Keep me" || len(out[0].Offers) != 1 {
		t.Errorf("empty extraction overwrote fields: %+v", out[0])
	}
	if out[0].Image == "" {
		t.Error("image should fall back to a placeholder")
	}
}

func TestRun_PanicIsRecovered(t *testing.T) {
	r := enginetest.NewRenderer(map[string]enginetest.Response{
		"https://boom.test/": {Panic: "detached node"},
		"https://ok.test/":   {Body: cardPage},
	})
	e := newEnricher(r, Options{Workers: 2, MaxTabs: 2})

	var errs []RecordResult
	e.opts.OnRecordDone = func(res RecordResult) {
		if res.Err != nil {
			errs = append(errs, res)
		}
	}

	in := []models.OfferRecord{
		{Name: "boom", Links: official("https://boom.test/"), Image: "old.png"},
		{Name: "ok", Links: official("https://ok.test/")},
	}
	ctx := runctx.WithRun(context.Background(), "run-test")
	out, hist := e.Run(ctx, in, false)

	if hist[models.OutcomeError] != 1 || hist[models.OutcomeOK] != 1 {
		t.Errorf("histogram = %v", hist)
	}
	if out[0].Image != "old.png" || out[0].LastCheckedTS != fixedTS {
		t.Errorf("panicking record = %+v", out[0])
	}
	if len(errs) != 1 || !strings.Contains(errs[0].Err.Error(), "run-test") {
		t.Errorf("expected one error tagged with the run id, got %+v", errs)
	}
}

func TestRun_NavigationErrorKeepsFields(t *testing.T) {
	r := enginetest.NewRenderer(nil)
	e := newEnricher(r, Options{Workers: 1})

	rec := models.OfferRecord{Links: official("https://unreachable.test/"), Image: "a.png", Snippet: "s", Offers: []string{"o"}}
	out, hist := e.Run(context.Background(), []models.OfferRecord{rec}, true)

	if hist[models.OutcomeError] != 1 {
		t.Errorf("histogram = %v", hist)
	}
	if out[0].Image != "a.png" || out[0].Snippet != "s" || out[0].Offers[0] != "o" {
		t.Errorf("record changed after navigation error: %+v", out[0])
	}
}

func TestRun_CancelledContextStillReportsEveryRecord(t *testing.T) {
	r := enginetest.NewRenderer(map[string]enginetest.Response{
		"https://slow.test/": {Body: cardPage, Delay: time.Minute},
	})
	e := newEnricher(r, Options{Workers: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := []models.OfferRecord{
		{Links: official("https://slow.test/")},
		{Links: official("https://slow.test/")},
	}
	out, hist := e.Run(ctx, in, false)
	if len(out) != 2 || hist[models.OutcomeError] != 2 {
		t.Errorf("histogram = %v", hist)
	}
}

func TestClampWorkers(t *testing.T) {
	tests := []struct{ n, max, want int }{
		{0, 3, 1},
		{5, 3, 3},
		{2, 3, 2},
		{4, 0, 4},
	}
	for _, tt := range tests {
		if got := clampWorkers(tt.n, tt.max); got != tt.want {
			t.Errorf("clampWorkers(%d, %d) = %d, want %d", tt.n, tt.max, got, tt.want)
		}
	}
	if n := OptimalConcurrency(2); n < 1 || n > 2 {
		t.Errorf("OptimalConcurrency(2) = %d", n)
	}
}

func TestRun_ExtractionErrorClosesPage(t *testing.T) {
	// No tier before the largest image matches, so the chain reaches ImageBoxes.
	plain := `<html><body><p>nothing to see</p></body></html>`
	r := enginetest.NewRenderer(map[string]enginetest.Response{
		"https://boxes.test/": {Body: plain, BoxesErr: errors.New("target detached")},
		"https://doc.test/":   {Body: plain, DocPanic: "node gone"},
	})
	e := newEnricher(r, Options{Workers: 1})

	in := []models.OfferRecord{
		{Name: "boxes", Links: official("https://boxes.test/"), Snippet: "keep", Offers: []string{"keep this offer"}},
		{Name: "doc", Links: official("https://doc.test/"), Image: "old.png", Snippet: "keep"},
	}
	out, hist := e.Run(context.Background(), in, true)

	if hist[models.OutcomeError] != 2 {
		t.Errorf("histogram = %v", hist)
	}
	for i := range in {
		want := in[i].Clone()
		want.LastCheckedTS = fixedTS
		if !reflect.DeepEqual(out[i], want) {
			t.Errorf("record %d changed:\n got %+v\nwant %+v", i, out[i], want)
		}
	}
	if r.OpenPages() != 0 {
		t.Errorf("%d pages left open after extraction failures", r.OpenPages())
	}
}
