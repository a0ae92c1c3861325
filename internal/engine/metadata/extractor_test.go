package metadata

import (
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/offers/internal/config"
)

func parse(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func newExtractor() *Extractor {
	return New(config.Default().Text)
}

func TestSnippet_Precedence(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "og title with description",
			html: `<head><meta property="og:title" content=" Ace Card "><meta name="description" content="2% back"><title>T</title></head>`,
			want: "Ace Card — 2% back",
		},
		{
			name: "og title alone",
			html: `<head><meta property="og:title" content="Ace Card"><title>T</title></head>`,
			want: "Ace Card",
		},
		{
			name: "title tag",
			html: `<head><title>
				Millennia   Card
			</title><meta name="description" content="desc"></head><body><h1>H</h1></body>`,
			want: "Millennia Card",
		},
		{
			name: "first heading in document order",
			html: `<body><h2>Second level first</h2><h1>Top</h1></body>`,
			want: "Second level first",
		},
		{
			name: "description alone",
			html: `<head><meta name="description" content="Only a description"></head>`,
			want: "Only a description",
		},
		{
			name: "empty og title falls through",
			html: `<head><meta property="og:title" content="   "><title>Fallback</title></head>`,
			want: "Fallback",
		},
		{
			name: "nothing",
			html: `<body><div>plain</div></body>`,
			want: "",
		},
	}

	e := newExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Snippet(parse(t, tt.html)); got != tt.want {
				t.Errorf("Snippet() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSnippet_Bounded(t *testing.T) {
	long := strings.Repeat("é", 500)
	doc := parse(t, fmt.Sprintf(`<head><meta property="og:title" content="%s"><meta name="description" content="%s"></head>`, long, long))

	got := newExtractor().Snippet(doc)
	if RuneLen(got) > 220 {
		t.Errorf("snippet has %d characters, want <= 220", RuneLen(got))
	}
	if RuneLen(got) != 220 {
		t.Errorf("expected a full-length cut, got %d characters", RuneLen(got))
	}
}

func TestOffers_Filtering(t *testing.T) {
	body := `<ul>
		<li>5% cashback on all online spends</li>
		<li>short %</li>
		<li>Complimentary   airport
			lounge access every quarter</li>
		<li>Nothing relevant in this line at all</li>
		<li>5% cashback on all online spends</li>
		<li><b>Annual fee</b>waived on spends above 2 lakh</li>
	</ul>
	<p>` + strings.Repeat("reward ", 40) + `</p>
	<script>var offer = "cashback everywhere in script";</script>`

	got := newExtractor().Offers(parse(t, body))
	want := []string{
		"5% cashback on all online spends",
		"Complimentary airport lounge access every quarter",
		"Annual fee waived on spends above 2 lakh",
	}
	if len(got) != len(want) {
		t.Fatalf("Offers() = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("offer %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestOffers_Bounds(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "<li>Earn %d reward points per purchase</li>", i)
		fmt.Fprintf(&b, "<p>Earn %d reward points per purchase</p>", i)
	}

	got := newExtractor().Offers(parse(t, b.String()))
	if len(got) != 8 {
		t.Fatalf("got %d offers, want 8", len(got))
	}
	seen := map[string]bool{}
	for _, o := range got {
		if seen[o] {
			t.Errorf("duplicate offer %q", o)
		}
		seen[o] = true
		if n := RuneLen(o); n < 15 || n > 240 {
			t.Errorf("offer %q has length %d", o, n)
		}
	}
	if got[0] != "Earn 0 reward points per purchase" || got[1] != "Earn 1 reward points per purchase" {
		t.Errorf("unexpected order: %q", got[:2])
	}
}

func TestOffers_ScanStopsAtLimit(t *testing.T) {
	cfg := config.Default().Text
	cfg.OfferScanLimit = 2
	cfg.MaxOffers = 2
	e := New(cfg)

	doc := parse(t, `<li>first cashback line here</li><li>second cashback line here</li><li>third cashback line here</li>`)
	got := e.Offers(doc)
	if len(got) != 2 || got[1] != "second cashback line here" {
		t.Errorf("Offers() = %q", got)
	}
}

func TestNew_ConfiguredKeywords(t *testing.T) {
	cfg := config.Default().Text
	cfg.Keywords = []string{" Bonus ", ""}
	e := New(cfg)
	got := e.Offers(parse(t, `<li>Sign-up BONUS of 500 credits</li><li>5% cashback on groceries</li>`))
	if len(got) != 1 || got[0] != "Sign-up BONUS of 500 credits" {
		t.Errorf("Offers() = %q", got)
	}
}

func TestResolvePolicy(t *testing.T) {
	e := newExtractor()
	doc := parse(t, `<head><title>Fresh</title></head><li>Fresh cashback offer line</li>`)

	if got := e.ResolveSnippet(doc, "Cached", false); got != "Cached" {
		t.Errorf("ResolveSnippet kept = %q", got)
	}
	if got := e.ResolveSnippet(doc, "Cached", true); got != "Fresh" {
		t.Errorf("ResolveSnippet forced = %q", got)
	}
	if got := e.ResolveSnippet(doc, "", false); got != "Fresh" {
		t.Errorf("ResolveSnippet empty = %q", got)
	}

	cached := []string{"cached offer"}
	if got := e.ResolveOffers(doc, cached, false); len(got) != 1 || got[0] != "cached offer" {
		t.Errorf("ResolveOffers kept = %q", got)
	}
	if got := e.ResolveOffers(doc, cached, true); len(got) != 1 || got[0] != "Fresh cashback offer line" {
		t.Errorf("ResolveOffers forced = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"  hello  ", 10, "hello"},
		{"hello world", 6, "hello"},
		{"héllo", 2, "hé"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
