package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// OfficialLinkType marks the link that wins link resolution.
const OfficialLinkType = "official"

// Link is a typed landing-page reference on an offer record.
type Link struct {
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

// Links is an ordered list of Link that tolerates the loose shapes found in
// hand-edited collections: a bare URL string, a single object, or a list of
// objects and/or strings. Entries that are neither are dropped.
type Links []Link

// UnmarshalJSON implements json.Unmarshaler
func (l *Links) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("links: %w", err)
	}

	out := Links{}
	switch v := raw.(type) {
	case nil:
	case []interface{}:
		for _, item := range v {
			if link, ok := coerceLink(item); ok {
				out = append(out, link)
			}
		}
	default:
		if link, ok := coerceLink(v); ok {
			out = append(out, link)
		}
	}

	*l = out
	return nil
}

func coerceLink(v interface{}) (Link, bool) {
	switch t := v.(type) {
	case string:
		u := strings.TrimSpace(t)
		if u == "" {
			return Link{}, false
		}
		return Link{URL: u}, true
	case map[string]interface{}:
		link := Link{}
		if s, ok := t["type"].(string); ok {
			link.Type = strings.TrimSpace(s)
		}
		if s, ok := t["url"].(string); ok {
			link.URL = strings.TrimSpace(s)
		}
		return link, true
	default:
		return Link{}, false
	}
}

// OfferRecord is the enrichable unit of the catalogue.
//
// Only Image, Snippet, Offers and LastCheckedTS are written by enrichment.
// Fields the model does not know about are carried in Extra so a
// load/save round-trip never loses data.
type OfferRecord struct {
	Name          string   `json:"name"`
	ProductType   string   `json:"product_type,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Links         Links    `json:"links"`
	Image         string   `json:"image"`
	Snippet       string   `json:"offer_snippet"`
	Offers        []string `json:"offers"`
	Status        string   `json:"status,omitempty"`
	LastCheckedTS int64    `json:"last_checked_ts,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var knownRecordFields = map[string]bool{
	"name": true, "product_type": true, "tags": true, "links": true, "image": true,
	"offer_snippet": true, "offers": true, "status": true, "last_checked_ts": true,
}

// offerRecordAlias drops the methods so encoding/json uses the default codec.
type offerRecordAlias OfferRecord

// UnmarshalJSON implements json.Unmarshaler
func (r *OfferRecord) UnmarshalJSON(data []byte) error {
	var alias offerRecordAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for k, v := range all {
		if knownRecordFields[k] {
			continue
		}
		if alias.Extra == nil {
			alias.Extra = make(map[string]json.RawMessage)
		}
		alias.Extra[k] = v
	}

	*r = OfferRecord(alias)
	return nil
}

// MarshalJSON implements json.Marshaler
func (r OfferRecord) MarshalJSON() ([]byte, error) {
	alias := offerRecordAlias(r)
	if alias.Offers == nil {
		alias.Offers = []string{}
	}
	if alias.Links == nil {
		alias.Links = Links{}
	}
	base, err := marshalNoEscape(alias)
	if err != nil {
		return nil, err
	}
	if len(r.Extra) == 0 {
		return base, nil
	}

	merged := make(map[string]json.RawMessage, len(r.Extra)+len(knownRecordFields))
	for k, v := range r.Extra {
		merged[k] = v
	}
	var known map[string]json.RawMessage
	if err := json.Unmarshal(base, &known); err != nil {
		return nil, err
	}
	for k, v := range known {
		merged[k] = v
	}
	return marshalNoEscape(merged)
}

// marshalNoEscape is json.Marshal without the <, > and & escaping, which
// would otherwise survive an outer Encoder.SetEscapeHTML(false).
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Clone returns a deep copy so enrichment can work on a private value.
func (r OfferRecord) Clone() OfferRecord {
	c := r
	c.Tags = append([]string(nil), r.Tags...)
	c.Links = append(Links(nil), r.Links...)
	c.Offers = append([]string(nil), r.Offers...)
	if r.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(r.Extra))
		for k, v := range r.Extra {
			c.Extra[k] = v
		}
	}
	return c
}

// Outcome is the terminal status of one record in a batch run.
type Outcome string

const (
	OutcomeOK        Outcome = "ok"
	OutcomeSkipNoURL Outcome = "skip:no_url"
	OutcomeError     Outcome = "error"
)

// Histogram counts records per outcome.
type Histogram map[Outcome]int

// Add increments the counter for o.
func (h Histogram) Add(o Outcome) {
	h[o]++
}

// Total returns the number of records counted.
func (h Histogram) Total() int {
	n := 0
	for _, c := range h {
		n += c
	}
	return n
}

// String renders the histogram as "error=1 ok=3" with keys sorted.
func (h Histogram) String() string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, h[Outcome(k)]))
	}
	return strings.Join(parts, " ")
}

// ImageBox is the rendered geometry of an <img> element.
type ImageBox struct {
	Src     string  `json:"src"`
	DataSrc string  `json:"dataSrc"`
	SrcSet  string  `json:"srcset"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// Area returns the rendered area in CSS pixels.
func (b ImageBox) Area() float64 {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}
