package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/law-makers/offers/pkg/models"
)

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	WriteSummary(&buf, Summary{
		RunID:  "run-1",
		Input:  "data/offers.json",
		Output: "data/offers.enriched.json",
		Saved:  true,
		Histogram: models.Histogram{
			models.OutcomeError:     1,
			models.OutcomeOK:        3,
			models.OutcomeSkipNoURL: 2,
		},
		Elapsed: 1500 * time.Millisecond,
	}, false)

	out := buf.String()
	if strings.Contains(out, "\033[") {
		t.Error("color disabled but escape codes written")
	}
	ok := strings.Index(out, "ok ")
	skip := strings.Index(out, "skip:no_url")
	errIdx := strings.Index(out, "error ")
	if ok < 0 || skip < 0 || errIdx < 0 || !(ok < skip && skip < errIdx) {
		t.Errorf("outcomes out of order:\n%s", out)
	}
	if !strings.Contains(out, "data/offers.enriched.json") {
		t.Errorf("output path missing:\n%s", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if last := lines[len(lines)-1]; !strings.Contains(last, "total") || !strings.HasSuffix(last, "6") {
		t.Errorf("total line = %q", last)
	}
}

func TestWriteSummary_NotSaved(t *testing.T) {
	var buf bytes.Buffer
	WriteSummary(&buf, Summary{Histogram: models.Histogram{}}, true)
	if !strings.Contains(buf.String(), "not written") {
		t.Errorf("unsaved run not flagged:\n%s", buf.String())
	}
}
