package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/law-makers/offers/pkg/models"
)

// Summary is the end-of-run report printed after a batch.
type Summary struct {
	RunID     string
	Input     string
	Output    string
	Saved     bool
	Histogram models.Histogram
	Elapsed   time.Duration
}

// WriteSummary prints s as an aligned table. Outcomes are listed ok first,
// then skips, then errors, then anything else alphabetically.
func WriteSummary(w io.Writer, s Summary, color bool) {
	paint := func(style, text string) string {
		if !color {
			return text
		}
		return style + text + ColorReset
	}

	fmt.Fprintf(w, "\n%s\n", paint(ColorBold+ColorCyan, "ENRICHMENT SUMMARY"))
	fmt.Fprintf(w, "  %-10s %s\n", "run", s.RunID)
	fmt.Fprintf(w, "  %-10s %s\n", "input", s.Input)
	if s.Saved {
		fmt.Fprintf(w, "  %-10s %s\n", "output", s.Output)
	} else {
		fmt.Fprintf(w, "  %-10s %s\n", "output", paint(ColorYellow, "not written"))
	}
	fmt.Fprintf(w, "  %-10s %s\n\n", "elapsed", s.Elapsed.Round(time.Millisecond))

	outcomes := orderedOutcomes(s.Histogram)
	width := len("outcome")
	for _, o := range outcomes {
		if len(o) > width {
			width = len(o)
		}
	}

	fmt.Fprintf(w, "  %s\n", paint(ColorBold+ColorWhite, fmt.Sprintf("%-*s  %6s", width, "outcome", "count")))
	for _, o := range outcomes {
		style := ColorGreen
		switch {
		case o == models.OutcomeError:
			style = ColorRed
		case strings.HasPrefix(string(o), "skip"):
			style = ColorYellow
		}
		fmt.Fprintf(w, "  %s  %6d\n", paint(style, fmt.Sprintf("%-*s", width, o)), s.Histogram[o])
	}
	fmt.Fprintf(w, "  %s  %6d\n\n", paint(ColorDim, fmt.Sprintf("%-*s", width, "total")), s.Histogram.Total())
}

func orderedOutcomes(h models.Histogram) []models.Outcome {
	rank := func(o models.Outcome) int {
		switch {
		case o == models.OutcomeOK:
			return 0
		case strings.HasPrefix(string(o), "skip"):
			return 1
		case o == models.OutcomeError:
			return 2
		}
		return 3
	}

	out := make([]models.Outcome, 0, len(h))
	for o := range h {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := rank(out[i]), rank(out[j])
		if ri != rj {
			return ri < rj
		}
		return out[i] < out[j]
	})
	return out
}
