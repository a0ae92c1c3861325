package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/law-makers/offers/internal/engine"
	"github.com/law-makers/offers/internal/engine/images"
	"github.com/law-makers/offers/internal/engine/metadata"
	"github.com/law-makers/offers/internal/ui"
)

// inspectPage derives every field from page as a forced refresh would.
func inspectPage(ctx context.Context, img *images.Resolver, txt *metadata.Extractor, url string, page engine.Page) (Inspection, error) {
	doc := page.Document()
	if doc == nil {
		return Inspection{}, engine.ExtractionError("parse html", engine.ErrParseError)
	}

	chosen, err := img.Resolve(ctx, page, "", true)
	if err != nil {
		return Inspection{}, err
	}

	offers := txt.Offers(doc)
	if offers == nil {
		offers = []string{}
	}
	return Inspection{
		URL:      url,
		FinalURL: page.FinalURL(),
		Image:    chosen.URL,
		Tier:     chosen.Tier.String(),
		Snippet:  txt.Snippet(doc),
		Offers:   offers,
	}, nil
}

func printInspection(w io.Writer, r Inspection, st styler) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "URL:       %s\n", r.URL)
	if r.FinalURL != "" && r.FinalURL != r.URL {
		fmt.Fprintf(w, "Final URL: %s\n", r.FinalURL)
	}
	fmt.Fprintf(w, "Image:     %s %s\n", r.Image, st.paint(ui.ColorDim+ui.ColorYellow, "("+r.Tier+")"))
	fmt.Fprintf(w, "Snippet:   %s\n", r.Snippet)
	fmt.Fprintf(w, "Offers:    %d\n", len(r.Offers))
	for _, o := range r.Offers {
		fmt.Fprintf(w, "  - %s\n", o)
	}
	fmt.Fprintf(w, "\n")
}
