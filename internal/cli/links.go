// internal/cli/links.go
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/law-makers/offers/internal/engine"
	"github.com/law-makers/offers/internal/store"
	"github.com/law-makers/offers/pkg/models"
)

// linksCmd represents the links command
var linksCmd = &cobra.Command{
	Use:   "links [file]",
	Short: "Show the landing page each record would be enriched from",
	Long: `Resolves every record's link without starting a browser. Records with no
usable link are shown as skip:no_url, which is what a batch run would do
with them.

Without a file argument the collection is loaded the same way enrich does.`,
	Example: `  # Dry run over the configured collection
  offers links

  # Check a specific file
  offers links data/offers.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLinks,
}

func init() {
	rootCmd.AddCommand(linksCmd)
}

func runLinks(cmd *cobra.Command, args []string) error {
	a := GetApp(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	var (
		records []models.OfferRecord
		err     error
	)
	if len(args) == 1 {
		records, err = store.ReadFile(args[0])
	} else {
		records, _, err = store.Load(a.Config.InputFile, a.Config.OutputFile)
	}
	if err != nil {
		return err
	}

	counts := writeLinks(os.Stdout, records)
	fmt.Fprintf(os.Stdout, "\n%s\n", counts)
	return nil
}

// linkCounts is the outcome of a dry run.
type linkCounts struct {
	Queued  int
	Skipped int
}

func (c linkCounts) String() string {
	return fmt.Sprintf("queued=%d %s=%d", c.Queued, models.OutcomeSkipNoURL, c.Skipped)
}

// writeLinks prints one line per record and counts how many would be
// processed or skipped.
func writeLinks(w io.Writer, records []models.OfferRecord) linkCounts {
	var c linkCounts
	for i, rec := range records {
		link := engine.BestLink(rec.Links)
		if link == "" {
			c.Skipped++
			fmt.Fprintf(w, "%4d  %-40s  %s\n", i, rec.Name, models.OutcomeSkipNoURL)
			continue
		}
		c.Queued++
		fmt.Fprintf(w, "%4d  %-40s  %s\n", i, rec.Name, link)
	}
	return c
}
