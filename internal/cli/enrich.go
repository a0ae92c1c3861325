// internal/cli/enrich.go
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/law-makers/offers/internal/engine/batch"
	"github.com/law-makers/offers/internal/store"
	"github.com/law-makers/offers/internal/ui"
	"github.com/law-makers/offers/pkg/models"
)

var noProgress bool

// enrichCmd represents the enrich command
var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Refresh image, snippet and offers for every record",
	Long: `Loads the enriched collection when it exists (else the base collection),
renders every record's official landing page and writes the refreshed
collection back to the output file.

Every record ends as ok, skip:no_url or error. A failing record never stops
the run and never loses the fields it already had.`,
	Example: `  # Enrich data/offers.json into data/offers.enriched.json
  offers enrich

  # Re-derive every field, four tabs at a time
  offers enrich --force --workers 4 --pool-size 4

  # Use a different collection and slower pages
  offers enrich -i cards.json -o cards.out.json --settle-ms 8000`,
	Args: cobra.NoArgs,
	RunE: runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)

	enrichCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
	rootCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
}

func runEnrich(cmd *cobra.Command, args []string) error {
	a := GetApp(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}
	cfg := a.Config
	start := time.Now()

	records, used, err := store.Load(cfg.InputFile, cfg.OutputFile)
	if err != nil {
		log.Error().Err(err).Msg("Cannot load records")
		return err
	}

	var bar *progressbar.ProgressBar
	if showProgress(cfg.LogLevel, cfg.JSONLog) {
		bar = newProgressBar(len(records))
		// Per-record info lines would tear the bar apart.
		if zerolog.GlobalLevel() == zerolog.InfoLevel {
			prev := zerolog.GlobalLevel()
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
			defer zerolog.SetGlobalLevel(prev)
		}
	}

	enricher, err := a.Enricher(func(res batch.RecordResult) {
		if bar != nil {
			_ = bar.Add(1)
		}
	})
	if err != nil {
		log.Error().Err(err).Msg("Cannot start browser")
		return err
	}

	ctx := a.Context(cmd.Context())
	out, hist := enricher.Run(ctx, records, cfg.ForceRefresh)
	if bar != nil {
		_ = bar.Finish()
	}

	saved := false
	if ctx.Err() != nil {
		log.Warn().Err(ctx.Err()).Msg("Run interrupted, collection not written")
	} else {
		if err := store.Save(cfg.OutputFile, out); err != nil {
			log.Error().Err(err).Str("path", cfg.OutputFile).Msg("Cannot write records")
			return err
		}
		saved = true
	}

	writeRunSummary(os.Stdout, cfg.LogLevel == "error", ui.Summary{
		RunID:     a.RunID,
		Input:     used,
		Output:    cfg.OutputFile,
		Saved:     saved,
		Histogram: hist,
		Elapsed:   time.Since(start),
	}, ui.Enabled(os.Stdout))

	if n := hist[models.OutcomeError]; n > 0 {
		log.Warn().Int("errors", n).Msg("Some records failed and kept their previous fields")
	}
	return nil
}

// writeRunSummary prints the summary table, or only the one-line histogram
// when quiet. Some summary is written after every run.
func writeRunSummary(w io.Writer, quiet bool, s ui.Summary, color bool) {
	if quiet {
		fmt.Fprintf(w, "STATS: %s\n", s.Histogram)
		return
	}
	ui.WriteSummary(w, s, color)
}

func showProgress(level string, jsonLog bool) bool {
	if noProgress || jsonLog || level == "error" || level == "debug" {
		return false
	}
	return ui.Enabled(os.Stderr)
}

func newProgressBar(n int) *progressbar.ProgressBar {
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("enriching"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
