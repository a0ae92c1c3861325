// internal/cli/root.go
package cli

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/offers/internal/app"
	"github.com/law-makers/offers/internal/config"
	"github.com/law-makers/offers/internal/ui"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "offers",
	Short: "Enrich card offer records with images, snippets and offer lines",
	Long: `Offers walks a JSON collection of card offer records, renders each record's
official landing page in headless Chrome and refreshes its image, snippet
and offers. Running without a subcommand is the same as "offers enrich".

Records that already carry a value keep it unless --force is given. A
record that fails keeps its previous fields; only last_checked_ts moves.`,
	Version:      "0.1.0",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runEnrich,
}

// Execute runs the root command with ctx and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func init() {
	// Initialize the application before running commands (help and version skip this)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if GetApp(cmd) != nil {
			return nil
		}

		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}

		a, err := app.New(cfg)
		if err != nil {
			return err
		}
		SetApp(cmd, a)

		// OnFinalize also runs when RunE fails.
		cobra.OnFinalize(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = a.Close(ctx)
		})

		log.Debug().
			Str("run_id", a.RunID).
			Str("input", cfg.InputFile).
			Str("output", cfg.OutputFile).
			Msg("Configuration loaded")
		return nil
	}
}

func init() {
	// Register centralized flags
	config.RegisterFlags(rootCmd)

	// Customize help and version flag descriptions
	rootCmd.Flags().BoolP("help", "h", false, "Help for offers")
	rootCmd.Flags().Bool("version", false, "Version for offers")
}

func init() {
	// Disable the default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		writeHelp(os.Stdout, cmd, newStyler(ui.Enabled(os.Stdout)))
	})
	rootCmd.SetUsageFunc(func(cmd *cobra.Command) error {
		writeUsage(os.Stderr, cmd, newStyler(ui.Enabled(os.Stderr)))
		return nil
	})
}
