// internal/cli/inspect.go
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/offers/internal/engine"
	"github.com/law-makers/offers/internal/ui"
	urlutil "github.com/law-makers/offers/internal/utils/url"
)

var (
	inspectJSON bool
	inspectHTML bool
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <url>",
	Short: "Render one page and show what enrichment would extract",
	Long: `Renders a single landing page exactly as a batch run would and prints the
image (with the tier that produced it), the snippet and the offers.

The record collection is neither read nor written.`,
	Example: `  # Check which image tier wins for a page
  offers inspect https://www.example-bank.test/cards/platinum

  # Machine-readable output
  offers inspect https://www.example-bank.test/cards/platinum --as-json

  # Dump the DOM after scripts ran
  offers inspect https://www.example-bank.test/cards/platinum --html`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().BoolVar(&inspectJSON, "as-json", false, "Print the result as JSON")
	inspectCmd.Flags().BoolVar(&inspectHTML, "html", false, "Print the rendered HTML instead of the extracted fields")
}

// Inspection is what enrichment would derive from one page.
type Inspection struct {
	URL      string   `json:"url"`
	FinalURL string   `json:"final_url"`
	Image    string   `json:"image"`
	Tier     string   `json:"tier"`
	Snippet  string   `json:"offer_snippet"`
	Offers   []string `json:"offers"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	url := args[0]
	if err := urlutil.ValidateURL(url); err != nil {
		return engine.NewEngineError(engine.ErrCodeInput, "invalid URL", err).WithDetail("url", url)
	}

	a := GetApp(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	r, err := a.Renderer()
	if err != nil {
		log.Error().Err(err).Msg("Cannot start browser")
		return err
	}

	ctx := a.Context(cmd.Context())
	log.Info().Str("url", url).Str("renderer", r.Name()).Msg("Rendering page")

	page, err := r.Render(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	defer page.Close()

	if inspectHTML {
		_, err := fmt.Fprintln(os.Stdout, page.HTML())
		return err
	}

	res, err := inspectPage(ctx, a.Images, a.Text, url, page)
	if err != nil {
		return err
	}

	if inspectJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printInspection(os.Stdout, res, newStyler(ui.Enabled(os.Stdout)))
	return nil
}
