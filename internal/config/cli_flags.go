package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	pf := cmd.PersistentFlags()
	pf.BoolP("verbose", "v", false, "Enable debug logging")
	pf.BoolP("quiet", "q", false, "Suppress all output except errors")
	pf.Bool("json", false, "Log JSON lines instead of console output")
	pf.String("config", "", "Path to configuration file (default ./offers.yaml if present)")

	pf.StringP("input", "i", DefaultInputFile, "Base record collection")
	pf.StringP("output", "o", DefaultOutputFile, "Enriched record collection (read first when present)")
	pf.BoolP("force", "f", DefaultForceRefresh, "Re-derive image, snippet and offers even when already set")

	pf.Int("nav-timeout-ms", int(DefaultNavigationTimeout.Milliseconds()), "Navigation timeout in milliseconds")
	pf.Int("settle-ms", int(DefaultSettleDelay.Milliseconds()), "Wait after DOMContentLoaded before reading the page")
	pf.Int("nav-attempts", DefaultNavAttempts, "Navigation attempts per record (timeouts only)")
	pf.IntP("workers", "w", DefaultWorkers, "Records processed concurrently")
	pf.Int("pool-size", DefaultBrowserPoolSize, "Maximum open browser tabs")
	pf.Bool("headless", DefaultBrowserHeadless, "Run Chrome headless")
	pf.String("chrome-path", "", "Chrome/Chromium executable (auto-detected when empty)")
	pf.String("user-agent", "", "Custom user agent string")
	pf.StringArrayP("header", "H", nil, "Extra request header for every navigation (e.g., -H \"Accept-Language: en-IN\")")
	pf.String("proxy", "", "Set HTTP/SOCKS5 proxy for the browser (e.g., http://localhost:8080)")
	pf.Float64("rate-limit", DefaultRateLimitRPS, "Navigations per second per registrable domain")
	pf.String("overrides", "", "YAML file with per-domain image selector overrides")
}
