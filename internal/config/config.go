package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// Record collection
	InputFile    string
	OutputFile   string
	ForceRefresh bool

	// Rendering
	NavigationTimeout time.Duration
	SettleDelay       time.Duration
	RecordSlack       time.Duration
	NavAttempts       int
	RetryBackoff      time.Duration

	// Concurrency
	Workers         int
	BrowserPoolSize int
	BrowserHeadless bool
	ChromePath      string
	UserAgent       string
	Proxy           string
	ExtraHeaders    []string

	// Rate Limiting
	RateLimitRPS   float64
	RateLimitBurst int

	Images ImageConfig
	Text   TextConfig
}

// ImageConfig tunes the image resolution chain.
type ImageConfig struct {
	AreaThreshold       float64
	HeaderScanLimit     int
	BackgroundScanLimit int
	ImageScanLimit      int
	FaviconURL          string
	AvatarURL           string
	OverridesFile       string
	Overrides           []OverrideRule
}

// TextConfig tunes snippet and offer extraction.
type TextConfig struct {
	SnippetMaxLen  int
	OfferMinLen    int
	OfferMaxLen    int
	OfferScanLimit int
	MaxOffers      int
	// Keywords replaces the built-in offer vocabulary when non-empty.
	Keywords []string
}

// RecordTimeout is the deadline given to a single record: every navigation
// attempt plus settle delay plus slack for extraction.
func (c *Config) RecordTimeout() time.Duration {
	attempts := c.NavAttempts
	if attempts < 1 {
		attempts = 1
	}
	return time.Duration(attempts)*(c.NavigationTimeout+c.SettleDelay) +
		time.Duration(attempts-1)*c.RetryBackoff + c.RecordSlack
}

// envAliases maps config keys to the extra environment variables accepted
// for them, in priority order after the OFFERS_ prefixed name.
var envAliases = map[string][]string{
	"input":                 {"DATA_FILE"},
	"output":                {"OUT_FILE"},
	"force_refresh":         {"FORCE_REFRESH"},
	"navigation_timeout_ms": {"NAV_TIMEOUT_MS"},
	"settle_delay_ms":       {"JS_WAIT_MS"},
	"browser.chrome_path":   {"CHROME_PATH"},
}

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"json":           "log.json",
	"input":          "input",
	"output":         "output",
	"force":          "force_refresh",
	"nav-timeout-ms": "navigation_timeout_ms",
	"settle-ms":      "settle_delay_ms",
	"nav-attempts":   "nav_attempts",
	"workers":        "workers",
	"pool-size":      "browser.pool_size",
	"headless":       "browser.headless",
	"chrome-path":    "browser.chrome_path",
	"user-agent":     "browser.user_agent",
	"proxy":          "browser.proxy",
	"header":         "browser.headers",
	"rate-limit":     "rate_limit.rps",
	"overrides":      "images.overrides_file",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", DefaultJSONLog)

	v.SetDefault("input", DefaultInputFile)
	v.SetDefault("output", DefaultOutputFile)
	v.SetDefault("force_refresh", DefaultForceRefresh)

	v.SetDefault("navigation_timeout_ms", DefaultNavigationTimeout.Milliseconds())
	v.SetDefault("settle_delay_ms", DefaultSettleDelay.Milliseconds())
	v.SetDefault("record_slack", DefaultRecordSlack)
	v.SetDefault("nav_attempts", DefaultNavAttempts)
	v.SetDefault("retry_backoff", DefaultRetryBackoff)

	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("browser.pool_size", DefaultBrowserPoolSize)
	v.SetDefault("browser.headless", DefaultBrowserHeadless)
	v.SetDefault("browser.chrome_path", "")
	v.SetDefault("browser.user_agent", DefaultUserAgent)
	v.SetDefault("browser.proxy", "")
	v.SetDefault("browser.headers", []string{})

	v.SetDefault("rate_limit.rps", DefaultRateLimitRPS)
	v.SetDefault("rate_limit.burst", DefaultRateLimitBurst)

	v.SetDefault("images.area_threshold", DefaultAreaThreshold)
	v.SetDefault("images.header_scan_limit", DefaultHeaderScanLimit)
	v.SetDefault("images.background_scan_limit", DefaultBackgroundScanLimit)
	v.SetDefault("images.image_scan_limit", DefaultImageScanLimit)
	v.SetDefault("images.favicon_url", DefaultFaviconURL)
	v.SetDefault("images.avatar_url", DefaultAvatarURL)
	v.SetDefault("images.overrides_file", "")

	v.SetDefault("text.snippet_max_len", DefaultSnippetMaxLen)
	v.SetDefault("text.offer_min_len", DefaultOfferMinLen)
	v.SetDefault("text.offer_max_len", DefaultOfferMaxLen)
	v.SetDefault("text.offer_scan_limit", DefaultOfferScanLimit)
	v.SetDefault("text.max_offers", DefaultMaxOffers)
	v.SetDefault("text.keywords", []string{})
}

// Load builds a Config by combining defaults, an optional config file, environment variables, and CLI flags.
// Caller should pass the executing *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("OFFERS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, aliases := range envAliases {
		names := append([]string{"OFFERS_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, aliases...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	cfgFile := ""
	if cmd != nil {
		if f := cmd.Flags().Lookup("config"); f != nil {
			cfgFile = f.Value.String()
		}
	}
	if err := readConfigFile(v, cfgFile); err != nil {
		return nil, err
	}

	if cmd != nil {
		for name, key := range flagKeys {
			if f := cmd.Flags().Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
		if f := cmd.Flags().Lookup("verbose"); f != nil && f.Value.String() == "true" {
			v.Set("log.level", "debug")
		}
		if f := cmd.Flags().Lookup("quiet"); f != nil && f.Value.String() == "true" {
			v.Set("log.level", "error")
		}
	}

	cfg := fromViper(v)

	if cfg.Images.OverridesFile != "" {
		rules, err := LoadOverrides(cfg.Images.OverridesFile)
		if err != nil {
			return nil, err
		}
		cfg.Images.Overrides = rules
	} else {
		cfg.Images.Overrides = DefaultOverrides()
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// readConfigFile reads an explicit config file, or offers.yaml from the
// working directory when present.
func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("offers")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		LogLevel: v.GetString("log.level"),
		JSONLog:  v.GetBool("log.json"),

		InputFile:    v.GetString("input"),
		OutputFile:   v.GetString("output"),
		ForceRefresh: v.GetBool("force_refresh"),

		NavigationTimeout: time.Duration(v.GetInt64("navigation_timeout_ms")) * time.Millisecond,
		SettleDelay:       time.Duration(v.GetInt64("settle_delay_ms")) * time.Millisecond,
		RecordSlack:       v.GetDuration("record_slack"),
		NavAttempts:       v.GetInt("nav_attempts"),
		RetryBackoff:      v.GetDuration("retry_backoff"),

		Workers:         v.GetInt("workers"),
		BrowserPoolSize: v.GetInt("browser.pool_size"),
		BrowserHeadless: v.GetBool("browser.headless"),
		ChromePath:      v.GetString("browser.chrome_path"),
		UserAgent:       v.GetString("browser.user_agent"),
		Proxy:           v.GetString("browser.proxy"),
		ExtraHeaders:    v.GetStringSlice("browser.headers"),

		RateLimitRPS:   v.GetFloat64("rate_limit.rps"),
		RateLimitBurst: v.GetInt("rate_limit.burst"),

		Images: ImageConfig{
			AreaThreshold:       v.GetFloat64("images.area_threshold"),
			HeaderScanLimit:     v.GetInt("images.header_scan_limit"),
			BackgroundScanLimit: v.GetInt("images.background_scan_limit"),
			ImageScanLimit:      v.GetInt("images.image_scan_limit"),
			FaviconURL:          v.GetString("images.favicon_url"),
			AvatarURL:           v.GetString("images.avatar_url"),
			OverridesFile:       v.GetString("images.overrides_file"),
		},
		Text: TextConfig{
			SnippetMaxLen:  v.GetInt("text.snippet_max_len"),
			OfferMinLen:    v.GetInt("text.offer_min_len"),
			OfferMaxLen:    v.GetInt("text.offer_max_len"),
			OfferScanLimit: v.GetInt("text.offer_scan_limit"),
			MaxOffers:      v.GetInt("text.max_offers"),
			Keywords:       v.GetStringSlice("text.keywords"),
		},
	}
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)
	cfg.Images.Overrides = DefaultOverrides()
	return cfg
}
