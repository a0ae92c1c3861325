package config

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/law-makers/offers/internal/utils/headers"
)

func validate(c *Config) error {
	if c.InputFile == "" {
		return fmt.Errorf("input file must be set")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file must be set")
	}
	if c.NavigationTimeout <= 0 {
		return fmt.Errorf("navigation timeout must be > 0")
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("settle delay must be >= 0")
	}
	if c.NavAttempts < 1 {
		return fmt.Errorf("nav attempts must be >= 1")
	}
	if c.Workers <= 0 || c.Workers > DefaultMaxBrowserPoolSize {
		return fmt.Errorf("workers must be between 1 and %d", DefaultMaxBrowserPoolSize)
	}
	if c.BrowserPoolSize <= 0 || c.BrowserPoolSize > DefaultMaxBrowserPoolSize {
		return fmt.Errorf("browser pool size must be between 1 and %d", DefaultMaxBrowserPoolSize)
	}
	if _, err := headers.Parse(c.ExtraHeaders); err != nil {
		return err
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit must be > 0")
	}
	if c.Images.AreaThreshold < 0 {
		return fmt.Errorf("area threshold must be >= 0")
	}
	if c.Images.HeaderScanLimit <= 0 || c.Images.BackgroundScanLimit <= 0 || c.Images.ImageScanLimit <= 0 {
		return fmt.Errorf("image scan limits must be > 0")
	}
	if !strings.Contains(c.Images.FaviconURL, "%s") || !strings.Contains(c.Images.AvatarURL, "%s") {
		return fmt.Errorf("favicon and avatar URL templates must contain %%s")
	}
	for i, r := range c.Images.Overrides {
		if r.Host == "" || r.Selector == "" {
			return fmt.Errorf("override %d: host and selector are required", i)
		}
		if _, err := cascadia.Compile(r.Selector); err != nil {
			return fmt.Errorf("override %d (%s): invalid selector %q: %w", i, r.Host, r.Selector, err)
		}
	}
	if c.Text.SnippetMaxLen <= 0 {
		return fmt.Errorf("snippet max length must be > 0")
	}
	if c.Text.OfferMinLen < 0 || c.Text.OfferMinLen > c.Text.OfferMaxLen {
		return fmt.Errorf("offer length bounds must satisfy 0 <= min <= max")
	}
	if c.Text.MaxOffers <= 0 || c.Text.OfferScanLimit < c.Text.MaxOffers {
		return fmt.Errorf("offer scan limit must be >= max offers > 0")
	}
	return nil
}
