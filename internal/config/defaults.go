package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel  = "info"
	DefaultJSONLog   = false
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	DefaultInputFile    = "data/bank_offers.json"
	DefaultOutputFile   = "data/bank_offers.enriched.json"
	DefaultForceRefresh = false

	DefaultNavigationTimeout = 45000 * time.Millisecond
	DefaultSettleDelay       = 4000 * time.Millisecond
	DefaultRecordSlack       = 15 * time.Second
	DefaultNavAttempts       = 1
	DefaultRetryBackoff      = 2 * time.Second

	DefaultWorkers            = 1
	DefaultBrowserPoolSize    = 3
	DefaultMaxBrowserPoolSize = 10
	DefaultBrowserHeadless    = true
	DefaultRateLimitRPS       = 1.0
	DefaultRateLimitBurst     = 2

	DefaultAreaThreshold       = 2500.0
	DefaultHeaderScanLimit     = 12
	DefaultBackgroundScanLimit = 20
	DefaultImageScanLimit      = 80
	DefaultFaviconURL          = "https://www.google.com/s2/favicons?domain=%s&sz=128"
	DefaultAvatarURL           = "https://ui-avatars.com/api/?name=%s&background=random"

	DefaultSnippetMaxLen  = 220
	DefaultOfferMinLen    = 15
	DefaultOfferMaxLen    = 240
	DefaultOfferScanLimit = 12
	DefaultMaxOffers      = 8
)
