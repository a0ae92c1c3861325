package urlutil

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/weppos/publicsuffix-go/publicsuffix"
)

// ValidateURL performs comprehensive URL validation
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: must be http or https, got %s", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}

	return nil
}

// ResolveURL resolves a possibly-relative href against a base URL and returns
// an absolute string. Empty and data: hrefs resolve to "".
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(strings.ToLower(href), "data:") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil || !baseURL.IsAbs() {
		return ""
	}
	return baseURL.ResolveReference(u).String()
}

// Hostname returns the lowercase host of rawURL without port, or "".
func Hostname(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// DomainLabel is the human-readable site label: the hostname with a leading
// "www." removed.
func DomainLabel(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

// RegistrableDomain returns the eTLD+1 of host ("offers.bank.co.in" ->
// "bank.co.in"). Hosts the suffix list cannot parse (IPs, localhost) are
// returned unchanged.
func RegistrableDomain(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" || !strings.Contains(host, ".") || net.ParseIP(host) != nil {
		return host
	}
	domain, err := publicsuffix.Domain(host)
	if err != nil || domain == "" {
		return host
	}
	return domain
}

// MatchHost reports whether host equals pattern or is a subdomain of it.
// Both sides are compared after DomainLabel normalisation.
func MatchHost(host, pattern string) bool {
	host = DomainLabel(host)
	pattern = DomainLabel(strings.TrimSpace(pattern))
	if host == "" || pattern == "" {
		return false
	}
	return host == pattern || strings.HasSuffix(host, "."+pattern)
}

// Ext returns the lowercase file extension of a URL's path, without the dot.
func Ext(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	p := u.Path
	slash := strings.LastIndex(p, "/")
	dot := strings.LastIndex(p, ".")
	if dot < 0 || dot < slash {
		return ""
	}
	return strings.ToLower(p[dot+1:])
}
