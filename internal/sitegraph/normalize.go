// Package sitegraph maintains the per-source crawl graph: nodes keyed by
// normalized URL plus discovered link edges. URLs are normalized before
// insertion so the same URL expressed differently maps to one node.
package sitegraph

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// trackingParams lists query parameters stripped during normalization.
// These are advertising and analytics trackers that do not affect content.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"fbclid":       {},
	"gclid":        {},
	"gclsrc":       {},
	"dclid":        {},
	"msclkid":      {},
	"mc_cid":       {},
	"mc_eid":       {},
}

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

var (
	errEmptyURL     = errors.New("normalize url: empty input")
	errNoSchemeHost = errors.New("normalize url: missing scheme or host")
)

// Normalize applies deterministic transformations so equivalent URLs produce
// identical strings: lowercased scheme and host, default ports removed,
// dot-segments resolved, trailing slash trimmed, fragment dropped, tracking
// parameters stripped and the remaining query sorted.
func Normalize(rawURL string) (string, error) {
	if rawURL == "" {
		return "", errEmptyURL
	}

	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("normalize url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", errNoSchemeHost
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = normalizeHost(parsed)
	parsed.Fragment = ""
	parsed.RawQuery = cleanQuery(parsed.Query())
	parsed.Path = normalizePath(parsed.Path)

	return parsed.String(), nil
}

// Host returns the lowercased hostname (without port) of a URL.
func Host(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("extract host: %w", err)
	}
	if parsed.Hostname() == "" {
		return "", errNoSchemeHost
	}
	return strings.ToLower(parsed.Hostname()), nil
}

// RegistrableDomain returns the eTLD+1 of a URL's host, so that
// blog.example.co.uk and www.example.co.uk compare as one site.
func RegistrableDomain(rawURL string) (string, error) {
	host, err := Host(rawURL)
	if err != nil {
		return "", err
	}

	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// Hosts without a public suffix (localhost, bare IPs, test
		// servers) compare by full host.
		return host, nil
	}
	return domain, nil
}

// SameSite reports whether two URLs share a registrable domain.
func SameSite(a, b string) bool {
	da, errA := RegistrableDomain(a)
	db, errB := RegistrableDomain(b)
	if errA != nil || errB != nil {
		return false
	}
	return da == db
}

// normalizeHost lowercases the hostname and drops the scheme's default port.
func normalizeHost(u *url.URL) string {
	hostname := strings.ToLower(u.Hostname())
	port := u.Port()
	if port == "" || defaultPorts[strings.ToLower(u.Scheme)] == port {
		return hostname
	}
	return hostname + ":" + port
}

// cleanQuery strips tracking parameters and re-encodes the remaining keys in
// sorted order. Returns "" when nothing remains.
func cleanQuery(values url.Values) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		if _, tracking := trackingParams[key]; !tracking {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, key := range keys {
		for j, val := range values[key] {
			if i > 0 || j > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(key))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(val))
		}
	}
	return b.String()
}

// normalizePath resolves dot-segments and trims trailing slashes while
// preserving the root "/".
func normalizePath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	return strings.TrimRight(path.Clean(p), "/")
}
