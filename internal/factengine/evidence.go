package factengine

import (
	"net/url"
	"strings"

	"github.com/livecortex/livecortex/pkg/provider/search"
)

// filterBlocklist drops results whose URL host matches a pattern in
// blocklist. A pattern is either an exact host ("example.com") or a
// leading-wildcard suffix match ("*.example.com"), matching the
// url_blocklist semantics described for config.SearchConfig.
//
// A result whose URL fails to parse is dropped rather than risk passing
// un-vetted evidence to verification.
func filterBlocklist(results []search.TextResult, blocklist []string) []search.TextResult {
	if len(blocklist) == 0 {
		return results
	}

	out := make([]search.TextResult, 0, len(results))
	for _, r := range results {
		host, ok := hostOf(r.URL)
		if !ok {
			continue
		}
		if matchesBlocklist(host, blocklist) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func hostOf(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", false
	}
	return strings.ToLower(u.Hostname()), true
}

func matchesBlocklist(host string, blocklist []string) bool {
	for _, pattern := range blocklist {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		if pattern == "" {
			continue
		}
		if suffix, ok := strings.CutPrefix(pattern, "*."); ok {
			if host == suffix || strings.HasSuffix(host, "."+suffix) {
				return true
			}
			continue
		}
		if host == pattern {
			return true
		}
	}
	return false
}
