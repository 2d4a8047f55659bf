package render

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

var hrefPattern = regexp.MustCompile(`(?i)href="([^"]*)"`)

// TagLinks appends tracking query parameters to every anchor href in the
// HTML body. It is a pure string transform: mailto:, tel:, and fragment-only
// links are left untouched, and existing query parameters are preserved.
func TagLinks(html string, params map[string]string) string {
	if len(params) == 0 {
		return html
	}

	return hrefPattern.ReplaceAllStringFunc(html, func(match string) string {
		raw := match[len(`href="`) : len(match)-1]
		tagged := tagURL(raw, params)
		return `href="` + tagged + `"`
	})
}

func tagURL(raw string, params map[string]string) string {
	lower := strings.ToLower(raw)
	if raw == "" ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "tel:") ||
		strings.HasPrefix(raw, "#") {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	q := u.Query()
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		// Caller-authored parameters win over tagging defaults.
		if q.Get(k) == "" {
			q.Set(k, params[k])
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
