package render

import "strings"

// Delimiter markers that indicate template syntax survived rendering. The
// list covers the delimiters of common template engines plus the sentinel
// text/template writes for missing values, so the check stays valid if the
// engine is swapped.
var tokenMarkers = []string{"{{", "{%", "{#", "<no value>"}

// HasUnresolvedTokens reports whether rendered output still contains
// template syntax. A match means a required context variable was missing;
// the message must fail rather than reach a recipient with leaked syntax.
func HasUnresolvedTokens(s string) bool {
	for _, marker := range tokenMarkers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
