package lexer

import (
	"regexp"

	"golang.org/x/text/transform"
)

// translateRegexFlags rewrites a Smile loanword regex's flag letters into
// the inline (?flags) prefix Go's RE2-based regexp engine expects. Smile's
// flags are a subset: i (case-insensitive), m (multiline), s (dot matches
// newline).
func translateRegexFlags(pattern, flags string) string {
	var prefix string
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			prefix += string(f)
		}
	}
	if prefix == "" {
		return pattern
	}
	return "(?" + prefix + ")" + pattern
}

func regexpCompile(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(pattern)
}

func transformString(t transform.Transformer, s string) (string, int, error) {
	return transform.String(t, s)
}
