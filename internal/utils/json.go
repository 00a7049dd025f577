package utils

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ToJSON converts a value to a JSON string, returning "" on marshal failure.
func ToJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// looksTruncated reports whether content shows one of the truncation
// symptoms named in spec §4.7: a trailing ellipsis, a dangling comma, or an
// odd number of unescaped double quotes (an unterminated string literal).
func looksTruncated(content string) bool {
	trimmed := strings.TrimRight(content, " \n\t")
	if strings.HasSuffix(trimmed, "...") {
		return true
	}
	if strings.HasSuffix(trimmed, ",") {
		return true
	}
	quoteCount := strings.Count(trimmed, `"`) - strings.Count(trimmed, `\"`)
	return quoteCount%2 != 0
}

// LooksTruncated is the exported form of looksTruncated, used by the batch
// orchestrator to short-circuit before attempting to parse a line.
func LooksTruncated(content string) bool { return looksTruncated(content) }

var balancedObjectRegex = regexp.MustCompile(`\{[^{}]*\}`)

// ExtractObjectFragments greedily finds balanced-looking {...} fragments in
// content, for the regex-based recovery parser of spec §4.7. It only
// matches non-nested objects; nested containers are flattened one level by
// repeated application until no further fragments are found.
func ExtractObjectFragments(content string) []string {
	var fragments []string
	remaining := content
	for {
		matches := balancedObjectRegex.FindAllString(remaining, -1)
		if len(matches) == 0 {
			break
		}
		fragments = append(fragments, matches...)
		// Remove matched fragments so a subsequent pass can surface any
		// fragments that were nested one level deeper.
		next := balancedObjectRegex.ReplaceAllString(remaining, "")
		if next == remaining {
			break
		}
		remaining = next
	}
	return fragments
}
