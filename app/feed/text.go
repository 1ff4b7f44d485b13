package feed

import (
	"html"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const DefaultComponent = "General"

var (
	componentPattern   = regexp.MustCompile(`<li>(.*?)\s*\(`)
	tagPattern         = regexp.MustCompile(`<.*?>`)
	affectedPattern    = regexp.MustCompile(`(?i)affected components`)
	boilerplatePattern = regexp.MustCompile(`(?i)all impacted services`)
	// \s alone is ASCII-only; unescaped &nbsp; must collapse too.
	whitespacePattern = regexp.MustCompile(`[\s\p{Z}]+`)
)

// ExtractComponents joins every list item's text that runs up to a "(" with
// ", ", or returns DefaultComponent when the summary has none.
func ExtractComponents(summary string) string {
	matches := componentPattern.FindAllStringSubmatch(summary, -1)
	if len(matches) == 0 {
		return DefaultComponent
	}

	components := make([]string, 0, len(matches))
	for _, match := range matches {
		components = append(components, match[1])
	}
	return strings.Join(components, ", ")
}

// ExtractStatus reduces an incident summary to its human-readable status line.
func ExtractStatus(summary string) string {
	text := html.UnescapeString(summary)
	text = tagPattern.ReplaceAllString(text, "")

	if loc := affectedPattern.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}

	text = strings.ReplaceAll(text, "Status:", "")
	text = strings.TrimSpace(text)
	text = whitespacePattern.ReplaceAllString(text, " ")

	if loc := boilerplatePattern.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}

	return norm.NFC.String(strings.TrimSpace(text))
}
