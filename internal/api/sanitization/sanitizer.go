package sanitization

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// ugcPolicy keeps safe structural and text markup, strips scripts and
	// other active content. Used for caller-supplied templates.
	ugcPolicy = bluemonday.UGCPolicy()

	// strictPolicy strips all markup. Used to derive plain text from HTML.
	strictPolicy = bluemonday.StrictPolicy()
)

// SanitizeString trims surrounding whitespace and HTML-escapes angle
// brackets, quotes and ampersands. Existing entities are decoded first so
// repeated sanitization of the same input is stable (escaping never
// accumulates).
func SanitizeString(input string) string {
	return html.EscapeString(strings.TrimSpace(html.UnescapeString(input)))
}

// SanitizeValue sanitizes string values and passes everything else through
// unchanged.
func SanitizeValue(value interface{}) interface{} {
	if s, ok := value.(string); ok {
		return SanitizeString(s)
	}
	return value
}

// SanitizeTemplate strips unsafe markup and scripts from a caller-supplied
// HTML template while preserving safe structural and text markup.
func SanitizeTemplate(input string) string {
	return ugcPolicy.Sanitize(input)
}

// StripTags removes all HTML markup, leaving only text content.
func StripTags(input string) string {
	return strictPolicy.Sanitize(input)
}
