package contact

import (
	"github.com/cabanga/smail/internal/api/sanitization"
)

// Well-known submission fields. `name` and `email` always identify the
// sender; `query` is the free-text body when no custom template is supplied.
const (
	FieldName           = "name"
	FieldEmail          = "email"
	FieldQuery          = "query"
	FieldCompany        = "company"
	FieldHTMLTemplate   = "html_template"
	FieldRequiredFields = "required_fields"
	FieldRecaptchaToken = "recaptchaToken"
	FieldHoneypot       = "websiteUrl"
	FieldLang           = "lang"
)

// Submission is a contact-form body parsed from JSON. Values are strings,
// booleans or numbers; synthetic fields carry per-request behavior
// (required_fields, html_template, recaptchaToken, websiteUrl, lang).
type Submission map[string]interface{}

// String returns the field's string value, or "" when absent or not a string.
func (s Submission) String(key string) string {
	if v, ok := s[key].(string); ok {
		return v
	}
	return ""
}

// Present reports whether the field carries a non-empty value. Empty
// strings, false, zero numbers and nil count as absent.
func (s Submission) Present(key string) bool {
	switch v := s[key].(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	case float64:
		return v != 0
	default:
		return true
	}
}

// RequiredFields returns the explicit required-field list when the
// submission carries one, preserving its order. An explicitly empty
// list comes back as an empty non-nil slice, which disables the
// required-field gate entirely. Returns nil when no list was supplied
// or the value is not an array.
func (s Submission) RequiredFields() []string {
	raw, ok := s[FieldRequiredFields].([]interface{})
	if !ok {
		return nil
	}
	fields := make([]string, 0, len(raw))
	for _, f := range raw {
		if name, ok := f.(string); ok && name != "" {
			fields = append(fields, name)
		}
	}
	return fields
}

// HTMLTemplate returns the caller-supplied template, or "" when none is set.
func (s Submission) HTMLTemplate() string {
	return s.String(FieldHTMLTemplate)
}

// Lang returns the per-request language override, or "" when none is set.
func (s Submission) Lang() string {
	return s.String(FieldLang)
}

// HoneypotTripped reports whether the hidden bot-trap field was populated.
func (s Submission) HoneypotTripped() bool {
	return s.String(FieldHoneypot) != ""
}

// Sanitized returns a copy with every string value trimmed and HTML-escaped.
// Non-string values pass through unchanged. The caller-supplied template is
// excluded: it is markup by contract and goes through the purifier instead.
func (s Submission) Sanitized() Submission {
	clean := make(Submission, len(s))
	for key, value := range s {
		if key == FieldHTMLTemplate {
			clean[key] = value
			continue
		}
		clean[key] = sanitization.SanitizeValue(value)
	}
	return clean
}
