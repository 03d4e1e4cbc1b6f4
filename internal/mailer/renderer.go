package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/cabanga/smail/internal/api/dto/v1/contact"
	"github.com/cabanga/smail/internal/api/sanitization"
)

//go:embed templates/default.html
var templateFS embed.FS

var defaultTemplate = template.Must(template.ParseFS(templateFS, "templates/default.html"))

// RenderedEmail is the HTML and plain-text pair produced from one submission.
type RenderedEmail struct {
	HTMLBody string
	TextBody string
}

// Renderer turns sanitized field data into an email body, either through the
// built-in layout or a caller-supplied HTML template.
type Renderer struct {
	subject string
}

// NewRenderer creates a Renderer using subject for the built-in layout.
func NewRenderer(subject string) *Renderer {
	return &Renderer{subject: subject}
}

// Render produces the email body for data. Field values are expected to be
// sanitized already; the plain-text body is always derived from the HTML
// body by stripping all tags.
func (r *Renderer) Render(data contact.Submission) (*RenderedEmail, error) {
	var htmlBody string
	var err error

	if tpl := data.HTMLTemplate(); tpl != "" {
		htmlBody = r.renderCustom(tpl, data)
	} else {
		htmlBody, err = r.renderDefault(data)
		if err != nil {
			return nil, err
		}
	}

	return &RenderedEmail{
		HTMLBody: htmlBody,
		TextBody: sanitization.StripTags(htmlBody),
	}, nil
}

// renderDefault fills the built-in layout. Values arrive HTML-escaped from
// the sanitization stage, so they are injected as-is instead of being
// escaped a second time.
func (r *Renderer) renderDefault(data contact.Submission) (string, error) {
	subject := r.subject
	if subject == "" {
		subject = "Novo Contacto do Site"
	}

	var buf bytes.Buffer
	err := defaultTemplate.Execute(&buf, struct {
		Subject template.HTML
		Name    template.HTML
		Email   template.HTML
		Company template.HTML
		Query   template.HTML
		SentAt  string
	}{
		Subject: template.HTML(sanitization.SanitizeString(subject)),
		Name:    template.HTML(data.String(contact.FieldName)),
		Email:   template.HTML(data.String(contact.FieldEmail)),
		Company: template.HTML(data.String(contact.FieldCompany)),
		Query:   nl2br(data.String(contact.FieldQuery)),
		SentAt:  time.Now().Format("02/01/2006 15:04:05"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render default template: %w", err)
	}
	return buf.String(), nil
}

// renderCustom purifies the caller template and substitutes every literal
// {{field}} token with the matching scalar value. Unresolved placeholders
// are left as-is.
func (r *Renderer) renderCustom(tpl string, data contact.Submission) string {
	clean := sanitization.SanitizeTemplate(tpl)
	for key, value := range data {
		scalar, ok := scalarString(value)
		if !ok {
			continue
		}
		token := "{{" + key + "}}"
		clean = strings.ReplaceAll(clean, token, string(nl2br(scalar)))
	}
	return clean
}

// scalarString stringifies scalar values; composite values report false.
func scalarString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

// nl2br converts newlines to HTML line breaks.
func nl2br(s string) template.HTML {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return template.HTML(strings.ReplaceAll(s, "\n", "<br>\n"))
}
