package service

import (
	"crypto/hmac"
	"fmt"
	"net/http"

	"github.com/cabanga/smail/internal/api/dto/common"
	"github.com/cabanga/smail/internal/api/dto/v1/contact"
	"github.com/cabanga/smail/internal/config"
	"github.com/cabanga/smail/internal/i18n"
	"github.com/cabanga/smail/internal/logging"
	"github.com/cabanga/smail/internal/mailer"

	"github.com/go-playground/validator/v10"
)

// MaxBodyLength caps the free-text query field, in bytes.
const MaxBodyLength = 4000

var validate = validator.New()

// Request is the transport-independent view of one inbound submission.
// Immutable once constructed; the HTTP layer builds it and hands it in.
type Request struct {
	Method      string
	Origin      string
	ContentType string
	APIKey      string
	RemoteIP    string
	Body        contact.Submission
	// MalformedBody marks a non-empty body that failed to parse as JSON.
	MalformedBody bool
}

// Response is the sole externally observable artifact of one pipeline run
// besides side effects. Immutable once constructed.
type Response struct {
	Status  int
	Headers map[string]string
	Body    common.Result
}

// ContactPipeline runs the ordered validation, anti-abuse, rendering and
// dispatch sequence for contact submissions, short-circuiting on the first
// failed gate. One stateless run per request; the only shared state is the
// read-only configuration and the collaborator handles.
type ContactPipeline struct {
	cfg        *config.Config
	verifier   BotVerifier
	renderer   *mailer.Renderer
	dispatcher mailer.Dispatcher
	audit      logging.Audit
}

// NewContactPipeline wires the pipeline with its collaborators.
func NewContactPipeline(cfg *config.Config, verifier BotVerifier, renderer *mailer.Renderer, dispatcher mailer.Dispatcher, audit logging.Audit) *ContactPipeline {
	return &ContactPipeline{
		cfg:        cfg,
		verifier:   verifier,
		renderer:   renderer,
		dispatcher: dispatcher,
		audit:      audit,
	}
}

// Process runs the submission through every gate in order.
//
// Gate order is deliberate: authorization before the anti-bot call, so an
// unauthenticated caller never costs an outbound verification request. Only
// anti-bot and mail-transport failures are written to the error log; the
// plain validation gates are not operationally actionable and stay silent.
func (p *ContactPipeline) Process(req *Request, tr *i18n.Translator) *Response {
	// 1. Authorization. An unset secret is a hard failure, never an open
	// pass-through.
	if p.cfg.APISecretKey == "" || !hmac.Equal([]byte(req.APIKey), []byte(p.cfg.APISecretKey)) {
		return p.reject(req, tr, http.StatusForbidden, "error_unauthorized")
	}

	// 2. Method
	if req.Method != http.MethodPost {
		return p.reject(req, tr, http.StatusMethodNotAllowed, "error_method_not_allowed")
	}

	// 3. Origin allow-list
	if !p.cfg.OriginAllowed(req.Origin) {
		return p.reject(req, tr, http.StatusForbidden, "error_unauthorized")
	}

	// 4. Content type
	if req.ContentType != "application/json" {
		return p.reject(req, tr, http.StatusBadRequest, "error_content_type")
	}

	// 5. Body syntax. An empty body is just an empty submission; one that
	// was present but did not parse is rejected outright.
	if req.MalformedBody {
		return p.reject(req, tr, http.StatusBadRequest, "error_invalid_json")
	}

	// 6. Honeypot. Bots that filled the hidden field get a generic success
	// so they cannot learn they were filtered. No mail, no log line.
	if req.Body.HoneypotTripped() {
		return p.respond(req, http.StatusOK, common.NewSuccessResult(tr.Get("generic_success")))
	}

	// 7. Anti-bot verification
	if p.cfg.RecaptchaEnabled {
		if resp := p.verifyBot(req, tr); resp != nil {
			return resp
		}
	}

	// 8. Required fields
	for _, field := range p.requiredFields(req.Body) {
		if !req.Body.Present(field) {
			return p.reject(req, tr, http.StatusBadRequest, "error_field_required", field)
		}
	}

	// 9. Email syntax
	if err := validate.Var(req.Body.String(contact.FieldEmail), "required,email"); err != nil {
		return p.reject(req, tr, http.StatusBadRequest, "error_invalid_email")
	}

	// 10. Body length
	if len(req.Body.String(contact.FieldQuery)) > MaxBodyLength {
		return p.reject(req, tr, http.StatusBadRequest, "error_message_too_long")
	}

	// 11. Sanitization
	data := req.Body.Sanitized()

	// 12. Rendering
	rendered, err := p.renderer.Render(data)
	if err != nil {
		p.audit.Error(fmt.Sprintf("template rendering failed: %v", err))
		return p.reject(req, tr, http.StatusInternalServerError, "error_sending_email")
	}

	// 13. Dispatch
	msg := &mailer.Message{
		From:        p.cfg.EmailFrom,
		FromName:    p.cfg.EmailFromName,
		To:          p.cfg.EmailTo,
		ReplyTo:     data.String(contact.FieldEmail),
		ReplyToName: data.String(contact.FieldName),
		Subject:     p.cfg.EmailSubject,
		HTMLBody:    rendered.HTMLBody,
		TextBody:    rendered.TextBody,
	}
	if err := p.dispatcher.Send(msg); err != nil {
		p.audit.Error(err.Error())
		return p.reject(req, tr, http.StatusInternalServerError, "error_sending_email")
	}

	// 14. Success
	p.audit.Success(tr.Get("success_send_email"))
	return p.respond(req, http.StatusOK, common.NewSuccessResult(tr.Get("success_message")))
}

// verifyBot runs the anti-bot gate. Returns nil when the submission passes.
func (p *ContactPipeline) verifyBot(req *Request, tr *i18n.Translator) *Response {
	token := req.Body.String(contact.FieldRecaptchaToken)
	if token == "" {
		return p.reject(req, tr, http.StatusBadRequest, "error_recaptcha")
	}

	result, err := p.verifier.Verify(token, req.RemoteIP)
	if err != nil {
		p.audit.Error(fmt.Sprintf("reCAPTCHA API unreachable: %v", err))
		return p.reject(req, tr, http.StatusInternalServerError, "error_recaptcha_link")
	}

	if !result.Success || result.Score < p.cfg.RecaptchaThreshold {
		p.audit.Error(fmt.Sprintf("reCAPTCHA rejected: success=%t score=%.2f codes=%v",
			result.Success, result.Score, result.ErrorCodes))
		return p.reject(req, tr, http.StatusForbidden, "error_recaptcha_reject")
	}

	return nil
}

// requiredFields resolves the effective required-field set for a submission.
func (p *ContactPipeline) requiredFields(body contact.Submission) []string {
	if explicit := body.RequiredFields(); explicit != nil {
		return explicit
	}
	if body.HTMLTemplate() != "" {
		return []string{contact.FieldName, contact.FieldEmail}
	}
	return []string{contact.FieldName, contact.FieldEmail, contact.FieldQuery}
}

func (p *ContactPipeline) reject(req *Request, tr *i18n.Translator, status int, key string, args ...interface{}) *Response {
	return p.respond(req, status, common.NewErrorResult(tr.Get(key, args...)))
}

func (p *ContactPipeline) respond(req *Request, status int, body common.Result) *Response {
	return &Response{
		Status: status,
		Headers: map[string]string{
			"Access-Control-Allow-Origin": req.Origin,
			"Content-Type":                "application/json",
		},
		Body: body,
	}
}
