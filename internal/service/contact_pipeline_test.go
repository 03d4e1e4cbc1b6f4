package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/cabanga/smail/internal/api/dto/v1/contact"
	"github.com/cabanga/smail/internal/config"
	"github.com/cabanga/smail/internal/i18n"
	"github.com/cabanga/smail/internal/mailer"
)

const testAPIKey = "bfd8669e46489869bdbd0ffad6dea8af13aa6e068936c35233fb1aa5d6ce9e9"

// Mock BotVerifier
type mockVerifier struct {
	verifyFunc func(token, remoteIP string) (*VerifyResult, error)
	calls      int
}

func (m *mockVerifier) Verify(token, remoteIP string) (*VerifyResult, error) {
	m.calls++
	if m.verifyFunc != nil {
		return m.verifyFunc(token, remoteIP)
	}
	return &VerifyResult{Success: true, Score: 0.9}, nil
}

// Mock Dispatcher
type mockDispatcher struct {
	sendFunc func(msg *mailer.Message) error
	calls    int
	lastMsg  *mailer.Message
}

func (m *mockDispatcher) Send(msg *mailer.Message) error {
	m.calls++
	m.lastMsg = msg
	if m.sendFunc != nil {
		return m.sendFunc(msg)
	}
	return nil
}

// Mock Audit
type mockAudit struct {
	successes []string
	errors    []string
}

func (m *mockAudit) Success(message string) { m.successes = append(m.successes, message) }
func (m *mockAudit) Error(message string)   { m.errors = append(m.errors, message) }

func testConfig() *config.Config {
	return &config.Config{
		APISecretKey:       testAPIKey,
		AllowedOrigins:     "http://localhost",
		DefaultLang:        "en",
		EmailFrom:          "from@dc.ao",
		EmailFromName:      "Test From",
		EmailTo:            "dc@dc.ao",
		EmailSubject:       "Test Subject",
		RecaptchaThreshold: 0.5,
	}
}

func validRequest() *Request {
	return &Request{
		Method:      http.MethodPost,
		Origin:      "http://localhost",
		ContentType: "application/json",
		APIKey:      testAPIKey,
		RemoteIP:    "127.0.0.1",
		Body: contact.Submission{
			"name":       "DC",
			"email":      "test@dc.ao",
			"query":      "hi",
			"websiteUrl": "",
		},
	}
}

type pipelineFixture struct {
	pipeline   *ContactPipeline
	verifier   *mockVerifier
	dispatcher *mockDispatcher
	audit      *mockAudit
	tr         *i18n.Translator
}

func newFixture(cfg *config.Config) *pipelineFixture {
	verifier := &mockVerifier{}
	dispatcher := &mockDispatcher{}
	audit := &mockAudit{}
	renderer := mailer.NewRenderer(cfg.EmailSubject)
	return &pipelineFixture{
		pipeline:   NewContactPipeline(cfg, verifier, renderer, dispatcher, audit),
		verifier:   verifier,
		dispatcher: dispatcher,
		audit:      audit,
		tr:         i18n.New("en", "en"),
	}
}

func TestProcessSuccess(t *testing.T) {
	f := newFixture(testConfig())

	resp := f.pipeline.Process(validRequest(), f.tr)

	if resp.Status != http.StatusOK {
		t.Fatalf("Process() status = %d, want 200", resp.Status)
	}
	if !resp.Body.Success {
		t.Errorf("Process() success = false, want true")
	}
	if resp.Body.Message != "Message sent successfully!" {
		t.Errorf("Process() message = %q, want %q", resp.Body.Message, "Message sent successfully!")
	}
	if resp.Headers["Access-Control-Allow-Origin"] != "http://localhost" {
		t.Errorf("Access-Control-Allow-Origin = %q, want request origin", resp.Headers["Access-Control-Allow-Origin"])
	}
	if f.dispatcher.calls != 1 {
		t.Errorf("dispatcher calls = %d, want 1", f.dispatcher.calls)
	}
	if len(f.audit.successes) != 1 {
		t.Errorf("success log entries = %d, want 1", len(f.audit.successes))
	}
	if len(f.audit.errors) != 0 {
		t.Errorf("error log entries = %d, want 0", len(f.audit.errors))
	}
}

func TestProcessAuthorization(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		secret string
	}{
		{"missing key", "", testAPIKey},
		{"mismatched key", "wrong-key", testAPIKey},
		{"unset secret rejects", testAPIKey, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.APISecretKey = tt.secret
			f := newFixture(cfg)

			req := validRequest()
			req.APIKey = tt.apiKey

			resp := f.pipeline.Process(req, f.tr)
			if resp.Status != http.StatusForbidden {
				t.Errorf("status = %d, want 403", resp.Status)
			}
			if resp.Body.Message != "Unauthorized access" {
				t.Errorf("message = %q, want %q", resp.Body.Message, "Unauthorized access")
			}
			if f.dispatcher.calls != 0 {
				t.Errorf("dispatcher calls = %d, want 0", f.dispatcher.calls)
			}
		})
	}
}

func TestProcessMethodNotAllowed(t *testing.T) {
	f := newFixture(testConfig())
	req := validRequest()
	req.Method = http.MethodGet

	resp := f.pipeline.Process(req, f.tr)
	if resp.Status != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.Status)
	}
	if resp.Body.Message != "Method not allowed" {
		t.Errorf("message = %q", resp.Body.Message)
	}
}

func TestProcessOriginNotAllowed(t *testing.T) {
	f := newFixture(testConfig())
	req := validRequest()
	req.Origin = "http://evil.example"

	resp := f.pipeline.Process(req, f.tr)
	if resp.Status != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.Status)
	}
}

func TestProcessContentType(t *testing.T) {
	// The gate requires the exact media type; parameters are not tolerated.
	tests := []string{
		"text/plain",
		"application/json; charset=utf-8",
		"",
	}

	for _, contentType := range tests {
		t.Run(contentType, func(t *testing.T) {
			f := newFixture(testConfig())
			req := validRequest()
			req.ContentType = contentType

			resp := f.pipeline.Process(req, f.tr)
			if resp.Status != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.Status)
			}
			if resp.Body.Message != "Content-Type must be application/json" {
				t.Errorf("message = %q", resp.Body.Message)
			}
		})
	}
}

func TestProcessMalformedBody(t *testing.T) {
	f := newFixture(testConfig())
	req := validRequest()
	req.Body = contact.Submission{}
	req.MalformedBody = true

	resp := f.pipeline.Process(req, f.tr)
	if resp.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.Status)
	}
	if resp.Body.Message != "Invalid JSON" {
		t.Errorf("message = %q, want the invalid-JSON rejection", resp.Body.Message)
	}
	if f.dispatcher.calls != 0 {
		t.Errorf("dispatcher calls = %d, want 0", f.dispatcher.calls)
	}
}

func TestProcessMalformedBodyAfterAuthorization(t *testing.T) {
	// A malformed body from an unauthenticated caller still fails on
	// authorization first.
	f := newFixture(testConfig())
	req := validRequest()
	req.Body = contact.Submission{}
	req.MalformedBody = true
	req.APIKey = "wrong"

	resp := f.pipeline.Process(req, f.tr)
	if resp.Status != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.Status)
	}
	if resp.Body.Message != "Unauthorized access" {
		t.Errorf("message = %q, want the authorization rejection", resp.Body.Message)
	}
}

func TestProcessHoneypot(t *testing.T) {
	f := newFixture(testConfig())
	req := validRequest()
	req.Body["websiteUrl"] = "http://spam.example"

	resp := f.pipeline.Process(req, f.tr)

	// Bots must see a generic success, never an error.
	if resp.Status != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.Status)
	}
	if !resp.Body.Success {
		t.Errorf("success = false, want true")
	}
	if resp.Body.Message != "Message sent" {
		t.Errorf("message = %q, want generic success", resp.Body.Message)
	}
	if f.dispatcher.calls != 0 {
		t.Errorf("dispatcher calls = %d, want 0", f.dispatcher.calls)
	}
	if len(f.audit.successes)+len(f.audit.errors) != 0 {
		t.Errorf("honeypot must not produce log entries")
	}
}

func TestProcessRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(contact.Submission)
		missing string
	}{
		{"missing email", func(b contact.Submission) { delete(b, "email") }, "email"},
		{"missing name", func(b contact.Submission) { delete(b, "name") }, "name"},
		{"missing query", func(b contact.Submission) { delete(b, "query") }, "query"},
		{"empty string counts as absent", func(b contact.Submission) { b["name"] = "" }, "name"},
		{"explicit list order", func(b contact.Submission) {
			b["required_fields"] = []interface{}{"company", "name"}
		}, "company"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(testConfig())
			req := validRequest()
			tt.mutate(req.Body)

			resp := f.pipeline.Process(req, f.tr)
			if resp.Status != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.Status)
			}
			want := fmt.Sprintf("The %s field is required", tt.missing)
			if resp.Body.Message != want {
				t.Errorf("message = %q, want %q", resp.Body.Message, want)
			}
		})
	}
}

func TestProcessEmptyRequiredFieldsSkipsGate(t *testing.T) {
	// An explicitly empty required_fields list disables the gate; the
	// email syntax check still applies.
	f := newFixture(testConfig())
	req := validRequest()
	delete(req.Body, "name")
	delete(req.Body, "query")
	req.Body["required_fields"] = []interface{}{}

	resp := f.pipeline.Process(req, f.tr)
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200 (no field is required), got message %q", resp.Status, resp.Body.Message)
	}
	if f.dispatcher.calls != 1 {
		t.Errorf("dispatcher calls = %d, want 1", f.dispatcher.calls)
	}
}

func TestProcessCustomTemplateRelaxesQuery(t *testing.T) {
	f := newFixture(testConfig())
	req := validRequest()
	delete(req.Body, "query")
	req.Body["html_template"] = "<p>{{name}}</p>"

	resp := f.pipeline.Process(req, f.tr)
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200 (query not required with custom template)", resp.Status)
	}
}

func TestProcessInvalidEmail(t *testing.T) {
	f := newFixture(testConfig())
	req := validRequest()
	req.Body["email"] = "not-an-email"

	resp := f.pipeline.Process(req, f.tr)
	if resp.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.Status)
	}
	if resp.Body.Message != "Invalid email" {
		t.Errorf("message = %q", resp.Body.Message)
	}
}

func TestProcessMessageTooLong(t *testing.T) {
	f := newFixture(testConfig())
	req := validRequest()
	req.Body["query"] = strings.Repeat("a", MaxBodyLength+1)

	resp := f.pipeline.Process(req, f.tr)
	if resp.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.Status)
	}
	if resp.Body.Message != "Message too long" {
		t.Errorf("message = %q", resp.Body.Message)
	}
}

func TestProcessRecaptcha(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		cfg := testConfig()
		cfg.RecaptchaEnabled = true
		f := newFixture(cfg)

		resp := f.pipeline.Process(validRequest(), f.tr)
		if resp.Status != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.Status)
		}
		if f.verifier.calls != 0 {
			t.Errorf("verifier calls = %d, want 0", f.verifier.calls)
		}
	})

	t.Run("transport failure", func(t *testing.T) {
		cfg := testConfig()
		cfg.RecaptchaEnabled = true
		f := newFixture(cfg)
		f.verifier.verifyFunc = func(token, remoteIP string) (*VerifyResult, error) {
			return nil, errors.New("connection refused")
		}

		req := validRequest()
		req.Body["recaptchaToken"] = "some-token"

		resp := f.pipeline.Process(req, f.tr)
		if resp.Status != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", resp.Status)
		}
		if len(f.audit.errors) != 1 {
			t.Errorf("error log entries = %d, want 1", len(f.audit.errors))
		}
		if f.dispatcher.calls != 0 {
			t.Errorf("dispatcher calls = %d, want 0", f.dispatcher.calls)
		}
	})

	t.Run("low score rejected", func(t *testing.T) {
		cfg := testConfig()
		cfg.RecaptchaEnabled = true
		f := newFixture(cfg)
		f.verifier.verifyFunc = func(token, remoteIP string) (*VerifyResult, error) {
			return &VerifyResult{Success: false, Score: 0.2}, nil
		}

		req := validRequest()
		req.Body["recaptchaToken"] = "some-token"

		resp := f.pipeline.Process(req, f.tr)
		if resp.Status != http.StatusForbidden {
			t.Errorf("status = %d, want 403", resp.Status)
		}
		if resp.Body.Message != "reCAPTCHA API rejected" {
			t.Errorf("message = %q", resp.Body.Message)
		}
		if f.dispatcher.calls != 0 {
			t.Errorf("dispatcher calls = %d, want 0", f.dispatcher.calls)
		}
		if len(f.audit.errors) != 1 {
			t.Errorf("error log entries = %d, want 1", len(f.audit.errors))
		}
	})

	t.Run("high score passes", func(t *testing.T) {
		cfg := testConfig()
		cfg.RecaptchaEnabled = true
		f := newFixture(cfg)
		f.verifier.verifyFunc = func(token, remoteIP string) (*VerifyResult, error) {
			if remoteIP != "127.0.0.1" {
				t.Errorf("remoteIP = %q, want caller address", remoteIP)
			}
			return &VerifyResult{Success: true, Score: 0.9}, nil
		}

		req := validRequest()
		req.Body["recaptchaToken"] = "some-token"

		resp := f.pipeline.Process(req, f.tr)
		if resp.Status != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.Status)
		}
		if f.dispatcher.calls != 1 {
			t.Errorf("dispatcher calls = %d, want exactly 1", f.dispatcher.calls)
		}
	})
}

func TestProcessAuthBeforeRecaptcha(t *testing.T) {
	// Combined failure: bad key, bad origin and anti-bot enabled with no
	// token. Authorization wins, so no verification work is spent.
	cfg := testConfig()
	cfg.RecaptchaEnabled = true
	f := newFixture(cfg)

	req := validRequest()
	req.APIKey = "wrong"
	req.Origin = "http://evil.example"

	resp := f.pipeline.Process(req, f.tr)
	if resp.Status != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.Status)
	}
	if resp.Body.Message != "Unauthorized access" {
		t.Errorf("message = %q, want the authorization rejection", resp.Body.Message)
	}
	if f.verifier.calls != 0 {
		t.Errorf("verifier calls = %d, want 0", f.verifier.calls)
	}
}

func TestProcessDispatchFailure(t *testing.T) {
	f := newFixture(testConfig())
	f.dispatcher.sendFunc = func(msg *mailer.Message) error {
		return errors.New("smtp: 554 transaction failed")
	}

	resp := f.pipeline.Process(validRequest(), f.tr)
	if resp.Status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.Status)
	}
	if resp.Body.Message != "An error occurred while sending the message" {
		t.Errorf("message = %q, transport detail must not leak", resp.Body.Message)
	}
	if len(f.audit.errors) != 1 {
		t.Errorf("error log entries = %d, want 1", len(f.audit.errors))
	}
	if len(f.audit.successes) != 0 {
		t.Errorf("success log entries = %d, want 0", len(f.audit.successes))
	}
}

func TestProcessSanitizesFields(t *testing.T) {
	f := newFixture(testConfig())
	req := validRequest()
	req.Body["name"] = "  <b>DC</b>  "

	resp := f.pipeline.Process(req, f.tr)
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Status)
	}
	if f.dispatcher.lastMsg == nil {
		t.Fatal("no message dispatched")
	}
	if strings.Contains(f.dispatcher.lastMsg.HTMLBody, "<b>DC</b>") {
		t.Errorf("raw markup leaked into email body")
	}
	if !strings.Contains(f.dispatcher.lastMsg.HTMLBody, "&lt;b&gt;DC&lt;/b&gt;") {
		t.Errorf("expected escaped name in email body, got:\n%s", f.dispatcher.lastMsg.HTMLBody)
	}
	if f.dispatcher.lastMsg.ReplyTo != "test@dc.ao" {
		t.Errorf("ReplyTo = %q, want submitter address", f.dispatcher.lastMsg.ReplyTo)
	}
}

func TestProcessCustomTemplateStripsScripts(t *testing.T) {
	f := newFixture(testConfig())
	req := validRequest()
	req.Body["html_template"] = "<p>{{name}}</p><script>evil()</script>"
	req.Body["name"] = "X"

	resp := f.pipeline.Process(req, f.tr)
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Status)
	}
	body := f.dispatcher.lastMsg.HTMLBody
	if !strings.Contains(body, "<p>X</p>") {
		t.Errorf("substituted placeholder missing, got:\n%s", body)
	}
	if strings.Contains(body, "evil()") {
		t.Errorf("script content survived sanitization:\n%s", body)
	}
}
