package handlers

import (
	"errors"
	"io"

	"github.com/cabanga/smail/internal/api/dto/v1/contact"
	"github.com/cabanga/smail/internal/config"
	"github.com/cabanga/smail/internal/i18n"
	"github.com/cabanga/smail/internal/service"

	"github.com/gin-gonic/gin"
)

// ContactHandler adapts HTTP requests to the submission pipeline.
type ContactHandler struct {
	cfg      *config.Config
	pipeline *service.ContactPipeline
}

// NewContactHandler creates a new contact handler.
func NewContactHandler(cfg *config.Config, pipeline *service.ContactPipeline) *ContactHandler {
	return &ContactHandler{
		cfg:      cfg,
		pipeline: pipeline,
	}
}

// Submit parses the request into an immutable pipeline request, runs the
// pipeline and writes its response verbatim.
func (h *ContactHandler) Submit(c *gin.Context) {
	// An empty body is an empty submission; a non-empty body that fails
	// to parse is flagged so the pipeline rejects it as invalid JSON.
	var body contact.Submission
	malformed := false
	if err := c.ShouldBindJSON(&body); err != nil {
		body = contact.Submission{}
		malformed = !errors.Is(err, io.EOF)
	}

	lang := body.Lang()
	if lang == "" {
		lang = h.cfg.DefaultLang
	}
	tr := i18n.New(lang, h.cfg.DefaultLang)

	req := &service.Request{
		Method: c.Request.Method,
		Origin: c.GetHeader("Origin"),
		// The raw header value: a parametrized media type such as
		// "application/json; charset=utf-8" does not pass the gate.
		ContentType:   c.GetHeader("Content-Type"),
		APIKey:        c.GetHeader("X-API-Key"),
		RemoteIP:      c.ClientIP(),
		Body:          body,
		MalformedBody: malformed,
	}

	resp := h.pipeline.Process(req, tr)
	for key, value := range resp.Headers {
		c.Header(key, value)
	}
	c.JSON(resp.Status, resp.Body)
}
