package server

import (
	"io"
	"net/http"

	"github.com/cabanga/smail/internal/api/dto/common"
	"github.com/cabanga/smail/internal/api/handlers"
	"github.com/cabanga/smail/internal/api/middleware"
	"github.com/cabanga/smail/internal/config"
	"github.com/cabanga/smail/internal/i18n"
	"github.com/cabanga/smail/internal/logging"
	"github.com/cabanga/smail/internal/mailer"
	"github.com/cabanga/smail/internal/service"

	"github.com/gin-gonic/gin"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	cfg    *config.Config
	audit  *logging.FileAudit
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Disable Gin's default logger entirely because we're using our custom logger
	gin.DisableConsoleColor()
	gin.DefaultWriter = io.Discard

	// Create a new engine without default middleware
	router := gin.New()

	return &Server{
		router: router,
		cfg:    cfg,
		audit:  logging.NewFileAudit(cfg.LogPath),
	}
}

// Router exposes the underlying engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Init wires middleware, collaborators and routes.
func (s *Server) Init() {
	cfg := s.cfg
	tr := i18n.New(cfg.DefaultLang, cfg.DefaultLang)

	// Global middleware
	s.router.Use(middleware.Recovery(tr))
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.RequestLogger())
	s.router.Use(middleware.SecurityHeaders())
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		RPS:   10,
		Burst: 20,
	}))

	// Pipeline collaborators
	verifier := service.NewRecaptchaService(cfg.RecaptchaSecretKey, cfg.RecaptchaURL)
	renderer := mailer.NewRenderer(cfg.EmailSubject)
	dispatcher := mailer.NewSMTPDispatcher(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		Secure:   cfg.SMTPSecure,
	})
	pipeline := service.NewContactPipeline(cfg, verifier, renderer, dispatcher, s.audit)

	// Handlers
	contactHandler := handlers.NewContactHandler(cfg, pipeline)
	healthHandler := handlers.NewHealthHandler()

	// Routes. The contact route accepts any method: the pipeline itself
	// answers non-POST requests with the 405 contract.
	s.router.GET("/health", healthHandler.Check)
	s.router.Any(cfg.APIRoute, contactHandler.Submit)

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, common.NewErrorResult(tr.Get("error_endpoint_not_found")))
	})
}

// Start starts the server
func (s *Server) Start() error {
	defer s.audit.Close()
	return s.router.Run(":" + s.cfg.Port)
}
