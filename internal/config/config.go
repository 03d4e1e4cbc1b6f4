package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server Configuration
	Environment string `env:"ENV" envDefault:"development"`
	Port        string `env:"PORT" envDefault:"8080"`
	APIRoute    string `env:"API_ROUTE" envDefault:"/api/contact"`
	LogFile     string `env:"LOG_FILE"`

	// Security Configuration
	APISecretKey   string `env:"API_SECRET_KEY"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS"`

	// Localization Configuration
	DefaultLang string `env:"DEFAULT_LANG" envDefault:"pt"`

	// SMTP Configuration
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPSecure   string `env:"SMTP_SECURE" envDefault:"tls"`

	// Email Configuration
	EmailFrom     string `env:"EMAIL_FROM"`
	EmailFromName string `env:"EMAIL_FROM_NAME"`
	EmailTo       string `env:"EMAIL_TO"`
	EmailSubject  string `env:"EMAIL_SUBJECT"`

	// Audit Log Configuration
	LogPath string `env:"LOG_PATH" envDefault:"./logs"`

	// reCAPTCHA Configuration
	RecaptchaEnabled   bool    `env:"RECAPTCHA_ENABLED" envDefault:"false"`
	RecaptchaSecretKey string  `env:"RECAPTCHA_SECRET_KEY"`
	RecaptchaURL       string  `env:"RECAPTCHA_URL" envDefault:"https://www.google.com/recaptcha/api/siteverify"`
	RecaptchaThreshold float64 `env:"RECAPTCHA_V3_THRESHOLD" envDefault:"0.5"`
}

// Load loads the configuration from environment variables and .env files
func Load() (*Config, error) {
	// Load .env file if it exists. Try multiple locations; godotenv does not
	// overwrite variables that are already set.
	envLocations := []string{".env"}
	if envName := os.Getenv("ENV"); envName != "" {
		envLocations = append([]string{fmt.Sprintf(".env.%s", envName)}, envLocations...)
	}
	for _, loc := range envLocations {
		if err := godotenv.Load(loc); err == nil {
			break
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Set default log file if not set
	if cfg.LogFile == "" {
		if cfg.Environment == "production" {
			cfg.LogFile = "/app/logs/api.log"
		} else {
			cfg.LogFile = "./logs/api.log"
		}
	}

	// Ensure log directories exist
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	if err := os.MkdirAll(cfg.LogPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	return cfg, nil
}

// Origins returns the parsed ALLOWED_ORIGINS allow-list.
func (c *Config) Origins() []string {
	if c.AllowedOrigins == "" {
		return nil
	}
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

// OriginAllowed reports whether origin is a member of the allow-list.
func (c *Config) OriginAllowed(origin string) bool {
	for _, allowed := range c.Origins() {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
