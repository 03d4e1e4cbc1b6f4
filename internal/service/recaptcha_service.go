package service

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/cabanga/smail/internal/logging"
)

// VerifyResult is the provider's decision about one token.
type VerifyResult struct {
	Success    bool
	Score      float64
	ErrorCodes []string
}

// BotVerifier scores a submission's likelihood of being human-originated.
// A non-nil error means the provider could not be reached or answered
// garbage; a structurally valid rejection comes back as a result.
type BotVerifier interface {
	Verify(token, remoteIP string) (*VerifyResult, error)
}

// RecaptchaService verifies tokens against the reCAPTCHA v3 API.
type RecaptchaService struct {
	secretKey string
	verifyURL string
	client    *http.Client
}

// NewRecaptchaService creates a new reCAPTCHA verification service.
func NewRecaptchaService(secretKey, verifyURL string) *RecaptchaService {
	return &RecaptchaService{
		secretKey: secretKey,
		verifyURL: verifyURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// recaptchaResponse represents the response from the reCAPTCHA API
type recaptchaResponse struct {
	Success     bool     `json:"success"`
	Score       float64  `json:"score"`
	Action      string   `json:"action"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes,omitempty"`
}

// Verify submits the token for scoring along with the caller's address.
func (s *RecaptchaService) Verify(token, remoteIP string) (*VerifyResult, error) {
	data := url.Values{}
	data.Set("secret", s.secretKey)
	data.Set("response", token)
	data.Set("remoteip", remoteIP)

	resp, err := s.client.PostForm(s.verifyURL, data)
	if err != nil {
		return nil, logging.WrapError(err, "failed to verify reCAPTCHA")
	}
	defer resp.Body.Close()

	var result recaptchaResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, logging.WrapError(err, "failed to parse reCAPTCHA response")
	}

	return &VerifyResult{
		Success:    result.Success,
		Score:      result.Score,
		ErrorCodes: result.ErrorCodes,
	}, nil
}
