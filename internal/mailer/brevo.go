package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBrevoURL = "https://api.brevo.com"

type BrevoConfig struct {
	APIKey      string
	SenderEmail string
	SenderName  string
	BaseURL     string // override for tests
}

// BrevoClient talks to the Brevo transactional email API.
type BrevoClient struct {
	cfg   BrevoConfig
	httpc *http.Client
}

func NewBrevoClient(cfg BrevoConfig) *BrevoClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBrevoURL
	}
	return &BrevoClient{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 5 * time.Second},
	}
}

type brevoAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoSendReq struct {
	Sender      brevoAddress   `json:"sender"`
	To          []brevoAddress `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

func (c *BrevoClient) Send(ctx context.Context, toName, toEmail, subject, html string) error {
	body, err := json.Marshal(brevoSendReq{
		Sender:      brevoAddress{Email: c.cfg.SenderEmail, Name: c.cfg.SenderName},
		To:          []brevoAddress{{Email: toEmail, Name: toName}},
		Subject:     subject,
		HTMLContent: html,
	})
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v3/smtp/email", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.cfg.APIKey)

	res, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode <= 299 {
		return nil
	}
	detail, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return fmt.Errorf("brevo returned %d: %s", res.StatusCode, detail)
}
