package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultResendBaseURL = "https://api.resend.com"

// ResendClient implements EmailSender against the Resend REST API.
type ResendClient struct {
	client *resty.Client
	from   string
}

// NewResendClient builds a client. from is the sender identity, e.g.
// "Calltide <hello@calltide.com>".
func NewResendClient(apiKey, from string) *ResendClient {
	c := resty.New().
		SetBaseURL(defaultResendBaseURL).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)
	return &ResendClient{client: c, from: from}
}

// SetBaseURL overrides the API endpoint, used by tests.
func (r *ResendClient) SetBaseURL(u string) { r.client.SetBaseURL(u) }

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func (r *ResendClient) Send(ctx context.Context, to, subject, html string) (string, error) {
	body := sendRequest{From: r.from, To: []string{to}, Subject: subject, HTML: html}
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(&body).
		Post("/emails")
	if err != nil {
		return "", fmt.Errorf("resend request: %w", err)
	}
	var out sendResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("resend decode response: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("resend status %d: %s", resp.StatusCode(), out.Message)
	}
	return out.ID, nil
}
