package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultTwilioBaseURL = "https://api.twilio.com"

// TwilioClient implements Dialer and SMSSender against the Twilio REST API.
type TwilioClient struct {
	client     *resty.Client
	accountSID string
}

// NewTwilioClient builds a client authenticated with the account SID and
// auth token. Calls carry a bounded timeout; a hung provider must not block
// a sweep indefinitely.
func NewTwilioClient(accountSID, authToken string) *TwilioClient {
	c := resty.New().
		SetBaseURL(defaultTwilioBaseURL).
		SetBasicAuth(accountSID, authToken).
		SetTimeout(30 * time.Second)
	return &TwilioClient{client: c, accountSID: accountSID}
}

// SetBaseURL overrides the API endpoint, used by tests.
func (t *TwilioClient) SetBaseURL(u string) { t.client.SetBaseURL(u) }

type callResponse struct {
	SID     string `json:"sid"`
	Message string `json:"message"`
}

// PlaceCall originates a call via the Calls endpoint. Machine detection and
// the ring timeout are passed through so the provider can classify who
// answered and report no-answer after the window.
func (t *TwilioClient) PlaceCall(ctx context.Context, req PlaceCallRequest) (string, error) {
	form := map[string]string{
		"To":                   req.To,
		"From":                 req.From,
		"Url":                  req.ResponseURL,
		"StatusCallback":       req.StatusCallbackURL,
		"StatusCallbackMethod": "POST",
		"Timeout":              strconv.Itoa(req.RingTimeoutSecs),
	}
	if req.MachineDetection {
		form["MachineDetection"] = "Enable"
	}

	resp, err := t.client.R().
		SetContext(ctx).
		SetFormData(form).
		Post(fmt.Sprintf("/2010-04-01/Accounts/%s/Calls.json", t.accountSID))
	if err != nil {
		return "", fmt.Errorf("twilio place call: %w", err)
	}
	var out callResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("twilio decode response: %w", err)
	}
	if resp.StatusCode() != http.StatusCreated {
		return "", fmt.Errorf("twilio status %d: %s", resp.StatusCode(), out.Message)
	}
	return out.SID, nil
}

// Send delivers an SMS via the Messages endpoint.
func (t *TwilioClient) Send(ctx context.Context, to, from, body string) (string, error) {
	resp, err := t.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{"To": to, "From": from, "Body": body}).
		Post(fmt.Sprintf("/2010-04-01/Accounts/%s/Messages.json", t.accountSID))
	if err != nil {
		return "", fmt.Errorf("twilio send sms: %w", err)
	}
	var out callResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("twilio decode response: %w", err)
	}
	if resp.StatusCode() != http.StatusCreated {
		return "", fmt.Errorf("twilio status %d: %s", resp.StatusCode(), out.Message)
	}
	return out.SID, nil
}
