package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

func newClient(apiURL string) *resty.Client {
	return resty.New().
		SetBaseURL(apiURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)
}

func printBody(out io.Writer, body []byte) error {
	var pretty json.RawMessage
	if err := json.Unmarshal(body, &pretty); err != nil {
		_, werr := out.Write(body)
		return werr
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(pretty)
}

func expect(resp *resty.Response, want int) error {
	if resp.StatusCode() != want {
		return fmt.Errorf("http %d: %s", resp.StatusCode(), resp.Body())
	}
	return nil
}

func runAddProspect(apiURL, name, phone, email, vertical string, out io.Writer) error {
	payload := map[string]interface{}{
		"businessName": name,
		"phone":        phone,
		"email":        email,
		"vertical":     vertical,
		"source":       "manual",
	}
	resp, err := newClient(apiURL).R().SetBody(payload).Post("/api/prospects")
	if err != nil {
		return err
	}
	if err := expect(resp, http.StatusCreated); err != nil {
		return err
	}
	return printBody(out, resp.Body())
}

func runListProspects(apiURL, status string, limit int, out io.Writer) error {
	req := newClient(apiURL).R()
	if status != "" {
		req.SetQueryParam("status", status)
	}
	if limit > 0 {
		req.SetQueryParam("limit", fmt.Sprintf("%d", limit))
	}
	resp, err := req.Get("/api/prospects")
	if err != nil {
		return err
	}
	if err := expect(resp, http.StatusOK); err != nil {
		return err
	}
	return printBody(out, resp.Body())
}

func runScheduleAudit(apiURL, prospectID string, out io.Writer) error {
	resp, err := newClient(apiURL).R().
		SetBody(map[string]string{"prospectId": prospectID}).
		Post("/api/audit/schedule")
	if err != nil {
		return err
	}
	if err := expect(resp, http.StatusCreated); err != nil {
		return err
	}
	return printBody(out, resp.Body())
}

func runOutreachTrigger(apiURL, action string, prospectIDs []string, out io.Writer) error {
	resp, err := newClient(apiURL).R().
		SetBody(map[string]interface{}{"prospectIds": prospectIDs}).
		Post("/api/outreach/" + action)
	if err != nil {
		return err
	}
	if err := expect(resp, http.StatusOK); err != nil {
		return err
	}
	return printBody(out, resp.Body())
}

func runActivity(apiURL string, limit int, out io.Writer) error {
	resp, err := newClient(apiURL).R().
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		Get("/api/activity")
	if err != nil {
		return err
	}
	if err := expect(resp, http.StatusOK); err != nil {
		return err
	}
	return printBody(out, resp.Body())
}
