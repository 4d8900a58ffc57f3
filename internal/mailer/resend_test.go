package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResendClient_Send(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emails" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer key123" {
			t.Errorf("auth header wrong: %s", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "re_99"})
	}))
	defer srv.Close()

	c := NewResendClient("key123", "Calltide <hello@calltide.test>")
	c.SetBaseURL(srv.URL)

	id, err := c.Send(context.Background(), "owner@biz.test", "subject", "<p>hi</p>")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id != "re_99" {
		t.Fatalf("want re_99, got %s", id)
	}
	if got.From != "Calltide <hello@calltide.test>" || len(got.To) != 1 || got.To[0] != "owner@biz.test" {
		t.Fatalf("payload wrong: %+v", got)
	}
}

func TestResendClient_SendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "invalid api key"})
	}))
	defer srv.Close()

	c := NewResendClient("bad", "x <x@x.test>")
	c.SetBaseURL(srv.URL)
	if _, err := c.Send(context.Background(), "a@b.test", "s", "h"); err == nil {
		t.Fatal("want error on non-200 response")
	}
}
