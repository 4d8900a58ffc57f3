package api

import (
	"encoding/json"
	"net/http"

	"github.com/calltide/outreach-server/internal/api/respond"
	"github.com/calltide/outreach-server/internal/delivery"
	"github.com/calltide/outreach-server/internal/orchestrator"
)

// OutreachHandler exposes the operator triggers for outreach sequences.
type OutreachHandler struct {
	orc *orchestrator.Orchestrator
}

func NewOutreachHandler(o *orchestrator.Orchestrator) *OutreachHandler {
	return &OutreachHandler{orc: o}
}

type bulkRequest struct {
	ProspectIDs []string `json:"prospectIds"`
}

func decodeBulk(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return nil, false
	}
	if len(req.ProspectIDs) == 0 {
		respond.WriteBadRequest(w, "prospectIds is required")
		return nil, false
	}
	return req.ProspectIDs, true
}

// StartOutreach POST /api/outreach/start
func (h *OutreachHandler) StartOutreach(w http.ResponseWriter, r *http.Request) {
	ids, ok := decodeBulk(w, r)
	if !ok {
		return
	}
	results := h.orc.StartOutreachBulk(r.Context(), ids)
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// PauseOutreach POST /api/outreach/pause
func (h *OutreachHandler) PauseOutreach(w http.ResponseWriter, r *http.Request) {
	ids, ok := decodeBulk(w, r)
	if !ok {
		return
	}
	results := h.orc.PauseOutreachBulk(r.Context(), ids)
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// WebhookHandler receives asynchronous provider callbacks for sent messages.
type WebhookHandler struct {
	svc *delivery.Service
}

func NewWebhookHandler(s *delivery.Service) *WebhookHandler { return &WebhookHandler{svc: s} }

// EmailEvent POST /api/outreach/webhook/email
// Resend webhook payload: {"type":"email.opened","data":{"email_id":"..."}}
func (h *WebhookHandler) EmailEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type string `json:"type"`
		Data struct {
			EmailID string `json:"email_id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.Type == "" || req.Data.EmailID == "" {
		respond.WriteBadRequest(w, "type and data.email_id are required")
		return
	}
	if err := h.svc.HandleEmailEvent(r.Context(), req.Type, req.Data.EmailID); err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// InboundSMS POST /api/sms/inbound
// Form-encoded inbound message from the telephony provider. Always answers
// with an empty TwiML response so the provider sends no auto-reply.
func (h *WebhookHandler) InboundSMS(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respond.WriteBadRequest(w, "invalid form body")
		return
	}
	from := r.PostFormValue("From")
	body := r.PostFormValue("Body")
	if from == "" {
		respond.WriteBadRequest(w, "From is required")
		return
	}
	if err := h.svc.HandleInboundSMS(r.Context(), from, body); err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(emptyTwiML))
}
