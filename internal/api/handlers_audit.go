package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/calltide/outreach-server/internal/api/respond"
	"github.com/calltide/outreach-server/internal/audit"
	"github.com/calltide/outreach-server/internal/model"
)

// AuditHandler exposes the audit dialer gate and the provider webhooks that
// drive the call lifecycle.
type AuditHandler struct {
	gate *audit.Gate
}

func NewAuditHandler(g *audit.Gate) *AuditHandler { return &AuditHandler{gate: g} }

// ScheduleAuditCall POST /api/audit/schedule
func (h *AuditHandler) ScheduleAuditCall(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProspectID string `json:"prospectId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.ProspectID == "" {
		respond.WriteBadRequest(w, "prospectId is required")
		return
	}

	callID, err := h.gate.ScheduleAuditCall(r.Context(), req.ProspectID)
	switch {
	case err == nil:
		respond.WriteJSON(w, http.StatusCreated, map[string]string{"callId": callID})
	case errors.Is(err, audit.ErrOutsideCallWindow), errors.Is(err, audit.ErrDailyCapReached):
		respond.WriteConflict(w, err.Error())
	case errors.Is(err, audit.ErrNoPhone):
		respond.WriteBadRequest(w, err.Error())
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, "prospect not found")
	default:
		respond.WriteInternalError(w, err.Error())
	}
}

// StatusCallback POST /api/audit/status
// Form-encoded lifecycle report from the telephony provider.
func (h *AuditHandler) StatusCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respond.WriteBadRequest(w, "invalid form body")
		return
	}
	cb := audit.StatusCallback{
		ProviderCallID: r.PostFormValue("CallSid"),
		Status:         model.CallStatus(r.PostFormValue("CallStatus")),
		AnsweredBy:     normalizeAnsweredBy(r.PostFormValue("AnsweredBy")),
	}
	if v := r.PostFormValue("CallDuration"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cb.DurationSecs = &secs
		}
	}
	if cb.ProviderCallID == "" {
		respond.WriteBadRequest(w, "CallSid is required")
		return
	}

	if err := h.gate.HandleStatusCallback(r.Context(), cb); err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// normalizeAnsweredBy folds the provider's machine detection variants
// (machine_start, machine_end_beep, ...) into plain "machine".
func normalizeAnsweredBy(v string) string {
	if v == "" || v == "unknown" {
		return ""
	}
	if v == "human" {
		return "human"
	}
	return "machine"
}

const auditTwiML = `<?xml version="1.0" encoding="UTF-8"?>
<Response><Pause length="3"/><Hangup/></Response>`

// TwiML POST /api/audit/twiml
// Instructions for the connected audit call: hold briefly, then hang up.
func (h *AuditHandler) TwiML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(auditTwiML))
}
