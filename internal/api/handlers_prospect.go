package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/calltide/outreach-server/internal/api/respond"
	"github.com/calltide/outreach-server/internal/model"
	"github.com/calltide/outreach-server/internal/store"
)

// ProspectHandler is a thin HTTP transport over the prospect store.
type ProspectHandler struct {
	store store.Store
}

func NewProspectHandler(s store.Store) *ProspectHandler { return &ProspectHandler{store: s} }

// CreateProspect POST /api/prospects
func (h *ProspectHandler) CreateProspect(w http.ResponseWriter, r *http.Request) {
	var p model.Prospect
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if p.BusinessName == "" {
		respond.WriteBadRequest(w, "businessName is required")
		return
	}
	if p.Source == "" {
		p.Source = "manual"
	}
	out, err := h.store.Prospects().Create(r.Context(), &p)
	if err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// GetProspect GET /api/prospects/{prospectId}
func (h *ProspectHandler) GetProspect(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["prospectId"]
	p, err := h.store.Prospects().Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "prospect not found")
			return
		}
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, p)
}

// ListProspects GET /api/prospects?status=&limit=
func (h *ProspectHandler) ListProspects(w http.ResponseWriter, r *http.Request) {
	req := model.ListProspectsRequest{
		Status: model.ProspectStatus(r.URL.Query().Get("status")),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respond.WriteBadRequest(w, "invalid limit")
			return
		}
		req.Limit = n
	}
	lst, err := h.store.Prospects().List(r.Context(), req)
	if err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"prospects": lst, "count": len(lst)})
}

// ActivityHandler serves the operator activity feed.
type ActivityHandler struct {
	store store.Store
}

func NewActivityHandler(s store.Store) *ActivityHandler { return &ActivityHandler{store: s} }

// RecentActivity GET /api/activity?limit=
func (h *ActivityHandler) RecentActivity(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respond.WriteBadRequest(w, "invalid limit")
			return
		}
		limit = n
	}
	lst, err := h.store.Activity().Recent(r.Context(), limit)
	if err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"activity": lst, "count": len(lst)})
}
