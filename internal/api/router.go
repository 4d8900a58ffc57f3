package api

import (
	"github.com/gorilla/mux"

	"github.com/calltide/outreach-server/internal/api/recovery"
	"github.com/calltide/outreach-server/internal/audit"
	"github.com/calltide/outreach-server/internal/delivery"
	"github.com/calltide/outreach-server/internal/orchestrator"
	"github.com/calltide/outreach-server/internal/store"
)

// Deps are the constructed services the router exposes over HTTP.
type Deps struct {
	Store        store.Store
	Gate         *audit.Gate
	Orchestrator *orchestrator.Orchestrator
	Delivery     *delivery.Service
}

// NewRouter creates the HTTP router with all API routes.
func NewRouter(d Deps) *mux.Router {
	router := mux.NewRouter()

	// Global middlewares
	router.Use(recovery.Middleware)

	healthHandler := NewHealthHandler()
	prospectHandler := NewProspectHandler(d.Store)
	activityHandler := NewActivityHandler(d.Store)
	auditHandler := NewAuditHandler(d.Gate)
	outreachHandler := NewOutreachHandler(d.Orchestrator)
	webhookHandler := NewWebhookHandler(d.Delivery)

	// Health endpoint
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	// Prospect endpoints
	router.HandleFunc("/api/prospects", prospectHandler.CreateProspect).Methods("POST")
	router.HandleFunc("/api/prospects", prospectHandler.ListProspects).Methods("GET")
	router.HandleFunc("/api/prospects/{prospectId}", prospectHandler.GetProspect).Methods("GET")

	// Audit dialer endpoints
	router.HandleFunc("/api/audit/schedule", auditHandler.ScheduleAuditCall).Methods("POST")
	router.HandleFunc("/api/audit/status", auditHandler.StatusCallback).Methods("POST")
	router.HandleFunc("/api/audit/twiml", auditHandler.TwiML).Methods("POST")

	// Outreach triggers
	router.HandleFunc("/api/outreach/start", outreachHandler.StartOutreach).Methods("POST")
	router.HandleFunc("/api/outreach/pause", outreachHandler.PauseOutreach).Methods("POST")

	// Provider webhooks
	router.HandleFunc("/api/outreach/webhook/email", webhookHandler.EmailEvent).Methods("POST")
	router.HandleFunc("/api/sms/inbound", webhookHandler.InboundSMS).Methods("POST")

	// Operator activity feed
	router.HandleFunc("/api/activity", activityHandler.RecentActivity).Methods("GET")

	return router
}
