// Package audit places test calls to prospects and classifies the outcome:
// answered by a human, voicemail, rang out, or failed. The classification
// selects which outreach sequence the prospect enters.
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/calltide/outreach-server/internal/activity"
	"github.com/calltide/outreach-server/internal/model"
	"github.com/calltide/outreach-server/internal/store"
	"github.com/calltide/outreach-server/internal/telephony"
)

// Policy rejections. None of these create an audit call record.
var (
	ErrOutsideCallWindow = errors.New("outside calling window")
	ErrDailyCapReached   = errors.New("daily call limit reached")
	ErrNoPhone           = errors.New("prospect has no phone")
)

// Config carries the gate's rate and window policy.
type Config struct {
	Location        *time.Location // business operating timezone
	WindowStartHour int            // inclusive, local hour
	WindowEndHour   int            // exclusive, local hour
	DailyCap        int
	FromNumber      string
	ResponseURL     string // instructions webhook handed to the provider
	StatusURL       string // lifecycle callback webhook
	RingTimeoutSecs int
}

// Gate enforces call policy and tracks call lifecycle.
type Gate struct {
	store    store.Store
	dialer   telephony.Dialer
	activity *activity.Recorder
	cfg      Config
	log      zerolog.Logger
	now      func() time.Time
}

func NewGate(s store.Store, d telephony.Dialer, rec *activity.Recorder, cfg Config, log zerolog.Logger) *Gate {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Gate{store: s, dialer: d, activity: rec, cfg: cfg, log: log, now: time.Now}
}

// SetClock overrides the wall clock, used by tests.
func (g *Gate) SetClock(now func() time.Time) { g.now = now }

func (g *Gate) withinCallWindow() bool {
	hour := g.now().In(g.cfg.Location).Hour()
	return hour >= g.cfg.WindowStartHour && hour < g.cfg.WindowEndHour
}

// localMidnight returns the start of today in the business timezone.
func (g *Gate) localMidnight() time.Time {
	local := g.now().In(g.cfg.Location)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, g.cfg.Location)
}

// ScheduleAuditCall checks, in order: the call window, the daily cap, then
// prospect existence and phone presence. On success it creates a queued call
// record, places the call, marks the record initiated with the provider's
// call id and moves the prospect to audit_scheduled. A placement failure
// marks the record failed and leaves the prospect untouched.
func (g *Gate) ScheduleAuditCall(ctx context.Context, prospectID string) (string, error) {
	if !g.withinCallWindow() {
		return "", fmt.Errorf("%w (%02d:00-%02d:00 %s)", ErrOutsideCallWindow,
			g.cfg.WindowStartHour, g.cfg.WindowEndHour, g.cfg.Location)
	}

	count, err := g.store.AuditCalls().CountCreatedSince(ctx, g.localMidnight())
	if err != nil {
		return "", err
	}
	if count >= g.cfg.DailyCap {
		return "", fmt.Errorf("%w (%d/day)", ErrDailyCapReached, g.cfg.DailyCap)
	}

	prospect, err := g.store.Prospects().Get(ctx, prospectID)
	if err != nil {
		return "", err
	}
	if prospect.Phone == "" {
		return "", ErrNoPhone
	}

	call := &model.AuditCall{
		CallID:      uuid.New().String(),
		ProspectID:  prospectID,
		FromNumber:  g.cfg.FromNumber,
		ToNumber:    prospect.Phone,
		Status:      model.CallQueued,
		ScheduledAt: g.now().UTC(),
	}
	if _, err := g.store.AuditCalls().Create(ctx, call); err != nil {
		return "", err
	}

	providerID, err := g.dialer.PlaceCall(ctx, telephony.PlaceCallRequest{
		To:                prospect.Phone,
		From:              g.cfg.FromNumber,
		ResponseURL:       g.cfg.ResponseURL,
		StatusCallbackURL: g.cfg.StatusURL,
		MachineDetection:  true,
		RingTimeoutSecs:   g.cfg.RingTimeoutSecs,
	})
	if err != nil {
		call.Status = model.CallFailed
		if uerr := g.store.AuditCalls().Update(ctx, call); uerr != nil {
			g.log.Error().Err(uerr).Str("callId", call.CallID).Msg("failed to mark audit call failed")
		}
		return "", err
	}

	call.Status = model.CallInitiated
	call.ProviderCallID = providerID
	if err := g.store.AuditCalls().Update(ctx, call); err != nil {
		return "", err
	}
	if err := g.store.Prospects().UpdateStatus(ctx, prospectID, model.StatusAuditScheduled); err != nil {
		return "", err
	}

	g.activity.Prospect(ctx, "audit_call", prospectID,
		fmt.Sprintf("Audit call scheduled for %s", prospect.BusinessName),
		fmt.Sprintf("Calling %s", prospect.Phone))
	g.log.Info().Str("prospectId", prospectID).Str("providerCallId", providerID).Msg("audit call scheduled")
	return call.CallID, nil
}

// StatusCallback is the provider's lifecycle report for a call.
type StatusCallback struct {
	ProviderCallID string
	Status         model.CallStatus
	DurationSecs   *int
	AnsweredBy     string // human, machine, or empty when detection is off
}

// classify maps a terminal callback to the prospect's audit result.
// Completed calls with no answeredBy default to answered, since machine
// detection may be unavailable.
func classify(status model.CallStatus, answeredBy string) model.AuditResult {
	switch {
	case status == model.CallCompleted && answeredBy == "machine":
		return model.AuditVoicemail
	case status == model.CallCompleted:
		return model.AuditAnswered
	case status == model.CallNoAnswer:
		return model.AuditMissed
	default: // busy, failed
		return model.AuditFailed
	}
}

// HandleStatusCallback applies a provider status report. Non-terminal
// statuses update duration/answeredBy opportunistically without touching the
// prospect; a terminal status also records the audit result and moves the
// prospect to audit_complete. An unknown provider call id is a no-op.
func (g *Gate) HandleStatusCallback(ctx context.Context, cb StatusCallback) error {
	call, err := g.store.AuditCalls().GetByProviderID(ctx, cb.ProviderCallID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			g.log.Warn().Str("providerCallId", cb.ProviderCallID).Msg("status callback for unknown call")
			return nil
		}
		return err
	}

	call.Status = cb.Status
	if cb.DurationSecs != nil {
		call.DurationSecs = cb.DurationSecs
	}
	if cb.AnsweredBy != "" {
		call.AnsweredBy = cb.AnsweredBy
	}
	if cb.Status.IsTerminal() {
		done := g.now().UTC()
		call.CompletedAt = &done
	}
	if err := g.store.AuditCalls().Update(ctx, call); err != nil {
		return err
	}

	if !cb.Status.IsTerminal() {
		return nil
	}

	result := classify(cb.Status, cb.AnsweredBy)
	if err := g.store.Prospects().SetAuditOutcome(ctx, call.ProspectID, result); err != nil {
		return err
	}

	duration := 0
	if cb.DurationSecs != nil {
		duration = *cb.DurationSecs
	}
	answeredBy := cb.AnsweredBy
	if answeredBy == "" {
		answeredBy = "unknown"
	}
	g.activity.Prospect(ctx, "audit_result", call.ProspectID,
		fmt.Sprintf("Audit call %s", result),
		fmt.Sprintf("Duration: %ds, Answered by: %s", duration, answeredBy))
	g.log.Info().
		Str("prospectId", call.ProspectID).
		Str("result", string(result)).
		Str("callStatus", string(cb.Status)).
		Msg("audit call completed")
	return nil
}
