// Package executor performs the side effects the planner decides on:
// rendering a template, invoking a sender, and persisting the outreach
// record that makes the step idempotent.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/calltide/outreach-server/internal/activity"
	"github.com/calltide/outreach-server/internal/catalog"
	"github.com/calltide/outreach-server/internal/mailer"
	"github.com/calltide/outreach-server/internal/model"
	"github.com/calltide/outreach-server/internal/planner"
	"github.com/calltide/outreach-server/internal/store"
	"github.com/calltide/outreach-server/internal/telephony"
)

// Terminal non-retryable rejections for a step. These never create an
// outreach record and are not cleared by retrying.
var (
	ErrNoEmail         = errors.New("no email address")
	ErrNoPhone         = errors.New("no phone number")
	ErrOptedOut        = errors.New("prospect opted out of SMS")
	ErrUnknownTemplate = errors.New("template not found")
)

// Result actions for the non-send outcomes.
const (
	ActionWaiting  = "waiting"
	ActionComplete = "sequence_complete"
)

// Result reports what ExecuteNextStep did. Waiting and sequence completion
// are informative non-errors; only genuine failures surface as errors.
type Result struct {
	Action string `json:"action"`
}

// Executor drives one prospect one step forward at a time.
type Executor struct {
	store      store.Store
	planner    *planner.Planner
	email      mailer.EmailSender
	sms        telephony.SMSSender
	activity   *activity.Recorder
	fromNumber string
	log        zerolog.Logger
	now        func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(s store.Store, p *planner.Planner, email mailer.EmailSender, sms telephony.SMSSender, rec *activity.Recorder, fromNumber string, log zerolog.Logger) *Executor {
	return &Executor{
		store:      s,
		planner:    p,
		email:      email,
		sms:        sms,
		activity:   rec,
		fromNumber: fromNumber,
		log:        log,
		now:        time.Now,
		locks:      make(map[string]*sync.Mutex),
	}
}

// SetClock overrides the wall clock, used by tests.
func (e *Executor) SetClock(now func() time.Time) { e.now = now }

// lockFor serializes step execution per prospect. Two concurrent invocations
// for the same prospect would otherwise both observe "step not sent yet" and
// both send it; history-derived idempotency only holds once the record is
// persisted.
func (e *Executor) lockFor(prospectID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[prospectID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[prospectID] = l
	}
	return l
}

// ExecuteNextStep plans and, when a step is ready, executes it. A sender
// failure returns an error WITHOUT persisting a record, so the step stays
// eligible and the next invocation retries it.
func (e *Executor) ExecuteNextStep(ctx context.Context, prospectID string) (*Result, error) {
	l := e.lockFor(prospectID)
	l.Lock()
	defer l.Unlock()

	decision, prospect, err := e.planner.NextStep(ctx, prospectID)
	if err != nil {
		return nil, err
	}

	switch decision.Status {
	case planner.Waiting:
		return &Result{Action: ActionWaiting}, nil
	case planner.Complete:
		return &Result{Action: ActionComplete}, nil
	}

	step := decision.Step
	switch step.Channel {
	case model.ChannelEmail:
		return e.sendEmail(ctx, prospect, step)
	case model.ChannelSMS:
		return e.sendSMS(ctx, prospect, step)
	}
	return nil, fmt.Errorf("unknown channel %q for step %s", step.Channel, step.Key)
}

func (e *Executor) sendEmail(ctx context.Context, p *model.Prospect, step catalog.Step) (*Result, error) {
	if p.Email == "" {
		return nil, ErrNoEmail
	}
	tmpl, ok := catalog.EmailTemplateForKey(step.Key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, step.Key)
	}
	subject, html := tmpl.Render(p.BusinessName)

	externalID, err := e.email.Send(ctx, p.Email, subject, html)
	if err != nil {
		e.log.Error().Err(err).Str("prospectId", p.ProspectID).Str("templateKey", step.Key).Msg("email send failed")
		return nil, err
	}

	if err := e.persistRecord(ctx, p, step, externalID); err != nil {
		return nil, err
	}
	e.activity.Prospect(ctx, "email_sent", p.ProspectID,
		fmt.Sprintf("Email sent: %s", step.Key), fmt.Sprintf("To: %s", p.Email))
	return &Result{Action: "email:" + step.Key}, nil
}

func (e *Executor) sendSMS(ctx context.Context, p *model.Prospect, step catalog.Step) (*Result, error) {
	if p.Phone == "" {
		return nil, ErrNoPhone
	}
	// Opt-out is enforced here in the send path, not in the planner, so the
	// check cannot be bypassed by callers that skip planning.
	if p.SMSOptOut {
		return nil, ErrOptedOut
	}
	tmpl, ok := catalog.SMSTemplateForKey(step.Key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, step.Key)
	}
	body := tmpl.Render(p.BusinessName)

	externalID, err := e.sms.Send(ctx, p.Phone, e.fromNumber, body)
	if err != nil {
		e.log.Error().Err(err).Str("prospectId", p.ProspectID).Str("templateKey", step.Key).Msg("sms send failed")
		return nil, err
	}

	if err := e.persistRecord(ctx, p, step, externalID); err != nil {
		return nil, err
	}
	e.activity.Prospect(ctx, "sms_sent", p.ProspectID,
		fmt.Sprintf("SMS sent: %s", step.Key), fmt.Sprintf("To: %s", p.Phone))
	return &Result{Action: "sms:" + step.Key}, nil
}

func (e *Executor) persistRecord(ctx context.Context, p *model.Prospect, step catalog.Step, externalID string) error {
	rec := &model.OutreachRecord{
		OutreachID:  uuid.New().String(),
		ProspectID:  p.ProspectID,
		Channel:     step.Channel,
		TemplateKey: step.Key,
		Status:      model.OutreachSent,
		ExternalID:  externalID,
		SentAt:      e.now().UTC(),
	}
	if _, err := e.store.Outreach().Create(ctx, rec); err != nil {
		// The message went out but the record did not land; the planner will
		// pick the same step again and the prospect may receive it twice.
		e.log.Error().Err(err).Str("prospectId", p.ProspectID).Str("templateKey", step.Key).Msg("outreach record persist failed after send")
		return err
	}
	return nil
}
