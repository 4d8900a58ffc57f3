// Package planner decides what communication, if any, a prospect should
// receive next. The decision is a pure function of the catalog and the
// prospect's outreach history, so re-invoking it before a step actually
// sends is side-effect free.
package planner

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/calltide/outreach-server/internal/catalog"
	"github.com/calltide/outreach-server/internal/model"
	"github.com/calltide/outreach-server/internal/store"
)

// DecisionStatus is the outcome of planning one prospect.
type DecisionStatus string

const (
	// Ready means the step may be executed now.
	Ready DecisionStatus = "ready"
	// Waiting means a step exists but its delay has not elapsed; callers
	// must re-check later, the planner owns no timer.
	Waiting DecisionStatus = "waiting"
	// Complete means every step in the prospect's sequence has executed.
	Complete DecisionStatus = "complete"
)

// Decision is the planner's verdict for one prospect.
type Decision struct {
	Status DecisionStatus
	Step   catalog.Step // zero value when Status is Complete
}

// Plan scans the sequence in order and returns the first step with no
// outreach record. Delay is measured against the single most recent record's
// sentAt, not the previous step of the sequence. A prospect with no history
// gets its first step immediately, whatever that step's configured delay.
//
// history must be ordered newest first, as store.Outreach.ListByProspect
// returns it.
func Plan(seq []catalog.Step, history []*model.OutreachRecord, now time.Time) Decision {
	sent := make(map[string]struct{}, len(history))
	for _, r := range history {
		sent[r.TemplateKey] = struct{}{}
	}

	for _, step := range seq {
		if _, ok := sent[step.Key]; ok {
			continue
		}
		if len(history) > 0 {
			elapsed := now.Sub(history[0].SentAt)
			if elapsed < time.Duration(step.DelayDays)*24*time.Hour {
				return Decision{Status: Waiting, Step: step}
			}
		}
		return Decision{Status: Ready, Step: step}
	}
	return Decision{Status: Complete}
}

// Planner loads prospect state and applies Plan. All mutation lives in the
// executor; the planner only reads.
type Planner struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

func New(s store.Store, log zerolog.Logger) *Planner {
	return &Planner{store: s, log: log, now: time.Now}
}

// SetClock overrides the wall clock, used by tests.
func (p *Planner) SetClock(now func() time.Time) { p.now = now }

// NextStep returns the decision for a prospect along with the prospect
// itself. Unknown prospect ids yield model.ErrNotFound.
func (p *Planner) NextStep(ctx context.Context, prospectID string) (Decision, *model.Prospect, error) {
	prospect, err := p.store.Prospects().Get(ctx, prospectID)
	if err != nil {
		return Decision{}, nil, err
	}

	history, err := p.store.Outreach().ListByProspect(ctx, prospectID)
	if err != nil {
		return Decision{}, nil, err
	}

	d := Plan(catalog.ForAuditResult(prospect.AuditResult), history, p.now())
	p.log.Debug().
		Str("prospectId", prospectID).
		Str("status", string(d.Status)).
		Str("templateKey", d.Step.Key).
		Msg("planned next step")
	return d, prospect, nil
}
