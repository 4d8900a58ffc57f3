// Package orchestrator is the operator-facing trigger surface: start and
// pause a prospect's outreach sequence, singly or in bulk.
package orchestrator

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/calltide/outreach-server/internal/activity"
	"github.com/calltide/outreach-server/internal/executor"
	"github.com/calltide/outreach-server/internal/model"
	"github.com/calltide/outreach-server/internal/store"
)

type Orchestrator struct {
	store    store.Store
	executor *executor.Executor
	activity *activity.Recorder
	log      zerolog.Logger
}

func New(s store.Store, ex *executor.Executor, rec *activity.Recorder, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{store: s, executor: ex, activity: rec, log: log}
}

// StartOutreach activates a prospect's sequence and immediately fires the
// first eligible step, typically the zero-delay opener.
func (o *Orchestrator) StartOutreach(ctx context.Context, prospectID string) (*executor.Result, error) {
	if err := o.store.Prospects().UpdateStatus(ctx, prospectID, model.StatusOutreachActive); err != nil {
		return nil, err
	}
	o.activity.Prospect(ctx, "outreach_started", prospectID, "Outreach sequence started", "")
	return o.executor.ExecuteNextStep(ctx, prospectID)
}

// PauseOutreach marks the prospect paused. Sends are synchronous so there is
// nothing in flight to cancel; the status is advisory and excludes the
// prospect from the sweep.
func (o *Orchestrator) PauseOutreach(ctx context.Context, prospectID string) error {
	if err := o.store.Prospects().UpdateStatus(ctx, prospectID, model.StatusOutreachPaused); err != nil {
		return err
	}
	o.activity.Prospect(ctx, "outreach_paused", prospectID, "Outreach sequence paused", "")
	return nil
}

// ItemResult is one prospect's outcome within a bulk operation.
type ItemResult struct {
	ProspectID string `json:"prospectId"`
	Success    bool   `json:"success"`
	Action     string `json:"action,omitempty"`
	Error      string `json:"error,omitempty"`
}

// StartOutreachBulk applies StartOutreach to each id independently. One
// item's failure never aborts the remaining items.
func (o *Orchestrator) StartOutreachBulk(ctx context.Context, prospectIDs []string) []ItemResult {
	results := make([]ItemResult, 0, len(prospectIDs))
	for _, id := range prospectIDs {
		res, err := o.StartOutreach(ctx, id)
		if err != nil {
			o.log.Warn().Err(err).Str("prospectId", id).Msg("bulk start item failed")
			results = append(results, ItemResult{ProspectID: id, Error: err.Error()})
			continue
		}
		results = append(results, ItemResult{ProspectID: id, Success: true, Action: res.Action})
	}
	return results
}

// PauseOutreachBulk applies PauseOutreach to each id independently.
func (o *Orchestrator) PauseOutreachBulk(ctx context.Context, prospectIDs []string) []ItemResult {
	results := make([]ItemResult, 0, len(prospectIDs))
	for _, id := range prospectIDs {
		if err := o.PauseOutreach(ctx, id); err != nil {
			o.log.Warn().Err(err).Str("prospectId", id).Msg("bulk pause item failed")
			results = append(results, ItemResult{ProspectID: id, Error: err.Error()})
			continue
		}
		results = append(results, ItemResult{ProspectID: id, Success: true, Action: "paused"})
	}
	return results
}
