// Package sweep advances waiting prospects without operator action. The
// planner owns no timer, so liveness comes from this periodic pass over
// every outreach_active prospect.
package sweep

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/calltide/outreach-server/internal/executor"
	"github.com/calltide/outreach-server/internal/model"
	"github.com/calltide/outreach-server/internal/store"
)

// Config controls sweep cadence and batch size.
type Config struct {
	Interval  time.Duration
	BatchSize int // max prospects considered per cycle
}

// Worker periodically invokes the executor for all active prospects.
type Worker struct {
	store    store.Store
	executor *executor.Executor
	cfg      Config
	log      zerolog.Logger
}

func NewWorker(s store.Store, ex *executor.Executor, cfg Config, log zerolog.Logger) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	return &Worker{store: s, executor: ex, cfg: cfg, log: log}
}

// Run starts the sweep loop until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.cfg.Interval).Int("batch", w.cfg.BatchSize).Msg("sweep worker starting")
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("sweep worker stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := w.SweepOnce(ctx); err != nil {
				// Log and continue; per-prospect failures are already isolated.
				w.log.Error().Err(err).Msg("sweep cycle failed")
			}
		}
	}
}

// SweepOnce executes one pass. Waiting and complete results are routine;
// only send failures are worth an error line. One prospect's failure never
// stops the pass.
func (w *Worker) SweepOnce(ctx context.Context) error {
	prospects, err := w.store.Prospects().List(ctx, model.ListProspectsRequest{
		Status: model.StatusOutreachActive,
		Limit:  w.cfg.BatchSize,
	})
	if err != nil {
		return err
	}

	var sent, waiting, complete int
	for _, p := range prospects {
		res, err := w.executor.ExecuteNextStep(ctx, p.ProspectID)
		if err != nil {
			w.log.Error().Err(err).Str("prospectId", p.ProspectID).Msg("sweep step failed")
			continue
		}
		switch res.Action {
		case executor.ActionWaiting:
			waiting++
		case executor.ActionComplete:
			complete++
		default:
			sent++
			w.log.Info().Str("prospectId", p.ProspectID).Str("action", res.Action).Msg("sweep sent step")
		}
	}

	w.log.Debug().
		Int("considered", len(prospects)).
		Int("sent", sent).
		Int("waiting", waiting).
		Int("complete", complete).
		Msg("sweep cycle done")
	return nil
}
