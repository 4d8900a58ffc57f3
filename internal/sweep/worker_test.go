package sweep

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/calltide/outreach-server/internal/activity"
	"github.com/calltide/outreach-server/internal/executor"
	"github.com/calltide/outreach-server/internal/model"
	"github.com/calltide/outreach-server/internal/planner"
	"github.com/calltide/outreach-server/internal/store/memory"
)

type countingSMS struct {
	n   int
	err error
}

func (c *countingSMS) Send(context.Context, string, string, string) (string, error) {
	c.n++
	if c.err != nil {
		return "", c.err
	}
	return "SM_sweep", nil
}

type countingEmail struct{ n int }

func (c *countingEmail) Send(context.Context, string, string, string) (string, error) {
	c.n++
	return "re_sweep", nil
}

func newTestWorker(st *memory.Store, sms *countingSMS) *Worker {
	log := zerolog.Nop()
	rec := activity.NewRecorder(st, log)
	ex := executor.New(st, planner.New(st, log), &countingEmail{}, sms, rec, "+15125550000", log)
	return NewWorker(st, ex, Config{Interval: time.Hour, BatchSize: 100}, log)
}

func TestSweepOnce_SendsReadySteps(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	sms := &countingSMS{}
	w := newTestWorker(st, sms)

	// Active with no history: opener is ready.
	ready, _ := st.Prospects().Create(ctx, &model.Prospect{
		BusinessName: "Ready", Phone: "+15125551111", Status: model.StatusOutreachActive,
	})
	// Active but mid-delay: nothing to send.
	waiting, _ := st.Prospects().Create(ctx, &model.Prospect{
		BusinessName: "Waiting", Phone: "+15125552222", Status: model.StatusOutreachActive,
	})
	_, _ = st.Outreach().Create(ctx, &model.OutreachRecord{
		ProspectID: waiting.ProspectID, Channel: model.ChannelSMS,
		TemplateKey: "missed_sms_1", Status: model.OutreachSent,
		SentAt: time.Now().UTC().Add(-time.Hour),
	})
	// Paused: excluded from the sweep entirely.
	paused, _ := st.Prospects().Create(ctx, &model.Prospect{
		BusinessName: "Paused", Phone: "+15125553333", Status: model.StatusOutreachPaused,
	})

	if err := w.SweepOnce(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if sms.n != 1 {
		t.Fatalf("want 1 send for the ready prospect, got %d", sms.n)
	}

	hist, _ := st.Outreach().ListByProspect(ctx, ready.ProspectID)
	if len(hist) != 1 {
		t.Fatalf("ready prospect should have a new record, got %d", len(hist))
	}
	for _, id := range []string{waiting.ProspectID, paused.ProspectID} {
		hist, _ := st.Outreach().ListByProspect(ctx, id)
		want := 0
		if id == waiting.ProspectID {
			want = 1 // the seeded record only
		}
		if len(hist) != want {
			t.Fatalf("prospect %s got unexpected sends: %d", id, len(hist))
		}
	}
}

func TestSweepOnce_ProspectFailureDoesNotStopPass(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	sms := &countingSMS{}
	w := newTestWorker(st, sms)

	// First prospect has no phone so its opener fails; second must still send.
	_, _ = st.Prospects().Create(ctx, &model.Prospect{
		BusinessName: "Broken", Status: model.StatusOutreachActive,
	})
	ok, _ := st.Prospects().Create(ctx, &model.Prospect{
		BusinessName: "Fine", Phone: "+15125554444", Status: model.StatusOutreachActive,
	})

	if err := w.SweepOnce(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	hist, _ := st.Outreach().ListByProspect(ctx, ok.ProspectID)
	if len(hist) != 1 {
		t.Fatalf("healthy prospect should still be advanced, got %d records", len(hist))
	}
}

func TestSweepOnce_IsIdempotentWithinDelay(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	sms := &countingSMS{}
	w := newTestWorker(st, sms)

	_, _ = st.Prospects().Create(ctx, &model.Prospect{
		BusinessName: "Biz", Phone: "+15125555555", Status: model.StatusOutreachActive,
	})

	for i := 0; i < 3; i++ {
		if err := w.SweepOnce(ctx); err != nil {
			t.Fatalf("sweep %d: %v", i, err)
		}
	}
	if sms.n != 1 {
		t.Fatalf("repeated sweeps within the delay must send once, got %d", sms.n)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	st := memory.New()
	w := newTestWorker(st, &countingSMS{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("want context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on cancel")
	}
}
