package orchestrator

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/calltide/outreach-server/internal/activity"
	"github.com/calltide/outreach-server/internal/executor"
	"github.com/calltide/outreach-server/internal/model"
	"github.com/calltide/outreach-server/internal/planner"
	"github.com/calltide/outreach-server/internal/store/memory"
)

type stubEmail struct{ n int }

func (s *stubEmail) Send(context.Context, string, string, string) (string, error) {
	s.n++
	return "re_stub", nil
}

type stubSMS struct{ n int }

func (s *stubSMS) Send(context.Context, string, string, string) (string, error) {
	s.n++
	return "SM_stub", nil
}

func newOrchestrator(st *memory.Store) (*Orchestrator, *stubSMS) {
	log := zerolog.Nop()
	rec := activity.NewRecorder(st, log)
	sms := &stubSMS{}
	ex := executor.New(st, planner.New(st, log), &stubEmail{}, sms, rec, "+15125550000", log)
	return New(st, ex, rec, log), sms
}

func TestStartOutreach_ActivatesAndFiresOpener(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	o, sms := newOrchestrator(st)

	p, _ := st.Prospects().Create(ctx, &model.Prospect{BusinessName: "Biz", Phone: "+15125551234"})

	res, err := o.StartOutreach(ctx, p.ProspectID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if res.Action != "sms:missed_sms_1" {
		t.Fatalf("want opener sent, got %s", res.Action)
	}
	if sms.n != 1 {
		t.Fatalf("want 1 sms, got %d", sms.n)
	}

	got, _ := st.Prospects().Get(ctx, p.ProspectID)
	if got.Status != model.StatusOutreachActive {
		t.Fatalf("want outreach_active, got %s", got.Status)
	}
}

func TestPauseOutreach(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	o, _ := newOrchestrator(st)

	p, _ := st.Prospects().Create(ctx, &model.Prospect{BusinessName: "Biz", Phone: "+15125551234"})
	if err := o.PauseOutreach(ctx, p.ProspectID); err != nil {
		t.Fatalf("pause: %v", err)
	}
	got, _ := st.Prospects().Get(ctx, p.ProspectID)
	if got.Status != model.StatusOutreachPaused {
		t.Fatalf("want outreach_paused, got %s", got.Status)
	}
}

func TestStartOutreachBulk_FailureIsolation(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	o, sms := newOrchestrator(st)

	p1, _ := st.Prospects().Create(ctx, &model.Prospect{BusinessName: "One", Phone: "+15125551111"})
	p2, _ := st.Prospects().Create(ctx, &model.Prospect{BusinessName: "Two", Phone: "+15125552222"})

	results := o.StartOutreachBulk(ctx, []string{p1.ProspectID, "missing", p2.ProspectID})
	if len(results) != 3 {
		t.Fatalf("want 3 results, got %d", len(results))
	}
	if !results[0].Success || results[1].Success || !results[2].Success {
		t.Fatalf("unexpected success flags: %+v", results)
	}
	if results[1].Error == "" {
		t.Fatal("failed item must carry the error")
	}
	if sms.n != 2 {
		t.Fatalf("both valid prospects should be messaged, got %d", sms.n)
	}
}

func TestPauseOutreachBulk_FailureIsolation(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	o, _ := newOrchestrator(st)

	p, _ := st.Prospects().Create(ctx, &model.Prospect{BusinessName: "Biz"})
	results := o.PauseOutreachBulk(ctx, []string{"missing", p.ProspectID})
	if results[0].Success || !results[1].Success {
		t.Fatalf("unexpected results: %+v", results)
	}
}
