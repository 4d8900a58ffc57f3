package executor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/calltide/outreach-server/internal/activity"
	"github.com/calltide/outreach-server/internal/model"
	"github.com/calltide/outreach-server/internal/planner"
	"github.com/calltide/outreach-server/internal/store/memory"
)

type fakeEmail struct {
	mu    sync.Mutex
	sent  []string // "to|subject"
	err   error
	count int
}

func (f *fakeEmail) Send(_ context.Context, to, subject, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, to+"|"+subject)
	return "re_fake", nil
}

type fakeSMS struct {
	mu    sync.Mutex
	sent  []string // "to|body"
	err   error
	count int
}

func (f *fakeSMS) Send(_ context.Context, to, _, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, to+"|"+body)
	return "SM_fake", nil
}

func newExecutor(t *testing.T, st *memory.Store, email *fakeEmail, sms *fakeSMS) *Executor {
	t.Helper()
	log := zerolog.Nop()
	p := planner.New(st, log)
	rec := activity.NewRecorder(st, log)
	return New(st, p, email, sms, rec, "+15125550000", log)
}

func TestExecuteNextStep_SendsOpenerAndPersists(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	email, sms := &fakeEmail{}, &fakeSMS{}
	ex := newExecutor(t, st, email, sms)

	p, _ := st.Prospects().Create(ctx, &model.Prospect{
		BusinessName: "Biz", Phone: "+15125551234", Email: "biz@example.test",
	})

	res, err := ex.ExecuteNextStep(ctx, p.ProspectID)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.Action != "sms:missed_sms_1" {
		t.Fatalf("want sms opener, got %s", res.Action)
	}
	if len(sms.sent) != 1 {
		t.Fatalf("want 1 sms sent, got %d", len(sms.sent))
	}

	hist, _ := st.Outreach().ListByProspect(ctx, p.ProspectID)
	if len(hist) != 1 || hist[0].TemplateKey != "missed_sms_1" || hist[0].ExternalID != "SM_fake" {
		t.Fatalf("record not persisted correctly: %+v", hist)
	}
	if hist[0].Status != model.OutreachSent {
		t.Fatalf("record status want sent, got %s", hist[0].Status)
	}
}

func TestExecuteNextStep_WaitingThenEmail(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	email, sms := &fakeEmail{}, &fakeSMS{}
	ex := newExecutor(t, st, email, sms)

	p, _ := st.Prospects().Create(ctx, &model.Prospect{
		BusinessName: "Biz", Phone: "+15125551234", Email: "biz@example.test",
	})
	_, _ = st.Outreach().Create(ctx, &model.OutreachRecord{
		ProspectID: p.ProspectID, Channel: model.ChannelSMS,
		TemplateKey: "missed_sms_1", Status: model.OutreachSent,
		SentAt: time.Now().UTC().Add(-2 * time.Hour),
	})

	res, err := ex.ExecuteNextStep(ctx, p.ProspectID)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.Action != ActionWaiting {
		t.Fatalf("want waiting inside delay, got %s", res.Action)
	}
	if email.count+sms.count != 0 {
		t.Fatal("nothing should have been sent while waiting")
	}

	// Advance past the one-day delay and the email step fires.
	ex.SetClock(func() time.Time { return time.Now().UTC().Add(26 * time.Hour) })
	exPlanner := planner.New(st, zerolog.Nop())
	exPlanner.SetClock(func() time.Time { return time.Now().UTC().Add(26 * time.Hour) })
	ex.planner = exPlanner

	res, err = ex.ExecuteNextStep(ctx, p.ProspectID)
	if err != nil {
		t.Fatalf("execute after delay: %v", err)
	}
	if res.Action != "email:missed_call_1" {
		t.Fatalf("want email step, got %s", res.Action)
	}
	if len(email.sent) != 1 {
		t.Fatalf("want 1 email sent, got %d", len(email.sent))
	}
}

func TestExecuteNextStep_Complete(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	ex := newExecutor(t, st, &fakeEmail{}, &fakeSMS{})

	answered := model.AuditAnswered
	p, _ := st.Prospects().Create(ctx, &model.Prospect{
		BusinessName: "Biz", Email: "biz@example.test", AuditResult: &answered,
	})
	_, _ = st.Outreach().Create(ctx, &model.OutreachRecord{
		ProspectID: p.ProspectID, Channel: model.ChannelEmail,
		TemplateKey: "answered_1", Status: model.OutreachSent,
		SentAt: time.Now().UTC().Add(-48 * time.Hour),
	})

	res, err := ex.ExecuteNextStep(ctx, p.ProspectID)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.Action != ActionComplete {
		t.Fatalf("want sequence complete, got %s", res.Action)
	}
}

func TestExecuteNextStep_MissingContactInfo(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	ex := newExecutor(t, st, &fakeEmail{}, &fakeSMS{})

	// SMS opener with no phone.
	p, _ := st.Prospects().Create(ctx, &model.Prospect{BusinessName: "NoPhone", Email: "x@example.test"})
	if _, err := ex.ExecuteNextStep(ctx, p.ProspectID); !errors.Is(err, ErrNoPhone) {
		t.Fatalf("want ErrNoPhone, got %v", err)
	}

	// Email step with no email.
	answered := model.AuditAnswered
	p2, _ := st.Prospects().Create(ctx, &model.Prospect{BusinessName: "NoEmail", Phone: "+15125551111", AuditResult: &answered})
	if _, err := ex.ExecuteNextStep(ctx, p2.ProspectID); !errors.Is(err, ErrNoEmail) {
		t.Fatalf("want ErrNoEmail, got %v", err)
	}

	// Neither failure creates an outreach record.
	for _, id := range []string{p.ProspectID, p2.ProspectID} {
		if hist, _ := st.Outreach().ListByProspect(ctx, id); len(hist) != 0 {
			t.Fatalf("rejection must not persist a record, got %d", len(hist))
		}
	}
}

func TestExecuteNextStep_OptedOut(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	sms := &fakeSMS{}
	ex := newExecutor(t, st, &fakeEmail{}, sms)

	p, _ := st.Prospects().Create(ctx, &model.Prospect{
		BusinessName: "Biz", Phone: "+15125551234", SMSOptOut: true,
	})
	if _, err := ex.ExecuteNextStep(ctx, p.ProspectID); !errors.Is(err, ErrOptedOut) {
		t.Fatalf("want ErrOptedOut, got %v", err)
	}
	if sms.count != 0 {
		t.Fatal("opted-out prospect must not be messaged")
	}
}

func TestExecuteNextStep_SenderFailureLeavesStepEligible(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	sms := &fakeSMS{err: errors.New("provider down")}
	ex := newExecutor(t, st, &fakeEmail{}, sms)

	p, _ := st.Prospects().Create(ctx, &model.Prospect{
		BusinessName: "Biz", Phone: "+15125551234",
	})
	if _, err := ex.ExecuteNextStep(ctx, p.ProspectID); err == nil {
		t.Fatal("want send error")
	}
	if hist, _ := st.Outreach().ListByProspect(ctx, p.ProspectID); len(hist) != 0 {
		t.Fatal("failed send must not persist a record")
	}

	// Provider recovers; the same step retries and succeeds.
	sms.err = nil
	res, err := ex.ExecuteNextStep(ctx, p.ProspectID)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if res.Action != "sms:missed_sms_1" {
		t.Fatalf("retry should send the same step, got %s", res.Action)
	}
}

func TestExecuteNextStep_ConcurrentCallsSendOnce(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	sms := &fakeSMS{}
	ex := newExecutor(t, st, &fakeEmail{}, sms)

	p, _ := st.Prospects().Create(ctx, &model.Prospect{
		BusinessName: "Biz", Phone: "+15125551234",
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = ex.ExecuteNextStep(ctx, p.ProspectID)
		}()
	}
	wg.Wait()

	if len(sms.sent) != 1 {
		t.Fatalf("concurrent executions must send the opener once, got %d", len(sms.sent))
	}
	hist, _ := st.Outreach().ListByProspect(ctx, p.ProspectID)
	if len(hist) != 1 {
		t.Fatalf("want exactly 1 record, got %d", len(hist))
	}
}
