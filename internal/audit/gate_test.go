package audit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/calltide/outreach-server/internal/activity"
	"github.com/calltide/outreach-server/internal/model"
	"github.com/calltide/outreach-server/internal/store/memory"
	"github.com/calltide/outreach-server/internal/telephony"
)

type fakeDialer struct {
	calls []telephony.PlaceCallRequest
	err   error
}

func (f *fakeDialer) PlaceCall(_ context.Context, req telephony.PlaceCallRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.calls = append(f.calls, req)
	return fmt.Sprintf("CA%04d", len(f.calls)), nil
}

func newGate(t *testing.T, st *memory.Store, d *fakeDialer) *Gate {
	t.Helper()
	log := zerolog.Nop()
	chicago, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}
	g := NewGate(st, d, activity.NewRecorder(st, log), Config{
		Location:        chicago,
		WindowStartHour: 9,
		WindowEndHour:   17,
		DailyCap:        50,
		FromNumber:      "+15125550000",
		ResponseURL:     "http://localhost/api/audit/twiml",
		StatusURL:       "http://localhost/api/audit/status",
		RingTimeoutSecs: 20,
	}, log)
	// 10:00 local, inside the window.
	g.SetClock(func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, chicago) })
	return g
}

func TestScheduleAuditCall_Success(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	dialer := &fakeDialer{}
	g := newGate(t, st, dialer)

	p, _ := st.Prospects().Create(ctx, &model.Prospect{BusinessName: "Biz", Phone: "+15125551234"})

	callID, err := g.ScheduleAuditCall(ctx, p.ProspectID)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(dialer.calls) != 1 {
		t.Fatalf("want 1 placed call, got %d", len(dialer.calls))
	}
	req := dialer.calls[0]
	if req.To != "+15125551234" || !req.MachineDetection || req.RingTimeoutSecs != 20 {
		t.Fatalf("place call request wrong: %+v", req)
	}

	call, err := st.AuditCalls().GetByProviderID(ctx, "CA0001")
	if err != nil || call.CallID != callID {
		t.Fatalf("call record not found by provider id: %v", err)
	}
	if call.Status != model.CallInitiated {
		t.Fatalf("want initiated, got %s", call.Status)
	}

	got, _ := st.Prospects().Get(ctx, p.ProspectID)
	if got.Status != model.StatusAuditScheduled {
		t.Fatalf("prospect status want audit_scheduled, got %s", got.Status)
	}
}

func TestScheduleAuditCall_OutsideWindow(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	g := newGate(t, st, &fakeDialer{})
	chicago, _ := time.LoadLocation("America/Chicago")

	for _, hour := range []int{8, 17, 22} {
		g.SetClock(func() time.Time { return time.Date(2026, 3, 2, hour, 30, 0, 0, chicago) })
		_, err := g.ScheduleAuditCall(ctx, "any")
		if !errors.Is(err, ErrOutsideCallWindow) {
			t.Fatalf("hour %d: want ErrOutsideCallWindow, got %v", hour, err)
		}
	}

	// Boundary: 09:00 is inside, 16:59 is inside.
	p, _ := st.Prospects().Create(ctx, &model.Prospect{BusinessName: "Biz", Phone: "+15125551234"})
	g.SetClock(func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, chicago) })
	if _, err := g.ScheduleAuditCall(ctx, p.ProspectID); err != nil {
		t.Fatalf("09:00 should be inside the window: %v", err)
	}
}

func TestScheduleAuditCall_DailyCap(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	dialer := &fakeDialer{}
	g := newGate(t, st, dialer)

	for i := 0; i < 50; i++ {
		_, _ = st.AuditCalls().Create(ctx, &model.AuditCall{
			ProspectID: "p", FromNumber: "+1", ToNumber: "+1",
			Status: model.CallCompleted, ScheduledAt: time.Now().UTC(),
		})
	}

	p, _ := st.Prospects().Create(ctx, &model.Prospect{BusinessName: "Biz", Phone: "+15125551234"})
	_, err := g.ScheduleAuditCall(ctx, p.ProspectID)
	if !errors.Is(err, ErrDailyCapReached) {
		t.Fatalf("want ErrDailyCapReached, got %v", err)
	}
	if len(dialer.calls) != 0 {
		t.Fatal("capped gate must not dial")
	}
}

func TestScheduleAuditCall_NoPhoneAndUnknownProspect(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	g := newGate(t, st, &fakeDialer{})

	p, _ := st.Prospects().Create(ctx, &model.Prospect{BusinessName: "NoPhone"})
	if _, err := g.ScheduleAuditCall(ctx, p.ProspectID); !errors.Is(err, ErrNoPhone) {
		t.Fatalf("want ErrNoPhone, got %v", err)
	}
	if _, err := g.ScheduleAuditCall(ctx, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestScheduleAuditCall_DialFailure(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	dialer := &fakeDialer{err: errors.New("provider down")}
	g := newGate(t, st, dialer)

	p, _ := st.Prospects().Create(ctx, &model.Prospect{BusinessName: "Biz", Phone: "+15125551234"})
	if _, err := g.ScheduleAuditCall(ctx, p.ProspectID); err == nil {
		t.Fatal("want dial error")
	}

	// Prospect untouched; the call record is marked failed.
	got, _ := st.Prospects().Get(ctx, p.ProspectID)
	if got.Status != model.StatusNew {
		t.Fatalf("prospect must stay new after dial failure, got %s", got.Status)
	}
}

func TestHandleStatusCallback_Classification(t *testing.T) {
	cases := []struct {
		status     model.CallStatus
		answeredBy string
		want       model.AuditResult
	}{
		{model.CallCompleted, "human", model.AuditAnswered},
		{model.CallCompleted, "machine", model.AuditVoicemail},
		{model.CallCompleted, "", model.AuditAnswered},
		{model.CallNoAnswer, "", model.AuditMissed},
		{model.CallBusy, "", model.AuditFailed},
		{model.CallFailed, "", model.AuditFailed},
	}

	for _, tc := range cases {
		t.Run(string(tc.status)+"/"+tc.answeredBy, func(t *testing.T) {
			ctx := context.Background()
			st := memory.New()
			g := newGate(t, st, &fakeDialer{})

			p, _ := st.Prospects().Create(ctx, &model.Prospect{BusinessName: "Biz", Phone: "+15125551234"})
			if _, err := g.ScheduleAuditCall(ctx, p.ProspectID); err != nil {
				t.Fatalf("schedule: %v", err)
			}

			secs := 12
			err := g.HandleStatusCallback(ctx, StatusCallback{
				ProviderCallID: "CA0001",
				Status:         tc.status,
				DurationSecs:   &secs,
				AnsweredBy:     tc.answeredBy,
			})
			if err != nil {
				t.Fatalf("callback: %v", err)
			}

			got, _ := st.Prospects().Get(ctx, p.ProspectID)
			if got.Status != model.StatusAuditComplete {
				t.Fatalf("want audit_complete, got %s", got.Status)
			}
			if got.AuditResult == nil || *got.AuditResult != tc.want {
				t.Fatalf("want result %s, got %v", tc.want, got.AuditResult)
			}

			call, _ := st.AuditCalls().GetByProviderID(ctx, "CA0001")
			if call.CompletedAt == nil || call.DurationSecs == nil || *call.DurationSecs != 12 {
				t.Fatalf("terminal call fields not recorded: %+v", call)
			}
		})
	}
}

func TestHandleStatusCallback_NonTerminal(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	g := newGate(t, st, &fakeDialer{})

	p, _ := st.Prospects().Create(ctx, &model.Prospect{BusinessName: "Biz", Phone: "+15125551234"})
	_, _ = g.ScheduleAuditCall(ctx, p.ProspectID)

	if err := g.HandleStatusCallback(ctx, StatusCallback{ProviderCallID: "CA0001", Status: model.CallRinging}); err != nil {
		t.Fatalf("callback: %v", err)
	}

	got, _ := st.Prospects().Get(ctx, p.ProspectID)
	if got.Status != model.StatusAuditScheduled || got.AuditResult != nil {
		t.Fatalf("ringing must not complete the audit: %+v", got)
	}
	call, _ := st.AuditCalls().GetByProviderID(ctx, "CA0001")
	if call.Status != model.CallRinging || call.CompletedAt != nil {
		t.Fatalf("call not updated for ringing: %+v", call)
	}
}

func TestHandleStatusCallback_UnknownCall(t *testing.T) {
	g := newGate(t, memory.New(), &fakeDialer{})
	if err := g.HandleStatusCallback(context.Background(), StatusCallback{
		ProviderCallID: "CAunknown", Status: model.CallCompleted,
	}); err != nil {
		t.Fatalf("unknown call must be a no-op, got %v", err)
	}
}
