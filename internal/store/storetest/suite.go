package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/calltide/outreach-server/internal/model"
	"github.com/calltide/outreach-server/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// Implementations should provide a clean, isolated store from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	// Prospects
	phone := "+1512555" + uuid.New().String()[:4]
	p, err := s.Prospects().Create(ctx, &model.Prospect{
		BusinessName: "Lakeline Plumbing",
		Phone:        phone,
		Email:        "owner@lakeline.test",
		Vertical:     "plumbing",
		Tags:         []string{"austin"},
		Source:       "manual",
	})
	if err != nil {
		t.Fatalf("CreateProspect: %v", err)
	}
	if p.ProspectID == "" || p.Status != model.StatusNew {
		t.Fatalf("CreateProspect defaults: %+v", p)
	}
	if got, err := s.Prospects().Get(ctx, p.ProspectID); err != nil || got.BusinessName != "Lakeline Plumbing" {
		t.Fatalf("GetProspect: got=%v err=%v", got, err)
	}
	if _, err := s.Prospects().Get(ctx, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetProspect missing: want ErrNotFound, got %v", err)
	}
	if lst, err := s.Prospects().List(ctx, model.ListProspectsRequest{Status: model.StatusNew}); err != nil || len(lst) == 0 {
		t.Fatalf("ListProspects: n=%d err=%v", len(lst), err)
	}
	if lst, err := s.Prospects().ListByPhone(ctx, phone); err != nil || len(lst) != 1 {
		t.Fatalf("ListByPhone: n=%d err=%v", len(lst), err)
	}

	if err := s.Prospects().UpdateStatus(ctx, p.ProspectID, model.StatusOutreachActive); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := s.Prospects().UpdateStatus(ctx, "missing", model.StatusOutreachActive); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("UpdateStatus missing: want ErrNotFound, got %v", err)
	}
	if err := s.Prospects().SetAuditOutcome(ctx, p.ProspectID, model.AuditMissed); err != nil {
		t.Fatalf("SetAuditOutcome: %v", err)
	}
	if got, _ := s.Prospects().Get(ctx, p.ProspectID); got.AuditResult == nil || *got.AuditResult != model.AuditMissed || got.Status != model.StatusAuditComplete {
		t.Fatalf("SetAuditOutcome not persisted: %+v", got)
	}
	if err := s.Prospects().SetSMSOptOut(ctx, p.ProspectID, true); err != nil {
		t.Fatalf("SetSMSOptOut: %v", err)
	}
	if got, _ := s.Prospects().Get(ctx, p.ProspectID); !got.SMSOptOut {
		t.Fatalf("SetSMSOptOut not persisted: %+v", got)
	}

	// Audit calls
	c, err := s.AuditCalls().Create(ctx, &model.AuditCall{
		ProspectID:  p.ProspectID,
		FromNumber:  "+15125550000",
		ToNumber:    phone,
		Status:      model.CallQueued,
		ScheduledAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateAuditCall: %v", err)
	}
	c.ProviderCallID = "CA" + uuid.New().String()
	c.Status = model.CallInitiated
	if err := s.AuditCalls().Update(ctx, c); err != nil {
		t.Fatalf("UpdateAuditCall: %v", err)
	}
	if got, err := s.AuditCalls().GetByProviderID(ctx, c.ProviderCallID); err != nil || got.CallID != c.CallID {
		t.Fatalf("GetByProviderID: got=%v err=%v", got, err)
	}
	if _, err := s.AuditCalls().GetByProviderID(ctx, "CAmissing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetByProviderID missing: want ErrNotFound, got %v", err)
	}
	if n, err := s.AuditCalls().CountCreatedSince(ctx, time.Now().UTC().Add(-time.Hour)); err != nil || n < 1 {
		t.Fatalf("CountCreatedSince: n=%d err=%v", n, err)
	}
	if n, err := s.AuditCalls().CountCreatedSince(ctx, time.Now().UTC().Add(time.Hour)); err != nil || n != 0 {
		t.Fatalf("CountCreatedSince future: n=%d err=%v", n, err)
	}

	// Outreach records, newest first ordering
	base := time.Now().UTC().Add(-48 * time.Hour)
	r1, err := s.Outreach().Create(ctx, &model.OutreachRecord{
		ProspectID:  p.ProspectID,
		Channel:     model.ChannelSMS,
		TemplateKey: "missed_sms_1",
		Status:      model.OutreachSent,
		SentAt:      base,
	})
	if err != nil {
		t.Fatalf("CreateOutreach r1: %v", err)
	}
	extID := "re_" + uuid.New().String()
	r2, err := s.Outreach().Create(ctx, &model.OutreachRecord{
		ProspectID:  p.ProspectID,
		Channel:     model.ChannelEmail,
		TemplateKey: "missed_call_1",
		Status:      model.OutreachSent,
		ExternalID:  extID,
		SentAt:      base.Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateOutreach r2: %v", err)
	}
	hist, err := s.Outreach().ListByProspect(ctx, p.ProspectID)
	if err != nil || len(hist) != 2 {
		t.Fatalf("ListByProspect: n=%d err=%v", len(hist), err)
	}
	if hist[0].OutreachID != r2.OutreachID || hist[1].OutreachID != r1.OutreachID {
		t.Fatalf("ListByProspect order: want newest first, got %s then %s", hist[0].TemplateKey, hist[1].TemplateKey)
	}
	if got, err := s.Outreach().GetByExternalID(ctx, extID); err != nil || got.OutreachID != r2.OutreachID {
		t.Fatalf("GetByExternalID: got=%v err=%v", got, err)
	}
	if _, err := s.Outreach().GetByExternalID(ctx, "re_missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetByExternalID missing: want ErrNotFound, got %v", err)
	}
	openedAt := time.Now().UTC()
	if err := s.Outreach().UpdateDelivery(ctx, r2.OutreachID, model.OutreachOpened, &openedAt); err != nil {
		t.Fatalf("UpdateDelivery: %v", err)
	}
	if got, _ := s.Outreach().GetByExternalID(ctx, extID); got.Status != model.OutreachOpened || got.OpenedAt == nil {
		t.Fatalf("UpdateDelivery not persisted: %+v", got)
	}
	if err := s.Outreach().UpdateDelivery(ctx, "missing", model.OutreachBounced, nil); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("UpdateDelivery missing: want ErrNotFound, got %v", err)
	}

	// Activity
	if err := s.Activity().Append(ctx, &model.ActivityEntry{
		Type:       "audit_call",
		EntityType: "prospect",
		EntityID:   p.ProspectID,
		Title:      "Audit call scheduled",
	}); err != nil {
		t.Fatalf("AppendActivity: %v", err)
	}
	if lst, err := s.Activity().Recent(ctx, 10); err != nil || len(lst) == 0 {
		t.Fatalf("RecentActivity: n=%d err=%v", len(lst), err)
	}
}
