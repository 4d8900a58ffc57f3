package activity

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/calltide/outreach-server/internal/model"
	"github.com/calltide/outreach-server/internal/store"
	"github.com/calltide/outreach-server/internal/store/memory"
)

func TestRecordAppendsEntry(t *testing.T) {
	st := memory.New()
	rec := NewRecorder(st, zerolog.Nop())
	ctx := context.Background()

	rec.Record(ctx, "system", "system", "", "Sweep started", "batch of 10")
	rec.Prospect(ctx, "audit_scheduled", "p1", "Audit call scheduled", "")

	entries, err := st.Activity().Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.ActivityID == "" {
			t.Errorf("entry %q missing activity id", e.Title)
		}
	}
	var prospect *model.ActivityEntry
	for _, e := range entries {
		if e.Type == "audit_scheduled" {
			prospect = e
		}
	}
	if prospect == nil {
		t.Fatal("prospect entry not found")
	}
	if prospect.EntityType != "prospect" || prospect.EntityID != "p1" {
		t.Errorf("unexpected entity ref: %s/%s", prospect.EntityType, prospect.EntityID)
	}
}

type failingActivityStore struct {
	store.Store
}

func (failingActivityStore) Activity() store.Activity { return failingActivity{} }

type failingActivity struct{}

func (failingActivity) Append(context.Context, *model.ActivityEntry) error {
	return errors.New("disk full")
}

func (failingActivity) Recent(context.Context, int) ([]*model.ActivityEntry, error) {
	return nil, errors.New("disk full")
}

func TestRecordSwallowsAppendFailure(t *testing.T) {
	rec := NewRecorder(failingActivityStore{Store: memory.New()}, zerolog.Nop())

	// Must not panic or surface the error.
	rec.Record(context.Background(), "system", "system", "", "Sweep started", "")
}
