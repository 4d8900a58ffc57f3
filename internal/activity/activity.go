// Package activity writes the append-only operator trail. The engine never
// reads these entries back; a failed write is logged and swallowed so it can
// never fail the operation that produced it.
package activity

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/calltide/outreach-server/internal/model"
	"github.com/calltide/outreach-server/internal/store"
)

type Recorder struct {
	store store.Store
	log   zerolog.Logger
}

func NewRecorder(s store.Store, log zerolog.Logger) *Recorder {
	return &Recorder{store: s, log: log}
}

// Record appends one entry to the activity trail.
func (r *Recorder) Record(ctx context.Context, entryType, entityType, entityID, title, detail string) {
	e := &model.ActivityEntry{
		ActivityID: uuid.New().String(),
		Type:       entryType,
		EntityType: entityType,
		EntityID:   entityID,
		Title:      title,
		Detail:     detail,
	}
	if err := r.store.Activity().Append(ctx, e); err != nil {
		r.log.Warn().Err(err).Str("type", entryType).Str("entityId", entityID).Msg("activity append failed")
	}
}

// Prospect is shorthand for an entry referencing a prospect.
func (r *Recorder) Prospect(ctx context.Context, entryType, prospectID, title, detail string) {
	r.Record(ctx, entryType, "prospect", prospectID, title, detail)
}
