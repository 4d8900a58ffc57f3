// Package delivery processes asynchronous provider feedback: email
// open/click/bounce events and inbound SMS opt-outs.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/calltide/outreach-server/internal/activity"
	"github.com/calltide/outreach-server/internal/model"
	"github.com/calltide/outreach-server/internal/store"
)

type Service struct {
	store    store.Store
	activity *activity.Recorder
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(s store.Store, rec *activity.Recorder, log zerolog.Logger) *Service {
	return &Service{store: s, activity: rec, log: log, now: time.Now}
}

// Email event types as the provider sends them.
const (
	EventOpened  = "email.opened"
	EventClicked = "email.clicked"
	EventBounced = "email.bounced"
)

// HandleEmailEvent updates the outreach record matching the provider's email
// id. Events for unknown ids and unrecognized event types are no-ops.
func (s *Service) HandleEmailEvent(ctx context.Context, eventType, externalEmailID string) error {
	rec, err := s.store.Outreach().GetByExternalID(ctx, externalEmailID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil
		}
		return err
	}

	now := s.now().UTC()
	switch eventType {
	case EventOpened:
		if err := s.store.Outreach().UpdateDelivery(ctx, rec.OutreachID, model.OutreachOpened, &now); err != nil {
			return err
		}
		s.activity.Prospect(ctx, "email_opened", rec.ProspectID, "Email opened", rec.TemplateKey)
	case EventClicked:
		if err := s.store.Outreach().UpdateDelivery(ctx, rec.OutreachID, model.OutreachClicked, &now); err != nil {
			return err
		}
		s.activity.Prospect(ctx, "email_clicked", rec.ProspectID, "Email link clicked", rec.TemplateKey)
	case EventBounced:
		if err := s.store.Outreach().UpdateDelivery(ctx, rec.OutreachID, model.OutreachBounced, nil); err != nil {
			return err
		}
	default:
		s.log.Debug().Str("eventType", eventType).Msg("ignoring email event")
	}
	return nil
}

// HandleInboundSMS processes a reply from a prospect. A body of exactly
// "STOP" (after trimming and case folding) opts out every prospect with the
// sending phone number; anything else is ignored by this path.
func (s *Service) HandleInboundSMS(ctx context.Context, fromNumber, body string) error {
	if strings.ToUpper(strings.TrimSpace(body)) != "STOP" {
		return nil
	}

	matches, err := s.store.Prospects().ListByPhone(ctx, fromNumber)
	if err != nil {
		return err
	}
	for _, p := range matches {
		if err := s.store.Prospects().SetSMSOptOut(ctx, p.ProspectID, true); err != nil {
			return err
		}
		s.activity.Prospect(ctx, "sms_opt_out", p.ProspectID,
			fmt.Sprintf("SMS opt-out: %s", p.BusinessName),
			fmt.Sprintf("Phone: %s", fromNumber))
		s.log.Info().Str("prospectId", p.ProspectID).Msg("prospect opted out of SMS")
	}
	return nil
}
