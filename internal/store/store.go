package store

import (
	"context"
	"time"

	"github.com/calltide/outreach-server/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, sqlite, memory).
type Store interface {
	Prospects() Prospects
	AuditCalls() AuditCalls
	Outreach() Outreach
	Activity() Activity
}

type Prospects interface {
	Create(ctx context.Context, p *model.Prospect) (*model.Prospect, error)
	Get(ctx context.Context, prospectID string) (*model.Prospect, error)
	List(ctx context.Context, req model.ListProspectsRequest) ([]*model.Prospect, error)
	ListByPhone(ctx context.Context, phone string) ([]*model.Prospect, error)
	UpdateStatus(ctx context.Context, prospectID string, status model.ProspectStatus) error
	// SetAuditOutcome records the terminal audit classification and moves the
	// prospect to audit_complete in one write.
	SetAuditOutcome(ctx context.Context, prospectID string, result model.AuditResult) error
	SetSMSOptOut(ctx context.Context, prospectID string, optOut bool) error
}

type AuditCalls interface {
	Create(ctx context.Context, c *model.AuditCall) (*model.AuditCall, error)
	GetByProviderID(ctx context.Context, providerCallID string) (*model.AuditCall, error)
	Update(ctx context.Context, c *model.AuditCall) error
	// CountCreatedSince counts audit call records created at or after t,
	// used to enforce the daily call cap.
	CountCreatedSince(ctx context.Context, t time.Time) (int, error)
}

type Outreach interface {
	Create(ctx context.Context, r *model.OutreachRecord) (*model.OutreachRecord, error)
	// ListByProspect returns records ordered by sentAt, newest first.
	ListByProspect(ctx context.Context, prospectID string) ([]*model.OutreachRecord, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.OutreachRecord, error)
	// UpdateDelivery sets the delivery status and, when at is non-nil, the
	// matching opened/clicked timestamp.
	UpdateDelivery(ctx context.Context, outreachID string, status model.OutreachStatus, at *time.Time) error
}

type Activity interface {
	Append(ctx context.Context, e *model.ActivityEntry) error
	Recent(ctx context.Context, limit int) ([]*model.ActivityEntry, error)
}
