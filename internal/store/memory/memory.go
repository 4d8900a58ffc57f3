// Package memory provides a mutex-guarded in-memory store used by unit
// tests and local development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/calltide/outreach-server/internal/model"
	"github.com/calltide/outreach-server/internal/store"
)

type Store struct {
	mu        sync.Mutex
	prospects map[string]*model.Prospect
	calls     map[string]*model.AuditCall
	outreach  map[string]*model.OutreachRecord
	activity  []*model.ActivityEntry
}

func New() *Store {
	return &Store{
		prospects: make(map[string]*model.Prospect),
		calls:     make(map[string]*model.AuditCall),
		outreach:  make(map[string]*model.OutreachRecord),
	}
}

func (s *Store) Prospects() store.Prospects   { return &prospects{s} }
func (s *Store) AuditCalls() store.AuditCalls { return &auditCalls{s} }
func (s *Store) Outreach() store.Outreach     { return &outreach{s} }
func (s *Store) Activity() store.Activity     { return &activity{s} }

// HealthPing implements health probing for the in-memory store.
func (s *Store) HealthPing(ctx context.Context) error { return nil }

func clone[T any](v *T) *T {
	cp := *v
	return &cp
}

// --- Prospects ---

type prospects struct{ p *Store }

func (ps *prospects) Create(_ context.Context, p *model.Prospect) (*model.Prospect, error) {
	ps.p.mu.Lock()
	defer ps.p.mu.Unlock()
	out := clone(p)
	if out.ProspectID == "" {
		out.ProspectID = uuid.New().String()
	}
	now := time.Now().UTC()
	out.CreationTime = now
	out.UpdateTime = now
	if out.Status == "" {
		out.Status = model.StatusNew
	}
	ps.p.prospects[out.ProspectID] = out
	return clone(out), nil
}

func (ps *prospects) Get(_ context.Context, id string) (*model.Prospect, error) {
	ps.p.mu.Lock()
	defer ps.p.mu.Unlock()
	p, ok := ps.p.prospects[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return clone(p), nil
}

func (ps *prospects) List(_ context.Context, req model.ListProspectsRequest) ([]*model.Prospect, error) {
	ps.p.mu.Lock()
	defer ps.p.mu.Unlock()
	var res []*model.Prospect
	for _, p := range ps.p.prospects {
		if req.Status != "" && p.Status != req.Status {
			continue
		}
		res = append(res, clone(p))
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreationTime.After(res[j].CreationTime) })
	if req.Limit > 0 && len(res) > req.Limit {
		res = res[:req.Limit]
	}
	return res, nil
}

func (ps *prospects) ListByPhone(_ context.Context, phone string) ([]*model.Prospect, error) {
	ps.p.mu.Lock()
	defer ps.p.mu.Unlock()
	var res []*model.Prospect
	for _, p := range ps.p.prospects {
		if p.Phone == phone {
			res = append(res, clone(p))
		}
	}
	return res, nil
}

func (ps *prospects) UpdateStatus(_ context.Context, id string, status model.ProspectStatus) error {
	ps.p.mu.Lock()
	defer ps.p.mu.Unlock()
	p, ok := ps.p.prospects[id]
	if !ok {
		return model.ErrNotFound
	}
	p.Status = status
	p.UpdateTime = time.Now().UTC()
	return nil
}

func (ps *prospects) SetAuditOutcome(_ context.Context, id string, result model.AuditResult) error {
	ps.p.mu.Lock()
	defer ps.p.mu.Unlock()
	p, ok := ps.p.prospects[id]
	if !ok {
		return model.ErrNotFound
	}
	p.AuditResult = &result
	p.Status = model.StatusAuditComplete
	p.UpdateTime = time.Now().UTC()
	return nil
}

func (ps *prospects) SetSMSOptOut(_ context.Context, id string, optOut bool) error {
	ps.p.mu.Lock()
	defer ps.p.mu.Unlock()
	p, ok := ps.p.prospects[id]
	if !ok {
		return model.ErrNotFound
	}
	p.SMSOptOut = optOut
	p.UpdateTime = time.Now().UTC()
	return nil
}

// --- AuditCalls ---

type auditCalls struct{ p *Store }

func (ac *auditCalls) Create(_ context.Context, c *model.AuditCall) (*model.AuditCall, error) {
	ac.p.mu.Lock()
	defer ac.p.mu.Unlock()
	out := clone(c)
	if out.CallID == "" {
		out.CallID = uuid.New().String()
	}
	out.CreationTime = time.Now().UTC()
	ac.p.calls[out.CallID] = out
	return clone(out), nil
}

func (ac *auditCalls) GetByProviderID(_ context.Context, providerCallID string) (*model.AuditCall, error) {
	ac.p.mu.Lock()
	defer ac.p.mu.Unlock()
	for _, c := range ac.p.calls {
		if c.ProviderCallID == providerCallID && providerCallID != "" {
			return clone(c), nil
		}
	}
	return nil, model.ErrNotFound
}

func (ac *auditCalls) Update(_ context.Context, c *model.AuditCall) error {
	ac.p.mu.Lock()
	defer ac.p.mu.Unlock()
	cur, ok := ac.p.calls[c.CallID]
	if !ok {
		return model.ErrNotFound
	}
	upd := clone(c)
	upd.CreationTime = cur.CreationTime
	ac.p.calls[c.CallID] = upd
	return nil
}

func (ac *auditCalls) CountCreatedSince(_ context.Context, t time.Time) (int, error) {
	ac.p.mu.Lock()
	defer ac.p.mu.Unlock()
	n := 0
	for _, c := range ac.p.calls {
		if !c.CreationTime.Before(t) {
			n++
		}
	}
	return n, nil
}

// --- Outreach ---

type outreach struct{ p *Store }

func (o *outreach) Create(_ context.Context, r *model.OutreachRecord) (*model.OutreachRecord, error) {
	o.p.mu.Lock()
	defer o.p.mu.Unlock()
	out := clone(r)
	if out.OutreachID == "" {
		out.OutreachID = uuid.New().String()
	}
	out.CreationTime = time.Now().UTC()
	if out.SentAt.IsZero() {
		out.SentAt = out.CreationTime
	}
	o.p.outreach[out.OutreachID] = out
	return clone(out), nil
}

func (o *outreach) ListByProspect(_ context.Context, prospectID string) ([]*model.OutreachRecord, error) {
	o.p.mu.Lock()
	defer o.p.mu.Unlock()
	var res []*model.OutreachRecord
	for _, r := range o.p.outreach {
		if r.ProspectID == prospectID {
			res = append(res, clone(r))
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].SentAt.After(res[j].SentAt) })
	return res, nil
}

func (o *outreach) GetByExternalID(_ context.Context, externalID string) (*model.OutreachRecord, error) {
	o.p.mu.Lock()
	defer o.p.mu.Unlock()
	for _, r := range o.p.outreach {
		if r.ExternalID == externalID && externalID != "" {
			return clone(r), nil
		}
	}
	return nil, model.ErrNotFound
}

func (o *outreach) UpdateDelivery(_ context.Context, outreachID string, status model.OutreachStatus, at *time.Time) error {
	o.p.mu.Lock()
	defer o.p.mu.Unlock()
	r, ok := o.p.outreach[outreachID]
	if !ok {
		return model.ErrNotFound
	}
	r.Status = status
	switch status {
	case model.OutreachOpened:
		r.OpenedAt = at
	case model.OutreachClicked:
		r.ClickedAt = at
	}
	return nil
}

// --- Activity ---

type activity struct{ p *Store }

func (a *activity) Append(_ context.Context, e *model.ActivityEntry) error {
	a.p.mu.Lock()
	defer a.p.mu.Unlock()
	out := clone(e)
	if out.ActivityID == "" {
		out.ActivityID = uuid.New().String()
	}
	out.CreationTime = time.Now().UTC()
	a.p.activity = append(a.p.activity, out)
	return nil
}

func (a *activity) Recent(_ context.Context, limit int) ([]*model.ActivityEntry, error) {
	a.p.mu.Lock()
	defer a.p.mu.Unlock()
	res := make([]*model.ActivityEntry, 0, len(a.p.activity))
	for i := len(a.p.activity) - 1; i >= 0; i-- {
		res = append(res, clone(a.p.activity[i]))
		if limit > 0 && len(res) >= limit {
			break
		}
	}
	return res, nil
}
