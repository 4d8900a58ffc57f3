// Package sqlite implements store.Store on a local SQLite file. Schema is
// bootstrapped on open, so a fresh deployment needs no migration step.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/calltide/outreach-server/internal/model"
	"github.com/calltide/outreach-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS prospects (
    prospect_id   TEXT PRIMARY KEY,
    place_id      TEXT UNIQUE,
    business_name TEXT NOT NULL,
    phone         TEXT NOT NULL DEFAULT '',
    email         TEXT NOT NULL DEFAULT '',
    website       TEXT NOT NULL DEFAULT '',
    address       TEXT NOT NULL DEFAULT '',
    city          TEXT NOT NULL DEFAULT '',
    state         TEXT NOT NULL DEFAULT '',
    vertical      TEXT NOT NULL DEFAULT '',
    rating        REAL,
    review_count  INTEGER,
    lead_score    INTEGER NOT NULL DEFAULT 0,
    status        TEXT NOT NULL DEFAULT 'new',
    audit_result  TEXT,
    sms_opt_out   INTEGER NOT NULL DEFAULT 0,
    tags          TEXT NOT NULL DEFAULT '[]',
    notes         TEXT NOT NULL DEFAULT '',
    source        TEXT NOT NULL DEFAULT 'manual',
    creation_time TIMESTAMP NOT NULL,
    update_time   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_prospects_status ON prospects(status);
CREATE INDEX IF NOT EXISTS idx_prospects_phone  ON prospects(phone);

CREATE TABLE IF NOT EXISTS audit_calls (
    call_id          TEXT PRIMARY KEY,
    prospect_id      TEXT NOT NULL REFERENCES prospects(prospect_id),
    provider_call_id TEXT,
    from_number      TEXT NOT NULL,
    to_number        TEXT NOT NULL,
    status           TEXT NOT NULL DEFAULT 'queued',
    duration_secs    INTEGER,
    answered_by      TEXT NOT NULL DEFAULT '',
    scheduled_at     TIMESTAMP NOT NULL,
    completed_at     TIMESTAMP,
    creation_time    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_calls_provider ON audit_calls(provider_call_id);
CREATE INDEX IF NOT EXISTS idx_audit_calls_created  ON audit_calls(creation_time);

CREATE TABLE IF NOT EXISTS outreach_records (
    outreach_id   TEXT PRIMARY KEY,
    prospect_id   TEXT NOT NULL REFERENCES prospects(prospect_id),
    channel       TEXT NOT NULL,
    template_key  TEXT NOT NULL,
    status        TEXT NOT NULL DEFAULT 'sent',
    external_id   TEXT,
    sent_at       TIMESTAMP NOT NULL,
    opened_at     TIMESTAMP,
    clicked_at    TIMESTAMP,
    creation_time TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_outreach_prospect ON outreach_records(prospect_id, sent_at);
CREATE INDEX IF NOT EXISTS idx_outreach_external ON outreach_records(external_id);

CREATE TABLE IF NOT EXISTS activity_log (
    activity_id   TEXT PRIMARY KEY,
    type          TEXT NOT NULL,
    entity_type   TEXT NOT NULL DEFAULT '',
    entity_id     TEXT NOT NULL DEFAULT '',
    title         TEXT NOT NULL,
    detail        TEXT NOT NULL DEFAULT '',
    creation_time TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_activity_created ON activity_log(creation_time);
`

type sqliteStore struct{ db *sql.DB }

// New opens the database file and ensures the schema exists.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db)
}

// NewWithDB wires an existing connection (used by factory and tests).
func NewWithDB(db *sql.DB) (store.Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Prospects() store.Prospects   { return &prospects{db: s.db} }
func (s *sqliteStore) AuditCalls() store.AuditCalls { return &auditCalls{db: s.db} }
func (s *sqliteStore) Outreach() store.Outreach     { return &outreach{db: s.db} }
func (s *sqliteStore) Activity() store.Activity     { return &activity{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *sqliteStore) HealthPing(ctx context.Context) error { return s.db.PingContext(ctx) }

// --- Prospects ---

type prospects struct{ db *sql.DB }

func (ps *prospects) Create(ctx context.Context, p *model.Prospect) (*model.Prospect, error) {
	out := *p
	if out.ProspectID == "" {
		out.ProspectID = uuid.New().String()
	}
	if out.Status == "" {
		out.Status = model.StatusNew
	}
	now := time.Now().UTC()
	out.CreationTime = now
	out.UpdateTime = now

	tags, err := json.Marshal(out.Tags)
	if err != nil {
		return nil, err
	}
	var auditResult *string
	if out.AuditResult != nil {
		s := string(*out.AuditResult)
		auditResult = &s
	}
	_, err = ps.db.ExecContext(ctx, `
        INSERT INTO prospects (prospect_id, place_id, business_name, phone, email, website,
            address, city, state, vertical, rating, review_count, lead_score, status,
            audit_result, sms_opt_out, tags, notes, source, creation_time, update_time)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		out.ProspectID, out.PlaceID, out.BusinessName, out.Phone, out.Email, out.Website,
		out.Address, out.City, out.State, out.Vertical, out.Rating, out.ReviewCount,
		out.LeadScore, out.Status, auditResult, out.SMSOptOut, string(tags), out.Notes,
		out.Source, out.CreationTime, out.UpdateTime)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

const prospectColumns = `prospect_id, place_id, business_name, phone, email, website,
    address, city, state, vertical, rating, review_count, lead_score, status,
    audit_result, sms_opt_out, tags, notes, source, creation_time, update_time`

func scanProspect(row interface{ Scan(...any) error }) (*model.Prospect, error) {
	var p model.Prospect
	var auditResult *string
	var tags string
	err := row.Scan(&p.ProspectID, &p.PlaceID, &p.BusinessName, &p.Phone, &p.Email,
		&p.Website, &p.Address, &p.City, &p.State, &p.Vertical, &p.Rating,
		&p.ReviewCount, &p.LeadScore, &p.Status, &auditResult, &p.SMSOptOut,
		&tags, &p.Notes, &p.Source, &p.CreationTime, &p.UpdateTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	if auditResult != nil {
		r := model.AuditResult(*auditResult)
		p.AuditResult = &r
	}
	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return nil, err
	}
	return &p, nil
}

func (ps *prospects) Get(ctx context.Context, id string) (*model.Prospect, error) {
	row := ps.db.QueryRowContext(ctx, `SELECT `+prospectColumns+` FROM prospects WHERE prospect_id = ?`, id)
	return scanProspect(row)
}

func (ps *prospects) List(ctx context.Context, req model.ListProspectsRequest) ([]*model.Prospect, error) {
	q := `SELECT ` + prospectColumns + ` FROM prospects`
	var args []any
	if req.Status != "" {
		q += ` WHERE status = ?`
		args = append(args, req.Status)
	}
	q += ` ORDER BY creation_time DESC`
	if req.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, req.Limit)
	}
	rows, err := ps.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.Prospect
	for rows.Next() {
		p, err := scanProspect(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (ps *prospects) ListByPhone(ctx context.Context, phone string) ([]*model.Prospect, error) {
	rows, err := ps.db.QueryContext(ctx, `SELECT `+prospectColumns+` FROM prospects WHERE phone = ?`, phone)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.Prospect
	for rows.Next() {
		p, err := scanProspect(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (ps *prospects) exec(ctx context.Context, query string, args ...any) error {
	res, err := ps.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (ps *prospects) UpdateStatus(ctx context.Context, id string, status model.ProspectStatus) error {
	return ps.exec(ctx, `UPDATE prospects SET status = ?, update_time = ? WHERE prospect_id = ?`,
		status, time.Now().UTC(), id)
}

func (ps *prospects) SetAuditOutcome(ctx context.Context, id string, result model.AuditResult) error {
	return ps.exec(ctx, `UPDATE prospects SET audit_result = ?, status = ?, update_time = ? WHERE prospect_id = ?`,
		string(result), model.StatusAuditComplete, time.Now().UTC(), id)
}

func (ps *prospects) SetSMSOptOut(ctx context.Context, id string, optOut bool) error {
	return ps.exec(ctx, `UPDATE prospects SET sms_opt_out = ?, update_time = ? WHERE prospect_id = ?`,
		optOut, time.Now().UTC(), id)
}

// --- AuditCalls ---

type auditCalls struct{ db *sql.DB }

func (ac *auditCalls) Create(ctx context.Context, c *model.AuditCall) (*model.AuditCall, error) {
	out := *c
	if out.CallID == "" {
		out.CallID = uuid.New().String()
	}
	out.CreationTime = time.Now().UTC()
	var provider *string
	if out.ProviderCallID != "" {
		provider = &out.ProviderCallID
	}
	_, err := ac.db.ExecContext(ctx, `
        INSERT INTO audit_calls (call_id, prospect_id, provider_call_id, from_number,
            to_number, status, duration_secs, answered_by, scheduled_at, completed_at, creation_time)
        VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		out.CallID, out.ProspectID, provider, out.FromNumber, out.ToNumber,
		out.Status, out.DurationSecs, out.AnsweredBy, out.ScheduledAt, out.CompletedAt, out.CreationTime)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (ac *auditCalls) GetByProviderID(ctx context.Context, providerCallID string) (*model.AuditCall, error) {
	row := ac.db.QueryRowContext(ctx, `
        SELECT call_id, prospect_id, provider_call_id, from_number, to_number, status,
               duration_secs, answered_by, scheduled_at, completed_at, creation_time
        FROM audit_calls WHERE provider_call_id = ?`, providerCallID)
	var c model.AuditCall
	var provider *string
	err := row.Scan(&c.CallID, &c.ProspectID, &provider, &c.FromNumber, &c.ToNumber,
		&c.Status, &c.DurationSecs, &c.AnsweredBy, &c.ScheduledAt, &c.CompletedAt, &c.CreationTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	if provider != nil {
		c.ProviderCallID = *provider
	}
	return &c, nil
}

func (ac *auditCalls) Update(ctx context.Context, c *model.AuditCall) error {
	var provider *string
	if c.ProviderCallID != "" {
		provider = &c.ProviderCallID
	}
	res, err := ac.db.ExecContext(ctx, `
        UPDATE audit_calls
        SET provider_call_id = ?, status = ?, duration_secs = ?, answered_by = ?, completed_at = ?
        WHERE call_id = ?`,
		provider, c.Status, c.DurationSecs, c.AnsweredBy, c.CompletedAt, c.CallID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (ac *auditCalls) CountCreatedSince(ctx context.Context, t time.Time) (int, error) {
	var n int
	err := ac.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_calls WHERE creation_time >= ?`, t.UTC()).Scan(&n)
	return n, err
}

// --- Outreach ---

type outreach struct{ db *sql.DB }

func (o *outreach) Create(ctx context.Context, r *model.OutreachRecord) (*model.OutreachRecord, error) {
	out := *r
	if out.OutreachID == "" {
		out.OutreachID = uuid.New().String()
	}
	out.CreationTime = time.Now().UTC()
	if out.SentAt.IsZero() {
		out.SentAt = out.CreationTime
	}
	var ext *string
	if out.ExternalID != "" {
		ext = &out.ExternalID
	}
	_, err := o.db.ExecContext(ctx, `
        INSERT INTO outreach_records (outreach_id, prospect_id, channel, template_key,
            status, external_id, sent_at, opened_at, clicked_at, creation_time)
        VALUES (?,?,?,?,?,?,?,?,?,?)`,
		out.OutreachID, out.ProspectID, out.Channel, out.TemplateKey, out.Status,
		ext, out.SentAt, out.OpenedAt, out.ClickedAt, out.CreationTime)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func scanOutreach(row interface{ Scan(...any) error }) (*model.OutreachRecord, error) {
	var r model.OutreachRecord
	var ext *string
	err := row.Scan(&r.OutreachID, &r.ProspectID, &r.Channel, &r.TemplateKey, &r.Status,
		&ext, &r.SentAt, &r.OpenedAt, &r.ClickedAt, &r.CreationTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	if ext != nil {
		r.ExternalID = *ext
	}
	return &r, nil
}

func (o *outreach) ListByProspect(ctx context.Context, prospectID string) ([]*model.OutreachRecord, error) {
	rows, err := o.db.QueryContext(ctx, `
        SELECT outreach_id, prospect_id, channel, template_key, status, external_id,
               sent_at, opened_at, clicked_at, creation_time
        FROM outreach_records WHERE prospect_id = ? ORDER BY sent_at DESC`, prospectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.OutreachRecord
	for rows.Next() {
		r, err := scanOutreach(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

func (o *outreach) GetByExternalID(ctx context.Context, externalID string) (*model.OutreachRecord, error) {
	row := o.db.QueryRowContext(ctx, `
        SELECT outreach_id, prospect_id, channel, template_key, status, external_id,
               sent_at, opened_at, clicked_at, creation_time
        FROM outreach_records WHERE external_id = ?`, externalID)
	return scanOutreach(row)
}

func (o *outreach) UpdateDelivery(ctx context.Context, outreachID string, status model.OutreachStatus, at *time.Time) error {
	var q string
	args := []any{status}
	switch status {
	case model.OutreachOpened:
		q = `UPDATE outreach_records SET status = ?, opened_at = ? WHERE outreach_id = ?`
		args = append(args, at, outreachID)
	case model.OutreachClicked:
		q = `UPDATE outreach_records SET status = ?, clicked_at = ? WHERE outreach_id = ?`
		args = append(args, at, outreachID)
	default:
		q = `UPDATE outreach_records SET status = ? WHERE outreach_id = ?`
		args = append(args, outreachID)
	}
	res, err := o.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// --- Activity ---

type activity struct{ db *sql.DB }

func (a *activity) Append(ctx context.Context, e *model.ActivityEntry) error {
	out := *e
	if out.ActivityID == "" {
		out.ActivityID = uuid.New().String()
	}
	out.CreationTime = time.Now().UTC()
	_, err := a.db.ExecContext(ctx, `
        INSERT INTO activity_log (activity_id, type, entity_type, entity_id, title, detail, creation_time)
        VALUES (?,?,?,?,?,?,?)`,
		out.ActivityID, out.Type, out.EntityType, out.EntityID, out.Title, out.Detail, out.CreationTime)
	return err
}

func (a *activity) Recent(ctx context.Context, limit int) ([]*model.ActivityEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.db.QueryContext(ctx, `
        SELECT activity_id, type, entity_type, entity_id, title, detail, creation_time
        FROM activity_log ORDER BY creation_time DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.ActivityEntry
	for rows.Next() {
		var e model.ActivityEntry
		if err := rows.Scan(&e.ActivityID, &e.Type, &e.EntityType, &e.EntityID, &e.Title, &e.Detail, &e.CreationTime); err != nil {
			return nil, err
		}
		res = append(res, &e)
	}
	return res, rows.Err()
}
