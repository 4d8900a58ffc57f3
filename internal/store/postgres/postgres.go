// Package postgres implements store.Store on PostgreSQL via the pgx stdlib
// driver. The schema is ensured on construction so a fresh database works
// without a separate migration step.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/calltide/outreach-server/internal/model"
	"github.com/calltide/outreach-server/internal/store"
)

// Open opens a PostgreSQL connection and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

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
    rating        DOUBLE PRECISION,
    review_count  INTEGER,
    lead_score    INTEGER NOT NULL DEFAULT 0,
    status        TEXT NOT NULL DEFAULT 'new',
    audit_result  TEXT,
    sms_opt_out   BOOLEAN NOT NULL DEFAULT FALSE,
    tags          JSONB NOT NULL DEFAULT '[]',
    notes         TEXT NOT NULL DEFAULT '',
    source        TEXT NOT NULL DEFAULT 'manual',
    creation_time TIMESTAMPTZ NOT NULL DEFAULT now(),
    update_time   TIMESTAMPTZ NOT NULL DEFAULT now()
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
    scheduled_at     TIMESTAMPTZ NOT NULL,
    completed_at     TIMESTAMPTZ,
    creation_time    TIMESTAMPTZ NOT NULL DEFAULT now()
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
    sent_at       TIMESTAMPTZ NOT NULL,
    opened_at     TIMESTAMPTZ,
    clicked_at    TIMESTAMPTZ,
    creation_time TIMESTAMPTZ NOT NULL DEFAULT now()
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
    creation_time TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_activity_created ON activity_log(creation_time);
`

// NewWithDB constructs a Postgres store backed directly by database/sql and
// ensures the schema exists.
func NewWithDB(db *sql.DB) (store.Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return &pgStore{db: db}, nil
}

type pgStore struct{ db *sql.DB }

func (s *pgStore) Prospects() store.Prospects   { return &prospects{db: s.db} }
func (s *pgStore) AuditCalls() store.AuditCalls { return &auditCalls{db: s.db} }
func (s *pgStore) Outreach() store.Outreach     { return &outreach{db: s.db} }
func (s *pgStore) Activity() store.Activity     { return &activity{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *pgStore) HealthPing(ctx context.Context) error { return s.db.PingContext(ctx) }

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
	tags, err := json.Marshal(out.Tags)
	if err != nil {
		return nil, err
	}
	var auditResult *string
	if out.AuditResult != nil {
		s := string(*out.AuditResult)
		auditResult = &s
	}
	row := ps.db.QueryRowContext(ctx, `
        INSERT INTO prospects (prospect_id, place_id, business_name, phone, email, website,
            address, city, state, vertical, rating, review_count, lead_score, status,
            audit_result, sms_opt_out, tags, notes, source)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
        RETURNING creation_time, update_time`,
		out.ProspectID, out.PlaceID, out.BusinessName, out.Phone, out.Email, out.Website,
		out.Address, out.City, out.State, out.Vertical, out.Rating, out.ReviewCount,
		out.LeadScore, out.Status, auditResult, out.SMSOptOut, string(tags), out.Notes, out.Source)
	if err := row.Scan(&out.CreationTime, &out.UpdateTime); err != nil {
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
	var tags []byte
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
	if err := json.Unmarshal(tags, &p.Tags); err != nil {
		return nil, err
	}
	return &p, nil
}

func (ps *prospects) Get(ctx context.Context, id string) (*model.Prospect, error) {
	row := ps.db.QueryRowContext(ctx, `SELECT `+prospectColumns+` FROM prospects WHERE prospect_id=$1`, id)
	return scanProspect(row)
}

func (ps *prospects) List(ctx context.Context, req model.ListProspectsRequest) ([]*model.Prospect, error) {
	q := `SELECT ` + prospectColumns + ` FROM prospects`
	var args []any
	if req.Status != "" {
		q += ` WHERE status=$1`
		args = append(args, req.Status)
	}
	q += ` ORDER BY creation_time DESC`
	if req.Limit > 0 {
		q += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
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
	rows, err := ps.db.QueryContext(ctx, `SELECT `+prospectColumns+` FROM prospects WHERE phone=$1`, phone)
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
	return ps.exec(ctx, `UPDATE prospects SET status=$1, update_time=now() WHERE prospect_id=$2`, status, id)
}

func (ps *prospects) SetAuditOutcome(ctx context.Context, id string, result model.AuditResult) error {
	return ps.exec(ctx, `UPDATE prospects SET audit_result=$1, status=$2, update_time=now() WHERE prospect_id=$3`,
		string(result), model.StatusAuditComplete, id)
}

func (ps *prospects) SetSMSOptOut(ctx context.Context, id string, optOut bool) error {
	return ps.exec(ctx, `UPDATE prospects SET sms_opt_out=$1, update_time=now() WHERE prospect_id=$2`, optOut, id)
}

// --- AuditCalls ---

type auditCalls struct{ db *sql.DB }

func (ac *auditCalls) Create(ctx context.Context, c *model.AuditCall) (*model.AuditCall, error) {
	out := *c
	if out.CallID == "" {
		out.CallID = uuid.New().String()
	}
	var provider *string
	if out.ProviderCallID != "" {
		provider = &out.ProviderCallID
	}
	row := ac.db.QueryRowContext(ctx, `
        INSERT INTO audit_calls (call_id, prospect_id, provider_call_id, from_number,
            to_number, status, duration_secs, answered_by, scheduled_at, completed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING creation_time`,
		out.CallID, out.ProspectID, provider, out.FromNumber, out.ToNumber,
		out.Status, out.DurationSecs, out.AnsweredBy, out.ScheduledAt, out.CompletedAt)
	if err := row.Scan(&out.CreationTime); err != nil {
		return nil, err
	}
	return &out, nil
}

func (ac *auditCalls) GetByProviderID(ctx context.Context, providerCallID string) (*model.AuditCall, error) {
	row := ac.db.QueryRowContext(ctx, `
        SELECT call_id, prospect_id, provider_call_id, from_number, to_number, status,
               duration_secs, answered_by, scheduled_at, completed_at, creation_time
        FROM audit_calls WHERE provider_call_id=$1`, providerCallID)
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
        SET provider_call_id=$1, status=$2, duration_secs=$3, answered_by=$4, completed_at=$5
        WHERE call_id=$6`,
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
		`SELECT COUNT(*) FROM audit_calls WHERE creation_time >= $1`, t.UTC()).Scan(&n)
	return n, err
}

// --- Outreach ---

type outreach struct{ db *sql.DB }

func (o *outreach) Create(ctx context.Context, r *model.OutreachRecord) (*model.OutreachRecord, error) {
	out := *r
	if out.OutreachID == "" {
		out.OutreachID = uuid.New().String()
	}
	if out.SentAt.IsZero() {
		out.SentAt = time.Now().UTC()
	}
	var ext *string
	if out.ExternalID != "" {
		ext = &out.ExternalID
	}
	row := o.db.QueryRowContext(ctx, `
        INSERT INTO outreach_records (outreach_id, prospect_id, channel, template_key,
            status, external_id, sent_at, opened_at, clicked_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING creation_time`,
		out.OutreachID, out.ProspectID, out.Channel, out.TemplateKey, out.Status,
		ext, out.SentAt, out.OpenedAt, out.ClickedAt)
	if err := row.Scan(&out.CreationTime); err != nil {
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
        FROM outreach_records WHERE prospect_id=$1 ORDER BY sent_at DESC`, prospectID)
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
        FROM outreach_records WHERE external_id=$1`, externalID)
	return scanOutreach(row)
}

func (o *outreach) UpdateDelivery(ctx context.Context, outreachID string, status model.OutreachStatus, at *time.Time) error {
	var q string
	var args []any
	switch status {
	case model.OutreachOpened:
		q = `UPDATE outreach_records SET status=$1, opened_at=$2 WHERE outreach_id=$3`
		args = []any{status, at, outreachID}
	case model.OutreachClicked:
		q = `UPDATE outreach_records SET status=$1, clicked_at=$2 WHERE outreach_id=$3`
		args = []any{status, at, outreachID}
	default:
		q = `UPDATE outreach_records SET status=$1 WHERE outreach_id=$2`
		args = []any{status, outreachID}
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
	id := e.ActivityID
	if id == "" {
		id = uuid.New().String()
	}
	_, err := a.db.ExecContext(ctx, `
        INSERT INTO activity_log (activity_id, type, entity_type, entity_id, title, detail)
        VALUES ($1,$2,$3,$4,$5,$6)`,
		id, e.Type, e.EntityType, e.EntityID, e.Title, e.Detail)
	return err
}

func (a *activity) Recent(ctx context.Context, limit int) ([]*model.ActivityEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.db.QueryContext(ctx, `
        SELECT activity_id, type, entity_type, entity_id, title, detail, creation_time
        FROM activity_log ORDER BY creation_time DESC LIMIT $1`, limit)
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
