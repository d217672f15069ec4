package campaign

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// NOTE: This store assumes the following tables exist:
// - campaigns
// - leads
// - call_records
//
// All timestamps are stored in UTC. Partial updates are built dynamically but
// only over a fixed column whitelist, so no user input reaches SQL identifiers.

type PostgresStore struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, clock: time.Now}
}

func (s *PostgresStore) GetCampaign(ctx context.Context, id string) (Campaign, error) {
	const q = `
SELECT id, workspace_id, name, status, COALESCE(batch_job_id, ''),
       total_leads, completed_calls, successful_calls, failed_calls, average_duration_seconds,
       created_at, updated_at
FROM campaigns
WHERE id = $1
`
	var c Campaign
	if err := s.db.QueryRowContext(ctx, q, id).Scan(
		&c.ID,
		&c.WorkspaceID,
		&c.Name,
		&c.Status,
		&c.BatchJobID,
		&c.TotalLeads,
		&c.CompletedCalls,
		&c.SuccessfulCalls,
		&c.FailedCalls,
		&c.AverageDurationSeconds,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Campaign{}, ErrNotFound
		}
		return Campaign{}, err
	}
	return c, nil
}

func (s *PostgresStore) SetCampaignBatch(ctx context.Context, id string, status Status, batchJobID string) error {
	const q = `
UPDATE campaigns
SET status = $2, batch_job_id = NULLIF($3, ''), updated_at = $4
WHERE id = $1
`
	return s.execOne(ctx, q, id, status, batchJobID, s.clock().UTC())
}

func (s *PostgresStore) UpdateCampaignStatus(ctx context.Context, id string, status Status) error {
	const q = `
UPDATE campaigns
SET status = $2, updated_at = $3
WHERE id = $1
`
	return s.execOne(ctx, q, id, status, s.clock().UTC())
}

func (s *PostgresStore) UpdateCampaignCounters(ctx context.Context, id string, c Counters) error {
	const q = `
UPDATE campaigns
SET total_leads = $2,
    completed_calls = $3,
    successful_calls = $4,
    failed_calls = $5,
    average_duration_seconds = $6,
    updated_at = $7
WHERE id = $1
`
	return s.execOne(ctx, q, id,
		c.TotalLeads,
		c.CompletedCalls,
		c.SuccessfulCalls,
		c.FailedCalls,
		c.AverageDurationSeconds,
		s.clock().UTC(),
	)
}

func (s *PostgresStore) ListLeads(ctx context.Context, campaignID string, status LeadStatus) ([]Lead, error) {
	q := `
SELECT id, campaign_id, phone, COALESCE(first_name, ''), COALESCE(last_name, ''),
       status, call_duration_seconds, created_at, updated_at
FROM leads
WHERE campaign_id = $1
`
	args := []any{campaignID}
	if status != "" {
		q += " AND status = $2"
		args = append(args, status)
	}
	q += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Lead
	for rows.Next() {
		var l Lead
		if err := rows.Scan(
			&l.ID,
			&l.CampaignID,
			&l.Phone,
			&l.FirstName,
			&l.LastName,
			&l.Status,
			&l.CallDurationSeconds,
			&l.CreatedAt,
			&l.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateLead(ctx context.Context, id string, upd LeadUpdate) error {
	set := make([]string, 0, 3)
	args := []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if upd.CallDurationSeconds != nil {
		add("call_duration_seconds", *upd.CallDurationSeconds)
	}
	if len(set) == 0 {
		return nil
	}
	add("updated_at", s.clock().UTC())

	q := "UPDATE leads SET " + strings.Join(set, ", ") + " WHERE id = $1"
	return s.execOne(ctx, q, args...)
}

func (s *PostgresStore) CreateCallRecord(ctx context.Context, r CallRecord) error {
	const q = `
INSERT INTO call_records (
  id, workspace_id, campaign_id, lead_id, phone, status,
  duration_seconds, batch_job_id, conversation_id, transcript, created_at, updated_at
) VALUES (
  $1,$2,$3,NULLIF($4,''),$5,$6,$7,NULLIF($8,''),NULLIF($9,''),$10,$11,$12
)
`
	now := s.clock().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = now
	}
	_, err := s.db.ExecContext(ctx, q,
		r.ID,
		r.WorkspaceID,
		r.CampaignID,
		r.LeadID,
		r.Phone,
		r.Status,
		r.DurationSeconds,
		r.BatchJobID,
		r.ConversationID,
		r.Transcript,
		r.CreatedAt,
		r.UpdatedAt,
	)
	return err
}

func (s *PostgresStore) ListCallRecords(ctx context.Context, campaignID string) ([]CallRecord, error) {
	const q = `
SELECT id, workspace_id, campaign_id, COALESCE(lead_id, ''), COALESCE(phone, ''), status,
       duration_seconds, COALESCE(batch_job_id, ''), COALESCE(conversation_id, ''),
       COALESCE(transcript, ''), created_at, updated_at
FROM call_records
WHERE campaign_id = $1
ORDER BY created_at, id
`
	rows, err := s.db.QueryContext(ctx, q, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CallRecord
	for rows.Next() {
		r, err := scanCallRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) FindCallRecordByLead(ctx context.Context, campaignID, leadID string) (CallRecord, bool, error) {
	const q = `
SELECT id, workspace_id, campaign_id, COALESCE(lead_id, ''), COALESCE(phone, ''), status,
       duration_seconds, COALESCE(batch_job_id, ''), COALESCE(conversation_id, ''),
       COALESCE(transcript, ''), created_at, updated_at
FROM call_records
WHERE campaign_id = $1 AND lead_id = $2
ORDER BY created_at DESC
LIMIT 1
`
	r, err := scanCallRecord(s.db.QueryRowContext(ctx, q, campaignID, leadID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CallRecord{}, false, nil
		}
		return CallRecord{}, false, err
	}
	return r, true, nil
}

func (s *PostgresStore) UpdateCallRecord(ctx context.Context, id string, upd CallRecordUpdate) error {
	set := make([]string, 0, 6)
	args := []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if upd.DurationSeconds != nil {
		add("duration_seconds", *upd.DurationSeconds)
	}
	if upd.Phone != nil {
		add("phone", *upd.Phone)
	}
	if upd.BatchJobID != nil {
		add("batch_job_id", *upd.BatchJobID)
	}
	if upd.ConversationID != nil {
		add("conversation_id", *upd.ConversationID)
	}
	if upd.Transcript != nil {
		add("transcript", *upd.Transcript)
	}
	if len(set) == 0 {
		return nil
	}
	add("updated_at", s.clock().UTC())

	q := "UPDATE call_records SET " + strings.Join(set, ", ") + " WHERE id = $1"
	return s.execOne(ctx, q, args...)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCallRecord(row rowScanner) (CallRecord, error) {
	var r CallRecord
	var dur sql.NullInt64
	if err := row.Scan(
		&r.ID,
		&r.WorkspaceID,
		&r.CampaignID,
		&r.LeadID,
		&r.Phone,
		&r.Status,
		&dur,
		&r.BatchJobID,
		&r.ConversationID,
		&r.Transcript,
		&r.CreatedAt,
		&r.UpdatedAt,
	); err != nil {
		return CallRecord{}, err
	}
	if dur.Valid {
		d := int(dur.Int64)
		r.DurationSeconds = &d
	}
	return r, nil
}

func (s *PostgresStore) execOne(ctx context.Context, q string, args ...any) error {
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
