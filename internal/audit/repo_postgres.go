package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo persists run events in the run_events table. Insert-only; the
// table should carry no UPDATE/DELETE grants for the service role.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO run_events (
  id, workspace_id, type, campaign_id, batch_job_id, message, metadata, created_at
) VALUES (
  $1,$2,$3,$4,NULLIF($5,''),$6,NULLIF($7,''),$8
)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		e.WorkspaceID,
		e.Type,
		e.CampaignID,
		e.BatchJobID,
		e.Message,
		e.Metadata,
		e.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) ListByCampaign(ctx context.Context, workspaceID, campaignID string) ([]Event, error) {
	const q = `
SELECT id, workspace_id, type, campaign_id, COALESCE(batch_job_id, ''),
       COALESCE(message, ''), COALESCE(metadata, ''), created_at
FROM run_events
WHERE workspace_id = $1 AND campaign_id = $2
ORDER BY created_at, id
`
	rows, err := r.db.QueryContext(ctx, q, workspaceID, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(
			&e.ID,
			&e.WorkspaceID,
			&e.Type,
			&e.CampaignID,
			&e.BatchJobID,
			&e.Message,
			&e.Metadata,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
