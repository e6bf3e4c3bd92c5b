package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-hr/odyssey-hr/internal/platform/db"
)

// PgRepository reads audit_logs joined with the acting employee's email.
type PgRepository struct {
	db db.DBTX
}

// NewRepository constructs a PgRepository.
func NewRepository(conn db.DBTX) *PgRepository {
	return &PgRepository{db: conn}
}

const timelineWindowSQL = `SELECT a.occurred_at, COALESCE(a.actor_id::text, ''), COALESCE(e.email, ''), a.action, a.entity, a.entity_id, a.meta
FROM audit_logs a
LEFT JOIN employees e ON e.id = a.actor_id
WHERE ($1::timestamptz IS NULL OR a.occurred_at >= $1)
  AND ($2::timestamptz IS NULL OR a.occurred_at < $2)
  AND ($3::text IS NULL OR LOWER(e.email) = LOWER($3))
  AND ($4::text IS NULL OR a.entity = $4)
  AND ($5::text IS NULL OR a.action = $5)
ORDER BY a.occurred_at DESC, a.id DESC
OFFSET $6 LIMIT $7`

// TimelineWindow returns at most LimitRows rows starting at OffsetRows.
func (r *PgRepository) TimelineWindow(ctx context.Context, arg WindowParams) ([]TimelineRow, error) {
	rows, err := r.db.Query(ctx, timelineWindowSQL, arg.From, arg.To, arg.Actor, arg.Entity, arg.Action, arg.OffsetRows, arg.LimitRows)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanTimelineRow)
}

func scanTimelineRow(row pgx.CollectableRow) (TimelineRow, error) {
	var (
		out  TimelineRow
		at   time.Time
		meta []byte
	)
	if err := row.Scan(&at, &out.ActorID, &out.Actor, &out.Action, &out.Entity, &out.EntityID, &meta); err != nil {
		return TimelineRow{}, err
	}
	out.At = at.UTC()
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &out.Meta); err != nil {
			return TimelineRow{}, err
		}
	}
	return out, nil
}

const pruneBeforeSQL = `DELETE FROM audit_logs WHERE occurred_at < $1`

// PruneBefore deletes audit rows older than cutoff and returns how many went.
func (r *PgRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, pruneBeforeSQL, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
