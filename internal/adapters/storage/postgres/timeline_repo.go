package postgres

import (
	"context"
	"database/sql"

	"pet-placement/internal/domain/timeline"
)

type TimelineRepo struct {
	db *sql.DB
}

func NewTimelineRepo(db *sql.DB) *TimelineRepo {
	return &TimelineRepo{db: db}
}

func (r *TimelineRepo) Append(ctx context.Context, e timeline.Entry) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO placement_timeline (
			id, placement_request_id,
			type, ref_id, actor_user_id,
			notes, occurred_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		e.ID,
		e.PlacementRequestID,
		string(e.Type),
		e.RefID,
		e.ActorUserID,
		e.Notes,
		e.OccurredAt,
	)
	return mapErr(err, "timeline entry")
}

// ListByRequest en orden de inserción (seq), no por reloj.
func (r *TimelineRepo) ListByRequest(ctx context.Context, requestID string, limit int) ([]timeline.Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := conn(ctx, r.db).QueryContext(ctx, `
		SELECT
			id, placement_request_id,
			type, ref_id, actor_user_id,
			notes, occurred_at
		FROM placement_timeline
		WHERE placement_request_id = $1
		ORDER BY seq ASC
		LIMIT $2
	`, requestID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]timeline.Entry, 0)
	for rows.Next() {
		var e timeline.Entry
		var typ string
		if err := rows.Scan(
			&e.ID,
			&e.PlacementRequestID,
			&typ,
			&e.RefID,
			&e.ActorUserID,
			&e.Notes,
			&e.OccurredAt,
		); err != nil {
			return nil, err
		}
		e.Type = timeline.EventType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}
