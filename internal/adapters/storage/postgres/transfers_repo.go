package postgres

import (
	"context"
	"database/sql"

	"pet-placement/internal/apperrors"
	"pet-placement/internal/domain/transfers"
)

type TransfersRepo struct {
	db *sql.DB
}

func NewTransfersRepo(db *sql.DB) *TransfersRepo {
	return &TransfersRepo{db: db}
}

const transferColumns = `
	id, response_id, placement_request_id,
	owner_user_id, helper_user_id, initiator_user_id,
	status, scheduled_at, location, scheduled_by,
	confirmed_at, completed_at, cancelled_at, cancelled_by,
	created_at, updated_at`

func (r *TransfersRepo) Create(ctx context.Context, t transfers.Transfer) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO transfer_requests (`+transferColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`,
		t.ID,
		t.ResponseID,
		t.PlacementRequestID,
		t.OwnerUserID,
		t.HelperUserID,
		t.InitiatorUserID,
		string(t.Status),
		toNullTime(t.ScheduledAt),
		t.Location,
		t.ScheduledBy,
		toNullTime(t.ConfirmedAt),
		toNullTime(t.CompletedAt),
		toNullTime(t.CancelledAt),
		t.CancelledBy,
		t.CreatedAt,
		t.UpdatedAt,
	)
	return mapErr(err, "transfer")
}

func (r *TransfersRepo) GetByID(ctx context.Context, id string) (transfers.Transfer, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+transferColumns+` FROM transfer_requests WHERE id = $1`, id)
	t, err := scanTransfer(row)
	return t, mapErr(err, "transfer")
}

func (r *TransfersRepo) GetForUpdate(ctx context.Context, id string) (transfers.Transfer, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+transferColumns+` FROM transfer_requests WHERE id = $1 FOR UPDATE`, id)
	t, err := scanTransfer(row)
	return t, mapErr(err, "transfer")
}

func (r *TransfersRepo) Update(ctx context.Context, t transfers.Transfer, from transfers.Status) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE transfer_requests
		SET
			status = $2,
			scheduled_at = $3,
			location = $4,
			scheduled_by = $5,
			confirmed_at = $6,
			completed_at = $7,
			cancelled_at = $8,
			cancelled_by = $9,
			updated_at = $10
		WHERE id = $1 AND status = $11
	`,
		t.ID,
		string(t.Status),
		toNullTime(t.ScheduledAt),
		t.Location,
		t.ScheduledBy,
		toNullTime(t.ConfirmedAt),
		toNullTime(t.CompletedAt),
		toNullTime(t.CancelledAt),
		t.CancelledBy,
		t.UpdatedAt,
		string(from),
	)
	if err != nil {
		return mapErr(err, "transfer")
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		if _, err := r.GetByID(ctx, t.ID); err != nil {
			return err
		}
		return apperrors.Conflict("transfer %s is no longer %s", t.ID, from)
	}
	return nil
}

func (r *TransfersRepo) ListByRequest(ctx context.Context, requestID string) ([]transfers.Transfer, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `
		SELECT `+transferColumns+`
		FROM transfer_requests
		WHERE placement_request_id = $1
		ORDER BY created_at ASC, id ASC
	`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]transfers.Transfer, 0)
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTransfer(s scanner) (transfers.Transfer, error) {
	var t transfers.Transfer
	var status string
	var scheduledAt, confirmedAt, completedAt, cancelledAt sql.NullTime
	if err := s.Scan(
		&t.ID,
		&t.ResponseID,
		&t.PlacementRequestID,
		&t.OwnerUserID,
		&t.HelperUserID,
		&t.InitiatorUserID,
		&status,
		&scheduledAt,
		&t.Location,
		&t.ScheduledBy,
		&confirmedAt,
		&completedAt,
		&cancelledAt,
		&t.CancelledBy,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return transfers.Transfer{}, err
	}
	t.Status = transfers.Status(status)
	t.ScheduledAt = fromNullTime(scheduledAt)
	t.ConfirmedAt = fromNullTime(confirmedAt)
	t.CompletedAt = fromNullTime(completedAt)
	t.CancelledAt = fromNullTime(cancelledAt)
	return t, nil
}
