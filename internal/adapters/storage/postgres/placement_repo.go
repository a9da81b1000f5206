package postgres

import (
	"context"
	"database/sql"

	"pet-placement/internal/apperrors"
	"pet-placement/internal/domain/placement"
)

type PlacementRepo struct {
	db *sql.DB
}

func NewPlacementRepo(db *sql.DB) *PlacementRepo {
	return &PlacementRepo{db: db}
}

const requestColumns = `
	id, pet_id, owner_user_id,
	request_type, status, notes,
	start_date, end_date, expires_at,
	created_at, updated_at`

func (r *PlacementRepo) Create(ctx context.Context, pr placement.PlacementRequest) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO placement_requests (`+requestColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		pr.ID,
		pr.PetID,
		pr.OwnerUserID,
		string(pr.RequestType),
		string(pr.Status),
		pr.Notes,
		pr.StartDate,
		toNullTime(pr.EndDate),
		pr.ExpiresAt,
		pr.CreatedAt,
		pr.UpdatedAt,
	)
	return mapErr(err, "placement request")
}

func (r *PlacementRepo) GetByID(ctx context.Context, id string) (placement.PlacementRequest, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+requestColumns+` FROM placement_requests WHERE id = $1`, id)
	pr, err := scanRequest(row)
	return pr, mapErr(err, "placement request")
}

// GetForUpdate bloquea la fila; solo tiene sentido dentro de WithinTx.
func (r *PlacementRepo) GetForUpdate(ctx context.Context, id string) (placement.PlacementRequest, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+requestColumns+` FROM placement_requests WHERE id = $1 FOR UPDATE`, id)
	pr, err := scanRequest(row)
	return pr, mapErr(err, "placement request")
}

func (r *PlacementRepo) UpdateStatus(ctx context.Context, pr placement.PlacementRequest, from placement.Status) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE placement_requests
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4
	`, pr.ID, string(pr.Status), pr.UpdatedAt, string(from))
	if err != nil {
		return mapErr(err, "placement request")
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		if _, err := r.GetByID(ctx, pr.ID); err != nil {
			return err
		}
		return apperrors.Conflict("placement request %s is no longer %s", pr.ID, from)
	}
	return nil
}

func (r *PlacementRepo) ListByPet(ctx context.Context, petID string) ([]placement.PlacementRequest, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `
		SELECT `+requestColumns+`
		FROM placement_requests
		WHERE pet_id = $1
		ORDER BY created_at ASC, id ASC
	`, petID)
	if err != nil {
		return nil, err
	}
	return collectRequests(rows)
}

func (r *PlacementRepo) ListOpen(ctx context.Context, f placement.ListFilter) ([]placement.PlacementRequest, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `
		SELECT `+requestColumns+`
		FROM placement_requests
		WHERE status = 'open' AND ($1::text = '' OR request_type = $1::text)
		ORDER BY created_at DESC, id ASC
		LIMIT $2 OFFSET $3
	`, string(f.Type), f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	return collectRequests(rows)
}

func collectRequests(rows *sql.Rows) ([]placement.PlacementRequest, error) {
	defer rows.Close()

	out := make([]placement.PlacementRequest, 0)
	for rows.Next() {
		pr, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}

func scanRequest(s scanner) (placement.PlacementRequest, error) {
	var pr placement.PlacementRequest
	var typ, status string
	var end sql.NullTime
	if err := s.Scan(
		&pr.ID,
		&pr.PetID,
		&pr.OwnerUserID,
		&typ,
		&status,
		&pr.Notes,
		&pr.StartDate,
		&end,
		&pr.ExpiresAt,
		&pr.CreatedAt,
		&pr.UpdatedAt,
	); err != nil {
		return placement.PlacementRequest{}, err
	}
	pr.RequestType = placement.RequestType(typ)
	pr.Status = placement.Status(status)
	pr.EndDate = fromNullTime(end)
	return pr, nil
}
