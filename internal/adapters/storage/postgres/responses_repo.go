package postgres

import (
	"context"
	"database/sql"

	"pet-placement/internal/apperrors"
	"pet-placement/internal/domain/responses"
)

type ResponsesRepo struct {
	db *sql.DB
}

func NewResponsesRepo(db *sql.DB) *ResponsesRepo {
	return &ResponsesRepo{db: db}
}

const responseColumns = `
	id, placement_request_id,
	helper_profile_id, helper_user_id,
	status, relationship_type, fostering_type, price, message,
	responded_at, updated_at`

func (r *ResponsesRepo) Create(ctx context.Context, resp responses.Response) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO placement_responses (`+responseColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		resp.ID,
		resp.PlacementRequestID,
		resp.HelperProfileID,
		resp.HelperUserID,
		string(resp.Status),
		string(resp.RelationshipType),
		toNullString(string(resp.FosteringType)),
		toNullFloat(resp.Price),
		resp.Message,
		resp.RespondedAt,
		resp.UpdatedAt,
	)
	return mapErr(err, "response")
}

func (r *ResponsesRepo) GetByID(ctx context.Context, id string) (responses.Response, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+responseColumns+` FROM placement_responses WHERE id = $1`, id)
	resp, err := scanResponse(row)
	return resp, mapErr(err, "response")
}

// Update reescribe la fila completa si sigue en from. El índice único parcial
// de accepted rechaza un segundo ganador aunque dos tx pasen el chequeo.
func (r *ResponsesRepo) Update(ctx context.Context, resp responses.Response, from responses.Status) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE placement_responses
		SET
			status = $2,
			relationship_type = $3,
			fostering_type = $4,
			price = $5,
			message = $6,
			responded_at = $7,
			updated_at = $8
		WHERE id = $1 AND status = $9
	`,
		resp.ID,
		string(resp.Status),
		string(resp.RelationshipType),
		toNullString(string(resp.FosteringType)),
		toNullFloat(resp.Price),
		resp.Message,
		resp.RespondedAt,
		resp.UpdatedAt,
		string(from),
	)
	if err != nil {
		return mapErr(err, "response")
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		if _, err := r.GetByID(ctx, resp.ID); err != nil {
			return err
		}
		return apperrors.Conflict("response %s is no longer %s", resp.ID, from)
	}
	return nil
}

func (r *ResponsesRepo) ListByRequest(ctx context.Context, requestID string) ([]responses.Response, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `
		SELECT `+responseColumns+`
		FROM placement_responses
		WHERE placement_request_id = $1
		ORDER BY responded_at ASC, id ASC
	`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]responses.Response, 0)
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, rows.Err()
}

func (r *ResponsesRepo) FindByPair(ctx context.Context, requestID, helperProfileID string) (responses.Response, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT `+responseColumns+`
		FROM placement_responses
		WHERE placement_request_id = $1 AND helper_profile_id = $2
	`, requestID, helperProfileID)
	resp, err := scanResponse(row)
	return resp, mapErr(err, "response")
}

func scanResponse(s scanner) (responses.Response, error) {
	var resp responses.Response
	var status, rel string
	var fostering sql.NullString
	var price sql.NullFloat64
	if err := s.Scan(
		&resp.ID,
		&resp.PlacementRequestID,
		&resp.HelperProfileID,
		&resp.HelperUserID,
		&status,
		&rel,
		&fostering,
		&price,
		&resp.Message,
		&resp.RespondedAt,
		&resp.UpdatedAt,
	); err != nil {
		return responses.Response{}, err
	}
	resp.Status = responses.Status(status)
	resp.RelationshipType = responses.RelationshipType(rel)
	resp.FosteringType = responses.FosteringType(fostering.String)
	if price.Valid {
		p := price.Float64
		resp.Price = &p
	}
	return resp, nil
}

func toNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func toNullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
