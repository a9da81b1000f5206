package postgres

import (
	"context"
	"database/sql"

	"pet-placement/internal/domain/helpers"
	"pet-placement/internal/domain/placement"

	"github.com/lib/pq"
)

type HelpersRepo struct {
	db *sql.DB
}

func NewHelpersRepo(db *sql.DB) *HelpersRepo {
	return &HelpersRepo{db: db}
}

const profileColumns = `
	id, user_id, display_name,
	city, country, bio,
	request_types,
	created_at, updated_at`

func (r *HelpersRepo) GetByID(ctx context.Context, id string) (helpers.Profile, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+profileColumns+` FROM helper_profiles WHERE id = $1`, id)
	p, err := scanProfile(row)
	return p, mapErr(err, "helper profile")
}

func (r *HelpersRepo) GetByUserID(ctx context.Context, userID string) (helpers.Profile, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+profileColumns+` FROM helper_profiles WHERE user_id = $1`, userID)
	p, err := scanProfile(row)
	return p, mapErr(err, "helper profile")
}

func (r *HelpersRepo) Upsert(ctx context.Context, p helpers.Profile) error {
	types := make([]string, 0, len(p.RequestTypes))
	for _, t := range p.RequestTypes {
		types = append(types, string(t))
	}

	_, err := conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO helper_profiles (`+profileColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			city = EXCLUDED.city,
			country = EXCLUDED.country,
			bio = EXCLUDED.bio,
			request_types = EXCLUDED.request_types,
			updated_at = EXCLUDED.updated_at
	`,
		p.ID,
		p.UserID,
		p.DisplayName,
		p.City,
		p.Country,
		p.Bio,
		pq.Array(types),
		p.CreatedAt,
		p.UpdatedAt,
	)
	return mapErr(err, "helper profile")
}

func scanProfile(s scanner) (helpers.Profile, error) {
	var p helpers.Profile
	var types []string
	if err := s.Scan(
		&p.ID,
		&p.UserID,
		&p.DisplayName,
		&p.City,
		&p.Country,
		&p.Bio,
		pq.Array(&types),
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return helpers.Profile{}, err
	}
	p.RequestTypes = make([]placement.RequestType, 0, len(types))
	for _, t := range types {
		p.RequestTypes = append(p.RequestTypes, placement.RequestType(t))
	}
	return p, nil
}
