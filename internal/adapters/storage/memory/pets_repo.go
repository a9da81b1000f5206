package memory

import (
	"context"
	"errors"
	"sort"
	"strings"

	"pet-placement/internal/apperrors"
	"pet-placement/internal/domain/pets"
)

type petRepo struct {
	s *Store
}

func (r petRepo) Create(ctx context.Context, p pets.Pet) error {
	defer r.s.lock(ctx)()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("pet id required")
	}
	if _, exists := r.s.pets[p.ID]; exists {
		return apperrors.Conflict("pet %s already exists", p.ID)
	}
	r.s.pets[p.ID] = p
	return nil
}

func (r petRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	defer r.s.lock(ctx)()

	p, ok := r.s.pets[id]
	if !ok {
		return pets.Pet{}, apperrors.NotFound("pet")
	}
	return p, nil
}

func (r petRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]pets.Pet, error) {
	defer r.s.lock(ctx)()

	out := make([]pets.Pet, 0)
	for _, p := range r.s.pets {
		if p.OwnerUserID == ownerUserID {
			out = append(out, p)
		}
	}

	// Orden estable por created_at asc
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
