package memory

import (
	"context"
	"errors"

	"pet-placement/internal/apperrors"
	"pet-placement/internal/domain/helpers"
	"pet-placement/internal/domain/placement"
)

type helperRepo struct {
	s *Store
}

func (r helperRepo) GetByID(ctx context.Context, id string) (helpers.Profile, error) {
	defer r.s.lock(ctx)()

	p, ok := r.s.profiles[id]
	if !ok {
		return helpers.Profile{}, apperrors.NotFound("helper profile")
	}
	return clonedProfile(p), nil
}

func (r helperRepo) GetByUserID(ctx context.Context, userID string) (helpers.Profile, error) {
	defer r.s.lock(ctx)()

	for _, p := range r.s.profiles {
		if p.UserID == userID {
			return clonedProfile(p), nil
		}
	}
	return helpers.Profile{}, apperrors.NotFound("helper profile")
}

// Upsert por id; un perfil por usuario.
func (r helperRepo) Upsert(ctx context.Context, p helpers.Profile) error {
	defer r.s.lock(ctx)()

	if p.ID == "" {
		return errors.New("helper profile id required")
	}
	for id, e := range r.s.profiles {
		if e.UserID == p.UserID && id != p.ID {
			return apperrors.Conflict("user already has a helper profile")
		}
	}
	r.s.profiles[p.ID] = clonedProfile(p)
	return nil
}

func clonedProfile(p helpers.Profile) helpers.Profile {
	p.RequestTypes = append([]placement.RequestType(nil), p.RequestTypes...)
	return p
}
