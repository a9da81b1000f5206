package memory

import (
	"context"
	"errors"
	"sort"

	"pet-placement/internal/apperrors"
	"pet-placement/internal/domain/transfers"
)

type transferRepo struct {
	s *Store
}

func (r transferRepo) Create(ctx context.Context, t transfers.Transfer) error {
	defer r.s.lock(ctx)()

	if t.ID == "" {
		return errors.New("transfer id required")
	}
	if _, exists := r.s.transfers[t.ID]; exists {
		return apperrors.Conflict("transfer %s already exists", t.ID)
	}
	for _, e := range r.s.transfers {
		if e.ResponseID == t.ResponseID {
			return apperrors.Conflict("response already has a transfer")
		}
	}
	r.s.transfers[t.ID] = t
	return nil
}

func (r transferRepo) GetByID(ctx context.Context, id string) (transfers.Transfer, error) {
	defer r.s.lock(ctx)()

	t, ok := r.s.transfers[id]
	if !ok {
		return transfers.Transfer{}, apperrors.NotFound("transfer")
	}
	return t, nil
}

func (r transferRepo) GetForUpdate(ctx context.Context, id string) (transfers.Transfer, error) {
	return r.GetByID(ctx, id)
}

func (r transferRepo) Update(ctx context.Context, t transfers.Transfer, from transfers.Status) error {
	defer r.s.lock(ctx)()

	cur, ok := r.s.transfers[t.ID]
	if !ok {
		return apperrors.NotFound("transfer")
	}
	if cur.Status != from {
		return apperrors.Conflict("transfer moved from %s to %s", from, cur.Status)
	}
	r.s.transfers[t.ID] = t
	return nil
}

func (r transferRepo) ListByRequest(ctx context.Context, requestID string) ([]transfers.Transfer, error) {
	defer r.s.lock(ctx)()

	out := make([]transfers.Transfer, 0)
	for _, t := range r.s.transfers {
		if t.PlacementRequestID == requestID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
