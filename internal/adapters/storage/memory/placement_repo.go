package memory

import (
	"context"
	"errors"
	"sort"

	"pet-placement/internal/apperrors"
	"pet-placement/internal/domain/placement"
)

type requestRepo struct {
	s *Store
}

func (r requestRepo) Create(ctx context.Context, pr placement.PlacementRequest) error {
	defer r.s.lock(ctx)()

	if pr.ID == "" {
		return errors.New("placement request id required")
	}
	if _, exists := r.s.requests[pr.ID]; exists {
		return apperrors.Conflict("placement request %s already exists", pr.ID)
	}
	// mismo índice único parcial que en postgres: un request vivo por (pet, tipo)
	for _, e := range r.s.requests {
		if e.PetID == pr.PetID && e.RequestType == pr.RequestType && !e.Status.IsTerminal() {
			return apperrors.Conflict("pet already has a live %s placement request", pr.RequestType)
		}
	}
	r.s.requests[pr.ID] = pr
	return nil
}

func (r requestRepo) GetByID(ctx context.Context, id string) (placement.PlacementRequest, error) {
	defer r.s.lock(ctx)()

	pr, ok := r.s.requests[id]
	if !ok {
		return placement.PlacementRequest{}, apperrors.NotFound("placement request")
	}
	return pr, nil
}

// GetForUpdate: dentro de una tx el mutex del store ya da exclusión.
func (r requestRepo) GetForUpdate(ctx context.Context, id string) (placement.PlacementRequest, error) {
	return r.GetByID(ctx, id)
}

func (r requestRepo) UpdateStatus(ctx context.Context, pr placement.PlacementRequest, from placement.Status) error {
	defer r.s.lock(ctx)()

	cur, ok := r.s.requests[pr.ID]
	if !ok {
		return apperrors.NotFound("placement request")
	}
	if cur.Status != from {
		return apperrors.Conflict("placement request moved from %s to %s", from, cur.Status)
	}
	cur.Status = pr.Status
	cur.UpdatedAt = pr.UpdatedAt
	r.s.requests[pr.ID] = cur
	return nil
}

func (r requestRepo) ListByPet(ctx context.Context, petID string) ([]placement.PlacementRequest, error) {
	defer r.s.lock(ctx)()

	out := make([]placement.PlacementRequest, 0)
	for _, pr := range r.s.requests {
		if pr.PetID == petID {
			out = append(out, pr)
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

// ListOpen: más nuevos primero.
func (r requestRepo) ListOpen(ctx context.Context, f placement.ListFilter) ([]placement.PlacementRequest, error) {
	defer r.s.lock(ctx)()

	out := make([]placement.PlacementRequest, 0)
	for _, pr := range r.s.requests {
		if pr.Status != placement.StatusOpen {
			continue
		}
		if f.Type != "" && pr.RequestType != f.Type {
			continue
		}
		out = append(out, pr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if f.Offset >= len(out) {
		return []placement.PlacementRequest{}, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
