package memory

import (
	"context"
	"errors"
	"sort"

	"pet-placement/internal/apperrors"
	"pet-placement/internal/domain/responses"
)

type responseRepo struct {
	s *Store
}

func (r responseRepo) Create(ctx context.Context, resp responses.Response) error {
	defer r.s.lock(ctx)()

	if resp.ID == "" {
		return errors.New("response id required")
	}
	if _, exists := r.s.responses[resp.ID]; exists {
		return apperrors.Conflict("response %s already exists", resp.ID)
	}
	for _, e := range r.s.responses {
		if e.PlacementRequestID == resp.PlacementRequestID && e.HelperProfileID == resp.HelperProfileID {
			return apperrors.Conflict("helper already responded to this placement request")
		}
	}
	r.s.responses[resp.ID] = resp
	return nil
}

func (r responseRepo) GetByID(ctx context.Context, id string) (responses.Response, error) {
	defer r.s.lock(ctx)()

	resp, ok := r.s.responses[id]
	if !ok {
		return responses.Response{}, apperrors.NotFound("response")
	}
	return resp, nil
}

func (r responseRepo) Update(ctx context.Context, resp responses.Response, from responses.Status) error {
	defer r.s.lock(ctx)()

	cur, ok := r.s.responses[resp.ID]
	if !ok {
		return apperrors.NotFound("response")
	}
	if cur.Status != from {
		return apperrors.Conflict("response moved from %s to %s", from, cur.Status)
	}
	if resp.Status == responses.StatusAccepted {
		for _, e := range r.s.responses {
			if e.ID != resp.ID && e.PlacementRequestID == resp.PlacementRequestID && e.Status == responses.StatusAccepted {
				return apperrors.Conflict("another response is already accepted")
			}
		}
	}
	r.s.responses[resp.ID] = resp
	return nil
}

func (r responseRepo) ListByRequest(ctx context.Context, requestID string) ([]responses.Response, error) {
	defer r.s.lock(ctx)()

	out := make([]responses.Response, 0)
	for _, resp := range r.s.responses {
		if resp.PlacementRequestID == requestID {
			out = append(out, resp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RespondedAt.Equal(out[j].RespondedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].RespondedAt.Before(out[j].RespondedAt)
	})
	return out, nil
}

func (r responseRepo) FindByPair(ctx context.Context, requestID, helperProfileID string) (responses.Response, error) {
	defer r.s.lock(ctx)()

	for _, resp := range r.s.responses {
		if resp.PlacementRequestID == requestID && resp.HelperProfileID == helperProfileID {
			return resp, nil
		}
	}
	return responses.Response{}, apperrors.NotFound("response")
}
