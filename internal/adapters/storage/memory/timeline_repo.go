package memory

import (
	"context"
	"errors"

	"pet-placement/internal/domain/timeline"
)

type timelineRepo struct {
	s *Store
}

func (r timelineRepo) Append(ctx context.Context, e timeline.Entry) error {
	defer r.s.lock(ctx)()

	if e.ID == "" {
		return errors.New("timeline entry id required")
	}
	r.s.timeline = append(r.s.timeline, e)
	return nil
}

// ListByRequest devuelve en orden de inserción (cronológico).
func (r timelineRepo) ListByRequest(ctx context.Context, requestID string, limit int) ([]timeline.Entry, error) {
	defer r.s.lock(ctx)()

	if limit <= 0 {
		limit = 50
	}

	out := make([]timeline.Entry, 0)
	for _, e := range r.s.timeline {
		if e.PlacementRequestID != requestID {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
