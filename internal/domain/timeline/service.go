package timeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultLimit = 200

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Record agrega una entrada. Se llama dentro de la tx de la transición
// para que el historial nunca diverja del estado.
func (s *Service) Record(ctx context.Context, requestID string, typ EventType, refID, actorUserID string) error {
	return s.repo.Append(ctx, Entry{
		ID:                 uuid.NewString(),
		PlacementRequestID: requestID,
		Type:               typ,
		RefID:              refID,
		ActorUserID:        strings.TrimSpace(actorUserID),
		OccurredAt:         s.now().UTC(),
	})
}

func (s *Service) ListByRequest(ctx context.Context, requestID string) ([]Entry, error) {
	return s.repo.ListByRequest(ctx, strings.TrimSpace(requestID), defaultLimit)
}
