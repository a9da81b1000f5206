package helpers

import (
	"context"
	"strings"
	"time"

	"pet-placement/internal/apperrors"
	"pet-placement/internal/domain/placement"

	"github.com/google/uuid"
)

type Service struct {
	registry Registry
	repo     Repository // nil si los perfiles viven en un registry externo
	now      func() time.Time
}

// NewService: registry es obligatorio; repo puede ser nil (registry externo, solo lectura).
func NewService(registry Registry, repo Repository) *Service {
	return &Service{
		registry: registry,
		repo:     repo,
		now:      time.Now,
	}
}

func (s *Service) Get(ctx context.Context, id string) (Profile, error) {
	return s.registry.GetByID(ctx, strings.TrimSpace(id))
}

func (s *Service) GetByUser(ctx context.Context, userID string) (Profile, error) {
	return s.registry.GetByUserID(ctx, strings.TrimSpace(userID))
}

type UpsertInput struct {
	DisplayName  string
	City         string
	Country      string
	Bio          string
	RequestTypes []placement.RequestType
}

// UpsertMine crea o actualiza el perfil del propio usuario (uno por usuario).
func (s *Service) UpsertMine(ctx context.Context, userID string, in UpsertInput) (Profile, error) {
	if s.repo == nil {
		return Profile{}, apperrors.Forbidden("helper profiles are managed by the external registry")
	}
	userID = strings.TrimSpace(userID)

	v := apperrors.NewValidation()
	if userID == "" {
		v.Add("user_id", "required")
	}
	if strings.TrimSpace(in.DisplayName) == "" {
		v.Add("display_name", "required")
	}
	types, ok := normalizeTypes(in.RequestTypes)
	if !ok {
		v.Add("request_types", "unknown request type")
	} else if len(types) == 0 {
		v.Add("request_types", "at least one request type is required")
	}
	if err := v.OrNil(); err != nil {
		return Profile{}, err
	}

	now := s.now().UTC()
	p, err := s.repo.GetByUserID(ctx, userID)
	switch {
	case err == nil:
	case apperrors.IsNotFound(err):
		p = Profile{ID: uuid.NewString(), UserID: userID, CreatedAt: now}
	default:
		return Profile{}, err
	}

	p.DisplayName = strings.TrimSpace(in.DisplayName)
	p.City = strings.TrimSpace(in.City)
	p.Country = strings.TrimSpace(in.Country)
	p.Bio = strings.TrimSpace(in.Bio)
	p.RequestTypes = types
	p.UpdatedAt = now

	if err := s.repo.Upsert(ctx, p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func normalizeTypes(in []placement.RequestType) ([]placement.RequestType, bool) {
	seen := map[placement.RequestType]struct{}{}
	out := make([]placement.RequestType, 0, len(in))
	for _, raw := range in {
		t := placement.RequestType(strings.TrimSpace(string(raw)))
		if t == "" {
			continue
		}
		if !t.Valid() {
			return nil, false
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out, true
}
