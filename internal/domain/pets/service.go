package pets

import (
	"context"
	"strings"
	"time"

	"pet-placement/internal/apperrors"

	"github.com/google/uuid"
)

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

type CreateInput struct {
	Name      string
	Species   Species
	Breed     string
	BirthDate *time.Time
	City      string
	Notes     string
}

func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Pet, error) {
	v := apperrors.NewValidation()
	if strings.TrimSpace(ownerUserID) == "" {
		v.Add("owner_user_id", "required")
	}
	if strings.TrimSpace(in.Name) == "" {
		v.Add("name", "required")
	}
	if in.Species == "" {
		in.Species = SpeciesOther
	}
	if !in.Species.Valid() {
		v.Add("species", "must be one of dog, cat, other")
	}
	if err := v.OrNil(); err != nil {
		return Pet{}, err
	}

	now := s.now().UTC()
	p := Pet{
		ID:          uuid.NewString(),
		OwnerUserID: strings.TrimSpace(ownerUserID),
		Name:        strings.TrimSpace(in.Name),
		Species:     in.Species,
		Breed:       strings.TrimSpace(in.Breed),
		BirthDate:   in.BirthDate,
		City:        strings.TrimSpace(in.City),
		Notes:       strings.TrimSpace(in.Notes),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	return s.repo.GetByID(ctx, strings.TrimSpace(id))
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error) {
	return s.repo.ListByOwner(ctx, ownerUserID)
}

// OwnerOf: placement y projection lo consumen por interfaz.
func (s *Service) OwnerOf(ctx context.Context, petID string) (string, error) {
	p, err := s.GetByID(ctx, petID)
	if err != nil {
		return "", err
	}
	return p.OwnerUserID, nil
}
