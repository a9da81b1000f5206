package placement

import "context"

type Repository interface {
	Create(ctx context.Context, pr PlacementRequest) error
	GetByID(ctx context.Context, id string) (PlacementRequest, error)
	// GetForUpdate bloquea la fila hasta el fin de la tx (SELECT ... FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (PlacementRequest, error)
	// UpdateStatus es compare-and-set: falla con apperrors.ErrConflict si la fila ya no está en from.
	UpdateStatus(ctx context.Context, pr PlacementRequest, from Status) error
	ListByPet(ctx context.Context, petID string) ([]PlacementRequest, error)
	ListOpen(ctx context.Context, f ListFilter) ([]PlacementRequest, error)
}
