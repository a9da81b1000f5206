package transfers

import "context"

type Repository interface {
	Create(ctx context.Context, t Transfer) error
	GetByID(ctx context.Context, id string) (Transfer, error)
	GetForUpdate(ctx context.Context, id string) (Transfer, error)
	// Update es compare-and-set sobre el status previo (apperrors.ErrConflict si cambió).
	Update(ctx context.Context, t Transfer, from Status) error
	ListByRequest(ctx context.Context, requestID string) ([]Transfer, error)
}
