package responses

import "context"

type Repository interface {
	Create(ctx context.Context, r Response) error
	GetByID(ctx context.Context, id string) (Response, error)
	// Update es compare-and-set sobre el status previo (apperrors.ErrConflict si cambió).
	Update(ctx context.Context, r Response, from Status) error
	ListByRequest(ctx context.Context, requestID string) ([]Response, error)
	// FindByPair devuelve apperrors.ErrNotFound si el helper nunca respondió al request.
	FindByPair(ctx context.Context, requestID, helperProfileID string) (Response, error)
}
