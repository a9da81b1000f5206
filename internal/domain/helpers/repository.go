package helpers

import "context"

// Registry es el puerto HelperProfileRegistry: lookup por identidad.
// Lo implementan el store local y el cliente HTTP del registry externo.
type Registry interface {
	GetByID(ctx context.Context, id string) (Profile, error)
	GetByUserID(ctx context.Context, userID string) (Profile, error)
}

// Repository agrega escritura para el modo local.
type Repository interface {
	Registry
	Upsert(ctx context.Context, p Profile) error
}
