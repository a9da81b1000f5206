package storage

import "context"

// Transactor ejecuta fn como una unidad atómica. Los repos toman la tx del ctx.
// Llamadas anidadas se unen a la tx externa.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error

	// WithinReadTx es una tx de solo lectura con una vista estable:
	// todas las lecturas de fn ven el mismo estado confirmado.
	WithinReadTx(ctx context.Context, fn func(ctx context.Context) error) error
}
