package accessgrants

import (
	"context"
	"time"
)

// Repository es el AccessGrantStore. Las implementaciones devuelven
// ErrNotFound (envuelto o directo) cuando no hay registro.
type Repository interface {
	Create(ctx context.Context, g Grant) error
	GetByID(ctx context.Context, id string) (Grant, error)

	// GetActiveByToken junta "no existe" e "inactivo" en un solo lookup.
	GetActiveByToken(ctx context.Context, token string) (Grant, error)

	// IncrementAccessCount es atómico en el store (count = count + 1)
	// y devuelve el valor nuevo.
	IncrementAccessCount(ctx context.Context, id string) (int64, error)

	SetActive(ctx context.Context, id string, active bool, at time.Time) error
}
