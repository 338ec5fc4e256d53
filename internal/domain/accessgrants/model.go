package accessgrants

import "time"

// Grant es un acto de compartir contenido bajo un token público,
// revocable y con vencimiento. Nunca se borra: expiry y revocación son estados.
type Grant struct {
	ID string // id interno del store (distinto del token público)

	OwnerUserID string // quien comparte

	AccessToken       string
	ContentIdentifier string

	ExpiryTime  time.Time
	IsActive    bool
	HasPassword bool

	// Solo crece; +1 por cada resolución exitosa.
	AccessCount int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired indica si el grant venció en t (estrictamente después de ExpiryTime).
func (g Grant) Expired(t time.Time) bool {
	return t.After(g.ExpiryTime)
}
