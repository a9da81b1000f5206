package helpers

import (
	"time"

	"pet-placement/internal/domain/placement"
)

// Profile es la ficha del helper (fosterer/adoptante). Para el workflow es de solo lectura.
type Profile struct {
	ID          string
	UserID      string
	DisplayName string
	City        string
	Country     string
	Bio         string

	// RequestTypes son los tipos de placement que el helper acepta.
	RequestTypes []placement.RequestType

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p Profile) Supports(t placement.RequestType) bool {
	for _, rt := range p.RequestTypes {
		if rt == t {
			return true
		}
	}
	return false
}
