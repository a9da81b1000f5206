package placement

import (
	"fmt"
	"time"
)

// RequestType es el tipo de arreglo que busca el dueño.
// @Enum foster_free, foster_paid, permanent, adoption
type RequestType string

const (
	TypeFosterFree RequestType = "foster_free"
	TypeFosterPaid RequestType = "foster_paid"
	TypePermanent  RequestType = "permanent"
	TypeAdoption   RequestType = "adoption"
)

var AllRequestTypes = []RequestType{TypeFosterFree, TypeFosterPaid, TypePermanent, TypeAdoption}

func (t RequestType) Valid() bool {
	switch t {
	case TypeFosterFree, TypeFosterPaid, TypePermanent, TypeAdoption:
		return true
	}
	return false
}

// IsTimeBoxed: los fostering tienen fin; permanent/adoption no admiten end_date.
func (t RequestType) IsTimeBoxed() bool {
	switch t {
	case TypeFosterFree, TypeFosterPaid:
		return true
	case TypePermanent, TypeAdoption:
		return false
	default:
		panic(fmt.Sprintf("placement: unhandled request type %q", string(t)))
	}
}

// Status del placement request.
// @Enum open, pending_transfer, active, closed, cancelled
type Status string

const (
	StatusOpen            Status = "open"
	StatusPendingTransfer Status = "pending_transfer"
	StatusActive          Status = "active"
	StatusClosed          Status = "closed"
	StatusCancelled       Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusPendingTransfer, StatusActive, StatusClosed, StatusCancelled:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool {
	switch s {
	case StatusClosed, StatusCancelled:
		return true
	case StatusOpen, StatusPendingTransfer, StatusActive:
		return false
	default:
		panic(fmt.Sprintf("placement: unhandled status %q", string(s)))
	}
}

// VisibleStatuses en orden de prioridad para elegir el request "activo" de una mascota.
var VisibleStatuses = []Status{StatusOpen, StatusPendingTransfer, StatusActive}

// CanTransitionTo define la máquina de estados. reopen (pending_transfer|active -> open)
// es la única vuelta atrás y solo la dispara la cancelación del handover.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusOpen:
		return next == StatusPendingTransfer || next == StatusCancelled
	case StatusPendingTransfer:
		return next == StatusActive || next == StatusClosed || next == StatusOpen || next == StatusCancelled
	case StatusActive:
		return next == StatusClosed || next == StatusOpen || next == StatusCancelled
	case StatusClosed, StatusCancelled:
		return false
	default:
		panic(fmt.Sprintf("placement: unhandled status %q", string(s)))
	}
}

type PlacementRequest struct {
	ID          string
	PetID       string
	OwnerUserID string // dueño de la mascota al momento de crear

	RequestType RequestType
	Status      Status
	Notes       string

	StartDate time.Time
	EndDate   *time.Time
	ExpiresAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Actor es quien ejecuta una operación.
type Actor struct {
	UserID string
	Admin  bool
}

// ListFilter para el listado público de requests abiertos.
type ListFilter struct {
	Type   RequestType
	Limit  int
	Offset int
}

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
