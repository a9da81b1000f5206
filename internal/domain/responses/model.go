package responses

import (
	"fmt"
	"time"

	"pet-placement/internal/domain/placement"
)

// Status de la respuesta de un helper.
// @Enum responded, accepted, rejected, withdrawn
type Status string

const (
	StatusResponded Status = "responded"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusWithdrawn Status = "withdrawn"
)

func (s Status) Valid() bool {
	switch s {
	case StatusResponded, StatusAccepted, StatusRejected, StatusWithdrawn:
		return true
	}
	return false
}

// IsLive: la respuesta sigue ocupando el par (request, helper).
func (s Status) IsLive() bool {
	switch s {
	case StatusResponded, StatusAccepted, StatusRejected:
		return true
	case StatusWithdrawn:
		return false
	default:
		panic(fmt.Sprintf("responses: unhandled status %q", string(s)))
	}
}

// CanTransitionTo: responded -> accepted|rejected|withdrawn; accepted -> rejected
// (handover cancelado o request cancelado); withdrawn -> responded (re-postulación).
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusResponded:
		return next == StatusAccepted || next == StatusRejected || next == StatusWithdrawn
	case StatusAccepted:
		return next == StatusRejected
	case StatusWithdrawn:
		return next == StatusResponded
	case StatusRejected:
		return false
	default:
		panic(fmt.Sprintf("responses: unhandled status %q", string(s)))
	}
}

// @Enum fostering, permanent
type RelationshipType string

const (
	RelationshipFostering RelationshipType = "fostering"
	RelationshipPermanent RelationshipType = "permanent"
)

func (r RelationshipType) Valid() bool {
	return r == RelationshipFostering || r == RelationshipPermanent
}

// Matches indica si la relación pedida corresponde a la familia del request.
func (r RelationshipType) Matches(t placement.RequestType) bool {
	if r == RelationshipFostering {
		return t.IsTimeBoxed()
	}
	return !t.IsTimeBoxed()
}

// @Enum free, paid
type FosteringType string

const (
	FosteringFree FosteringType = "free"
	FosteringPaid FosteringType = "paid"
)

func (f FosteringType) Valid() bool {
	return f == FosteringFree || f == FosteringPaid
}

// RequestType devuelve el tipo de request que cubre este fostering.
func (f FosteringType) RequestType() placement.RequestType {
	if f == FosteringPaid {
		return placement.TypeFosterPaid
	}
	return placement.TypeFosterFree
}

type Response struct {
	ID                 string
	PlacementRequestID string
	HelperProfileID    string
	HelperUserID       string

	Status           Status
	RelationshipType RelationshipType
	FosteringType    FosteringType // vacío salvo fostering
	Price            *float64      // solo fostering paid
	Message          string

	RespondedAt time.Time
	UpdatedAt   time.Time
}
