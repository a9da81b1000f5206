package timeline

import "time"

type EventType string

const (
	EventRequestCreated    EventType = "REQUEST_CREATED"
	EventRequestCancelled  EventType = "REQUEST_CANCELLED"
	EventRequestClosed     EventType = "REQUEST_CLOSED"
	EventRequestReopened   EventType = "REQUEST_REOPENED"
	EventResponseSubmitted EventType = "RESPONSE_SUBMITTED"
	EventResponseWithdrawn EventType = "RESPONSE_WITHDRAWN"
	EventResponseAccepted  EventType = "RESPONSE_ACCEPTED"
	EventResponseRejected  EventType = "RESPONSE_REJECTED"
	EventHandoverScheduled EventType = "HANDOVER_SCHEDULED"
	EventHandoverConfirmed EventType = "HANDOVER_CONFIRMED"
	EventHandoverCompleted EventType = "HANDOVER_COMPLETED"
	EventHandoverCancelled EventType = "HANDOVER_CANCELLED"
)

// Entry es append-only; nunca se actualiza ni se borra.
type Entry struct {
	ID                 string
	PlacementRequestID string
	Type               EventType

	// RefID apunta a la entidad que cambió (response o transfer); vacío si es el request.
	RefID       string
	ActorUserID string // vacío si fue el sistema (cascada)
	Notes       string

	OccurredAt time.Time
}
