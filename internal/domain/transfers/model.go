package transfers

import (
	"fmt"
	"time"
)

// Status del handover.
// @Enum pending, scheduled, confirmed, completed, cancelled
type Status string

const (
	StatusPending   Status = "pending"
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled:
		return true
	case StatusPending, StatusScheduled, StatusConfirmed:
		return false
	default:
		panic(fmt.Sprintf("transfers: unhandled status %q", string(s)))
	}
}

// CanTransitionTo: pending -> scheduled -> confirmed -> completed;
// scheduled -> scheduled es re-agendar; cancelled desde cualquier no terminal.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusScheduled || next == StatusCancelled
	case StatusScheduled:
		return next == StatusScheduled || next == StatusConfirmed || next == StatusCompleted || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCompleted || next == StatusCancelled
	case StatusCompleted, StatusCancelled:
		return false
	default:
		panic(fmt.Sprintf("transfers: unhandled status %q", string(s)))
	}
}

// Transfer es el registro de handover, 1:1 con la response aceptada.
type Transfer struct {
	ID                 string
	ResponseID         string
	PlacementRequestID string

	OwnerUserID     string
	HelperUserID    string
	InitiatorUserID string // quien aceptó (normalmente el dueño)

	Status Status

	ScheduledAt *time.Time
	Location    string
	ScheduledBy string

	ConfirmedAt *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
	CancelledBy string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t Transfer) IsParty(userID string) bool {
	return userID != "" && (userID == t.OwnerUserID || userID == t.HelperUserID)
}

// Counterparty devuelve la otra parte; vacío si userID no es parte.
func (t Transfer) Counterparty(userID string) string {
	switch userID {
	case t.OwnerUserID:
		return t.HelperUserID
	case t.HelperUserID:
		return t.OwnerUserID
	default:
		return ""
	}
}
