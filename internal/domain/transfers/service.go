package transfers

import (
	"context"
	"strings"
	"time"

	"pet-placement/internal/apperrors"
	"pet-placement/internal/domain/placement"
	"pet-placement/internal/domain/timeline"
	"pet-placement/internal/platform/metrics"
	"pet-placement/internal/ports/notify"
	"pet-placement/internal/ports/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	entityName     = "transfer"
	maxLocationLen = 500
)

// RequestLifecycle son las transiciones del placement request que dispara el handover.
type RequestLifecycle interface {
	GetForUpdate(ctx context.Context, id string) (placement.PlacementRequest, error)
	MarkActive(ctx context.Context, id, actorUserID string) error
	Reopen(ctx context.Context, id, actorUserID string) error
	Close(ctx context.Context, id, actorUserID string) error
}

// ResponseReverter devuelve la response aceptada a rejected al cancelar el handover.
type ResponseReverter interface {
	RevertAccepted(ctx context.Context, responseID, actorUserID string) error
}

type Recorder interface {
	Record(ctx context.Context, requestID string, typ timeline.EventType, refID, actorUserID string) error
}

type Deps struct {
	Repo     Repository
	Tx       storage.Transactor
	Requests RequestLifecycle
	Timeline Recorder
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
	Log      *zap.Logger
}

type Service struct {
	repo      Repository
	tx        storage.Transactor
	requests  RequestLifecycle
	responses ResponseReverter
	timeline  Recorder
	notifier  notify.Notifier
	metrics   *metrics.Metrics
	log       *zap.Logger
	now       func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		repo:     d.Repo,
		tx:       d.Tx,
		requests: d.Requests,
		timeline: d.Timeline,
		notifier: d.Notifier,
		metrics:  d.Metrics,
		log:      d.Log,
		now:      time.Now,
	}
	if s.notifier == nil {
		s.notifier = notify.Nop{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// SetResponseReverter rompe el ciclo responses -> transfers -> responses.
func (s *Service) SetResponseReverter(r ResponseReverter) {
	s.responses = r
}

type CreateInput struct {
	ResponseID         string
	PlacementRequestID string
	OwnerUserID        string
	HelperUserID       string
	InitiatorUserID    string
}

// Create es interno: solo lo invoca ResponseManager.Accept dentro de su tx.
func (s *Service) Create(ctx context.Context, in CreateInput) (Transfer, error) {
	now := s.now().UTC()
	t := Transfer{
		ID:                 uuid.NewString(),
		ResponseID:         in.ResponseID,
		PlacementRequestID: in.PlacementRequestID,
		OwnerUserID:        in.OwnerUserID,
		HelperUserID:       in.HelperUserID,
		InitiatorUserID:    in.InitiatorUserID,
		Status:             StatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.ListByRequest(ctx, in.PlacementRequestID)
		if err != nil {
			return err
		}
		for _, e := range existing {
			if !e.Status.IsTerminal() {
				return apperrors.Conflict("placement request already has a live transfer %s", e.ID)
			}
		}
		return s.repo.Create(ctx, t)
	})
	if err != nil {
		return Transfer{}, err
	}

	s.metrics.Transition(entityName, string(StatusPending))
	return t, nil
}

func (s *Service) Get(ctx context.Context, id string, actor placement.Actor) (Transfer, error) {
	t, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Transfer{}, err
	}
	if !t.IsParty(actor.UserID) && !actor.Admin {
		return Transfer{}, apperrors.Forbidden("not a party to this transfer")
	}
	return t, nil
}

func (s *Service) ListByRequest(ctx context.Context, requestID string) ([]Transfer, error) {
	return s.repo.ListByRequest(ctx, strings.TrimSpace(requestID))
}

type ScheduleInput struct {
	ScheduledAt *time.Time
	Location    *string
}

// ScheduleHandover: cualquiera de las partes; pending|scheduled. Re-agendar pisa los valores previos.
func (s *Service) ScheduleHandover(ctx context.Context, id string, actor placement.Actor, in ScheduleInput) (Transfer, error) {
	v := apperrors.NewValidation()
	if in.ScheduledAt != nil && in.ScheduledAt.IsZero() {
		v.Add("scheduled_at", "invalid datetime")
	}
	if in.Location != nil && len(strings.TrimSpace(*in.Location)) > maxLocationLen {
		v.Add("location", "too long")
	}
	if err := v.OrNil(); err != nil {
		return Transfer{}, err
	}

	return s.mutate(ctx, id, actor, "schedule", func(ctx context.Context, t *Transfer) (timeline.EventType, error) {
		if !t.Status.CanTransitionTo(StatusScheduled) {
			return "", apperrors.Conflict("transfer is %s, cannot be scheduled", t.Status)
		}
		if in.ScheduledAt != nil {
			at := in.ScheduledAt.UTC()
			t.ScheduledAt = &at
		}
		if in.Location != nil {
			t.Location = strings.TrimSpace(*in.Location)
		}
		t.ScheduledBy = actor.UserID
		t.Status = StatusScheduled
		return timeline.EventHandoverScheduled, nil
	})
}

// ConfirmHandover: la contraparte de quien agendó confirma; scheduled -> confirmed.
// El placement request pasa a active.
func (s *Service) ConfirmHandover(ctx context.Context, id string, actor placement.Actor) (Transfer, error) {
	return s.mutate(ctx, id, actor, "confirm", func(ctx context.Context, t *Transfer) (timeline.EventType, error) {
		if t.Status != StatusScheduled {
			return "", apperrors.Conflict("transfer is %s, only scheduled transfers can be confirmed", t.Status)
		}
		if actor.UserID == t.ScheduledBy && !actor.Admin {
			return "", apperrors.Forbidden("the handover must be confirmed by the counterparty")
		}
		if err := s.requests.MarkActive(ctx, t.PlacementRequestID, actor.UserID); err != nil {
			return "", err
		}
		now := s.now().UTC()
		t.ConfirmedAt = &now
		t.Status = StatusConfirmed
		return timeline.EventHandoverConfirmed, nil
	})
}

// CompleteHandover: scheduled|confirmed -> completed y cierra el placement request.
func (s *Service) CompleteHandover(ctx context.Context, id string, actor placement.Actor) (Transfer, error) {
	return s.mutate(ctx, id, actor, "complete", func(ctx context.Context, t *Transfer) (timeline.EventType, error) {
		if t.Status != StatusScheduled && t.Status != StatusConfirmed {
			return "", apperrors.Conflict("transfer is %s, cannot be completed", t.Status)
		}
		if err := s.requests.Close(ctx, t.PlacementRequestID, actor.UserID); err != nil {
			return "", err
		}
		now := s.now().UTC()
		t.CompletedAt = &now
		t.Status = StatusCompleted
		return timeline.EventHandoverCompleted, nil
	})
}

// CancelHandover: cualquier parte, desde cualquier estado no terminal.
// La response aceptada vuelve a rejected y el request a open (acepta nuevas respuestas).
func (s *Service) CancelHandover(ctx context.Context, id string, actor placement.Actor) (Transfer, error) {
	return s.mutate(ctx, id, actor, "cancel", func(ctx context.Context, t *Transfer) (timeline.EventType, error) {
		if t.Status.IsTerminal() {
			return "", apperrors.Conflict("transfer is already %s", t.Status)
		}
		if s.responses != nil {
			if err := s.responses.RevertAccepted(ctx, t.ResponseID, actor.UserID); err != nil {
				return "", err
			}
		}
		if err := s.requests.Reopen(ctx, t.PlacementRequestID, actor.UserID); err != nil {
			return "", err
		}
		s.markCancelled(t, actor.UserID)
		return timeline.EventHandoverCancelled, nil
	})
}

// CancelForRequest es la cascada de PlacementRequestStore.Cancel: no reabre nada.
func (s *Service) CancelForRequest(ctx context.Context, requestID string) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		items, err := s.repo.ListByRequest(ctx, requestID)
		if err != nil {
			return err
		}
		for _, t := range items {
			if t.Status.IsTerminal() {
				continue
			}
			from := t.Status
			s.markCancelled(&t, "")
			if err := s.repo.Update(ctx, t, from); err != nil {
				return err
			}
			if err := s.timeline.Record(ctx, requestID, timeline.EventHandoverCancelled, t.ID, ""); err != nil {
				return err
			}
			s.metrics.Transition(entityName, string(StatusCancelled))
		}
		return nil
	})
}

func (s *Service) markCancelled(t *Transfer, actorUserID string) {
	now := s.now().UTC()
	t.CancelledAt = &now
	t.CancelledBy = actorUserID
	t.Status = StatusCancelled
}

type mutation func(ctx context.Context, t *Transfer) (timeline.EventType, error)

// mutate: lock + auth de parte + transición + CAS + historial, todo en una tx.
func (s *Service) mutate(ctx context.Context, id string, actor placement.Actor, op string, fn mutation) (Transfer, error) {
	var out Transfer
	var from Status

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		cur, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
		if err != nil {
			return err
		}
		// orden de locks: request y después transfer, igual que Cancel y Accept
		if _, err := s.requests.GetForUpdate(ctx, cur.PlacementRequestID); err != nil {
			return err
		}
		t, err := s.repo.GetForUpdate(ctx, cur.ID)
		if err != nil {
			return err
		}
		if !t.IsParty(actor.UserID) && !actor.Admin {
			return apperrors.Forbidden("not a party to this transfer")
		}

		from = t.Status
		event, err := fn(ctx, &t)
		if err != nil {
			return err
		}
		t.UpdatedAt = s.now().UTC()

		if err := s.repo.Update(ctx, t, from); err != nil {
			return err
		}
		if err := s.timeline.Record(ctx, t.PlacementRequestID, event, t.ID, actor.UserID); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		if apperrors.IsConflict(err) {
			s.metrics.Conflict(entityName + "." + op)
			s.log.Warn("transfer conflict", zap.String("transfer_id", id), zap.String("operation", op), zap.Error(err))
		}
		return Transfer{}, err
	}

	s.metrics.Transition(entityName, string(out.Status))
	s.log.Info("transfer transition",
		zap.String("transfer_id", out.ID),
		zap.String("request_id", out.PlacementRequestID),
		zap.String("from", string(from)),
		zap.String("to", string(out.Status)),
		zap.String("actor", actor.UserID),
	)
	s.notifier.Notify(ctx, notify.Change{
		Entity:     notify.EntityTransfer,
		EntityID:   out.ID,
		RequestID:  out.PlacementRequestID,
		Event:      op,
		Recipients: []string{out.OwnerUserID, out.HelperUserID},
	})
	return out, nil
}
