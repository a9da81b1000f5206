package placement

import (
	"context"
	"strings"
	"time"

	"pet-placement/internal/apperrors"
	"pet-placement/internal/domain/timeline"
	"pet-placement/internal/platform/metrics"
	"pet-placement/internal/ports/notify"
	"pet-placement/internal/ports/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const entityName = "placement_request"

// PetOwnerLookup evita importar el paquete pets (rompe ciclos).
type PetOwnerLookup interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

// Recorder escribe el historial dentro de la misma tx.
type Recorder interface {
	Record(ctx context.Context, requestID string, typ timeline.EventType, refID, actorUserID string) error
}

// ResponseRejecter y TransferCanceller son las cascadas de Cancel.
// Se inyectan con SetCascade porque responses/transfers dependen de este paquete.
type ResponseRejecter interface {
	// RejectAllForRequest pasa responded/accepted a rejected y devuelve los user ids afectados.
	RejectAllForRequest(ctx context.Context, requestID string) ([]string, error)
}

type TransferCanceller interface {
	// CancelForRequest cancela transfers no terminales sin reabrir el request.
	CancelForRequest(ctx context.Context, requestID string) error
}

type Deps struct {
	Repo     Repository
	Tx       storage.Transactor
	Pets     PetOwnerLookup
	Timeline Recorder
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
	Log      *zap.Logger

	// PermanentExpiry es la política de expires_at para tipos sin fin.
	PermanentExpiry time.Duration
}

type Service struct {
	repo      Repository
	tx        storage.Transactor
	pets      PetOwnerLookup
	timeline  Recorder
	notifier  notify.Notifier
	metrics   *metrics.Metrics
	log       *zap.Logger
	expiry    time.Duration
	responses ResponseRejecter
	transfers TransferCanceller
	now       func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		repo:     d.Repo,
		tx:       d.Tx,
		pets:     d.Pets,
		timeline: d.Timeline,
		notifier: d.Notifier,
		metrics:  d.Metrics,
		log:      d.Log,
		expiry:   d.PermanentExpiry,
		now:      time.Now,
	}
	if s.notifier == nil {
		s.notifier = notify.Nop{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.expiry <= 0 {
		s.expiry = 60 * 24 * time.Hour
	}
	return s
}

func (s *Service) SetCascade(responses ResponseRejecter, transfers TransferCanceller) {
	s.responses = responses
	s.transfers = transfers
}

type CreateInput struct {
	PetID       string
	RequestType RequestType
	StartDate   *time.Time
	EndDate     *time.Time
	Notes       string
}

func (s *Service) Create(ctx context.Context, actor Actor, in CreateInput) (PlacementRequest, error) {
	petID := strings.TrimSpace(in.PetID)

	v := apperrors.NewValidation()
	if petID == "" {
		v.Add("pet_id", "required")
	}
	if !in.RequestType.Valid() {
		v.Add("request_type", "must be one of foster_free, foster_paid, permanent, adoption")
	}
	if in.StartDate == nil || in.StartDate.IsZero() {
		v.Add("start_date", "required")
	}
	if in.EndDate != nil {
		if in.RequestType.Valid() && !in.RequestType.IsTimeBoxed() {
			v.Add("end_date", "not allowed for permanent requests")
		} else if in.StartDate != nil && in.EndDate.Before(*in.StartDate) {
			v.Add("end_date", "must be on or after start_date")
		}
	}
	if err := v.OrNil(); err != nil {
		return PlacementRequest{}, err
	}

	ownerID, err := s.pets.OwnerOf(ctx, petID)
	if err != nil {
		return PlacementRequest{}, err
	}
	if ownerID != actor.UserID && !actor.Admin {
		return PlacementRequest{}, apperrors.Forbidden("only the pet owner can create placement requests")
	}

	now := s.now().UTC()
	pr := PlacementRequest{
		ID:          uuid.NewString(),
		PetID:       petID,
		OwnerUserID: ownerID,
		RequestType: in.RequestType,
		Status:      StatusOpen,
		Notes:       strings.TrimSpace(in.Notes),
		StartDate:   in.StartDate.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.EndDate != nil {
		end := in.EndDate.UTC()
		pr.EndDate = &end
	}
	// expires_at se calcula siempre acá, nunca viene del cliente.
	if pr.RequestType.IsTimeBoxed() {
		pr.ExpiresAt = pr.StartDate
	} else {
		pr.ExpiresAt = now.Add(s.expiry)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.ListByPet(ctx, petID)
		if err != nil {
			return err
		}
		for _, e := range existing {
			if e.RequestType == pr.RequestType && !e.Status.IsTerminal() {
				return apperrors.Conflict("pet already has a %s placement request in status %s", e.RequestType, e.Status)
			}
		}
		if err := s.repo.Create(ctx, pr); err != nil {
			return err
		}
		return s.timeline.Record(ctx, pr.ID, timeline.EventRequestCreated, "", actor.UserID)
	})
	if err != nil {
		s.conflict("create", err)
		return PlacementRequest{}, err
	}

	s.metrics.Transition(entityName, string(StatusOpen))
	s.log.Info("placement request created",
		zap.String("request_id", pr.ID),
		zap.String("pet_id", pr.PetID),
		zap.String("request_type", string(pr.RequestType)),
	)
	s.notifier.Notify(ctx, notify.Change{
		Entity:    notify.EntityPlacementRequest,
		EntityID:  pr.ID,
		RequestID: pr.ID,
		Event:     "created",
	})
	return pr, nil
}

func (s *Service) Get(ctx context.Context, id string) (PlacementRequest, error) {
	return s.repo.GetByID(ctx, strings.TrimSpace(id))
}

// GetForUpdate bloquea el request dentro de la tx del caller.
func (s *Service) GetForUpdate(ctx context.Context, id string) (PlacementRequest, error) {
	return s.repo.GetForUpdate(ctx, strings.TrimSpace(id))
}

func (s *Service) ListByPet(ctx context.Context, petID string) ([]PlacementRequest, error) {
	return s.repo.ListByPet(ctx, strings.TrimSpace(petID))
}

func (s *Service) ListOpen(ctx context.Context, f ListFilter) ([]PlacementRequest, error) {
	if f.Type != "" && !f.Type.Valid() {
		return nil, apperrors.Invalid("type", "unknown request type")
	}
	return s.repo.ListOpen(ctx, f.Normalize())
}

// Cancel: solo dueño o admin. Cascada: transfers vivos -> cancelled,
// responses responded/accepted -> rejected. Todo o nada.
func (s *Service) Cancel(ctx context.Context, id string, actor Actor) (PlacementRequest, error) {
	var (
		out      PlacementRequest
		affected []string
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		pr, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if pr.OwnerUserID != actor.UserID && !actor.Admin {
			return apperrors.Forbidden("only the owner or an administrator can cancel")
		}
		if pr.Status.IsTerminal() {
			return apperrors.Conflict("placement request is already %s", pr.Status)
		}

		if s.transfers != nil {
			if err := s.transfers.CancelForRequest(ctx, pr.ID); err != nil {
				return err
			}
		}
		if s.responses != nil {
			affected, err = s.responses.RejectAllForRequest(ctx, pr.ID)
			if err != nil {
				return err
			}
		}

		out, err = s.apply(ctx, pr, StatusCancelled, timeline.EventRequestCancelled, actor.UserID)
		return err
	})
	if err != nil {
		s.conflict("cancel", err)
		return PlacementRequest{}, err
	}

	s.notifier.Notify(ctx, notify.Change{
		Entity:     notify.EntityPlacementRequest,
		EntityID:   out.ID,
		RequestID:  out.ID,
		Event:      "cancelled",
		Recipients: affected,
	})
	return out, nil
}

// MarkPendingTransfer: open -> pending_transfer (accept).
func (s *Service) MarkPendingTransfer(ctx context.Context, id, actorUserID string) error {
	return s.transition(ctx, id, StatusPendingTransfer, "", actorUserID)
}

// MarkActive: pending_transfer -> active (handover confirmado).
func (s *Service) MarkActive(ctx context.Context, id, actorUserID string) error {
	return s.transition(ctx, id, StatusActive, "", actorUserID)
}

// Reopen: pending_transfer|active -> open (handover cancelado).
func (s *Service) Reopen(ctx context.Context, id, actorUserID string) error {
	return s.transition(ctx, id, StatusOpen, timeline.EventRequestReopened, actorUserID)
}

// Close es interno: solo lo invoca TransferCoordinator al completar el handover.
func (s *Service) Close(ctx context.Context, id, actorUserID string) error {
	return s.transition(ctx, id, StatusClosed, timeline.EventRequestClosed, actorUserID)
}

func (s *Service) transition(ctx context.Context, id string, to Status, event timeline.EventType, actorUserID string) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		pr, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		_, err = s.apply(ctx, pr, to, event, actorUserID)
		return err
	})
}

func (s *Service) apply(ctx context.Context, pr PlacementRequest, to Status, event timeline.EventType, actorUserID string) (PlacementRequest, error) {
	from := pr.Status
	if !from.CanTransitionTo(to) {
		return PlacementRequest{}, apperrors.Conflict("placement request is %s, cannot move to %s", from, to)
	}

	pr.Status = to
	pr.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateStatus(ctx, pr, from); err != nil {
		return PlacementRequest{}, err
	}
	if event != "" {
		if err := s.timeline.Record(ctx, pr.ID, event, "", actorUserID); err != nil {
			return PlacementRequest{}, err
		}
	}

	s.metrics.Transition(entityName, string(to))
	s.log.Info("placement request transition",
		zap.String("request_id", pr.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor", actorUserID),
	)
	return pr, nil
}

func (s *Service) conflict(op string, err error) {
	if apperrors.IsConflict(err) {
		s.metrics.Conflict(entityName + "." + op)
		s.log.Warn("placement request conflict", zap.String("operation", op), zap.Error(err))
	}
}
