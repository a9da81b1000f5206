package responses

import (
	"context"
	"math"
	"strings"
	"time"

	"pet-placement/internal/apperrors"
	"pet-placement/internal/domain/helpers"
	"pet-placement/internal/domain/placement"
	"pet-placement/internal/domain/timeline"
	"pet-placement/internal/domain/transfers"
	"pet-placement/internal/platform/metrics"
	"pet-placement/internal/ports/notify"
	"pet-placement/internal/ports/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	entityName    = "response"
	maxMessageLen = 2000
)

// RequestStore es lo que ResponseManager necesita del PlacementRequestStore.
type RequestStore interface {
	Get(ctx context.Context, id string) (placement.PlacementRequest, error)
	GetForUpdate(ctx context.Context, id string) (placement.PlacementRequest, error)
	MarkPendingTransfer(ctx context.Context, id, actorUserID string) error
}

type ProfileLookup interface {
	Get(ctx context.Context, id string) (helpers.Profile, error)
}

type TransferCreator interface {
	Create(ctx context.Context, in transfers.CreateInput) (transfers.Transfer, error)
}

type Recorder interface {
	Record(ctx context.Context, requestID string, typ timeline.EventType, refID, actorUserID string) error
}

type Deps struct {
	Repo      Repository
	Tx        storage.Transactor
	Requests  RequestStore
	Profiles  ProfileLookup
	Transfers TransferCreator
	Timeline  Recorder
	Notifier  notify.Notifier
	Metrics   *metrics.Metrics
	Log       *zap.Logger
}

type Service struct {
	repo      Repository
	tx        storage.Transactor
	requests  RequestStore
	profiles  ProfileLookup
	transfers TransferCreator
	timeline  Recorder
	notifier  notify.Notifier
	metrics   *metrics.Metrics
	log       *zap.Logger
	now       func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		repo:      d.Repo,
		tx:        d.Tx,
		requests:  d.Requests,
		profiles:  d.Profiles,
		transfers: d.Transfers,
		timeline:  d.Timeline,
		notifier:  d.Notifier,
		metrics:   d.Metrics,
		log:       d.Log,
		now:       time.Now,
	}
	if s.notifier == nil {
		s.notifier = notify.Nop{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

type RespondInput struct {
	RequestID        string
	HelperProfileID  string
	RelationshipType RelationshipType
	FosteringType    FosteringType
	Price            *float64
	Message          string
}

func (in RespondInput) validate() error {
	v := apperrors.NewValidation()
	if strings.TrimSpace(in.RequestID) == "" {
		v.Add("placement_request_id", "required")
	}
	if strings.TrimSpace(in.HelperProfileID) == "" {
		v.Add("helper_profile_id", "required")
	}
	if len(in.Message) > maxMessageLen {
		v.Add("message", "too long")
	}

	switch in.RelationshipType {
	case RelationshipFostering:
		if !in.FosteringType.Valid() {
			v.Add("fostering_type", "must be free or paid for fostering")
		}
	case RelationshipPermanent:
		if in.FosteringType != "" {
			v.Add("fostering_type", "only allowed for fostering")
		}
	default:
		v.Add("requested_relationship_type", "must be fostering or permanent")
	}

	if in.FosteringType == FosteringPaid {
		if in.Price == nil {
			v.Add("price", "required for paid fostering")
		} else if p := *in.Price; p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			v.Add("price", "must be greater than 0")
		}
	} else if in.Price != nil {
		v.Add("price", "only allowed for paid fostering")
	}
	return v.OrNil()
}

// Respond registra la oferta del helper. Una respuesta withdrawn del mismo par se reactiva.
func (s *Service) Respond(ctx context.Context, actor placement.Actor, in RespondInput) (Response, error) {
	if err := in.validate(); err != nil {
		return Response{}, err
	}

	profile, err := s.profiles.Get(ctx, strings.TrimSpace(in.HelperProfileID))
	if err != nil {
		return Response{}, err
	}
	if profile.UserID != actor.UserID {
		return Response{}, apperrors.Forbidden("helper profile does not belong to the caller")
	}

	var (
		out   Response
		owner string
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		pr, err := s.requests.GetForUpdate(ctx, strings.TrimSpace(in.RequestID))
		if err != nil {
			return err
		}
		owner = pr.OwnerUserID
		if pr.OwnerUserID == actor.UserID {
			return apperrors.Forbidden("owners cannot respond to their own placement request")
		}
		if !in.RelationshipType.Matches(pr.RequestType) {
			return apperrors.Invalid("requested_relationship_type", "does not match the placement request type")
		}
		requested := pr.RequestType
		if in.RelationshipType == RelationshipFostering {
			requested = in.FosteringType.RequestType()
		}
		if !profile.Supports(requested) {
			return apperrors.Invalid("requested_relationship_type", "not allowed by the helper profile")
		}
		if pr.Status != placement.StatusOpen {
			return apperrors.Conflict("placement request is %s, not accepting responses", pr.Status)
		}

		now := s.now().UTC()
		prev, err := s.repo.FindByPair(ctx, pr.ID, profile.ID)
		switch {
		case err == nil:
			if prev.Status.IsLive() {
				return apperrors.Conflict("helper already responded to this placement request")
			}
			out = prev
		case apperrors.IsNotFound(err):
			out = Response{
				ID:                 uuid.NewString(),
				PlacementRequestID: pr.ID,
				HelperProfileID:    profile.ID,
				HelperUserID:       profile.UserID,
			}
		default:
			return err
		}

		out.Status = StatusResponded
		out.RelationshipType = in.RelationshipType
		out.FosteringType = in.FosteringType
		out.Price = in.Price
		out.Message = strings.TrimSpace(in.Message)
		out.RespondedAt = now
		out.UpdatedAt = now

		if prev.ID != "" {
			err = s.repo.Update(ctx, out, StatusWithdrawn)
		} else {
			err = s.repo.Create(ctx, out)
		}
		if err != nil {
			return err
		}
		return s.timeline.Record(ctx, pr.ID, timeline.EventResponseSubmitted, out.ID, actor.UserID)
	})
	if err != nil {
		s.conflict("respond", err)
		return Response{}, err
	}

	s.metrics.Transition(entityName, string(StatusResponded))
	s.log.Info("response submitted",
		zap.String("response_id", out.ID),
		zap.String("request_id", out.PlacementRequestID),
		zap.String("helper_profile_id", out.HelperProfileID),
	)
	s.notify(ctx, out, "submitted", owner)
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (Response, error) {
	return s.repo.GetByID(ctx, strings.TrimSpace(id))
}

func (s *Service) ListByRequest(ctx context.Context, requestID string) ([]Response, error) {
	return s.repo.ListByRequest(ctx, strings.TrimSpace(requestID))
}

// ListForRequest: el dueño (o admin) ve todas; un helper solo la suya.
func (s *Service) ListForRequest(ctx context.Context, requestID string, actor placement.Actor) ([]Response, error) {
	pr, err := s.requests.Get(ctx, strings.TrimSpace(requestID))
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListByRequest(ctx, pr.ID)
	if err != nil {
		return nil, err
	}
	if pr.OwnerUserID == actor.UserID || actor.Admin {
		return items, nil
	}

	mine := make([]Response, 0, 1)
	for _, r := range items {
		if r.HelperUserID == actor.UserID {
			mine = append(mine, r)
		}
	}
	return mine, nil
}

// Withdraw: solo el helper que respondió, solo mientras responded.
func (s *Service) Withdraw(ctx context.Context, id string, actor placement.Actor) (Response, error) {
	var owner string
	out, err := s.change(ctx, id, "withdraw", func(ctx context.Context, r *Response) (timeline.EventType, error) {
		if r.HelperUserID != actor.UserID {
			return "", apperrors.Forbidden("only the responding helper can withdraw")
		}
		if r.Status != StatusResponded {
			return "", apperrors.Conflict("response is %s, cannot be withdrawn", r.Status)
		}
		pr, err := s.requests.Get(ctx, r.PlacementRequestID)
		if err != nil {
			return "", err
		}
		owner = pr.OwnerUserID
		r.Status = StatusWithdrawn
		return timeline.EventResponseWithdrawn, nil
	}, actor.UserID)
	if err != nil {
		return Response{}, err
	}
	s.notify(ctx, out, "withdrawn", owner)
	return out, nil
}

// Reject: solo el dueño, solo mientras responded. No toca el request.
func (s *Service) Reject(ctx context.Context, id string, actor placement.Actor) (Response, error) {
	out, err := s.change(ctx, id, "reject", func(ctx context.Context, r *Response) (timeline.EventType, error) {
		pr, err := s.requests.Get(ctx, r.PlacementRequestID)
		if err != nil {
			return "", err
		}
		if pr.OwnerUserID != actor.UserID {
			return "", apperrors.Forbidden("only the placement request owner can reject")
		}
		if r.Status != StatusResponded {
			return "", apperrors.Conflict("response is %s, cannot be rejected", r.Status)
		}
		r.Status = StatusRejected
		return timeline.EventResponseRejected, nil
	}, actor.UserID)
	if err != nil {
		return Response{}, err
	}
	s.notify(ctx, out, "rejected", out.HelperUserID)
	return out, nil
}

// Accept es la transición crítica. En una sola tx y con el request bloqueado:
// verifica que no haya otra aceptada, acepta esta, rechaza el resto de responded,
// pasa el request a pending_transfer y crea el transfer pending.
func (s *Service) Accept(ctx context.Context, id string, actor placement.Actor) (transfers.Transfer, error) {
	var (
		accepted Response
		rejected []Response
		transfer transfers.Transfer
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		r, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
		if err != nil {
			return err
		}
		pr, err := s.requests.GetForUpdate(ctx, r.PlacementRequestID)
		if err != nil {
			return err
		}
		if pr.OwnerUserID != actor.UserID {
			return apperrors.Forbidden("only the placement request owner can accept")
		}

		// relectura con el request bloqueado
		siblings, err := s.repo.ListByRequest(ctx, pr.ID)
		if err != nil {
			return err
		}
		for _, o := range siblings {
			if o.ID == r.ID {
				r = o
				continue
			}
			if o.Status == StatusAccepted {
				return apperrors.Conflict("another response (%s) is already accepted", o.ID)
			}
		}
		if r.Status != StatusResponded {
			return apperrors.Conflict("response is %s, cannot be accepted", r.Status)
		}
		if pr.Status != placement.StatusOpen {
			return apperrors.Conflict("placement request is %s, cannot accept responses", pr.Status)
		}

		now := s.now().UTC()
		r.Status = StatusAccepted
		r.UpdatedAt = now
		if err := s.repo.Update(ctx, r, StatusResponded); err != nil {
			return err
		}
		if err := s.timeline.Record(ctx, pr.ID, timeline.EventResponseAccepted, r.ID, actor.UserID); err != nil {
			return err
		}
		accepted = r

		for _, o := range siblings {
			if o.ID == r.ID || o.Status != StatusResponded {
				continue
			}
			o.Status = StatusRejected
			o.UpdatedAt = now
			if err := s.repo.Update(ctx, o, StatusResponded); err != nil {
				return err
			}
			if err := s.timeline.Record(ctx, pr.ID, timeline.EventResponseRejected, o.ID, actor.UserID); err != nil {
				return err
			}
			rejected = append(rejected, o)
		}

		if err := s.requests.MarkPendingTransfer(ctx, pr.ID, actor.UserID); err != nil {
			return err
		}

		transfer, err = s.transfers.Create(ctx, transfers.CreateInput{
			ResponseID:         r.ID,
			PlacementRequestID: pr.ID,
			OwnerUserID:        pr.OwnerUserID,
			HelperUserID:       r.HelperUserID,
			InitiatorUserID:    actor.UserID,
		})
		return err
	})
	if err != nil {
		s.conflict("accept", err)
		return transfers.Transfer{}, err
	}

	s.metrics.Transition(entityName, string(StatusAccepted))
	for range rejected {
		s.metrics.Transition(entityName, string(StatusRejected))
	}
	s.log.Info("response accepted",
		zap.String("response_id", accepted.ID),
		zap.String("request_id", accepted.PlacementRequestID),
		zap.String("transfer_id", transfer.ID),
		zap.Int("auto_rejected", len(rejected)),
	)
	s.notify(ctx, accepted, "accepted", accepted.HelperUserID)
	for _, o := range rejected {
		s.notify(ctx, o, "rejected", o.HelperUserID)
	}
	return transfer, nil
}

// RejectAllForRequest es la cascada del cancel del request.
func (s *Service) RejectAllForRequest(ctx context.Context, requestID string) ([]string, error) {
	var affected []string
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		items, err := s.repo.ListByRequest(ctx, requestID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		for _, r := range items {
			if r.Status != StatusResponded && r.Status != StatusAccepted {
				continue
			}
			from := r.Status
			r.Status = StatusRejected
			r.UpdatedAt = now
			if err := s.repo.Update(ctx, r, from); err != nil {
				return err
			}
			if err := s.timeline.Record(ctx, requestID, timeline.EventResponseRejected, r.ID, ""); err != nil {
				return err
			}
			s.metrics.Transition(entityName, string(StatusRejected))
			affected = append(affected, r.HelperUserID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return affected, nil
}

// RevertAccepted: accepted -> rejected al cancelar el handover.
func (s *Service) RevertAccepted(ctx context.Context, responseID, actorUserID string) error {
	_, err := s.change(ctx, responseID, "revert", func(ctx context.Context, r *Response) (timeline.EventType, error) {
		if r.Status != StatusAccepted {
			return "", apperrors.Conflict("response is %s, not accepted", r.Status)
		}
		r.Status = StatusRejected
		return timeline.EventResponseRejected, nil
	}, actorUserID)
	return err
}

// CanViewRequestHistory: dueño, admin o cualquier helper que haya respondido.
func (s *Service) CanViewRequestHistory(ctx context.Context, requestID, userID string, admin bool) error {
	pr, err := s.requests.Get(ctx, strings.TrimSpace(requestID))
	if err != nil {
		return err
	}
	if admin || pr.OwnerUserID == userID {
		return nil
	}
	items, err := s.repo.ListByRequest(ctx, pr.ID)
	if err != nil {
		return err
	}
	for _, r := range items {
		if r.HelperUserID == userID {
			return nil
		}
	}
	return apperrors.Forbidden("not allowed to view this placement request history")
}

type mutation func(ctx context.Context, r *Response) (timeline.EventType, error)

func (s *Service) change(ctx context.Context, id, op string, fn mutation, actorUserID string) (Response, error) {
	var (
		out  Response
		from Status
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		r, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
		if err != nil {
			return err
		}
		from = r.Status
		event, err := fn(ctx, &r)
		if err != nil {
			return err
		}
		r.UpdatedAt = s.now().UTC()
		if err := s.repo.Update(ctx, r, from); err != nil {
			return err
		}
		if err := s.timeline.Record(ctx, r.PlacementRequestID, event, r.ID, actorUserID); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		s.conflict(op, err)
		return Response{}, err
	}

	s.metrics.Transition(entityName, string(out.Status))
	s.log.Info("response transition",
		zap.String("response_id", out.ID),
		zap.String("request_id", out.PlacementRequestID),
		zap.String("from", string(from)),
		zap.String("to", string(out.Status)),
		zap.String("actor", actorUserID),
	)
	return out, nil
}

func (s *Service) notify(ctx context.Context, r Response, event string, recipients ...string) {
	s.notifier.Notify(ctx, notify.Change{
		Entity:     notify.EntityResponse,
		EntityID:   r.ID,
		RequestID:  r.PlacementRequestID,
		Event:      event,
		Recipients: recipients,
	})
}

func (s *Service) conflict(op string, err error) {
	if apperrors.IsConflict(err) {
		s.metrics.Conflict(entityName + "." + op)
		s.log.Warn("response conflict", zap.String("operation", op), zap.Error(err))
	}
}
