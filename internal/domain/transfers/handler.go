package transfers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"pet-placement/internal/apperrors"
	"pet-placement/internal/domain/placement"
	"pet-placement/internal/middleware"
	"pet-placement/internal/platform/problem"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func RegisterRoutes(r chi.Router, svc *Service, log *zap.Logger) {
	r.Get("/transfers/{transferID}", getTransferHandler(svc, log))
	r.Post("/transfers/{transferID}/schedule", scheduleHandler(svc, log))
	r.Post("/transfers/{transferID}/confirm", actionHandler(svc.ConfirmHandover, log))
	r.Post("/transfers/{transferID}/complete", actionHandler(svc.CompleteHandover, log))
	r.Post("/transfers/{transferID}/cancel", actionHandler(svc.CancelHandover, log))
}

// TransferJSON es la forma pública de un transfer.
type TransferJSON struct {
	ID                 string     `json:"id"`
	ResponseID         string     `json:"response_id"`
	PlacementRequestID string     `json:"placement_request_id"`
	OwnerUserID        string     `json:"owner_user_id"`
	HelperUserID       string     `json:"helper_user_id"`
	InitiatorUserID    string     `json:"initiator_user_id"`
	Status             Status     `json:"status"`
	ScheduledAt        *time.Time `json:"scheduled_at,omitempty"`
	Location           string     `json:"location,omitempty"`
	ScheduledBy        string     `json:"scheduled_by,omitempty"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy        string     `json:"cancelled_by,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type scheduleBody struct {
	ScheduledAt *string `json:"scheduled_at"` // RFC3339
	Location    *string `json:"location"`
}

// getTransferHandler godoc
// @Summary Obtener transfer
// @Tags transfers
// @Produce json
// @Param transferID path string true "ID del transfer"
// @Success 200 {object} TransferJSON
// @Failure 401 {object} problem.Detail
// @Failure 403 {object} problem.Detail
// @Failure 404 {object} problem.Detail
// @Router /transfers/{transferID} [get]
func getTransferHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			problem.Unauthorized(w, r)
			return
		}

		t, err := svc.Get(r.Context(), chi.URLParam(r, "transferID"), placement.ActorFrom(claims))
		if err != nil {
			problem.Write(w, r, log, err)
			return
		}
		problem.WriteJSON(w, http.StatusOK, ToResponse(t))
	}
}

// scheduleHandler godoc
// @Summary Agendar handover
// @Description Cualquiera de las partes. Re-agendar pisa fecha y lugar previos.
// @Tags transfers
// @Accept json
// @Produce json
// @Param transferID path string true "ID del transfer"
// @Param payload body scheduleBody false "Fecha/lugar"
// @Success 200 {object} TransferJSON
// @Failure 400 {object} problem.Detail
// @Failure 403 {object} problem.Detail
// @Failure 404 {object} problem.Detail
// @Failure 409 {object} problem.Detail
// @Failure 422 {object} problem.Detail
// @Router /transfers/{transferID}/schedule [post]
func scheduleHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			problem.Unauthorized(w, r)
			return
		}

		var body scheduleBody
		// body vacío es válido: agenda sin fecha ni lugar
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			problem.BadRequest(w, r, "invalid json")
			return
		}

		in := ScheduleInput{Location: body.Location}
		if body.ScheduledAt != nil {
			at, err := time.Parse(time.RFC3339, *body.ScheduledAt)
			if err != nil {
				problem.Write(w, r, log, apperrors.Invalid("scheduled_at", "must be RFC3339"))
				return
			}
			in.ScheduledAt = &at
		}

		t, err := svc.ScheduleHandover(r.Context(), chi.URLParam(r, "transferID"), placement.ActorFrom(claims), in)
		if err != nil {
			problem.Write(w, r, log, err)
			return
		}
		problem.WriteJSON(w, http.StatusOK, ToResponse(t))
	}
}

type action func(ctx context.Context, id string, actor placement.Actor) (Transfer, error)

// actionHandler godoc
// @Summary Confirmar / completar / cancelar handover
// @Description confirm: solo desde scheduled, por la contraparte de quien agendó. complete: desde scheduled|confirmed, cierra el request. cancel: desde cualquier estado no terminal, reabre el request.
// @Tags transfers
// @Produce json
// @Param transferID path string true "ID del transfer"
// @Success 200 {object} TransferJSON
// @Failure 403 {object} problem.Detail
// @Failure 404 {object} problem.Detail
// @Failure 409 {object} problem.Detail
// @Router /transfers/{transferID}/confirm [post]
// @Router /transfers/{transferID}/complete [post]
// @Router /transfers/{transferID}/cancel [post]
func actionHandler(fn action, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			problem.Unauthorized(w, r)
			return
		}

		t, err := fn(r.Context(), chi.URLParam(r, "transferID"), placement.ActorFrom(claims))
		if err != nil {
			problem.Write(w, r, log, err)
			return
		}
		problem.WriteJSON(w, http.StatusOK, ToResponse(t))
	}
}

func ToResponse(t Transfer) TransferJSON {
	return TransferJSON{
		ID:                 t.ID,
		ResponseID:         t.ResponseID,
		PlacementRequestID: t.PlacementRequestID,
		OwnerUserID:        t.OwnerUserID,
		HelperUserID:       t.HelperUserID,
		InitiatorUserID:    t.InitiatorUserID,
		Status:             t.Status,
		ScheduledAt:        t.ScheduledAt,
		Location:           t.Location,
		ScheduledBy:        t.ScheduledBy,
		ConfirmedAt:        t.ConfirmedAt,
		CompletedAt:        t.CompletedAt,
		CancelledAt:        t.CancelledAt,
		CancelledBy:        t.CancelledBy,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}
