package responses

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"pet-placement/internal/domain/placement"
	"pet-placement/internal/domain/transfers"
	"pet-placement/internal/middleware"
	"pet-placement/internal/platform/problem"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func RegisterRoutes(r chi.Router, svc *Service, log *zap.Logger) {
	r.Post("/placement-requests/{requestID}/responses", respondHandler(svc, log))
	r.Get("/placement-requests/{requestID}/responses", listResponsesHandler(svc, log))

	r.Post("/responses/{responseID}/withdraw", responseActionHandler(svc.Withdraw, log))
	r.Post("/responses/{responseID}/reject", responseActionHandler(svc.Reject, log))
	r.Post("/responses/{responseID}/accept", acceptHandler(svc, log))
}

type respondBody struct {
	HelperProfileID  string           `json:"helper_profile_id"`
	RelationshipType RelationshipType `json:"requested_relationship_type" enums:"fostering,permanent"`
	FosteringType    FosteringType    `json:"fostering_type,omitempty" enums:"free,paid"`
	Price            *float64         `json:"price,omitempty"`
	Message          string           `json:"message"`
}

// ResponseJSON es la forma pública de una respuesta.
type ResponseJSON struct {
	ID                 string           `json:"id"`
	PlacementRequestID string           `json:"placement_request_id"`
	HelperProfileID    string           `json:"helper_profile_id"`
	HelperUserID       string           `json:"helper_user_id"`
	Status             Status           `json:"status"`
	RelationshipType   RelationshipType `json:"requested_relationship_type"`
	FosteringType      FosteringType    `json:"fostering_type,omitempty"`
	Price              *float64         `json:"price,omitempty"`
	Message            string           `json:"message,omitempty"`
	RespondedAt        time.Time        `json:"responded_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// respondHandler godoc
// @Summary Responder a un placement request
// @Description El helper ofrece hacerse cargo. `price` es obligatorio y > 0 solo para fostering paid. 409 significa "ya respondiste": refrescar, no reintentar.
// @Tags responses
// @Accept json
// @Produce json
// @Param requestID path string true "ID del placement request"
// @Param payload body respondBody true "Respuesta"
// @Success 201 {object} ResponseJSON
// @Failure 400 {object} problem.Detail
// @Failure 403 {object} problem.Detail
// @Failure 404 {object} problem.Detail
// @Failure 409 {object} problem.Detail
// @Failure 422 {object} problem.Detail
// @Router /placement-requests/{requestID}/responses [post]
func respondHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			problem.Unauthorized(w, r)
			return
		}

		var body respondBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			problem.BadRequest(w, r, "invalid json")
			return
		}

		resp, err := svc.Respond(r.Context(), placement.ActorFrom(claims), RespondInput{
			RequestID:        chi.URLParam(r, "requestID"),
			HelperProfileID:  body.HelperProfileID,
			RelationshipType: body.RelationshipType,
			FosteringType:    body.FosteringType,
			Price:            body.Price,
			Message:          body.Message,
		})
		if err != nil {
			problem.Write(w, r, log, err)
			return
		}
		problem.WriteJSON(w, http.StatusCreated, ToResponse(resp))
	}
}

// listResponsesHandler godoc
// @Summary Listar respuestas de un request
// @Description El dueño ve todas; un helper solo la propia.
// @Tags responses
// @Produce json
// @Param requestID path string true "ID del placement request"
// @Success 200 {array} ResponseJSON
// @Failure 401 {object} problem.Detail
// @Failure 404 {object} problem.Detail
// @Router /placement-requests/{requestID}/responses [get]
func listResponsesHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			problem.Unauthorized(w, r)
			return
		}

		items, err := svc.ListForRequest(r.Context(), chi.URLParam(r, "requestID"), placement.ActorFrom(claims))
		if err != nil {
			problem.Write(w, r, log, err)
			return
		}
		out := make([]ResponseJSON, 0, len(items))
		for _, it := range items {
			out = append(out, ToResponse(it))
		}
		problem.WriteJSON(w, http.StatusOK, out)
	}
}

type responseAction func(ctx context.Context, id string, actor placement.Actor) (Response, error)

// responseActionHandler godoc
// @Summary Retirar / rechazar respuesta
// @Description withdraw: solo el helper. reject: solo el dueño. Ambos solo mientras la respuesta está responded.
// @Tags responses
// @Produce json
// @Param responseID path string true "ID de la respuesta"
// @Success 200 {object} ResponseJSON
// @Failure 403 {object} problem.Detail
// @Failure 404 {object} problem.Detail
// @Failure 409 {object} problem.Detail
// @Router /responses/{responseID}/withdraw [post]
// @Router /responses/{responseID}/reject [post]
func responseActionHandler(fn responseAction, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			problem.Unauthorized(w, r)
			return
		}

		resp, err := fn(r.Context(), chi.URLParam(r, "responseID"), placement.ActorFrom(claims))
		if err != nil {
			problem.Write(w, r, log, err)
			return
		}
		problem.WriteJSON(w, http.StatusOK, ToResponse(resp))
	}
}

// acceptHandler godoc
// @Summary Aceptar respuesta
// @Description Solo el dueño. Atómico: rechaza las demás, pasa el request a pending_transfer y crea el transfer.
// @Tags responses
// @Produce json
// @Param responseID path string true "ID de la respuesta"
// @Success 201 {object} transfers.TransferJSON
// @Failure 403 {object} problem.Detail
// @Failure 404 {object} problem.Detail
// @Failure 409 {object} problem.Detail "otra respuesta ya fue aceptada"
// @Router /responses/{responseID}/accept [post]
func acceptHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			problem.Unauthorized(w, r)
			return
		}

		t, err := svc.Accept(r.Context(), chi.URLParam(r, "responseID"), placement.ActorFrom(claims))
		if err != nil {
			problem.Write(w, r, log, err)
			return
		}
		problem.WriteJSON(w, http.StatusCreated, transfers.ToResponse(t))
	}
}

func ToResponse(r Response) ResponseJSON {
	return ResponseJSON{
		ID:                 r.ID,
		PlacementRequestID: r.PlacementRequestID,
		HelperProfileID:    r.HelperProfileID,
		HelperUserID:       r.HelperUserID,
		Status:             r.Status,
		RelationshipType:   r.RelationshipType,
		FosteringType:      r.FosteringType,
		Price:              r.Price,
		Message:            r.Message,
		RespondedAt:        r.RespondedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}
