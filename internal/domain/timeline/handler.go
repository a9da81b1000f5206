package timeline

import (
	"context"
	"net/http"
	"time"

	"pet-placement/internal/middleware"
	"pet-placement/internal/platform/problem"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AccessChecker decide si el usuario puede ver el historial de un request
// (dueño, helper que respondió o admin). Evita importar placement/responses.
type AccessChecker interface {
	CanViewRequestHistory(ctx context.Context, requestID, userID string, admin bool) error
}

func RegisterRoutes(r chi.Router, svc *Service, access AccessChecker, log *zap.Logger) {
	r.Get("/placement-requests/{requestID}/timeline", listTimelineHandler(svc, access, log))
}

type entryResponse struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	RefID       string    `json:"ref_id,omitempty"`
	ActorUserID string    `json:"actor_user_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// listTimelineHandler godoc
// @Summary Historial del placement request
// @Description Transiciones del workflow en orden cronológico. Dueño, helpers que respondieron o admin.
// @Tags timeline
// @Produce json
// @Param requestID path string true "ID del placement request"
// @Success 200 {array} entryResponse
// @Failure 401 {object} problem.Detail
// @Failure 403 {object} problem.Detail
// @Failure 404 {object} problem.Detail
// @Router /placement-requests/{requestID}/timeline [get]
func listTimelineHandler(svc *Service, access AccessChecker, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			problem.Unauthorized(w, r)
			return
		}

		requestID := chi.URLParam(r, "requestID")
		if err := access.CanViewRequestHistory(r.Context(), requestID, claims.UserID, claims.IsAdmin()); err != nil {
			problem.Write(w, r, log, err)
			return
		}

		items, err := svc.ListByRequest(r.Context(), requestID)
		if err != nil {
			problem.Write(w, r, log, err)
			return
		}

		out := make([]entryResponse, 0, len(items))
		for _, e := range items {
			out = append(out, entryResponse{
				ID:          e.ID,
				Type:        e.Type,
				RefID:       e.RefID,
				ActorUserID: e.ActorUserID,
				OccurredAt:  e.OccurredAt,
			})
		}
		problem.WriteJSON(w, http.StatusOK, out)
	}
}
