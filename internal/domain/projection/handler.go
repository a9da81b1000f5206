package projection

import (
	"net/http"

	"pet-placement/internal/domain/placement"
	"pet-placement/internal/domain/responses"
	"pet-placement/internal/domain/transfers"
	"pet-placement/internal/middleware"
	"pet-placement/internal/platform/problem"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func RegisterRoutes(r chi.Router, l *Loader, log *zap.Logger) {
	r.Get("/pets/{petID}/placement-view", viewHandler(l, log))
}

type viewResponse struct {
	SupportsRequestType bool                    `json:"supports_request_type"`
	HasActiveRequest    bool                    `json:"has_active_request"`
	ActiveRequest       *placement.RequestJSON  `json:"active_request"`
	MyPendingResponse   *responses.ResponseJSON `json:"my_pending_response"`
	MyAcceptedResponse  *responses.ResponseJSON `json:"my_accepted_response"`
	MyPendingTransfer   *transfers.TransferJSON `json:"my_pending_transfer"`
	IsOwner             bool                    `json:"is_owner"`
	CanRespond          bool                    `json:"can_respond"`
}

// viewHandler godoc
// @Summary Vista del workflow para el usuario actual
// @Description Derivación pura del estado de placement de la mascota para el viewer. Todas las superficies de UI deben usar esta vista.
// @Tags placement
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} viewResponse
// @Failure 401 {object} problem.Detail
// @Failure 404 {object} problem.Detail
// @Router /pets/{petID}/placement-view [get]
func viewHandler(l *Loader, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			problem.Unauthorized(w, r)
			return
		}

		v, err := l.View(r.Context(), chi.URLParam(r, "petID"), claims.UserID)
		if err != nil {
			problem.Write(w, r, log, err)
			return
		}
		problem.WriteJSON(w, http.StatusOK, toViewResponse(v))
	}
}

func toViewResponse(v View) viewResponse {
	out := viewResponse{
		SupportsRequestType: v.SupportsRequestType,
		HasActiveRequest:    v.HasActiveRequest,
		IsOwner:             v.IsOwner,
		CanRespond:          v.CanRespond,
	}
	if v.ActiveRequest != nil {
		pr := placement.ToResponse(*v.ActiveRequest)
		out.ActiveRequest = &pr
	}
	if v.MyPendingResponse != nil {
		r := responses.ToResponse(*v.MyPendingResponse)
		out.MyPendingResponse = &r
	}
	if v.MyAcceptedResponse != nil {
		r := responses.ToResponse(*v.MyAcceptedResponse)
		out.MyAcceptedResponse = &r
	}
	if v.MyPendingTransfer != nil {
		t := transfers.ToResponse(*v.MyPendingTransfer)
		out.MyPendingTransfer = &t
	}
	return out
}
