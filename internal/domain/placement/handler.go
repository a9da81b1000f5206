package placement

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pet-placement/internal/apperrors"
	"pet-placement/internal/middleware"
	"pet-placement/internal/platform/problem"
	"pet-placement/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func RegisterRoutes(r chi.Router, svc *Service, log *zap.Logger) {
	r.Post("/pets/{petID}/placement-requests", createRequestHandler(svc, log))
	r.Get("/pets/{petID}/placement-requests", listByPetHandler(svc, log))

	r.Get("/placement-requests", listOpenHandler(svc, log))
	r.Get("/placement-requests/{requestID}", getRequestHandler(svc, log))
	r.Post("/placement-requests/{requestID}/cancel", cancelRequestHandler(svc, log))
}

// ActorFrom traduce claims a Actor.
func ActorFrom(c auth.Claims) Actor {
	return Actor{UserID: c.UserID, Admin: c.IsAdmin()}
}

type createRequestBody struct {
	RequestType RequestType `json:"request_type" enums:"foster_free,foster_paid,permanent,adoption"`
	StartDate   string      `json:"start_date"` // YYYY-MM-DD o RFC3339
	EndDate     string      `json:"end_date"`   // prohibido para permanent/adoption
	Notes       string      `json:"notes"`
}

// RequestJSON es la forma pública de un placement request.
type RequestJSON struct {
	ID          string      `json:"id"`
	PetID       string      `json:"pet_id"`
	OwnerUserID string      `json:"owner_user_id"`
	RequestType RequestType `json:"request_type"`
	Status      Status      `json:"status"`
	Notes       string      `json:"notes"`
	StartDate   time.Time   `json:"start_date"`
	EndDate     *time.Time  `json:"end_date,omitempty"`
	ExpiresAt   time.Time   `json:"expires_at"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type pageResponse struct {
	Items  []RequestJSON `json:"items"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// createRequestHandler godoc
// @Summary Publicar placement request
// @Description El dueño publica que su mascota necesita ubicación. `end_date` no se admite para `permanent`/`adoption`. `expires_at` lo calcula el servidor.
// @Tags placement
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param payload body createRequestBody true "Datos del request"
// @Success 201 {object} RequestJSON
// @Failure 400 {object} problem.Detail
// @Failure 403 {object} problem.Detail
// @Failure 404 {object} problem.Detail
// @Failure 409 {object} problem.Detail "ya existe un request vivo del mismo tipo"
// @Failure 422 {object} problem.Detail
// @Router /pets/{petID}/placement-requests [post]
func createRequestHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			problem.Unauthorized(w, r)
			return
		}

		var body createRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			problem.BadRequest(w, r, "invalid json")
			return
		}

		v := apperrors.NewValidation()
		start, err := ParseDate(body.StartDate)
		if err != nil {
			v.Add("start_date", "must be YYYY-MM-DD or RFC3339")
		}
		end, err := ParseDate(body.EndDate)
		if err != nil {
			v.Add("end_date", "must be YYYY-MM-DD or RFC3339")
		}
		if err := v.OrNil(); err != nil {
			problem.Write(w, r, log, err)
			return
		}

		pr, err := svc.Create(r.Context(), ActorFrom(claims), CreateInput{
			PetID:       chi.URLParam(r, "petID"),
			RequestType: body.RequestType,
			StartDate:   start,
			EndDate:     end,
			Notes:       body.Notes,
		})
		if err != nil {
			problem.Write(w, r, log, err)
			return
		}
		problem.WriteJSON(w, http.StatusCreated, ToResponse(pr))
	}
}

func listByPetHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			problem.Unauthorized(w, r)
			return
		}

		items, err := svc.ListByPet(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			problem.Write(w, r, log, err)
			return
		}
		problem.WriteJSON(w, http.StatusOK, toResponses(items))
	}
}

// listOpenHandler godoc
// @Summary Listar placement requests abiertos
// @Description Paginado con limit/offset. Solo lectura.
// @Tags placement
// @Produce json
// @Param type query string false "Filtrar por request_type"
// @Param limit query int false "1-100, default 20"
// @Param offset query int false "default 0"
// @Success 200 {object} pageResponse
// @Failure 401 {object} problem.Detail
// @Failure 422 {object} problem.Detail
// @Router /placement-requests [get]
func listOpenHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			problem.Unauthorized(w, r)
			return
		}

		q := r.URL.Query()
		f := ListFilter{Type: RequestType(strings.TrimSpace(q.Get("type")))}
		if n, err := strconv.Atoi(q.Get("limit")); err == nil {
			f.Limit = n
		}
		if n, err := strconv.Atoi(q.Get("offset")); err == nil {
			f.Offset = n
		}
		f = f.Normalize()

		items, err := svc.ListOpen(r.Context(), f)
		if err != nil {
			problem.Write(w, r, log, err)
			return
		}
		problem.WriteJSON(w, http.StatusOK, pageResponse{
			Items:  toResponses(items),
			Limit:  f.Limit,
			Offset: f.Offset,
		})
	}
}

func getRequestHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			problem.Unauthorized(w, r)
			return
		}

		pr, err := svc.Get(r.Context(), chi.URLParam(r, "requestID"))
		if err != nil {
			problem.Write(w, r, log, err)
			return
		}
		problem.WriteJSON(w, http.StatusOK, ToResponse(pr))
	}
}

// cancelRequestHandler godoc
// @Summary Cancelar placement request
// @Description Dueño o admin. Cancela el transfer vivo y rechaza las respuestas pendientes/aceptadas.
// @Tags placement
// @Produce json
// @Param requestID path string true "ID del placement request"
// @Success 200 {object} RequestJSON
// @Failure 403 {object} problem.Detail
// @Failure 404 {object} problem.Detail
// @Failure 409 {object} problem.Detail
// @Router /placement-requests/{requestID}/cancel [post]
func cancelRequestHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			problem.Unauthorized(w, r)
			return
		}

		pr, err := svc.Cancel(r.Context(), chi.URLParam(r, "requestID"), ActorFrom(claims))
		if err != nil {
			problem.Write(w, r, log, err)
			return
		}
		problem.WriteJSON(w, http.StatusOK, ToResponse(pr))
	}
}

// ParseDate acepta YYYY-MM-DD o RFC3339. Vacío => nil.
func ParseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func ToResponse(pr PlacementRequest) RequestJSON {
	return RequestJSON{
		ID:          pr.ID,
		PetID:       pr.PetID,
		OwnerUserID: pr.OwnerUserID,
		RequestType: pr.RequestType,
		Status:      pr.Status,
		Notes:       pr.Notes,
		StartDate:   pr.StartDate,
		EndDate:     pr.EndDate,
		ExpiresAt:   pr.ExpiresAt,
		CreatedAt:   pr.CreatedAt,
		UpdatedAt:   pr.UpdatedAt,
	}
}

func toResponses(items []PlacementRequest) []RequestJSON {
	out := make([]RequestJSON, 0, len(items))
	for _, pr := range items {
		out = append(out, ToResponse(pr))
	}
	return out
}
