package pets

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"pet-placement/internal/middleware"
	"pet-placement/internal/platform/problem"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func RegisterRoutes(r chi.Router, svc *Service, log *zap.Logger) {
	r.Post("/pets", createPetHandler(svc, log))
	r.Get("/pets", listPetsHandler(svc, log))
	r.Get("/pets/{petID}", getPetHandler(svc, log))
}

type createPetRequest struct {
	Name      string  `json:"name"`
	Species   Species `json:"species" enums:"dog,cat,other"`
	Breed     string  `json:"breed"`
	BirthDate string  `json:"birth_date"` // YYYY-MM-DD opcional
	City      string  `json:"city"`
	Notes     string  `json:"notes"`
}

type petResponse struct {
	ID          string     `json:"id"`
	OwnerUserID string     `json:"owner_user_id"`
	Name        string     `json:"name"`
	Species     Species    `json:"species"`
	Breed       string     `json:"breed"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	City        string     `json:"city"`
	Notes       string     `json:"notes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// createPetHandler godoc
// @Summary Registrar mascota
// @Description El usuario autenticado queda como dueño. Autenticación: `X-Debug-User-ID` (dev) o `Authorization: Bearer <token>`.
// @Tags pets
// @Accept json
// @Produce json
// @Param payload body createPetRequest true "Datos de la mascota"
// @Success 201 {object} petResponse
// @Failure 400 {object} problem.Detail
// @Failure 401 {object} problem.Detail
// @Failure 422 {object} problem.Detail
// @Router /pets [post]
func createPetHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			problem.Unauthorized(w, r)
			return
		}

		var req createPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			problem.BadRequest(w, r, "invalid json")
			return
		}

		var bd *time.Time
		if strings.TrimSpace(req.BirthDate) != "" {
			t, err := time.Parse(time.DateOnly, req.BirthDate)
			if err != nil {
				problem.BadRequest(w, r, "birth_date must be YYYY-MM-DD")
				return
			}
			bd = &t
		}

		p, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			Name:      req.Name,
			Species:   req.Species,
			Breed:     req.Breed,
			BirthDate: bd,
			City:      req.City,
			Notes:     req.Notes,
		})
		if err != nil {
			problem.Write(w, r, log, err)
			return
		}

		problem.WriteJSON(w, http.StatusCreated, toPetResponse(p))
	}
}

func listPetsHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			problem.Unauthorized(w, r)
			return
		}

		items, err := svc.ListByOwner(r.Context(), claims.UserID)
		if err != nil {
			problem.Write(w, r, log, err)
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
		}
		problem.WriteJSON(w, http.StatusOK, out)
	}
}

// getPetHandler: el perfil es público para usuarios autenticados
// (los helpers lo ven desde el listado de placement requests).
func getPetHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			problem.Unauthorized(w, r)
			return
		}

		p, err := svc.GetByID(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			problem.Write(w, r, log, err)
			return
		}
		problem.WriteJSON(w, http.StatusOK, toPetResponse(p))
	}
}

func toPetResponse(p Pet) petResponse {
	return petResponse{
		ID:          p.ID,
		OwnerUserID: p.OwnerUserID,
		Name:        p.Name,
		Species:     p.Species,
		Breed:       p.Breed,
		BirthDate:   p.BirthDate,
		City:        p.City,
		Notes:       p.Notes,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
