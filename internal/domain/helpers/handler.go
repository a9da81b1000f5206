package helpers

import (
	"encoding/json"
	"net/http"
	"time"

	"pet-placement/internal/domain/placement"
	"pet-placement/internal/middleware"
	"pet-placement/internal/platform/problem"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func RegisterRoutes(r chi.Router, svc *Service, log *zap.Logger) {
	r.Get("/me/helper-profile", getMyProfileHandler(svc, log))
	r.Put("/me/helper-profile", upsertMyProfileHandler(svc, log))
	r.Get("/helper-profiles/{profileID}", getProfileHandler(svc, log))
}

type upsertProfileRequest struct {
	DisplayName  string                  `json:"display_name"`
	City         string                  `json:"city"`
	Country      string                  `json:"country"`
	Bio          string                  `json:"bio"`
	RequestTypes []placement.RequestType `json:"request_types"`
}

type profileResponse struct {
	ID           string                  `json:"id"`
	UserID       string                  `json:"user_id"`
	DisplayName  string                  `json:"display_name"`
	City         string                  `json:"city"`
	Country      string                  `json:"country"`
	Bio          string                  `json:"bio"`
	RequestTypes []placement.RequestType `json:"request_types"`
	CreatedAt    time.Time               `json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

func getMyProfileHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			problem.Unauthorized(w, r)
			return
		}
		p, err := svc.GetByUser(r.Context(), claims.UserID)
		if err != nil {
			problem.Write(w, r, log, err)
			return
		}
		problem.WriteJSON(w, http.StatusOK, toProfileResponse(p))
	}
}

// upsertMyProfileHandler godoc
// @Summary Crear/actualizar mi perfil de helper
// @Tags helpers
// @Accept json
// @Produce json
// @Param payload body upsertProfileRequest true "Perfil"
// @Success 200 {object} profileResponse
// @Failure 403 {object} problem.Detail "perfiles gestionados por registry externo"
// @Failure 422 {object} problem.Detail
// @Router /me/helper-profile [put]
func upsertMyProfileHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			problem.Unauthorized(w, r)
			return
		}

		var req upsertProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			problem.BadRequest(w, r, "invalid json")
			return
		}

		p, err := svc.UpsertMine(r.Context(), claims.UserID, UpsertInput{
			DisplayName:  req.DisplayName,
			City:         req.City,
			Country:      req.Country,
			Bio:          req.Bio,
			RequestTypes: req.RequestTypes,
		})
		if err != nil {
			problem.Write(w, r, log, err)
			return
		}
		problem.WriteJSON(w, http.StatusOK, toProfileResponse(p))
	}
}

func getProfileHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			problem.Unauthorized(w, r)
			return
		}
		p, err := svc.Get(r.Context(), chi.URLParam(r, "profileID"))
		if err != nil {
			problem.Write(w, r, log, err)
			return
		}
		problem.WriteJSON(w, http.StatusOK, toProfileResponse(p))
	}
}

func toProfileResponse(p Profile) profileResponse {
	types := p.RequestTypes
	if types == nil {
		types = []placement.RequestType{}
	}
	return profileResponse{
		ID:           p.ID,
		UserID:       p.UserID,
		DisplayName:  p.DisplayName,
		City:         p.City,
		Country:      p.Country,
		Bio:          p.Bio,
		RequestTypes: types,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
