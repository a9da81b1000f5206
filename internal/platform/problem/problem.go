// Package problem escribe errores como RFC 7807 (application/problem+json).
package problem

import (
	"encoding/json"
	"errors"
	"net/http"

	"pet-placement/internal/apperrors"

	"go.uber.org/zap"
)

const (
	TypeValidation   = "/problems/validation-error"
	TypeConflict     = "/problems/conflict"
	TypeForbidden    = "/problems/forbidden"
	TypeNotFound     = "/problems/not-found"
	TypeUnauthorized = "/problems/unauthorized"
	TypeBadRequest   = "/problems/bad-request"
	TypeInternal     = "/problems/internal-error"
)

type Detail struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
}

// FromError traduce un error de dominio. Lo desconocido es 500 sin filtrar el mensaje.
func FromError(err error) Detail {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return Detail{
			Type:   TypeValidation,
			Title:  "Validation Error",
			Status: http.StatusUnprocessableEntity,
			Detail: "one or more fields are invalid",
			Fields: apperrors.FieldErrors(err),
		}
	case errors.Is(err, apperrors.ErrConflict):
		return Detail{Type: TypeConflict, Title: "Conflict", Status: http.StatusConflict, Detail: err.Error()}
	case errors.Is(err, apperrors.ErrForbidden):
		return Detail{Type: TypeForbidden, Title: "Forbidden", Status: http.StatusForbidden, Detail: err.Error()}
	case errors.Is(err, apperrors.ErrNotFound):
		return Detail{Type: TypeNotFound, Title: "Resource Not Found", Status: http.StatusNotFound, Detail: err.Error()}
	default:
		return Detail{Type: TypeInternal, Title: "Internal Server Error", Status: http.StatusInternalServerError}
	}
}

// Write responde err. Los 500 se loguean con el error original.
func Write(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	d := FromError(err)
	d.Instance = r.URL.Path
	if d.Status >= 500 && log != nil {
		log.Error("unhandled error", zap.String("path", r.URL.Path), zap.Error(err))
	}
	write(w, d)
}

func Unauthorized(w http.ResponseWriter, r *http.Request) {
	write(w, Detail{Type: TypeUnauthorized, Title: "Unauthorized", Status: http.StatusUnauthorized, Instance: r.URL.Path})
}

func BadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	write(w, Detail{Type: TypeBadRequest, Title: "Bad Request", Status: http.StatusBadRequest, Detail: detail, Instance: r.URL.Path})
}

func write(w http.ResponseWriter, d Detail) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(d.Status)
	_ = json.NewEncoder(w).Encode(d)
}

// WriteJSON responde v como JSON con status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
