// Package projection deriva, a partir de un snapshot del workflow y un viewer,
// la única respuesta a "qué puede hacer este usuario ahora". No tiene estado:
// todas las superficies (cards, detalle, modales) llaman a Project con el mismo
// snapshot y obtienen lo mismo.
package projection

import (
	"time"

	"pet-placement/internal/domain/placement"
	"pet-placement/internal/domain/responses"
	"pet-placement/internal/domain/transfers"
)

// RequestState es un placement request con sus hijos.
type RequestState struct {
	Request   placement.PlacementRequest
	Responses []responses.Response
	Transfers []transfers.Transfer
}

type Input struct {
	// Requests de una misma mascota, en cualquier orden.
	Requests []RequestState

	ViewerUserID string
	// ViewerRequestTypes son los tipos que admite el perfil helper del viewer (nil si no tiene).
	ViewerRequestTypes []placement.RequestType
}

type View struct {
	SupportsRequestType bool
	HasActiveRequest    bool
	ActiveRequest       *placement.PlacementRequest
	MyPendingResponse   *responses.Response
	MyAcceptedResponse  *responses.Response
	MyPendingTransfer   *transfers.Transfer

	IsOwner    bool
	CanRespond bool
}

// Project es pura: mismo input, mismo output, sin importar el orden de los slices.
func Project(in Input) View {
	var v View

	for _, rs := range in.Requests {
		if in.ViewerUserID != "" && rs.Request.OwnerUserID == in.ViewerUserID {
			v.IsOwner = true
		}
	}

	active := selectActive(in.Requests)
	if active == nil {
		return v
	}

	req := active.Request
	v.HasActiveRequest = true
	v.ActiveRequest = &req
	v.SupportsRequestType = supports(in.ViewerRequestTypes, req.RequestType)

	if in.ViewerUserID == "" {
		return v
	}

	var hasLive bool
	for _, r := range active.Responses {
		if r.HelperUserID != in.ViewerUserID {
			continue
		}
		if r.Status.IsLive() {
			hasLive = true
		}
		switch r.Status {
		case responses.StatusResponded:
			v.MyPendingResponse = earliestResponse(v.MyPendingResponse, r)
		case responses.StatusAccepted:
			v.MyAcceptedResponse = earliestResponse(v.MyAcceptedResponse, r)
		}
	}

	if v.MyAcceptedResponse != nil {
		if t := liveTransfer(active.Transfers, v.MyAcceptedResponse.ID); t != nil && t.Status == transfers.StatusPending {
			v.MyPendingTransfer = t
		}
	}

	v.CanRespond = req.Status == placement.StatusOpen &&
		v.SupportsRequestType &&
		!v.IsOwner &&
		!hasLive
	return v
}

// selectActive elige por prioridad de status (open, pending_transfer, active), nunca por posición.
// Empates: el más viejo, luego el id menor.
func selectActive(states []RequestState) *RequestState {
	for _, status := range placement.VisibleStatuses {
		var best *RequestState
		for i := range states {
			rs := &states[i]
			if rs.Request.Status != status {
				continue
			}
			if best == nil || before(rs.Request.CreatedAt, rs.Request.ID, best.Request.CreatedAt, best.Request.ID) {
				best = rs
			}
		}
		if best != nil {
			return best
		}
	}
	return nil
}

func earliestResponse(cur *responses.Response, r responses.Response) *responses.Response {
	if cur == nil || before(r.RespondedAt, r.ID, cur.RespondedAt, cur.ID) {
		return &r
	}
	return cur
}

func liveTransfer(items []transfers.Transfer, responseID string) *transfers.Transfer {
	var best *transfers.Transfer
	for i := range items {
		t := items[i]
		if t.ResponseID != responseID || t.Status.IsTerminal() {
			continue
		}
		if best == nil || before(t.CreatedAt, t.ID, best.CreatedAt, best.ID) {
			best = &t
		}
	}
	return best
}

func before(at time.Time, id string, otherAt time.Time, otherID string) bool {
	if !at.Equal(otherAt) {
		return at.Before(otherAt)
	}
	return id < otherID
}

func supports(types []placement.RequestType, t placement.RequestType) bool {
	for _, rt := range types {
		if rt == t {
			return true
		}
	}
	return false
}
