package projection

import (
	"context"
	"strings"

	"pet-placement/internal/apperrors"
	"pet-placement/internal/domain/helpers"
	"pet-placement/internal/domain/placement"
	"pet-placement/internal/domain/responses"
	"pet-placement/internal/domain/transfers"
	"pet-placement/internal/ports/storage"
)

type PetOwnerLookup interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

type RequestLister interface {
	ListByPet(ctx context.Context, petID string) ([]placement.PlacementRequest, error)
}

type ResponseLister interface {
	ListByRequest(ctx context.Context, requestID string) ([]responses.Response, error)
}

type TransferLister interface {
	ListByRequest(ctx context.Context, requestID string) ([]transfers.Transfer, error)
}

type HelperLookup interface {
	GetByUser(ctx context.Context, userID string) (helpers.Profile, error)
}

// Loader arma el snapshot canónico y aplica Project. Solo lectura.
type Loader struct {
	tx        storage.Transactor
	pets      PetOwnerLookup
	requests  RequestLister
	responses ResponseLister
	transfers TransferLister
	helpers   HelperLookup
}

func NewLoader(tx storage.Transactor, pets PetOwnerLookup, requests RequestLister, resp ResponseLister, tr TransferLister, h HelperLookup) *Loader {
	return &Loader{tx: tx, pets: pets, requests: requests, responses: resp, transfers: tr, helpers: h}
}

// Snapshot lee requests, responses y transfers de la mascota en una sola tx de lectura.
// El perfil del viewer se resuelve antes, fuera de la tx (puede ser un registry remoto).
func (l *Loader) Snapshot(ctx context.Context, petID, viewerUserID string) (Input, error) {
	petID = strings.TrimSpace(petID)
	in := Input{ViewerUserID: viewerUserID}

	if viewerUserID != "" {
		profile, err := l.helpers.GetByUser(ctx, viewerUserID)
		switch {
		case err == nil:
			in.ViewerRequestTypes = profile.RequestTypes
		case apperrors.IsNotFound(err):
			// sin perfil helper: no puede responder
		default:
			return Input{}, err
		}
	}

	err := l.tx.WithinReadTx(ctx, func(ctx context.Context) error {
		if _, err := l.pets.OwnerOf(ctx, petID); err != nil {
			return err
		}
		reqs, err := l.requests.ListByPet(ctx, petID)
		if err != nil {
			return err
		}

		in.Requests = make([]RequestState, 0, len(reqs))
		for _, pr := range reqs {
			rs := RequestState{Request: pr}
			if rs.Responses, err = l.responses.ListByRequest(ctx, pr.ID); err != nil {
				return err
			}
			if rs.Transfers, err = l.transfers.ListByRequest(ctx, pr.ID); err != nil {
				return err
			}
			in.Requests = append(in.Requests, rs)
		}
		return nil
	})
	if err != nil {
		return Input{}, err
	}
	return in, nil
}

func (l *Loader) View(ctx context.Context, petID, viewerUserID string) (View, error) {
	in, err := l.Snapshot(ctx, petID, viewerUserID)
	if err != nil {
		return View{}, err
	}
	return Project(in), nil
}
