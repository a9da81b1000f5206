package app

import (
	"time"

	"pet-placement/internal/domain/helpers"
	"pet-placement/internal/domain/pets"
	"pet-placement/internal/domain/placement"
	"pet-placement/internal/domain/projection"
	"pet-placement/internal/domain/responses"
	"pet-placement/internal/domain/timeline"
	"pet-placement/internal/domain/transfers"
	"pet-placement/internal/platform/metrics"
	"pet-placement/internal/ports/notify"

	"go.uber.org/zap"
)

type Options struct {
	Stores Stores

	// HelperRegistry externo; nil => perfiles locales en Stores.Helpers (editables).
	HelperRegistry helpers.Registry

	Notifier        notify.Notifier
	Metrics         *metrics.Metrics
	Log             *zap.Logger
	PermanentExpiry time.Duration
}

type Services struct {
	Pets       *pets.Service
	Helpers    *helpers.Service
	Placement  *placement.Service
	Responses  *responses.Service
	Transfers  *transfers.Service
	Timeline   *timeline.Service
	Projection *projection.Loader
}

// NewServices arma el grafo. Las dependencias circulares del workflow
// (cancel en cascada, revert del handover) se inyectan por setters al final.
func NewServices(o Options) *Services {
	log := o.Log
	if log == nil {
		log = zap.NewNop()
	}
	notifier := o.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}

	petsSvc := pets.NewService(o.Stores.Pets)
	timelineSvc := timeline.NewService(o.Stores.Timeline)

	var helpersSvc *helpers.Service
	if o.HelperRegistry != nil {
		helpersSvc = helpers.NewService(o.HelperRegistry, nil)
	} else {
		helpersSvc = helpers.NewService(o.Stores.Helpers, o.Stores.Helpers)
	}

	placementSvc := placement.NewService(placement.Deps{
		Repo:            o.Stores.Requests,
		Tx:              o.Stores.Tx,
		Pets:            petsSvc,
		Timeline:        timelineSvc,
		Notifier:        notifier,
		Metrics:         o.Metrics,
		Log:             log.Named("placement"),
		PermanentExpiry: o.PermanentExpiry,
	})

	transfersSvc := transfers.NewService(transfers.Deps{
		Repo:     o.Stores.Transfers,
		Tx:       o.Stores.Tx,
		Requests: placementSvc,
		Timeline: timelineSvc,
		Notifier: notifier,
		Metrics:  o.Metrics,
		Log:      log.Named("transfers"),
	})

	responsesSvc := responses.NewService(responses.Deps{
		Repo:      o.Stores.Responses,
		Tx:        o.Stores.Tx,
		Requests:  placementSvc,
		Profiles:  helpersSvc,
		Transfers: transfersSvc,
		Timeline:  timelineSvc,
		Notifier:  notifier,
		Metrics:   o.Metrics,
		Log:       log.Named("responses"),
	})

	placementSvc.SetCascade(responsesSvc, transfersSvc)
	transfersSvc.SetResponseReverter(responsesSvc)

	return &Services{
		Pets:       petsSvc,
		Helpers:    helpersSvc,
		Placement:  placementSvc,
		Responses:  responsesSvc,
		Transfers:  transfersSvc,
		Timeline:   timelineSvc,
		Projection: projection.NewLoader(o.Stores.Tx, petsSvc, placementSvc, responsesSvc, transfersSvc, helpersSvc),
	}
}
