package app

import (
	"database/sql"

	"pet-placement/internal/adapters/storage/memory"
	pg "pet-placement/internal/adapters/storage/postgres"
	"pet-placement/internal/domain/helpers"
	"pet-placement/internal/domain/pets"
	"pet-placement/internal/domain/placement"
	"pet-placement/internal/domain/responses"
	"pet-placement/internal/domain/timeline"
	"pet-placement/internal/domain/transfers"
	"pet-placement/internal/ports/storage"
)

// Stores agrupa repos y transactor de un mismo backend.
type Stores struct {
	Tx        storage.Transactor
	Pets      pets.Repository
	Requests  placement.Repository
	Responses responses.Repository
	Transfers transfers.Repository
	Helpers   helpers.Repository
	Timeline  timeline.Repository
}

func MemoryStores() Stores {
	s := memory.NewStore()
	return Stores{
		Tx:        s,
		Pets:      s.Pets(),
		Requests:  s.Requests(),
		Responses: s.Responses(),
		Transfers: s.Transfers(),
		Helpers:   s.HelperProfiles(),
		Timeline:  s.Timeline(),
	}
}

func PostgresStores(db *sql.DB) Stores {
	return Stores{
		Tx:        pg.NewTransactor(db),
		Pets:      pg.NewPetsRepo(db),
		Requests:  pg.NewPlacementRepo(db),
		Responses: pg.NewResponsesRepo(db),
		Transfers: pg.NewTransfersRepo(db),
		Helpers:   pg.NewHelpersRepo(db),
		Timeline:  pg.NewTimelineRepo(db),
	}
}
