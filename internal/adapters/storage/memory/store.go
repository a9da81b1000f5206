package memory

import (
	"context"
	"sync"

	"pet-placement/internal/domain/helpers"
	"pet-placement/internal/domain/pets"
	"pet-placement/internal/domain/placement"
	"pet-placement/internal/domain/responses"
	"pet-placement/internal/domain/timeline"
	"pet-placement/internal/domain/transfers"
)

// Store guarda todo el workflow en memoria (dev y tests).
// Un único mutex serializa las transacciones: WithinTx lo toma por toda la tx
// y los repos no vuelven a tomarlo si el ctx ya trae la tx de este store.
type Store struct {
	mu sync.Mutex

	pets      map[string]pets.Pet
	requests  map[string]placement.PlacementRequest
	responses map[string]responses.Response
	transfers map[string]transfers.Transfer
	profiles  map[string]helpers.Profile
	timeline  []timeline.Entry
}

func NewStore() *Store {
	return &Store{
		pets:      make(map[string]pets.Pet),
		requests:  make(map[string]placement.PlacementRequest),
		responses: make(map[string]responses.Response),
		transfers: make(map[string]transfers.Transfer),
		profiles:  make(map[string]helpers.Profile),
	}
}

type txKey struct{}

// WithinTx implementa storage.Transactor. Si fn falla se restaura el snapshot.
// Las llamadas anidadas se unen a la tx externa.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// WithinReadTx toma el mismo mutex: ningún writer confirma mientras fn lee.
func (s *Store) WithinReadTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, s))
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock toma el mutex salvo que ya estemos dentro de una tx de este store.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type snapshot struct {
	pets      map[string]pets.Pet
	requests  map[string]placement.PlacementRequest
	responses map[string]responses.Response
	transfers map[string]transfers.Transfer
	profiles  map[string]helpers.Profile
	timeline  int
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		pets:      cloneMap(s.pets),
		requests:  cloneMap(s.requests),
		responses: cloneMap(s.responses),
		transfers: cloneMap(s.transfers),
		profiles:  cloneMap(s.profiles),
		timeline:  len(s.timeline),
	}
}

func (s *Store) restore(snap snapshot) {
	s.pets = snap.pets
	s.requests = snap.requests
	s.responses = snap.responses
	s.transfers = snap.transfers
	s.profiles = snap.profiles
	// timeline es append-only: basta con truncar
	s.timeline = s.timeline[:snap.timeline]
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *Store) Pets() pets.Repository              { return petRepo{s} }
func (s *Store) Requests() placement.Repository     { return requestRepo{s} }
func (s *Store) Responses() responses.Repository    { return responseRepo{s} }
func (s *Store) Transfers() transfers.Repository    { return transferRepo{s} }
func (s *Store) HelperProfiles() helpers.Repository { return helperRepo{s} }
func (s *Store) Timeline() timeline.Repository      { return timelineRepo{s} }
