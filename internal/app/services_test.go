package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"pet-placement/internal/apperrors"
	"pet-placement/internal/domain/helpers"
	"pet-placement/internal/domain/pets"
	"pet-placement/internal/domain/placement"
	"pet-placement/internal/domain/projection"
	"pet-placement/internal/domain/responses"
	"pet-placement/internal/domain/timeline"
	"pet-placement/internal/domain/transfers"
	"pet-placement/internal/ports/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner = placement.Actor{UserID: "owner"}
	admin = placement.Actor{UserID: "admin", Admin: true}
)

type recordingNotifier struct {
	mu      sync.Mutex
	changes []notify.Change
}

func (n *recordingNotifier) Notify(_ context.Context, c notify.Change) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, c)
}

func (n *recordingNotifier) events(entity string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, c := range n.changes {
		if c.Entity == entity {
			out = append(out, c.Event)
		}
	}
	return out
}

type fixture struct {
	stores   Stores
	svcs     *Services
	notifier *recordingNotifier
	petID    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	n := &recordingNotifier{}
	stores := MemoryStores()
	svcs := NewServices(Options{
		Stores:          stores,
		Notifier:        n,
		PermanentExpiry: 60 * 24 * time.Hour,
	})
	p, err := svcs.Pets.Create(context.Background(), owner.UserID, pets.CreateInput{Name: "Milo", Species: pets.SpeciesDog})
	require.NoError(t, err)
	return &fixture{stores: stores, svcs: svcs, notifier: n, petID: p.ID}
}

func (f *fixture) helper(t *testing.T, userID string, types ...placement.RequestType) (placement.Actor, string) {
	t.Helper()

	p, err := f.svcs.Helpers.UpsertMine(context.Background(), userID, helpers.UpsertInput{
		DisplayName:  "Helper " + userID,
		RequestTypes: types,
	})
	require.NoError(t, err)
	return placement.Actor{UserID: userID}, p.ID
}

func (f *fixture) request(t *testing.T, typ placement.RequestType) placement.PlacementRequest {
	t.Helper()

	start := time.Now().Add(7 * 24 * time.Hour)
	pr, err := f.svcs.Placement.Create(context.Background(), owner, placement.CreateInput{
		PetID:       f.petID,
		RequestType: typ,
		StartDate:   &start,
	})
	require.NoError(t, err)
	return pr
}

func (f *fixture) respond(t *testing.T, actor placement.Actor, profileID, requestID string) responses.Response {
	t.Helper()

	r, err := f.svcs.Responses.Respond(context.Background(), actor, fosterFree(requestID, profileID))
	require.NoError(t, err)
	return r
}

func fosterFree(requestID, profileID string) responses.RespondInput {
	return responses.RespondInput{
		RequestID:        requestID,
		HelperProfileID:  profileID,
		RelationshipType: responses.RelationshipFostering,
		FosteringType:    responses.FosteringFree,
	}
}

func (f *fixture) requestStatus(t *testing.T, id string) placement.Status {
	t.Helper()

	pr, err := f.svcs.Placement.Get(context.Background(), id)
	require.NoError(t, err)
	return pr.Status
}

func (f *fixture) timelineTypes(t *testing.T, requestID string) []timeline.EventType {
	t.Helper()

	entries, err := f.svcs.Timeline.ListByRequest(context.Background(), requestID)
	require.NoError(t, err)
	out := make([]timeline.EventType, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Type)
	}
	return out
}

func TestPlacement_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start := time.Now().Add(24 * time.Hour)
	before := start.Add(-48 * time.Hour)

	_, err := f.svcs.Placement.Create(ctx, owner, placement.CreateInput{PetID: f.petID, RequestType: "sleepover", StartDate: &start})
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.svcs.Placement.Create(ctx, owner, placement.CreateInput{PetID: f.petID, RequestType: placement.TypeAdoption, StartDate: &start, EndDate: &start})
	assert.True(t, apperrors.IsValidation(err), "adoption no admite end_date")

	_, err = f.svcs.Placement.Create(ctx, owner, placement.CreateInput{PetID: f.petID, RequestType: placement.TypeFosterFree, StartDate: &start, EndDate: &before})
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.svcs.Placement.Create(ctx, owner, placement.CreateInput{PetID: f.petID, RequestType: placement.TypeFosterFree})
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.svcs.Placement.Create(ctx, placement.Actor{UserID: "stranger"}, placement.CreateInput{PetID: f.petID, RequestType: placement.TypeFosterFree, StartDate: &start})
	assert.True(t, apperrors.IsForbidden(err))

	_, err = f.svcs.Placement.Create(ctx, owner, placement.CreateInput{PetID: "missing", RequestType: placement.TypeFosterFree, StartDate: &start})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestPlacement_ExpiresAt(t *testing.T) {
	f := newFixture(t)

	foster := f.request(t, placement.TypeFosterPaid)
	assert.True(t, foster.ExpiresAt.Equal(foster.StartDate))

	perm := f.request(t, placement.TypePermanent)
	assert.True(t, perm.ExpiresAt.After(perm.CreatedAt.Add(59*24*time.Hour)))
	assert.Nil(t, perm.EndDate)
}

func TestPlacement_OneLiveRequestPerType(t *testing.T) {
	f := newFixture(t)
	first := f.request(t, placement.TypeFosterFree)

	start := time.Now().Add(time.Hour)
	_, err := f.svcs.Placement.Create(context.Background(), owner, placement.CreateInput{PetID: f.petID, RequestType: placement.TypeFosterFree, StartDate: &start})
	assert.True(t, apperrors.IsConflict(err))

	// otro tipo sí
	f.request(t, placement.TypeAdoption)

	// cancelado libera el lugar
	_, err = f.svcs.Placement.Cancel(context.Background(), first.ID, owner)
	require.NoError(t, err)
	f.request(t, placement.TypeFosterFree)
}

func TestPlacement_CancelPermissions(t *testing.T) {
	f := newFixture(t)
	pr := f.request(t, placement.TypeFosterFree)

	_, err := f.svcs.Placement.Cancel(context.Background(), pr.ID, placement.Actor{UserID: "stranger"})
	assert.True(t, apperrors.IsForbidden(err))

	out, err := f.svcs.Placement.Cancel(context.Background(), pr.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, placement.StatusCancelled, out.Status)

	_, err = f.svcs.Placement.Cancel(context.Background(), pr.ID, owner)
	assert.True(t, apperrors.IsConflict(err))
}

func TestResponses_RespondValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h1, p1 := f.helper(t, "h1", placement.TypeFosterFree)
	pr := f.request(t, placement.TypeFosterFree)

	paid := fosterFree(pr.ID, p1)
	paid.FosteringType = responses.FosteringPaid
	_, err := f.svcs.Responses.Respond(ctx, h1, paid)
	assert.True(t, apperrors.IsValidation(err), "paid sin precio")

	zero := 0.0
	paid.Price = &zero
	_, err = f.svcs.Responses.Respond(ctx, h1, paid)
	assert.True(t, apperrors.IsValidation(err), "precio no positivo")

	price := 10.0
	free := fosterFree(pr.ID, p1)
	free.Price = &price
	_, err = f.svcs.Responses.Respond(ctx, h1, free)
	assert.True(t, apperrors.IsValidation(err), "precio en free")

	perm := responses.RespondInput{RequestID: pr.ID, HelperProfileID: p1, RelationshipType: responses.RelationshipPermanent}
	_, err = f.svcs.Responses.Respond(ctx, h1, perm)
	assert.True(t, apperrors.IsValidation(err), "relación no coincide con el request")

	_, err = f.svcs.Responses.Respond(ctx, placement.Actor{UserID: "h2"}, fosterFree(pr.ID, p1))
	assert.True(t, apperrors.IsForbidden(err), "perfil ajeno")
}

func TestResponses_ProfileMustSupportType(t *testing.T) {
	f := newFixture(t)
	h1, p1 := f.helper(t, "h1", placement.TypeAdoption)
	pr := f.request(t, placement.TypeFosterFree)

	_, err := f.svcs.Responses.Respond(context.Background(), h1, fosterFree(pr.ID, p1))
	assert.True(t, apperrors.IsValidation(err))
}

func TestResponses_DuplicateAndRevive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h1, p1 := f.helper(t, "h1", placement.TypeFosterFree)
	pr := f.request(t, placement.TypeFosterFree)

	r := f.respond(t, h1, p1, pr.ID)

	_, err := f.svcs.Responses.Respond(ctx, h1, fosterFree(pr.ID, p1))
	assert.True(t, apperrors.IsConflict(err))

	_, err = f.svcs.Responses.Withdraw(ctx, r.ID, owner)
	assert.True(t, apperrors.IsForbidden(err))

	w, err := f.svcs.Responses.Withdraw(ctx, r.ID, h1)
	require.NoError(t, err)
	assert.Equal(t, responses.StatusWithdrawn, w.Status)

	_, err = f.svcs.Responses.Withdraw(ctx, r.ID, h1)
	assert.True(t, apperrors.IsConflict(err))

	again := f.respond(t, h1, p1, pr.ID)
	assert.Equal(t, r.ID, again.ID)
	assert.Equal(t, responses.StatusResponded, again.Status)
}

func TestResponses_RejectIsOwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h1, p1 := f.helper(t, "h1", placement.TypeFosterFree)
	pr := f.request(t, placement.TypeFosterFree)
	r := f.respond(t, h1, p1, pr.ID)

	_, err := f.svcs.Responses.Reject(ctx, r.ID, h1)
	assert.True(t, apperrors.IsForbidden(err))

	out, err := f.svcs.Responses.Reject(ctx, r.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, responses.StatusRejected, out.Status)

	// rejected sigue ocupando el par
	_, err = f.svcs.Responses.Respond(ctx, h1, fosterFree(pr.ID, p1))
	assert.True(t, apperrors.IsConflict(err))
}

func TestResponses_ListForRequestVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h1, p1 := f.helper(t, "h1", placement.TypeFosterFree)
	h2, p2 := f.helper(t, "h2", placement.TypeFosterFree)
	pr := f.request(t, placement.TypeFosterFree)
	f.respond(t, h1, p1, pr.ID)
	f.respond(t, h2, p2, pr.ID)

	all, err := f.svcs.Responses.ListForRequest(ctx, pr.ID, owner)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := f.svcs.Responses.ListForRequest(ctx, pr.ID, h1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "h1", mine[0].HelperUserID)
}

func TestAccept_RejectsSiblingsAndCreatesTransfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h1, p1 := f.helper(t, "h1", placement.TypeFosterFree)
	h2, p2 := f.helper(t, "h2", placement.TypeFosterFree)
	pr := f.request(t, placement.TypeFosterFree)
	r1 := f.respond(t, h1, p1, pr.ID)
	r2 := f.respond(t, h2, p2, pr.ID)

	_, err := f.svcs.Responses.Accept(ctx, r1.ID, h2)
	assert.True(t, apperrors.IsForbidden(err))

	tr, err := f.svcs.Responses.Accept(ctx, r1.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, transfers.StatusPending, tr.Status)
	assert.Equal(t, r1.ID, tr.ResponseID)
	assert.Equal(t, "h1", tr.HelperUserID)
	assert.Equal(t, owner.UserID, tr.InitiatorUserID)

	got, err := f.svcs.Responses.Get(ctx, r2.ID)
	require.NoError(t, err)
	assert.Equal(t, responses.StatusRejected, got.Status)
	assert.Equal(t, placement.StatusPendingTransfer, f.requestStatus(t, pr.ID))

	winner, err := f.svcs.Responses.Get(ctx, r1.ID)
	require.NoError(t, err)

	_, err = f.svcs.Responses.Accept(ctx, r2.ID, owner)
	assert.True(t, apperrors.IsConflict(err))

	// el accept fallido no toca a nadie
	afterWinner, err := f.svcs.Responses.Get(ctx, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, responses.StatusAccepted, afterWinner.Status)
	assert.True(t, winner.UpdatedAt.Equal(afterWinner.UpdatedAt))

	afterLoser, err := f.svcs.Responses.Get(ctx, r2.ID)
	require.NoError(t, err)
	assert.Equal(t, responses.StatusRejected, afterLoser.Status)
	assert.True(t, got.UpdatedAt.Equal(afterLoser.UpdatedAt))

	items, err := f.svcs.Transfers.ListByRequest(ctx, pr.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	assert.Equal(t, []timeline.EventType{
		timeline.EventRequestCreated,
		timeline.EventResponseSubmitted,
		timeline.EventResponseSubmitted,
		timeline.EventResponseAccepted,
		timeline.EventResponseRejected,
	}, f.timelineTypes(t, pr.ID))
	assert.Contains(t, f.notifier.events("response"), "accepted")
}

func TestAccept_ConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)
	pr := f.request(t, placement.TypeFosterFree)

	const n = 8
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		h, p := f.helper(t, "h"+string(rune('a'+i)), placement.TypeFosterFree)
		ids = append(ids, f.respond(t, h, p, pr.ID).ID)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		winners   int
		conflicts int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.svcs.Responses.Accept(context.Background(), id, owner)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case apperrors.IsConflict(err):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, n-1, conflicts)

	all, err := f.svcs.Responses.ListByRequest(context.Background(), pr.ID)
	require.NoError(t, err)
	accepted := 0
	for _, r := range all {
		if r.Status == responses.StatusAccepted {
			accepted++
		} else {
			assert.Equal(t, responses.StatusRejected, r.Status)
		}
	}
	assert.Equal(t, 1, accepted)

	items, err := f.svcs.Transfers.ListByRequest(context.Background(), pr.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestHandover_ScheduleConfirmComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h1, p1 := f.helper(t, "h1", placement.TypeFosterFree)
	h3, p3 := f.helper(t, "h3", placement.TypeFosterFree)
	pr := f.request(t, placement.TypeFosterFree)
	r1 := f.respond(t, h1, p1, pr.ID)

	tr, err := f.svcs.Responses.Accept(ctx, r1.ID, owner)
	require.NoError(t, err)

	// confirmar sin agenda => 409
	_, err = f.svcs.Transfers.ConfirmHandover(ctx, tr.ID, h1)
	assert.True(t, apperrors.IsConflict(err))

	_, err = f.svcs.Transfers.ScheduleHandover(ctx, tr.ID, h3, transfers.ScheduleInput{})
	assert.True(t, apperrors.IsForbidden(err), "no es parte")

	at := time.Now().Add(48 * time.Hour)
	loc := "  Parque Centenario "
	sched, err := f.svcs.Transfers.ScheduleHandover(ctx, tr.ID, h1, transfers.ScheduleInput{ScheduledAt: &at, Location: &loc})
	require.NoError(t, err)
	assert.Equal(t, transfers.StatusScheduled, sched.Status)
	assert.Equal(t, "Parque Centenario", sched.Location)
	assert.Equal(t, "h1", sched.ScheduledBy)

	_, err = f.svcs.Transfers.ConfirmHandover(ctx, tr.ID, h1)
	assert.True(t, apperrors.IsForbidden(err), "quien agenda no confirma")

	conf, err := f.svcs.Transfers.ConfirmHandover(ctx, tr.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, transfers.StatusConfirmed, conf.Status)
	assert.Equal(t, placement.StatusActive, f.requestStatus(t, pr.ID))

	done, err := f.svcs.Transfers.CompleteHandover(ctx, tr.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, transfers.StatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, placement.StatusClosed, f.requestStatus(t, pr.ID))

	_, err = f.svcs.Responses.Respond(ctx, h3, fosterFree(pr.ID, p3))
	assert.True(t, apperrors.IsConflict(err))

	_, err = f.svcs.Transfers.CancelHandover(ctx, tr.ID, owner)
	assert.True(t, apperrors.IsConflict(err))
}

func TestHandover_CompleteFromScheduled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h1, p1 := f.helper(t, "h1", placement.TypeFosterFree)
	pr := f.request(t, placement.TypeFosterFree)
	r1 := f.respond(t, h1, p1, pr.ID)

	tr, err := f.svcs.Responses.Accept(ctx, r1.ID, owner)
	require.NoError(t, err)

	_, err = f.svcs.Transfers.CompleteHandover(ctx, tr.ID, owner)
	assert.True(t, apperrors.IsConflict(err), "pending no se completa")

	_, err = f.svcs.Transfers.ScheduleHandover(ctx, tr.ID, owner, transfers.ScheduleInput{})
	require.NoError(t, err)

	_, err = f.svcs.Transfers.CompleteHandover(ctx, tr.ID, h1)
	require.NoError(t, err)
	assert.Equal(t, placement.StatusClosed, f.requestStatus(t, pr.ID))
}

func TestHandover_CancelReopensRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h1, p1 := f.helper(t, "h1", placement.TypeFosterFree)
	h2, p2 := f.helper(t, "h2", placement.TypeFosterFree)
	pr := f.request(t, placement.TypeFosterFree)
	r1 := f.respond(t, h1, p1, pr.ID)

	tr, err := f.svcs.Responses.Accept(ctx, r1.ID, owner)
	require.NoError(t, err)
	_, err = f.svcs.Transfers.ScheduleHandover(ctx, tr.ID, owner, transfers.ScheduleInput{})
	require.NoError(t, err)
	_, err = f.svcs.Transfers.ConfirmHandover(ctx, tr.ID, h1)
	require.NoError(t, err)
	require.Equal(t, placement.StatusActive, f.requestStatus(t, pr.ID))

	out, err := f.svcs.Transfers.CancelHandover(ctx, tr.ID, h1)
	require.NoError(t, err)
	assert.Equal(t, transfers.StatusCancelled, out.Status)
	assert.Equal(t, "h1", out.CancelledBy)

	assert.Equal(t, placement.StatusOpen, f.requestStatus(t, pr.ID))
	got, err := f.svcs.Responses.Get(ctx, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, responses.StatusRejected, got.Status)

	// nuevo ciclo con otro helper
	r2 := f.respond(t, h2, p2, pr.ID)
	tr2, err := f.svcs.Responses.Accept(ctx, r2.ID, owner)
	require.NoError(t, err)
	assert.NotEqual(t, tr.ID, tr2.ID)

	types := f.timelineTypes(t, pr.ID)
	assert.Contains(t, types, timeline.EventHandoverCancelled)
	assert.Contains(t, types, timeline.EventRequestReopened)
}

func TestCancelRequest_Cascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h1, p1 := f.helper(t, "h1", placement.TypeFosterFree)
	h2, p2 := f.helper(t, "h2", placement.TypeFosterFree)
	pr := f.request(t, placement.TypeFosterFree)
	r1 := f.respond(t, h1, p1, pr.ID)
	r2 := f.respond(t, h2, p2, pr.ID)

	_, err := f.svcs.Responses.Withdraw(ctx, r2.ID, h2)
	require.NoError(t, err)
	tr, err := f.svcs.Responses.Accept(ctx, r1.ID, owner)
	require.NoError(t, err)

	_, err = f.svcs.Placement.Cancel(ctx, pr.ID, owner)
	require.NoError(t, err)

	got1, err := f.svcs.Responses.Get(ctx, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, responses.StatusRejected, got1.Status)

	got2, err := f.svcs.Responses.Get(ctx, r2.ID)
	require.NoError(t, err)
	assert.Equal(t, responses.StatusWithdrawn, got2.Status, "withdrawn no se toca")

	gotTr, err := f.svcs.Transfers.Get(ctx, tr.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, transfers.StatusCancelled, gotTr.Status)
	assert.Equal(t, placement.StatusCancelled, f.requestStatus(t, pr.ID))
}

func TestTimeline_AccessForResponders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h1, p1 := f.helper(t, "h1", placement.TypeFosterFree)
	pr := f.request(t, placement.TypeFosterFree)
	f.respond(t, h1, p1, pr.ID)

	assert.NoError(t, f.svcs.Responses.CanViewRequestHistory(ctx, pr.ID, owner.UserID, false))
	assert.NoError(t, f.svcs.Responses.CanViewRequestHistory(ctx, pr.ID, "h1", false))
	assert.NoError(t, f.svcs.Responses.CanViewRequestHistory(ctx, pr.ID, "anyone", true))

	err := f.svcs.Responses.CanViewRequestHistory(ctx, pr.ID, "stranger", false)
	assert.True(t, apperrors.IsForbidden(err))
}

func TestProjectionLoader_View(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h1, p1 := f.helper(t, "h1", placement.TypeFosterFree)
	pr := f.request(t, placement.TypeFosterFree)

	v, err := f.svcs.Projection.View(ctx, f.petID, "h1")
	require.NoError(t, err)
	assert.True(t, v.CanRespond)
	assert.True(t, v.SupportsRequestType)

	r1 := f.respond(t, h1, p1, pr.ID)
	_, err = f.svcs.Responses.Accept(ctx, r1.ID, owner)
	require.NoError(t, err)

	v, err = f.svcs.Projection.View(ctx, f.petID, "h1")
	require.NoError(t, err)
	assert.False(t, v.CanRespond)
	require.NotNil(t, v.MyAcceptedResponse)
	require.NotNil(t, v.MyPendingTransfer)

	// viewer sin perfil helper
	v, err = f.svcs.Projection.View(ctx, f.petID, "nobody")
	require.NoError(t, err)
	assert.False(t, v.SupportsRequestType)
	assert.True(t, v.HasActiveRequest)

	ownerView, err := f.svcs.Projection.View(ctx, f.petID, owner.UserID)
	require.NoError(t, err)
	assert.True(t, ownerView.IsOwner)
}

// acceptAfterList dispara un accept concurrente apenas el loader terminó de listar requests.
type acceptAfterList struct {
	projection.RequestLister
	accept func() error
	done   chan error
}

func (a *acceptAfterList) ListByPet(ctx context.Context, petID string) ([]placement.PlacementRequest, error) {
	items, err := a.RequestLister.ListByPet(ctx, petID)
	go func() { a.done <- a.accept() }()
	// margen para que el accept llegue a competir con el resto del snapshot
	time.Sleep(20 * time.Millisecond)
	return items, err
}

func TestProjectionLoader_SnapshotIsConsistent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h1, p1 := f.helper(t, "h1", placement.TypeFosterFree)
	pr := f.request(t, placement.TypeFosterFree)
	r1 := f.respond(t, h1, p1, pr.ID)

	lister := &acceptAfterList{
		RequestLister: f.svcs.Placement,
		accept: func() error {
			_, err := f.svcs.Responses.Accept(context.Background(), r1.ID, owner)
			return err
		},
		done: make(chan error, 1),
	}
	loader := projection.NewLoader(f.stores.Tx, f.svcs.Pets, lister, f.svcs.Responses, f.svcs.Transfers, f.svcs.Helpers)

	v, err := loader.View(ctx, f.petID, "h1")
	require.NoError(t, err)
	require.NoError(t, <-lister.done)

	// el accept confirma después del snapshot: la vista es la previa, completa
	require.NotNil(t, v.ActiveRequest)
	assert.Equal(t, placement.StatusOpen, v.ActiveRequest.Status)
	require.NotNil(t, v.MyPendingResponse)
	assert.Nil(t, v.MyAcceptedResponse)
	assert.Nil(t, v.MyPendingTransfer)

	after, err := f.svcs.Projection.View(ctx, f.petID, "h1")
	require.NoError(t, err)
	require.NotNil(t, after.ActiveRequest)
	assert.Equal(t, placement.StatusPendingTransfer, after.ActiveRequest.Status)
	assert.NotNil(t, after.MyAcceptedResponse)
	assert.NotNil(t, after.MyPendingTransfer)
	assert.False(t, after.CanRespond)
}
