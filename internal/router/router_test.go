package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pet-placement/internal/router"
)

const (
	ownerID = "owner-1"
	helper1 = "helper-1"
	helper2 = "helper-2"
	helper3 = "helper-3"
)

func TestHTTP_Health(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	st, body := doReq(t, ts.URL, "GET", "/health", "", nil)
	if st != http.StatusOK || string(body) != "ok" {
		t.Fatalf("expected 200 ok, got %d body=%s", st, string(body))
	}
}

func TestHTTP_Unauthenticated(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	st, _ := doReq(t, ts.URL, "GET", "/placement-requests", "", nil)
	if st != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", st)
	}
}

func TestHTTP_EndToEnd_FosterHandover(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	petID := createPet(t, ts.URL, ownerID)
	h1Profile := upsertProfile(t, ts.URL, helper1, "foster_free")
	h2Profile := upsertProfile(t, ts.URL, helper2, "foster_free")
	h3Profile := upsertProfile(t, ts.URL, helper3, "foster_free")

	// 1) Owner publica foster_free
	reqID := createRequest(t, ts.URL, ownerID, petID, map[string]any{
		"request_type": "foster_free",
		"start_date":   future(7),
		"end_date":     future(30),
	})

	// 2) Dos helpers responden
	r1 := respond(t, ts.URL, helper1, reqID, h1Profile)
	r2 := respond(t, ts.URL, helper2, reqID, h2Profile)

	// 3) Respuesta duplicada => 409
	{
		st, body := doReq(t, ts.URL, "POST", "/placement-requests/"+reqID+"/responses", helper1, respondBody(h1Profile))
		if st != http.StatusConflict {
			t.Fatalf("expected 409 duplicate response, got %d body=%s", st, string(body))
		}
	}

	// 4) El owner no responde a su propio request
	{
		ownerProfile := upsertProfile(t, ts.URL, ownerID, "foster_free")
		st, body := doReq(t, ts.URL, "POST", "/placement-requests/"+reqID+"/responses", ownerID, respondBody(ownerProfile))
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 owner responding, got %d body=%s", st, string(body))
		}
	}

	// 5) Owner acepta H1 => transfer pending
	transferID := ""
	{
		st, body := doReq(t, ts.URL, "POST", "/responses/"+r1+"/accept", ownerID, nil)
		if st != http.StatusCreated {
			t.Fatalf("expected 201 accept, got %d body=%s", st, string(body))
		}
		tr := decode(t, body)
		if tr["status"] != "pending" || tr["helper_user_id"] != helper1 {
			t.Fatalf("unexpected transfer: %s", string(body))
		}
		transferID = tr["id"].(string)
	}

	// 6) Aceptar H2 después => 409
	{
		st, body := doReq(t, ts.URL, "POST", "/responses/"+r2+"/accept", ownerID, nil)
		if st != http.StatusConflict {
			t.Fatalf("expected 409 second accept, got %d body=%s", st, string(body))
		}
	}

	// 7) H2 quedó rejected y el request en pending_transfer
	{
		statuses := responseStatuses(t, ts.URL, ownerID, reqID)
		if statuses[r1] != "accepted" || statuses[r2] != "rejected" {
			t.Fatalf("unexpected statuses after accept: %v", statuses)
		}
		if s := requestStatus(t, ts.URL, ownerID, reqID); s != "pending_transfer" {
			t.Fatalf("expected pending_transfer, got %s", s)
		}
	}

	// 8) Vista de H1: respuesta aceptada + transfer pendiente, no puede responder
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/"+petID+"/placement-view", helper1, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 view, got %d body=%s", st, string(body))
		}
		v := decode(t, body)
		if v["my_accepted_response"] == nil || v["my_pending_transfer"] == nil {
			t.Fatalf("expected accepted response and pending transfer in view: %s", string(body))
		}
		if v["can_respond"] != false || v["is_owner"] != false || v["has_active_request"] != true {
			t.Fatalf("unexpected view flags: %s", string(body))
		}
	}

	// 9) Owner agenda; no puede confirmar su propia agenda
	{
		st, body := doReq(t, ts.URL, "POST", "/transfers/"+transferID+"/schedule", ownerID, map[string]any{
			"scheduled_at": time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339),
			"location":     "Plaza Italia",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 schedule, got %d body=%s", st, string(body))
		}
		st, body = doReq(t, ts.URL, "POST", "/transfers/"+transferID+"/confirm", ownerID, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 self-confirm, got %d body=%s", st, string(body))
		}
	}

	// 10) Un tercero no ve el transfer
	{
		st, _ := doReq(t, ts.URL, "GET", "/transfers/"+transferID, helper3, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 for non-party, got %d", st)
		}
	}

	// 11) H1 confirma => request active
	{
		st, body := doReq(t, ts.URL, "POST", "/transfers/"+transferID+"/confirm", helper1, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 confirm, got %d body=%s", st, string(body))
		}
		if s := requestStatus(t, ts.URL, ownerID, reqID); s != "active" {
			t.Fatalf("expected active, got %s", s)
		}
	}

	// 12) Owner completa => request closed
	{
		st, body := doReq(t, ts.URL, "POST", "/transfers/"+transferID+"/complete", ownerID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 complete, got %d body=%s", st, string(body))
		}
		if decode(t, body)["status"] != "completed" {
			t.Fatalf("expected completed transfer: %s", string(body))
		}
		if s := requestStatus(t, ts.URL, ownerID, reqID); s != "closed" {
			t.Fatalf("expected closed, got %s", s)
		}
	}

	// 13) Request cerrado no acepta respuestas
	{
		st, body := doReq(t, ts.URL, "POST", "/placement-requests/"+reqID+"/responses", helper3, respondBody(h3Profile))
		if st != http.StatusConflict {
			t.Fatalf("expected 409 responding to closed request, got %d body=%s", st, string(body))
		}
	}

	// 14) Timeline: visible para owner y para quien respondió, no para terceros
	{
		st, body := doReq(t, ts.URL, "GET", "/placement-requests/"+reqID+"/timeline", helper2, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 timeline for responder, got %d body=%s", st, string(body))
		}
		var entries []map[string]any
		if err := json.Unmarshal(body, &entries); err != nil {
			t.Fatalf("decode timeline: %v", err)
		}
		want := []string{
			"REQUEST_CREATED",
			"RESPONSE_SUBMITTED",
			"RESPONSE_SUBMITTED",
			"RESPONSE_ACCEPTED",
			"RESPONSE_REJECTED",
			"HANDOVER_SCHEDULED",
			"HANDOVER_CONFIRMED",
			"REQUEST_CLOSED",
			"HANDOVER_COMPLETED",
		}
		if len(entries) != len(want) {
			t.Fatalf("expected %d timeline entries, got %d: %s", len(want), len(entries), string(body))
		}
		for i, w := range want {
			if entries[i]["type"] != w {
				t.Fatalf("timeline[%d]: expected %s, got %v", i, w, entries[i]["type"])
			}
		}

		st, _ = doReq(t, ts.URL, "GET", "/placement-requests/"+reqID+"/timeline", helper3, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 timeline for stranger, got %d", st)
		}
	}
}

func TestHTTP_PermanentRejectsEndDate(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	petID := createPet(t, ts.URL, ownerID)
	st, body := doReq(t, ts.URL, "POST", "/pets/"+petID+"/placement-requests", ownerID, map[string]any{
		"request_type": "permanent",
		"start_date":   future(1),
		"end_date":     future(30),
	})
	if st != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", st, string(body))
	}
}

func TestHTTP_MalformedDatesAreFieldErrors(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	petID := createPet(t, ts.URL, ownerID)
	st, body := doReq(t, ts.URL, "POST", "/pets/"+petID+"/placement-requests", ownerID, map[string]any{
		"request_type": "foster_free",
		"start_date":   "next tuesday",
		"end_date":     "31/12/2030",
	})
	if st != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for malformed dates, got %d body=%s", st, string(body))
	}
	fields, _ := decode(t, body)["fields"].(map[string]any)
	if fields["start_date"] == nil || fields["end_date"] == nil {
		t.Fatalf("expected start_date and end_date field errors: %s", string(body))
	}

	h1Profile := upsertProfile(t, ts.URL, helper1, "foster_free")
	reqID := createRequest(t, ts.URL, ownerID, petID, map[string]any{
		"request_type": "foster_free",
		"start_date":   future(3),
	})
	r1 := respond(t, ts.URL, helper1, reqID, h1Profile)
	st, body = doReq(t, ts.URL, "POST", "/responses/"+r1+"/accept", ownerID, nil)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 accept, got %d body=%s", st, string(body))
	}
	transferID := decode(t, body)["id"].(string)

	st, body = doReq(t, ts.URL, "POST", "/transfers/"+transferID+"/schedule", ownerID, map[string]any{
		"scheduled_at": "tomorrow at noon",
	})
	if st != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for malformed scheduled_at, got %d body=%s", st, string(body))
	}
	fields, _ = decode(t, body)["fields"].(map[string]any)
	if fields["scheduled_at"] == nil {
		t.Fatalf("expected scheduled_at field error: %s", string(body))
	}
}

func TestHTTP_DuplicateLiveRequest(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	petID := createPet(t, ts.URL, ownerID)
	createRequest(t, ts.URL, ownerID, petID, map[string]any{"request_type": "adoption", "start_date": future(1)})

	st, body := doReq(t, ts.URL, "POST", "/pets/"+petID+"/placement-requests", ownerID, map[string]any{
		"request_type": "adoption",
		"start_date":   future(2),
	})
	if st != http.StatusConflict {
		t.Fatalf("expected 409 duplicate live request, got %d body=%s", st, string(body))
	}

	st, body = doReq(t, ts.URL, "POST", "/pets/"+petID+"/placement-requests", helper1, map[string]any{
		"request_type": "foster_free",
		"start_date":   future(2),
	})
	if st != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner, got %d body=%s", st, string(body))
	}
}

func TestHTTP_CancelHandoverReopens(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	petID := createPet(t, ts.URL, ownerID)
	h1Profile := upsertProfile(t, ts.URL, helper1, "foster_free")
	h3Profile := upsertProfile(t, ts.URL, helper3, "foster_free")
	reqID := createRequest(t, ts.URL, ownerID, petID, map[string]any{
		"request_type": "foster_free",
		"start_date":   future(3),
	})
	r1 := respond(t, ts.URL, helper1, reqID, h1Profile)

	st, body := doReq(t, ts.URL, "POST", "/responses/"+r1+"/accept", ownerID, nil)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 accept, got %d body=%s", st, string(body))
	}
	transferID := decode(t, body)["id"].(string)

	// El helper cancela el handover
	st, body = doReq(t, ts.URL, "POST", "/transfers/"+transferID+"/cancel", helper1, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 cancel, got %d body=%s", st, string(body))
	}
	if decode(t, body)["status"] != "cancelled" {
		t.Fatalf("expected cancelled transfer: %s", string(body))
	}

	if s := requestStatus(t, ts.URL, ownerID, reqID); s != "open" {
		t.Fatalf("expected request reopened, got %s", s)
	}
	if s := responseStatuses(t, ts.URL, ownerID, reqID)[r1]; s != "rejected" {
		t.Fatalf("expected accepted response reverted to rejected, got %s", s)
	}

	// Otro helper puede responder de nuevo
	respond(t, ts.URL, helper3, reqID, h3Profile)

	// Cancelar otra vez => 409
	st, _ = doReq(t, ts.URL, "POST", "/transfers/"+transferID+"/cancel", ownerID, nil)
	if st != http.StatusConflict {
		t.Fatalf("expected 409 cancelling twice, got %d", st)
	}
}

func TestHTTP_CancelRequestCascades(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	petID := createPet(t, ts.URL, ownerID)
	h1Profile := upsertProfile(t, ts.URL, helper1, "foster_free")
	h2Profile := upsertProfile(t, ts.URL, helper2, "foster_free")
	reqID := createRequest(t, ts.URL, ownerID, petID, map[string]any{
		"request_type": "foster_free",
		"start_date":   future(3),
	})
	r1 := respond(t, ts.URL, helper1, reqID, h1Profile)
	r2 := respond(t, ts.URL, helper2, reqID, h2Profile)

	st, body := doReq(t, ts.URL, "POST", "/responses/"+r1+"/accept", ownerID, nil)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 accept, got %d body=%s", st, string(body))
	}
	transferID := decode(t, body)["id"].(string)

	st, body = doReq(t, ts.URL, "POST", "/placement-requests/"+reqID+"/cancel", ownerID, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 cancel request, got %d body=%s", st, string(body))
	}
	if decode(t, body)["status"] != "cancelled" {
		t.Fatalf("expected cancelled request: %s", string(body))
	}

	statuses := responseStatuses(t, ts.URL, ownerID, reqID)
	if statuses[r1] != "rejected" || statuses[r2] != "rejected" {
		t.Fatalf("expected all responses rejected, got %v", statuses)
	}

	st, body = doReq(t, ts.URL, "GET", "/transfers/"+transferID, ownerID, nil)
	if st != http.StatusOK || decode(t, body)["status"] != "cancelled" {
		t.Fatalf("expected cancelled transfer, got %d body=%s", st, string(body))
	}

	// La vista ya no muestra un request activo
	st, body = doReq(t, ts.URL, "GET", "/pets/"+petID+"/placement-view", helper2, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 view, got %d", st)
	}
	if v := decode(t, body); v["has_active_request"] != false || v["active_request"] != nil {
		t.Fatalf("expected no active request: %s", string(body))
	}
}

func TestHTTP_WithdrawAndRespondAgain(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	petID := createPet(t, ts.URL, ownerID)
	h1Profile := upsertProfile(t, ts.URL, helper1, "foster_free")
	reqID := createRequest(t, ts.URL, ownerID, petID, map[string]any{
		"request_type": "foster_free",
		"start_date":   future(3),
	})
	r1 := respond(t, ts.URL, helper1, reqID, h1Profile)

	st, body := doReq(t, ts.URL, "POST", "/responses/"+r1+"/withdraw", ownerID, nil)
	if st != http.StatusForbidden {
		t.Fatalf("expected 403 owner withdrawing, got %d body=%s", st, string(body))
	}
	st, body = doReq(t, ts.URL, "POST", "/responses/"+r1+"/withdraw", helper1, nil)
	if st != http.StatusOK || decode(t, body)["status"] != "withdrawn" {
		t.Fatalf("expected 200 withdrawn, got %d body=%s", st, string(body))
	}

	// Volver a responder reutiliza la misma respuesta
	again := respond(t, ts.URL, helper1, reqID, h1Profile)
	if again != r1 {
		t.Fatalf("expected withdrawn response to be revived, got new id %s", again)
	}
}

func TestHTTP_ListOpenRequests(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	petID := createPet(t, ts.URL, ownerID)
	createRequest(t, ts.URL, ownerID, petID, map[string]any{"request_type": "foster_free", "start_date": future(3)})
	createRequest(t, ts.URL, ownerID, petID, map[string]any{"request_type": "adoption", "start_date": future(3)})

	st, body := doReq(t, ts.URL, "GET", "/placement-requests?limit=1", helper1, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 list, got %d body=%s", st, string(body))
	}
	page := decode(t, body)
	items, _ := page["items"].([]any)
	if len(items) != 1 || page["limit"] != float64(1) {
		t.Fatalf("unexpected page: %s", string(body))
	}
}

// -------- helpers --------

func future(days int) string {
	return time.Now().AddDate(0, 0, days).UTC().Format("2006-01-02")
}

func createPet(t *testing.T, baseURL, userID string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/pets", userID, map[string]any{
		"name":    "Milo",
		"species": "dog",
		"city":    "Buenos Aires",
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 creating pet, got %d body=%s", st, string(body))
	}
	return decode(t, body)["id"].(string)
}

func upsertProfile(t *testing.T, baseURL, userID string, types ...string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "PUT", "/me/helper-profile", userID, map[string]any{
		"display_name":  "Helper " + userID,
		"city":          "Buenos Aires",
		"request_types": types,
	})
	if st != http.StatusOK {
		t.Fatalf("expected 200 upserting profile, got %d body=%s", st, string(body))
	}
	return decode(t, body)["id"].(string)
}

func createRequest(t *testing.T, baseURL, userID, petID string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/pets/"+petID+"/placement-requests", userID, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 creating request, got %d body=%s", st, string(body))
	}
	out := decode(t, body)
	if out["status"] != "open" {
		t.Fatalf("expected open request: %s", string(body))
	}
	return out["id"].(string)
}

func respondBody(profileID string) map[string]any {
	return map[string]any{
		"helper_profile_id":           profileID,
		"requested_relationship_type": "fostering",
		"fostering_type":              "free",
		"message":                     "Tengo patio y experiencia",
	}
}

func respond(t *testing.T, baseURL, userID, reqID, profileID string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/placement-requests/"+reqID+"/responses", userID, respondBody(profileID))
	if st != http.StatusCreated {
		t.Fatalf("expected 201 responding, got %d body=%s", st, string(body))
	}
	out := decode(t, body)
	if out["status"] != "responded" {
		t.Fatalf("expected responded: %s", string(body))
	}
	return out["id"].(string)
}

func requestStatus(t *testing.T, baseURL, userID, reqID string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "GET", "/placement-requests/"+reqID, userID, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 get request, got %d body=%s", st, string(body))
	}
	return decode(t, body)["status"].(string)
}

func responseStatuses(t *testing.T, baseURL, userID, reqID string) map[string]string {
	t.Helper()

	st, body := doReq(t, baseURL, "GET", "/placement-requests/"+reqID+"/responses", userID, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 list responses, got %d body=%s", st, string(body))
	}
	var items []map[string]any
	if err := json.Unmarshal(body, &items); err != nil {
		t.Fatalf("decode responses: %v", err)
	}
	out := map[string]string{}
	for _, it := range items {
		out[it["id"].(string)] = it["status"].(string)
	}
	return out
}

func decode(t *testing.T, body []byte) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("json unmarshal: %v body=%s", err, string(body))
	}
	return out
}

func doReq(t *testing.T, baseURL, method, path, debugUserID string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
