package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"registry/core/registry/adapters/persistence"
	"registry/core/registry/adapters/photo"
	"registry/core/registry/domain"
	"registry/modules/api/registryapi"
	"registry/modules/clock"
	"registry/modules/db/memory"
)

func newTestHandler(t *testing.T) (http.Handler, *domain.Application) {
	t.Helper()
	store := persistence.NewStore(memory.NewMemoryKV(), "registry:document")
	app := domain.NewApp(store, photo.NewEncoder(), clock.RealClock{},
		domain.WithSearchQuietPeriod(5*time.Millisecond))
	t.Cleanup(app.Close)
	if err := app.Bootstrap(t.Context()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	svc := NewRegistryService(app)
	mux := http.NewServeMux()
	svc.Register(mux)

	handler := http.Handler(mux)
	for _, mw := range svc.Middlewares() {
		handler = mw(handler)
	}
	return handler, app
}

type formFields map[string]string

func multipartBody(t *testing.T, fields formFields, photoName string, photoData []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if photoName != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photo"; filename=%q`, photoName))
		h.Set("Content-Type", "image/png")
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("create photo part: %v", err)
		}
		if _, err := part.Write(photoData); err != nil {
			t.Fatalf("write photo part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func adaFields() formFields {
	return formFields{
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"email":     "Ada.Lovelace+x@gmail.com",
		"programme": "CS",
		"year":      "2",
		"interests": "math,chess",
	}
}

func createProfile(t *testing.T, handler http.Handler, fields formFields) registryapi.SuccessProfile {
	t.Helper()
	body, contentType := multipartBody(t, fields, "", nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/profiles", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("create: got status %d, body %s", rr.Code, rr.Body.String())
	}
	var out registryapi.SuccessProfile
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return out
}

func TestCreateProfileEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t)

	body, contentType := multipartBody(t, adaFields(), "", nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/profiles", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("got status %d, body %s", rr.Code, rr.Body.String())
	}
	var out registryapi.SuccessProfile
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Data.Id == "" {
		t.Fatal("expected a minted id")
	}
	if got := rr.Header().Get("Location"); got != "/v1/profiles/"+out.Data.Id {
		t.Errorf("Location = %q", got)
	}
	if string(out.Data.Email) != "Ada.Lovelace+x@gmail.com" {
		t.Errorf("email must be stored literally, got %q", out.Data.Email)
	}
	if len(out.Data.Interests) != 2 {
		t.Errorf("interests = %v", out.Data.Interests)
	}
}

func TestCreateProfileValidationProblem(t *testing.T) {
	handler, _ := newTestHandler(t)

	fields := adaFields()
	fields["firstName"] = "  "
	fields["interests"] = "a,b,c,d"
	body, contentType := multipartBody(t, fields, "", nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/profiles", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("got status %d, body %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var prob struct {
		InvalidParams []struct {
			Name   string `json:"name"`
			Reason string `json:"reason"`
		} `json:"invalidParams"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &prob); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	seen := map[string]string{}
	for _, p := range prob.InvalidParams {
		seen[p.Name] = p.Reason
	}
	if seen["firstName"] != "required" || seen["interests"] != "too_many" {
		t.Errorf("invalidParams = %v", seen)
	}
}

func TestCreateProfileDuplicateConflict(t *testing.T) {
	handler, _ := newTestHandler(t)
	createProfile(t, handler, adaFields())

	dup := adaFields()
	dup["email"] = "adalovelace@gmail.com" // folds to the same inbox
	body, contentType := multipartBody(t, dup, "", nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/profiles", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("got status %d, body %s", rr.Code, rr.Body.String())
	}
}

func TestEditFlowCarriesRecordThroughForm(t *testing.T) {
	handler, app := newTestHandler(t)
	created := createProfile(t, handler, adaFields())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/profiles/"+created.Data.Id+"/edit", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("begin edit: status %d, body %s", rr.Code, rr.Body.String())
	}
	if got := app.EditingID(); got != created.Data.Id {
		t.Fatalf("editing id = %q", got)
	}

	fields := adaFields()
	fields["programme"] = "Maths"
	body, contentType := multipartBody(t, fields, "", nil)
	req := httptest.NewRequest(http.MethodPut, "/v1/profiles/"+created.Data.Id, body)
	req.Header.Set("Content-Type", contentType)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("update: status %d, body %s", rr.Code, rr.Body.String())
	}

	var out registryapi.SuccessProfile
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode update response: %v", err)
	}
	if out.Data.Programme != "Maths" {
		t.Errorf("programme = %q", out.Data.Programme)
	}
	if out.Data.Id != created.Data.Id {
		t.Errorf("id changed across edit: %q -> %q", created.Data.Id, out.Data.Id)
	}
	if app.EditingID() != "" {
		t.Error("successful save must exit editing mode")
	}
}

func TestUpdateWithoutEditModeIsConflict(t *testing.T) {
	handler, _ := newTestHandler(t)
	created := createProfile(t, handler, adaFields())

	body, contentType := multipartBody(t, adaFields(), "", nil)
	req := httptest.NewRequest(http.MethodPut, "/v1/profiles/"+created.Data.Id, body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("got status %d, body %s", rr.Code, rr.Body.String())
	}
}

func TestRemovalFlow(t *testing.T) {
	handler, _ := newTestHandler(t)
	created := createProfile(t, handler, adaFields())
	id := created.Data.Id

	// confirm without a request: conflict
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/profiles/"+id+"/removal/confirm", nil))
	if rr.Code != http.StatusConflict {
		t.Fatalf("confirm without request: status %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/profiles/"+id+"/removal", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("request removal: status %d, body %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/profiles/"+id+"/removal/confirm", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("confirm removal: status %d, body %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/profiles", nil))
	var list registryapi.ProfileList
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Count != 0 {
		t.Errorf("count after removal = %d", list.Count)
	}
}

func TestListProfilesFilterAndHighlight(t *testing.T) {
	handler, _ := newTestHandler(t)
	createProfile(t, handler, adaFields())
	other := adaFields()
	other["firstName"] = "Grace"
	other["lastName"] = "Hopper"
	other["email"] = "grace@example.org"
	createProfile(t, handler, other)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/profiles?query=ada&field=all&sort=id_asc", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rr.Code, rr.Body.String())
	}
	var list registryapi.ProfileList
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Count != 1 || list.Data[0].FirstName != "Ada" {
		t.Fatalf("unexpected result: %+v", list)
	}
	if len(list.Data[0].Highlights) == 0 {
		t.Error("expected highlight spans on the match")
	}
}

func TestListProfilesRejectsUnknownSort(t *testing.T) {
	handler, _ := newTestHandler(t)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/profiles?sort=bogus", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status %d, body %s", rr.Code, rr.Body.String())
	}
}

func TestViewEndpointRendersPlaceholders(t *testing.T) {
	handler, _ := newTestHandler(t)
	createProfile(t, handler, adaFields())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/registry/view", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rr.Code, rr.Body.String())
	}
	var view domain.View
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if len(view.Cards) != 1 || len(view.Rows) != 1 {
		t.Fatalf("cards=%d rows=%d", len(view.Cards), len(view.Rows))
	}
	card := view.Cards[0]
	if card.PhotoURL != "" {
		t.Error("no photo was uploaded")
	}
	if card.Placeholder == nil || card.Placeholder.Initials != "AL" {
		t.Errorf("placeholder = %+v", card.Placeholder)
	}
	if view.Rows[0].Interests != "math, chess" {
		t.Errorf("row interests = %q", view.Rows[0].Interests)
	}
}

func TestSearchSessionEndpoints(t *testing.T) {
	handler, app := newTestHandler(t)
	createProfile(t, handler, adaFields())

	req := httptest.NewRequest(http.MethodPost, "/v1/registry/search",
		strings.NewReader(`{"query":"ada","field":"all","sort":"id_asc"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("set search: status %d, body %s", rr.Code, rr.Body.String())
	}

	deadline := time.Now().Add(time.Second)
	for app.SearchCriteria().Query != "ada" {
		if time.Now().After(deadline) {
			t.Fatal("debounced criteria never applied")
		}
		time.Sleep(2 * time.Millisecond)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/registry/search/clear", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("clear search: status %d", rr.Code)
	}
	if app.SearchCriteria().Query != "" {
		t.Error("clear must apply immediately")
	}
}

func TestStatusEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t)
	createProfile(t, handler, adaFields())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/registry/status", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rr.Code, rr.Body.String())
	}
	var out registryapi.RegistryStatus
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if out.Status.Level != "success" {
		t.Errorf("level = %q, message = %q", out.Status.Level, out.Status.Message)
	}
}

func TestHealthz(t *testing.T) {
	handler, _ := newTestHandler(t)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status %d", rr.Code)
	}
}
