package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"invoicer/internal/autosave"
	"invoicer/internal/handler"
	"invoicer/internal/middleware"
	"invoicer/internal/model"
	"invoicer/internal/repository"
	"invoicer/internal/service"
	"invoicer/internal/storage"
	"invoicer/pkg/pagination"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
)

type envelope struct {
	Status     string           `json:"status"`
	StatusCode int              `json:"status_code"`
	Data       json.RawMessage  `json:"data"`
	Meta       *pagination.Meta `json:"meta"`
	Error      string           `json:"error"`
}

type testServer struct {
	t        *testing.T
	router   *gin.Engine
	services *service.Services
	sessions *autosave.Manager
	ws       model.Workspace
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	repos := repository.New(storage.NewMemoryStore(), repository.Options{Clock: clock})
	services := service.New(repos, clock)
	ws, err := services.Workspaces.EnsureDefault(context.Background())
	if err != nil {
		t.Fatalf("EnsureDefault() error = %v", err)
	}
	sessions := autosave.NewManager(autosave.Deps{
		Drafts:     repos.Drafts,
		Invoices:   services.Invoices,
		Forms:      services.Invoices,
		Workspaces: repos.Workspaces,
		Clock:      clock,
	})

	return &testServer{
		t:        t,
		services: services,
		sessions: sessions,
		ws:       ws,
		router: handler.NewRouter(handler.RouterConfig{
			Services: services,
			Sessions: sessions,
		}),
	}
}

func (s *testServer) do(method, path string, body interface{}, headers ...string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			s.t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			s.t.Fatalf("%s %s: body does not decode: %v\n%s", method, path, err, rec.Body.String())
		}
	}
	return rec, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("data does not decode: %v\n%s", err, raw)
	}
	return v
}

var sampleInvoice = map[string]interface{}{
	"date":     "2024-04-30T00:00:00Z",
	"currency": "EUR",
	"from":     map[string]string{"name": "Freelance Ltd", "address": "1 Side St"},
	"to":       map[string]string{"businessName": "Acme", "address": "2 Main St"},
	"items": []map[string]interface{}{
		{"description": "Design", "quantity": "3", "rate": "100"},
	},
	"tax":          "10",
	"activeFields": []string{"gst"},
	"gst":          "GST-1",
}

func TestHealthAndRequestID(t *testing.T) {
	s := newTestServer(t)
	rec, _ := s.do(http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", rec.Code)
	}
	if rec.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("response carries no request id")
	}

	rec, _ = s.do(http.MethodGet, "/health", nil, middleware.RequestIDHeader, "abc-123")
	if got := rec.Header().Get(middleware.RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want the caller's abc-123", got)
	}
}

func TestUnknownWorkspaceHeader(t *testing.T) {
	s := newTestServer(t)
	rec, env := s.do(http.MethodGet, "/api/invoices", nil, middleware.WorkspaceHeader, "nope")
	if rec.Code != http.StatusNotFound || env.Status != "error" {
		t.Fatalf("GET /api/invoices with unknown workspace = %d %+v", rec.Code, env)
	}
}

func TestInvoiceLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(http.MethodPost, "/api/invoices", sampleInvoice)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/invoices = %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[service.InvoiceResponse](t, env.Data)
	if created.Number != "INV-0001" || created.Status != model.StatusPending {
		t.Errorf("created = %s %s, want INV-0001 pending", created.Number, created.Status)
	}
	if created.Total.String() != "330" {
		t.Errorf("total = %s, want 330", created.Total)
	}
	if created.WorkspaceID != s.ws.ID {
		t.Errorf("workspace = %s, want the current workspace %s", created.WorkspaceID, s.ws.ID)
	}

	_, env = s.do(http.MethodGet, "/api/invoices/next-number", nil)
	if got := decode[map[string]string](t, env.Data)["number"]; got != "INV-0002" {
		t.Errorf("next number = %s, want INV-0002", got)
	}

	rec, env = s.do(http.MethodGet, "/api/invoices?limit=1", nil)
	if rec.Code != http.StatusOK || env.Meta == nil || env.Meta.Total != 1 || env.Meta.Limit != 1 {
		t.Fatalf("GET /api/invoices = %d meta %+v", rec.Code, env.Meta)
	}

	rec, _ = s.do(http.MethodGet, "/api/invoices?status=archived", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown status filter = %d, want 400", rec.Code)
	}

	rec, _ = s.do(http.MethodDelete, "/api/invoices/"+created.ID+"/quick", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("quick delete of a pending invoice = %d, want 409", rec.Code)
	}

	rec, env = s.do(http.MethodPut, "/api/invoices/"+created.ID+"/status", map[string]string{"status": "paid"})
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[service.InvoiceResponse](t, env.Data).Status; got != model.StatusPaid {
		t.Errorf("status = %s, want paid", got)
	}

	rec, _ = s.do(http.MethodGet, "/api/invoices/"+created.ID+"/pdf", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("GET pdf = %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Error("pdf body has no PDF header")
	}

	rec, _ = s.do(http.MethodDelete, "/api/invoices/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE = %d", rec.Code)
	}
	rec, _ = s.do(http.MethodGet, "/api/invoices/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET after delete = %d, want 404", rec.Code)
	}
}

func TestStatisticsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodPost, "/api/invoices", sampleInvoice)

	rec, env := s.do(http.MethodGet, "/api/statistics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/statistics = %d", rec.Code)
	}
	stats := decode[model.StatisticsResponse](t, env.Data)
	if stats.TotalInvoices != 1 || stats.Outstanding.String() != "330" {
		t.Errorf("stats = %+v", stats)
	}

	rec, _ = s.do(http.MethodGet, "/api/statistics?start_date=yesterday", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad start_date = %d, want 400", rec.Code)
	}

	rec, env = s.do(http.MethodGet, "/api/statistics/revenue?group_by=quarter", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET revenue = %d: %s", rec.Code, rec.Body.String())
	}
	points := decode[[]service.RevenueDataPoint](t, env.Data)
	if len(points) != 1 || points[0].Period != "2024-04-01" || points[0].TotalTaxCollected.String() != "30" {
		t.Errorf("revenue = %+v", points)
	}

	rec, _ = s.do(http.MethodGet, "/api/statistics/revenue?group_by=fortnight", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown group_by = %d, want 400", rec.Code)
	}
}

func TestDraftFlow(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(http.MethodGet, "/api/draft", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/draft = %d", rec.Code)
	}
	if got := decode[handler.DraftResponse](t, env.Data).State; got != "no_draft" {
		t.Errorf("state = %s, want no_draft", got)
	}

	rec, _ = s.do(http.MethodPost, "/api/draft/submit", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("submit without a draft = %d, want 409", rec.Code)
	}

	rec, _ = s.do(http.MethodPost, "/api/draft/toggle", handler.ToggleFieldRequest{Field: "shoeSize", Enabled: true})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("toggle of an unknown field = %d, want 400", rec.Code)
	}

	rec, env = s.do(http.MethodPost, "/api/draft/toggle", handler.ToggleFieldRequest{Field: model.FieldGST, Enabled: true})
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle = %d: %s", rec.Code, rec.Body.String())
	}
	draft := decode[handler.DraftResponse](t, env.Data)
	if draft.State != "drafting" || draft.Status != autosave.StatusSaved {
		t.Errorf("after toggle: state %s status %s", draft.State, draft.Status)
	}
	if draft.Draft.GST == nil || *draft.Draft.GST != "" {
		t.Errorf("enabled gst = %v, want empty string", draft.Draft.GST)
	}

	rec, env = s.do(http.MethodPost, "/api/draft/submit", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit = %d: %s", rec.Code, rec.Body.String())
	}
	if inv := decode[service.InvoiceResponse](t, env.Data); inv.Number != "INV-0001" || inv.Status != model.StatusPending {
		t.Errorf("submitted %s %s, want INV-0001 pending", inv.Number, inv.Status)
	}

	rec, _ = s.do(http.MethodPost, "/api/draft/close", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("close = %d", rec.Code)
	}
}

func TestEditFlow(t *testing.T) {
	s := newTestServer(t)
	_, env := s.do(http.MethodPost, "/api/invoices", sampleInvoice)
	created := decode[service.InvoiceResponse](t, env.Data)
	base := "/api/invoices/" + created.ID + "/edit"

	rec, env := s.do(http.MethodPost, base, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("open editor = %d", rec.Code)
	}
	form := decode[handler.EditResponse](t, env.Data).Invoice.InvoiceForm
	form.Notes = "Thanks for your business"

	rec, env = s.do(http.MethodPut, base, form)
	if rec.Code != http.StatusOK {
		t.Fatalf("change = %d: %s", rec.Code, rec.Body.String())
	}
	if !decode[handler.EditResponse](t, env.Data).Dirty {
		t.Error("changed form not reported dirty")
	}

	rec, _ = s.do(http.MethodPost, base+"/close", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("close editor = %d", rec.Code)
	}
	_, env = s.do(http.MethodGet, "/api/invoices/"+created.ID, nil)
	if got := decode[service.InvoiceResponse](t, env.Data).Notes; got != "Thanks for your business" {
		t.Errorf("notes after close = %q, want the edited value", got)
	}

	rec, _ = s.do(http.MethodPost, "/api/invoices/missing/edit", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("edit of a missing invoice = %d, want 404", rec.Code)
	}
}

func TestRecordEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(http.MethodPost, "/api/businesses", map[string]string{"name": "Studio A", "address": "1 Art Way"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create business = %d: %s", rec.Code, rec.Body.String())
	}
	first := decode[model.Business](t, env.Data)
	if !first.IsDefault {
		t.Error("first business is not the default")
	}
	_, env = s.do(http.MethodPost, "/api/businesses", map[string]string{"name": "Studio B"})
	second := decode[model.Business](t, env.Data)

	rec, env = s.do(http.MethodPut, "/api/businesses/"+second.ID+"/default", nil)
	if rec.Code != http.StatusOK || !decode[model.Business](t, env.Data).IsDefault {
		t.Fatalf("set default = %d %s", rec.Code, rec.Body.String())
	}
	_, env = s.do(http.MethodGet, "/api/businesses", nil)
	defaults := 0
	for _, b := range decode[[]model.Business](t, env.Data) {
		if b.IsDefault {
			defaults++
		}
	}
	if defaults != 1 {
		t.Errorf("%d default businesses, want 1", defaults)
	}

	rec, env = s.do(http.MethodPatch, "/api/businesses/"+first.ID, `{"phone":"555-0100"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch = %d: %s", rec.Code, rec.Body.String())
	}
	patched := decode[model.Business](t, env.Data)
	if patched.Phone != "555-0100" || patched.Name != "Studio A" {
		t.Errorf("patched = %+v", patched)
	}

	rec, _ = s.do(http.MethodPatch, "/api/businesses/"+first.ID, `{"phone":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed patch = %d, want 400", rec.Code)
	}
	_, env = s.do(http.MethodGet, "/api/businesses/"+first.ID, nil)
	if decode[model.Business](t, env.Data).Phone != "555-0100" {
		t.Error("malformed patch changed the stored record")
	}

	// Records of another workspace are invisible
	other, err := s.services.Workspaces.CreateWorkspace(context.Background(), service.CreateWorkspaceRequest{Name: "Other"})
	if err != nil {
		t.Fatal(err)
	}
	rec, _ = s.do(http.MethodGet, "/api/businesses/"+first.ID, nil, middleware.WorkspaceHeader, other.ID)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-workspace get = %d, want 404", rec.Code)
	}
}

func TestTemplates(t *testing.T) {
	s := newTestServer(t)

	_, env := s.do(http.MethodGet, "/api/templates", nil)
	templates := decode[[]model.Template](t, env.Data)
	if len(templates) != 1 || templates[0].Name != "Standard Invoice Template" {
		t.Fatalf("templates = %+v, want the standard template", templates)
	}

	rec, env := s.do(http.MethodPost, "/api/templates/"+templates[0].ID+"/duplicate", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("duplicate = %d: %s", rec.Code, rec.Body.String())
	}
	dup := decode[model.Template](t, env.Data)
	if dup.Name != "Standard Invoice Template (Copy)" || dup.IsDefault {
		t.Errorf("duplicate = %s default %v", dup.Name, dup.IsDefault)
	}
}

func TestWorkspaceEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(http.MethodDelete, "/api/workspaces/"+s.ws.ID, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("deleting the only workspace = %d, want 409", rec.Code)
	}

	rec, env := s.do(http.MethodPost, "/api/workspaces", map[string]string{"name": "Agency"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create workspace = %d: %s", rec.Code, rec.Body.String())
	}
	agency := decode[model.Workspace](t, env.Data)

	_, env = s.do(http.MethodGet, "/api/workspaces/current", nil)
	if decode[model.Workspace](t, env.Data).ID != agency.ID {
		t.Error("new workspace did not become current")
	}

	rec, _ = s.do(http.MethodPost, "/api/workspaces/"+s.ws.ID+"/use", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("use = %d", rec.Code)
	}
	rec, _ = s.do(http.MethodPost, "/api/workspaces", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("create without a name = %d, want 400", rec.Code)
	}

	rec, _ = s.do(http.MethodDelete, "/api/workspaces/"+agency.ID, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("delete empty workspace = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestInvoicesAreScopedToWorkspace(t *testing.T) {
	s := newTestServer(t)
	_, env := s.do(http.MethodPost, "/api/invoices", sampleInvoice, middleware.WorkspaceHeader, s.ws.ID)
	created := decode[service.InvoiceResponse](t, env.Data)

	other, err := s.services.Workspaces.CreateWorkspace(context.Background(), service.CreateWorkspaceRequest{Name: "Other"})
	if err != nil {
		t.Fatal(err)
	}
	path := "/api/invoices/" + created.ID
	requests := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodGet, path, nil},
		{http.MethodPut, path + "/status", map[string]string{"status": "paid"}},
		{http.MethodGet, path + "/pdf", nil},
		{http.MethodDelete, path + "/quick", nil},
		{http.MethodDelete, path, nil},
		{http.MethodPost, path + "/edit", nil},
	}
	for _, r := range requests {
		rec, _ := s.do(r.method, r.path, r.body, middleware.WorkspaceHeader, other.ID)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s from another workspace = %d, want 404", r.method, r.path, rec.Code)
		}
	}

	rec, env := s.do(http.MethodGet, path, nil, middleware.WorkspaceHeader, s.ws.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET from the owning workspace = %d", rec.Code)
	}
	if got := decode[service.InvoiceResponse](t, env.Data).Status; got != model.StatusPending {
		t.Errorf("status = %s, want pending; another workspace changed it", got)
	}

	rec, _ = s.do(http.MethodPost, path+"/edit", nil, middleware.WorkspaceHeader, s.ws.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("open editor = %d", rec.Code)
	}
	rec, _ = s.do(http.MethodPost, path+"/edit/close", nil, middleware.WorkspaceHeader, other.ID)
	if rec.Code != http.StatusNotFound {
		t.Errorf("closing another workspace's editor = %d, want 404", rec.Code)
	}
}

func TestDraftSubmitsIntoRequestedWorkspace(t *testing.T) {
	s := newTestServer(t)
	other, err := s.services.Workspaces.CreateWorkspace(context.Background(), service.CreateWorkspaceRequest{Name: "Other"})
	if err != nil {
		t.Fatal(err)
	}

	for _, ws := range []string{s.ws.ID, other.ID} {
		rec, _ := s.do(http.MethodPost, "/api/draft/toggle", handler.ToggleFieldRequest{Field: model.FieldGST, Enabled: true}, middleware.WorkspaceHeader, ws)
		if rec.Code != http.StatusOK {
			t.Fatalf("toggle in %s = %d: %s", ws, rec.Code, rec.Body.String())
		}
		rec, env := s.do(http.MethodPost, "/api/draft/submit", nil, middleware.WorkspaceHeader, ws)
		if rec.Code != http.StatusCreated {
			t.Fatalf("submit in %s = %d: %s", ws, rec.Code, rec.Body.String())
		}
		if got := decode[service.InvoiceResponse](t, env.Data).WorkspaceID; got != ws {
			t.Errorf("invoice submitted from %s landed in %s", ws, got)
		}
	}
}
