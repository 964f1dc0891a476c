package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shreyas/kumbhmela-leads/internal/filters"
	"github.com/shreyas/kumbhmela-leads/internal/mappers"
	"github.com/shreyas/kumbhmela-leads/internal/middleware"
	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/internal/repositories"
	"github.com/shreyas/kumbhmela-leads/internal/services"
)

type stubLeads struct {
	lastQuery services.LeadQuery
	leads     []models.Lead
	err       error
}

func (s *stubLeads) Create(_ context.Context, _ models.Principal, l models.Lead) (*models.Lead, error) {
	if s.err != nil {
		return nil, s.err
	}
	l.ID = "lead-1"
	return &l, nil
}

func (s *stubLeads) Get(_ context.Context, id, _ string) (*models.Lead, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Lead{ID: id}, nil
}

func (s *stubLeads) List(_ context.Context, q services.LeadQuery) ([]models.Lead, error) {
	s.lastQuery = q
	return s.leads, s.err
}

func (s *stubLeads) Update(_ context.Context, _ models.Principal, id string, _ models.LeadUpdate) (*models.Lead, error) {
	return &models.Lead{ID: id}, s.err
}

func (s *stubLeads) Convert(_ context.Context, _ models.Principal, id, t string) (*models.Lead, error) {
	return &models.Lead{ID: id, ConversionType: t}, s.err
}

func (s *stubLeads) Statuses(context.Context) ([]services.StatusOption, error) {
	return []services.StatusOption{{Name: models.StatusSuspect}}, nil
}

func (s *stubLeads) CreateStatus(_ context.Context, _ models.Principal, name, color string) (*models.LeadStatusDef, error) {
	return &models.LeadStatusDef{Name: name, Color: color}, nil
}

type stubImporter struct {
	got int
}

func (s *stubImporter) Preview(_ context.Context, r io.Reader) (*services.ImportPreview, error) {
	b, _ := io.ReadAll(r)
	s.got = len(b)
	return &services.ImportPreview{Sheet: "Sheet1"}, nil
}

func (s *stubImporter) Commit(_ context.Context, _ models.Principal, leads []models.Lead) ([]models.Lead, error) {
	return leads, nil
}

type stubOrders struct {
	approveErr error
	created    *models.CreateOrderRequest
}

func (s *stubOrders) Create(_ context.Context, _ models.Principal, req models.CreateOrderRequest) (*models.Order, error) {
	s.created = &req
	return &models.Order{ID: "o1", ClientName: req.ClientName, Status: models.OrderPending}, nil
}

func (s *stubOrders) Get(_ context.Context, id string) (*models.Order, error) {
	return nil, fmt.Errorf("%w: %w", repositories.ErrOrderNotFound, repositories.ErrNotFound)
}

func (s *stubOrders) List(context.Context, string) ([]models.Order, error) { return nil, nil }

func (s *stubOrders) Approve(_ context.Context, _ models.Principal, id string) (*models.Order, error) {
	if s.approveErr != nil {
		return nil, s.approveErr
	}
	return &models.Order{ID: id, Status: models.OrderApproved}, nil
}

func (s *stubOrders) Reject(_ context.Context, _ models.Principal, id string) (*models.Order, error) {
	return &models.Order{ID: id, Status: models.OrderRejected}, nil
}

type stubAuth map[string]models.Principal

func (s stubAuth) Authenticate(_ context.Context, token string) (*models.Principal, error) {
	p, ok := s[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return &p, nil
}

var testAuth = stubAuth{
	"rep-token": {UserID: "rep", Role: models.RoleSalesRep, Features: models.DefaultFeatures(models.RoleSalesRep)},
	"mgr-token": {UserID: "mgr", Role: models.RoleManager, Features: models.DefaultFeatures(models.RoleManager)},
	"ops-token": {UserID: "ops", Role: models.RoleOperation, Features: models.DefaultFeatures(models.RoleOperation)},
}

func newTestRouter(leads *stubLeads, importer *stubImporter, orders *stubOrders) http.Handler {
	log := zap.NewNop()
	return NewRouter(Handlers{
		Leads:  NewLeadHandler(leads, importer, time.UTC, nil, log),
		Orders: NewOrderHandler(orders, nil, nil, log),
		Health: NewHealthHandler("test"),
	}, testAuth, RouterConfig{AllowedOrigins: []string{"http://localhost:5173"}}, log)
}

func do(t *testing.T, h http.Handler, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Error
}

func TestRouterAuthAndFeatures(t *testing.T) {
	leads := &stubLeads{leads: []models.Lead{{ID: "l1", ClientName: "Acme"}}}
	router := newTestRouter(leads, &stubImporter{}, &stubOrders{})

	rec := do(t, router, http.MethodGet, "/api/v1/leads", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/leads?status=prospect&search=acme&sort=clientName&order=desc", "rep-token", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []models.Lead
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 1)
	assert.Equal(t, "prospect", leads.lastQuery.Filter.Status)
	assert.Equal(t, "acme", leads.lastQuery.Filter.Search)
	assert.Equal(t, "clientName", leads.lastQuery.Sort)
	assert.True(t, leads.lastQuery.Desc)

	// operations can read leads but not create them
	rec = do(t, router, http.MethodPost, "/api/v1/leads", "ops-token", bytes.NewBufferString(`{"clientName":"x"}`), "application/json")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// sales reps cannot approve orders
	rec = do(t, router, http.MethodPost, "/api/v1/orders/o1/approve", "rep-token", nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/orders/o1/approve", "mgr-token", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/nope", "rep-token", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterPreflight(t *testing.T) {
	router := newTestRouter(&stubLeads{}, &stubImporter{}, &stubOrders{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/leads", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestSwaggerDocServed(t *testing.T) {
	router := newTestRouter(&stubLeads{}, &stubImporter{}, &stubOrders{})

	rec := do(t, router, http.MethodGet, "/swagger/doc.json", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		BasePath            string                                `json:"basePath"`
		Paths               map[string]map[string]json.RawMessage `json:"paths"`
		SecurityDefinitions map[string]json.RawMessage            `json:"securityDefinitions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "/api/v1", doc.BasePath)
	assert.Contains(t, doc.Paths["/leads/{id}/convert"], "post")
	assert.Contains(t, doc.Paths["/leads/{id}"], "patch")
	assert.Contains(t, doc.Paths["/notes/{id}/restore"], "post")
	assert.Contains(t, doc.SecurityDefinitions, "BearerAuth")
}

func TestApproveConflicts(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"already approved", services.ErrOrderNotPending, http.StatusConflict, "INVALID_TRANSITION"},
		{"short stock", fmt.Errorf("item hoarding-1: %w", repositories.ErrInsufficientStock), http.StatusConflict, "INSUFFICIENT_STOCK"},
		{"concurrent change", repositories.ErrStatusTransitionStale, http.StatusConflict, "CONFLICT"},
		{"store failure", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubLeads{}, &stubImporter{}, &stubOrders{approveErr: tt.err})
			rec := do(t, router, http.MethodPost, "/api/v1/orders/o1/approve", "mgr-token", nil, "")
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, errorOf(t, rec).Code)
		})
	}
}

func TestCreateOrderValidation(t *testing.T) {
	orders := &stubOrders{}
	router := newTestRouter(&stubLeads{}, &stubImporter{}, orders)

	rec := do(t, router, http.MethodPost, "/api/v1/orders", "rep-token", bytes.NewBufferString(`{"clientName":"Acme","items":[]}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	detail := errorOf(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", detail.Code)
	assert.Contains(t, detail.Fields, "Items")
	assert.Nil(t, orders.created)

	rec = do(t, router, http.MethodPost, "/api/v1/orders", "rep-token", bytes.NewBufferString(`not json`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", errorOf(t, rec).Code)

	body := `{"clientName":"Acme","items":[{"inventoryItemId":"inv-1","quantity":2}]}`
	rec = do(t, router, http.MethodPost, "/api/v1/orders", "rep-token", bytes.NewBufferString(body), "application/json")
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, orders.created)
	assert.Equal(t, 2, orders.created.Items[0].Quantity)
}

func TestGetOrderNotFound(t *testing.T) {
	router := newTestRouter(&stubLeads{}, &stubImporter{}, &stubOrders{})
	rec := do(t, router, http.MethodGet, "/api/v1/orders/missing", "rep-token", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateLeadMissingFields(t *testing.T) {
	leads := &stubLeads{err: &mappers.ValidationError{Fields: []string{"clientName", "phone"}}}
	router := newTestRouter(leads, &stubImporter{}, &stubOrders{})

	rec := do(t, router, http.MethodPost, "/api/v1/leads", "rep-token", bytes.NewBufferString(`{"location":"Sector 4"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	detail := errorOf(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", detail.Code)
	assert.Equal(t, map[string]string{"clientName": "required", "phone": "required"}, detail.Fields)
}

func TestPreviewImport(t *testing.T) {
	importer := &stubImporter{}
	router := newTestRouter(&stubLeads{}, importer, &stubOrders{})

	rec := do(t, router, http.MethodPost, "/api/v1/leads/import/preview", "rep-token", bytes.NewBufferString("x"), "text/plain")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "leads.xlsx")
	require.NoError(t, err)
	part.Write([]byte("fake-workbook"))
	require.NoError(t, mw.Close())

	rec = do(t, router, http.MethodPost, "/api/v1/leads/import/preview", "rep-token", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, len("fake-workbook"), importer.got)
}

func TestParseDateFilter(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)

	f, err := parseDateFilter(url.Values{"date": {"custom"}, "from": {"2025-01-10"}, "to": {"2025-01-12"}}, loc)
	require.NoError(t, err)
	assert.Equal(t, filters.BucketCustom, f.Bucket)
	require.NotNil(t, f.From)
	assert.Equal(t, time.Date(2025, 1, 10, 0, 0, 0, 0, loc), *f.From)
	assert.True(t, f.Active())

	_, err = parseDateFilter(url.Values{"date": {"fortnight"}}, loc)
	assert.Error(t, err)

	_, err = parseDateFilter(url.Values{"date": {"exact"}, "day": {"10/01/2025"}}, loc)
	assert.Error(t, err)
}

func TestFailMapsServiceErrors(t *testing.T) {
	b := newBase(nil, nil)
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: bad", services.ErrInvalidInput), http.StatusBadRequest},
		{services.ErrUnknownStatus, http.StatusBadRequest},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrSessionInvalid, http.StatusUnauthorized},
		{services.ErrInactiveAccount, http.StatusForbidden},
		{services.ErrOrderAlreadyRejected, http.StatusConflict},
		{fmt.Errorf("dup: %w", repositories.ErrDuplicateKey), http.StatusConflict},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		b.fail(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
		assert.Equal(t, tt.status, rec.Code, tt.err.Error())
	}
}

func TestPrincipalRequired(t *testing.T) {
	h := NewLeadHandler(&stubLeads{}, nil, nil, nil, nil)
	rec := httptest.NewRecorder()
	h.GetLead(rec, httptest.NewRequest(http.MethodGet, "/api/v1/leads/l1", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/leads/l1", nil)
	req = req.WithContext(middleware.WithPrincipal(req.Context(), models.Principal{UserID: "u"}))
	rec = httptest.NewRecorder()
	h.GetLead(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
