package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"call-insights/entities"
	"call-insights/repository"
	"call-insights/service"
)

type fakePublisher struct {
	CallIDs   []uint
	TenantIDs []uint
}

func (f *fakePublisher) PublishCallProcessing(_ context.Context, callRecordID uint) error {
	f.CallIDs = append(f.CallIDs, callRecordID)
	return nil
}

func (f *fakePublisher) PublishReportGeneration(_ context.Context, tenantID uint) error {
	f.TenantIDs = append(f.TenantIDs, tenantID)
	return nil
}

type fakeMedia struct {
	Saved int
}

func (f *fakeMedia) SaveRecording(_ context.Context, tenantID uint, filename string, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	f.Saved++
	return fmt.Sprintf("recordings/%d/%s", tenantID, filename), nil
}

func (f *fakeMedia) WriteReportSnapshot(_ context.Context, tenantID uint, _ []byte, generatedAt time.Time) (string, error) {
	return fmt.Sprintf("reports/%d/report-%d.json", tenantID, generatedAt.Unix()), nil
}

type apiFixture struct {
	router *gin.Engine
	repo   *repository.MemoryRepo
	queue  *fakePublisher
	tenant *entities.Tenant
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepo()
	tenant := &entities.Tenant{Name: "acme", APIKey: "acme-key", CanRegenReports: true}
	if err := repo.CreateTenant(context.Background(), tenant); err != nil {
		t.Fatalf("seed tenant: %v", err)
	}

	queue := &fakePublisher{}
	h := Handlers{
		Calls:   service.NewService(repo, &fakeMedia{}, queue),
		Reports: service.NewReportService(repo, &fakeMedia{}, queue),
	}

	r := gin.New()
	api := r.Group("/api", AttachLogger(context.Background()), RequireAPIKey(repo))
	{
		api.POST("/calls/", h.CreateCall)
		api.GET("/calls/", h.ListCalls)
		api.GET("/calls/:call_id/insight", h.GetInsight)
		api.GET("/reports/", h.GetReport)
		api.POST("/reports/", h.RegenReport)
	}

	return &apiFixture{router: r, repo: repo, queue: queue, tenant: tenant}
}

func (f *apiFixture) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("X-API-KEY", f.tenant.APIKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func multipartUpload(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	fw, err := mw.CreateFormFile("file", "call.wav")
	if err != nil {
		t.Fatalf("create file part: %v", err)
	}
	if _, err := fw.Write([]byte("fake audio bytes")); err != nil {
		t.Fatalf("write file part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestCreateCall_Created(t *testing.T) {
	f := newAPIFixture(t)

	body, contentType := multipartUpload(t, map[string]string{
		"call_id":  "call-001",
		"caller":   "+14155550100",
		"duration": "75",
	})
	w := f.do(t, http.MethodPost, "/api/calls/", body, contentType)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body: %s)", w.Code, w.Body.String())
	}

	var resp struct {
		ID          uint   `json:"id"`
		CallID      string `json:"call_id"`
		IsProcessed bool   `json:"is_processed"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.CallID != "call-001" {
		t.Fatalf("call_id = %q, want call-001", resp.CallID)
	}
	if resp.IsProcessed {
		t.Fatal("new record must start unprocessed")
	}
	if len(f.queue.CallIDs) != 1 || f.queue.CallIDs[0] != resp.ID {
		t.Fatalf("published call ids = %v, want [%d]", f.queue.CallIDs, resp.ID)
	}
}

func TestCreateCall_MissingFilePart(t *testing.T) {
	f := newAPIFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("call_id", "call-002"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	w := f.do(t, http.MethodPost, "/api/calls/", &buf, mw.FormDataContentType())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestCreateCall_BadTimestamp(t *testing.T) {
	f := newAPIFixture(t)

	body, contentType := multipartUpload(t, map[string]string{
		"call_id":    "call-003",
		"start_time": "yesterday",
	})
	w := f.do(t, http.MethodPost, "/api/calls/", body, contentType)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body: %s)", w.Code, w.Body.String())
	}
}

func TestCreateCall_DuplicateCallID(t *testing.T) {
	f := newAPIFixture(t)

	body, contentType := multipartUpload(t, map[string]string{"call_id": "call-004"})
	if w := f.do(t, http.MethodPost, "/api/calls/", body, contentType); w.Code != http.StatusCreated {
		t.Fatalf("first upload status = %d, want 201", w.Code)
	}

	body, contentType = multipartUpload(t, map[string]string{"call_id": "call-004"})
	w := f.do(t, http.MethodPost, "/api/calls/", body, contentType)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate upload status = %d, want 400", w.Code)
	}
}

func TestListCalls_BadQueryParam(t *testing.T) {
	f := newAPIFixture(t)

	for _, path := range []string{
		"/api/calls/?from_date=notadate",
		"/api/calls/?duration_gt=soon",
		"/api/calls/?limit=many",
	} {
		w := f.do(t, http.MethodGet, path, nil, "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, w.Code)
		}
	}
}

func TestGetInsight_PendingIsNotFound(t *testing.T) {
	f := newAPIFixture(t)

	body, contentType := multipartUpload(t, map[string]string{"call_id": "call-005"})
	if w := f.do(t, http.MethodPost, "/api/calls/", body, contentType); w.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, want 201", w.Code)
	}

	w := f.do(t, http.MethodGet, "/api/calls/call-005/insight", nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestGetReport_EmptyTenant(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/api/reports/", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	var report struct {
		TotalCalls int `json:"total_calls"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.TotalCalls != 0 {
		t.Fatalf("total_calls = %d, want 0", report.TotalCalls)
	}
}

func TestRegenReport_Allowed(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/reports/", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
	if len(f.queue.TenantIDs) != 1 || f.queue.TenantIDs[0] != f.tenant.ID {
		t.Fatalf("published tenant ids = %v, want [%d]", f.queue.TenantIDs, f.tenant.ID)
	}
}

func TestRegenReport_Forbidden(t *testing.T) {
	f := newAPIFixture(t)

	restricted := &entities.Tenant{Name: "basic", APIKey: "basic-key"}
	if err := f.repo.CreateTenant(context.Background(), restricted); err != nil {
		t.Fatalf("seed tenant: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/reports/", nil)
	req.Header.Set("X-API-KEY", restricted.APIKey)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 (body: %s)", w.Code, w.Body.String())
	}
	if len(f.queue.TenantIDs) != 0 {
		t.Fatalf("published tenant ids = %v, want none", f.queue.TenantIDs)
	}
}

func TestParseTimestamp_Layouts(t *testing.T) {
	cases := []struct {
		in   string
		ok   bool
		want time.Time
	}{
		{"2026-03-01T10:30:00Z", true, time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)},
		{"2026-03-01T10:30:00", true, time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)},
		{"2026-03-01", true, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"01/03/2026", false, time.Time{}},
		{"", false, time.Time{}},
	}
	for _, tc := range cases {
		got, err := parseTimestamp(tc.in)
		if tc.ok != (err == nil) {
			t.Errorf("parseTimestamp(%q) err = %v, want ok=%v", tc.in, err, tc.ok)
			continue
		}
		if tc.ok && !got.Equal(tc.want) {
			t.Errorf("parseTimestamp(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
