package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/varpulse/internal/domain/dto"
	"github.com/guttosm/varpulse/internal/domain/models"
	"github.com/guttosm/varpulse/internal/service"
)

type mockRunService struct {
	started  service.RunSpec
	startErr error
	run      models.Run
	getErr   error
	runs     []models.Run
	limit    int
	listErr  error
}

func (m *mockRunService) Start(_ context.Context, spec service.RunSpec) (models.Run, error) {
	m.started = spec
	if m.startErr != nil {
		return models.Run{}, m.startErr
	}
	return m.run, nil
}

func (m *mockRunService) Get(_ context.Context, id string) (models.Run, error) {
	if m.getErr != nil {
		return models.Run{}, m.getErr
	}
	if id != m.run.ID {
		return models.Run{}, service.ErrRunNotFound
	}
	return m.run, nil
}

func (m *mockRunService) List(_ context.Context, limit int) ([]models.Run, error) {
	m.limit = limit
	return m.runs, m.listErr
}

var _ RunService = (*mockRunService)(nil)

func setupRouterWithMock(s RunService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s)
	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.POST("/runs", h.StartRun)
	v1.GET("/runs", h.ListRuns)
	v1.GET("/runs/:id", h.GetRun)
	return r
}

func sampleRun() models.Run {
	return models.Run{
		ID:         "run-1",
		Status:     models.RunRunning,
		Mode:       "csv-files",
		TradeCount: 500,
		StartedAt:  time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
}

func TestStartRun_TableDriven(t *testing.T) {
	cases := []struct {
		name   string
		svc    *mockRunService
		body   string
		status int
		assert func(t *testing.T, svc *mockRunService, w *httptest.ResponseRecorder)
	}{
		{
			name:   "accepted with overrides",
			svc:    &mockRunService{run: sampleRun()},
			body:   `{"trade_count":500,"mode":"csv-files"}`,
			status: http.StatusAccepted,
			assert: func(t *testing.T, svc *mockRunService, w *httptest.ResponseRecorder) {
				if svc.started.TradeCount != 500 || svc.started.Mode != "csv-files" || svc.started.ProductCount != 0 {
					t.Fatalf("unexpected spec: %+v", svc.started)
				}
				var out dto.RunResponse
				if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
					t.Fatalf("invalid json: %v", err)
				}
				if out.ID != "run-1" || out.Status != "running" {
					t.Fatalf("unexpected body: %+v", out)
				}
				if w.Header().Get("Location") != "/api/v1/runs/run-1" {
					t.Fatalf("unexpected location %q", w.Header().Get("Location"))
				}
			},
		},
		{
			name:   "accepted without body",
			svc:    &mockRunService{run: sampleRun()},
			status: http.StatusAccepted,
			assert: func(t *testing.T, svc *mockRunService, _ *httptest.ResponseRecorder) {
				if svc.started != (service.RunSpec{}) {
					t.Fatalf("expected empty spec, got %+v", svc.started)
				}
			},
		},
		{
			name:   "malformed body",
			svc:    &mockRunService{},
			body:   `{"trade_count":"many"}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "invalid spec",
			svc:    &mockRunService{startErr: fmt.Errorf("%w: unknown mode", service.ErrInvalidRunSpec)},
			body:   `{"mode":"xml"}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "conflict",
			svc:    &mockRunService{startErr: fmt.Errorf("%w: run-0", service.ErrRunInProgress)},
			status: http.StatusConflict,
		},
		{
			name:   "shutting down",
			svc:    &mockRunService{startErr: service.ErrShuttingDown},
			status: http.StatusServiceUnavailable,
		},
		{
			name:   "store failure",
			svc:    &mockRunService{startErr: errors.New("redis down")},
			status: http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := setupRouterWithMock(tc.svc)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", bytes.NewReader([]byte(tc.body)))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d body=%s", tc.status, w.Code, w.Body.String())
			}
			if tc.assert != nil {
				tc.assert(t, tc.svc, w)
			}
		})
	}
}

func TestGetRun_TableDriven(t *testing.T) {
	cases := []struct {
		name   string
		svc    *mockRunService
		path   string
		status int
	}{
		{name: "found", svc: &mockRunService{run: sampleRun()}, path: "/api/v1/runs/run-1", status: http.StatusOK},
		{name: "not found", svc: &mockRunService{run: sampleRun()}, path: "/api/v1/runs/nope", status: http.StatusNotFound},
		{name: "store failure", svc: &mockRunService{getErr: errors.New("redis down")}, path: "/api/v1/runs/run-1", status: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := setupRouterWithMock(tc.svc)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
		})
	}
}

func TestListRuns_TableDriven(t *testing.T) {
	cases := []struct {
		name      string
		svc       *mockRunService
		query     string
		status    int
		wantLimit int
		wantRuns  int
	}{
		{name: "default limit", svc: &mockRunService{runs: []models.Run{sampleRun(), sampleRun()}}, query: "", status: http.StatusOK, wantRuns: 2},
		{name: "explicit limit", svc: &mockRunService{runs: []models.Run{sampleRun()}}, query: "?limit=1", status: http.StatusOK, wantLimit: 1, wantRuns: 1},
		{name: "empty list", svc: &mockRunService{}, query: "", status: http.StatusOK},
		{name: "bad limit", svc: &mockRunService{}, query: "?limit=-2", status: http.StatusBadRequest},
		{name: "non numeric limit", svc: &mockRunService{}, query: "?limit=all", status: http.StatusBadRequest},
		{name: "store failure", svc: &mockRunService{listErr: errors.New("redis down")}, query: "", status: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := setupRouterWithMock(tc.svc)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs"+tc.query, nil))
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
			if tc.status != http.StatusOK {
				return
			}
			if tc.svc.limit != tc.wantLimit {
				t.Fatalf("expected limit %d, got %d", tc.wantLimit, tc.svc.limit)
			}
			var out dto.RunListResponse
			if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if out.Runs == nil || len(out.Runs) != tc.wantRuns {
				t.Fatalf("expected %d runs, got %+v", tc.wantRuns, out.Runs)
			}
		})
	}
}
