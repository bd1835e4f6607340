package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/opticalc/internal/api"
	"github.com/eugenenazirov/opticalc/internal/cache"
	"github.com/eugenenazirov/opticalc/internal/knapsack"
	"github.com/eugenenazirov/opticalc/internal/planner"
	"github.com/eugenenazirov/opticalc/internal/storage"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()

	store, err := storage.NewSQLiteStorage(context.Background(), filepath.Join(t.TempDir(), "opticalc.db"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	logger := zaptest.NewLogger(t)
	svc := planner.New(knapsack.New(), store, logger, planner.WithCache(cache.NewMemory(time.Minute)))
	handler := api.NewHandler(svc, store)
	return api.NewRouter(handler, logger)
}

func performRequest(t *testing.T, handler http.Handler, method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()

	var r io.Reader = rec.Body
	if rec.Header().Get("Content-Encoding") == "br" {
		r = brotli.NewReader(rec.Body)
	}
	if err := json.NewDecoder(r).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestIntegrationFlow(t *testing.T) {
	handler := newRouter(t)
	jsonHeaders := map[string]string{"Content-Type": "application/json", "Accept-Encoding": "br"}

	rec := performRequest(t, handler, http.MethodGet, "/api/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", rec.Code)
	}

	for _, item := range []map[string]any{
		{"name": "A", "cost": 60, "sellPrice": 100},
		{"name": "B", "cost": 100, "sellPrice": 120},
		{"name": "C", "cost": 120, "sellPrice": 150},
	} {
		payload, _ := json.Marshal(item)
		rec = performRequest(t, handler, http.MethodPost, "/api/items", payload, jsonHeaders)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201 from add item, got %d", rec.Code)
		}
	}

	body, _ := json.Marshal(map[string]any{"budget": 180, "mode": "bounded"})
	rec = performRequest(t, handler, http.MethodPost, "/api/optimize", body, jsonHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from optimize, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Encoding") != "br" {
		t.Fatalf("expected brotli encoded optimize response")
	}

	var response struct {
		TotalProfit int `json:"totalProfit"`
		Plan        []struct {
			Name string `json:"name"`
		} `json:"plan"`
		RunID string `json:"runId"`
	}
	decode(t, rec, &response)
	if response.TotalProfit != 70 {
		t.Fatalf("unexpected total profit %d", response.TotalProfit)
	}
	if len(response.Plan) != 2 || response.Plan[0].Name != "C" || response.Plan[1].Name != "A" {
		t.Fatalf("unexpected plan %+v", response.Plan)
	}

	body, _ = json.Marshal(map[string]any{"budget": 120, "mode": "unbounded"})
	rec = performRequest(t, handler, http.MethodPost, "/api/optimize", body, jsonHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from unbounded optimize, got %d", rec.Code)
	}
	var unbounded struct {
		TotalProfit int `json:"totalProfit"`
		Units       int `json:"units"`
	}
	decode(t, rec, &unbounded)
	if unbounded.TotalProfit != 80 || unbounded.Units != 2 {
		t.Fatalf("unexpected unbounded result %+v", unbounded)
	}

	rec = performRequest(t, handler, http.MethodGet, "/api/runs?limit=5", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from runs, got %d", rec.Code)
	}
	var runs struct {
		Runs []struct {
			ID   string `json:"id"`
			Mode string `json:"mode"`
		} `json:"runs"`
		Count int `json:"count"`
	}
	decode(t, rec, &runs)
	if runs.Count != 2 {
		t.Fatalf("expected 2 runs, got %d", runs.Count)
	}
	if runs.Runs[0].Mode != "unbounded" || runs.Runs[1].ID != response.RunID {
		t.Fatalf("expected newest run first, got %+v", runs.Runs)
	}

	rec = performRequest(t, handler, http.MethodDelete, "/api/items", nil, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 from clear, got %d", rec.Code)
	}
	rec = performRequest(t, handler, http.MethodPost, "/api/optimize", []byte(`{"budget":10}`), jsonHeaders)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 after clearing catalog, got %d", rec.Code)
	}
}
