// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	dto "github.com/prometheus/client_model/go"

	"github.com/tomtom215/indieforge/internal/metrics"
)

func requestCount(t *testing.T, method, endpoint, status string) float64 {
	t.Helper()
	var m dto.Metric
	if err := metrics.APIRequestsTotal.WithLabelValues(method, endpoint, status).Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestPrometheusMetrics_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics)
	r.Get("/prom-test/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := requestCount(t, "GET", "/prom-test/posts/{id}", "418")
	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/prom-test/posts/"+id, nil))
		if rec.Code != http.StatusTeapot {
			t.Fatalf("status = %d", rec.Code)
		}
	}

	if got := requestCount(t, "GET", "/prom-test/posts/{id}", "418") - before; got != 3 {
		t.Errorf("requests under the route pattern = %v, want 3", got)
	}
	if got := requestCount(t, "GET", "/prom-test/posts/a", "418"); got != 0 {
		t.Errorf("raw path must not be used as a label, got %v", got)
	}
}

func TestPrometheusMetrics_DefaultsAndUnmatched(t *testing.T) {
	handler := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Hello"))
	}))

	before := requestCount(t, "PATCH", unmatchedRoute, "200")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/no/router", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Expected default status 200, got %d", rec.Code)
	}
	if got := requestCount(t, "PATCH", unmatchedRoute, "200") - before; got != 1 {
		t.Errorf("unmatched requests = %v, want 1", got)
	}
}

func TestPrometheusMetrics_PassesStatusThrough(t *testing.T) {
	codes := []int{
		http.StatusCreated,
		http.StatusNoContent,
		http.StatusBadRequest,
		http.StatusNotFound,
		http.StatusInternalServerError,
	}

	for _, code := range codes {
		t.Run(http.StatusText(code), func(t *testing.T) {
			handler := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(code)
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/test", nil))

			if rec.Code != code {
				t.Errorf("Expected status %d, got %d", code, rec.Code)
			}
		})
	}
}
