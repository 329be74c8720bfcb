package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name       string
		deps       map[string]Pinger
		wantStatus int
		wantBody   map[string]string
	}{
		{
			name:       "all up",
			deps:       map[string]Pinger{"postgres": ok, "redis": ok},
			wantStatus: http.StatusOK,
			wantBody:   map[string]string{"status": "ok", "postgres": "ok", "redis": "ok"},
		},
		{
			name:       "redis down",
			deps:       map[string]Pinger{"postgres": ok, "redis": down},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   map[string]string{"status": "degraded", "postgres": "ok", "redis": "unavailable"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			NewHealthHandler(tc.deps).Get(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rr.Code != tc.wantStatus {
				t.Fatalf("Expected status %d, got %d", tc.wantStatus, rr.Code)
			}
			var body map[string]string
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			for k, v := range tc.wantBody {
				if body[k] != v {
					t.Errorf("%s = %q, want %q", k, body[k], v)
				}
			}
		})
	}
}
