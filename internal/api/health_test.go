package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	cases := []struct {
		name       string
		checks     map[string]Check
		path       string
		want       int
		wantFailed string
	}{
		{name: "healthz ok", checks: map[string]Check{"postgres": down}, path: "/healthz", want: http.StatusOK},
		{name: "readyz ok", checks: map[string]Check{"postgres": ok, "cache": ok}, path: "/readyz", want: http.StatusOK},
		{name: "readyz no checks", path: "/readyz", want: http.StatusOK},
		{name: "nil check ignored", checks: map[string]Check{"cache": nil}, path: "/readyz", want: http.StatusOK},
		{name: "readyz db down", checks: map[string]Check{"postgres": down, "cache": ok}, path: "/readyz", want: http.StatusServiceUnavailable, wantFailed: "postgres"},
		{name: "readyz cache down", checks: map[string]Check{"postgres": ok, "cache": down}, path: "/readyz", want: http.StatusServiceUnavailable, wantFailed: "cache"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			NewHealthHandler(tc.checks).Register(r)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
			if w.Code != tc.want {
				t.Fatalf("want %d got %d", tc.want, w.Code)
			}
			if tc.wantFailed == "" {
				return
			}
			var body struct {
				Failed map[string]string `json:"failed"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("json: %v", err)
			}
			if _, ok := body.Failed[tc.wantFailed]; !ok || len(body.Failed) != 1 {
				t.Fatalf("expected only %q to fail, got %v", tc.wantFailed, body.Failed)
			}
		})
	}
}
