package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		apiKey  string
		headers map[string]string
		want    int
	}{
		{"empty key disables check", "", nil, http.StatusOK},
		{"missing token", "secret", nil, http.StatusUnauthorized},
		{"bearer token accepted", "secret", map[string]string{"Authorization": "Bearer secret"}, http.StatusOK},
		{"bearer case insensitive", "secret", map[string]string{"Authorization": "bearer secret"}, http.StatusOK},
		{"wrong bearer token", "secret", map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized},
		{"x-api-key accepted", "secret", map[string]string{"X-API-Key": "secret"}, http.StatusOK},
		{"wrong x-api-key", "secret", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"malformed authorization header", "secret", map[string]string{"Authorization": "secret"}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RequireAPIKey(tt.apiKey, okHandler())

			req := httptest.NewRequest(http.MethodPost, "/api/sync/trigger", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
