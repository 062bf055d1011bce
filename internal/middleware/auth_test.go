package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubValidator map[string]string

func (s stubValidator) ValidateJWT(token string) (string, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return "", errors.New("bad token")
}

func TestAuthMiddleware(t *testing.T) {
	var seen string
	h := AuthMiddleware(stubValidator{"good": "u1"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetPrincipal(r.Context()).UserID
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer good", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusNoContent {
				assert.Equal(t, "u1", seen)
			} else {
				assert.Empty(t, seen)
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestGetPrincipal_Anonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.True(t, GetPrincipal(req.Context()).IsAnonymous())
}
