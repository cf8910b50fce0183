package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginGuard(t *testing.T) {
	h := OriginGuard("https://leminkozey.me/")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		origin string
		want   int
	}{
		{"", http.StatusNoContent},
		{"https://leminkozey.me", http.StatusNoContent},
		{"https://evil.example", http.StatusBadRequest},
		{"http://leminkozey.me", http.StatusBadRequest},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/guestbook", nil)
		if tc.origin != "" {
			req.Header.Set("Origin", tc.origin)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code, "origin %q", tc.origin)
	}
}
