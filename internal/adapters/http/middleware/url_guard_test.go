package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func pathRecorder(seen *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestURLGuard_RejectsLongURLs(t *testing.T) {
	var seen string
	h := URLGuard(DefaultMaxURLLength)(pathRecorder(&seen))

	req := httptest.NewRequest(http.MethodGet, "/js/"+strings.Repeat("a", DefaultMaxURLLength), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestURITooLong, rec.Code)
	assert.Empty(t, seen)
}

// net/http refuses such request lines before any handler runs; this covers
// requests constructed in-process.
func TestURLGuard_UndecodableRequestURI(t *testing.T) {
	var seen string
	h := URLGuard(DefaultMaxURLLength)(pathRecorder(&seen))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RequestURI = "/js/%E0%A4%A"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Bad Request", rec.Body.String())
	assert.Empty(t, seen)
}

func TestURLGuard_Normalizes(t *testing.T) {
	cases := []struct {
		target string
		want   string
	}{
		{"/", "/"},
		{"/index.html?x=1", "/index.html"},
		{"/js/../../../etc/passwd", "/etc/passwd"},
		{"/js/%2e%2e/%2e%2e/etc/passwd", "/etc/passwd"},
		{"/css/./site.css", "/css/site.css"},
		{"//assets//logo.png", "/assets/logo.png"},
		{"/js/app%20main.js", "/js/app main.js"},
	}

	for _, tc := range cases {
		t.Run(tc.target, func(t *testing.T) {
			var seen string
			h := URLGuard(DefaultMaxURLLength)(pathRecorder(&seen))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RequestURI = tc.target
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.Equal(t, tc.want, seen)
		})
	}
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/", NormalizePath(""))
	assert.Equal(t, "/", NormalizePath(".."))
	assert.Equal(t, "/a", NormalizePath("a/b/.."))
}
