package middleware

import (
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/leminkozey/whoami/internal/adapters/http/respond"
)

const DefaultMaxURLLength = 2048

// URLGuard rejects over-long request targets with 414 and undecodable paths with
// 400. Otherwise it rewrites r.URL.Path to the decoded path with dot segments
// collapsed, so routing and allowlist checks only ever see the normalized form.
// Behind http.Server a malformed escape never gets here: the server answers
// 400 while parsing the request line, without this chain's headers.
func URLGuard(maxLength int) func(http.Handler) http.Handler {
	if maxLength <= 0 {
		maxLength = DefaultMaxURLLength
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			target := r.RequestURI
			if target == "" {
				target = r.URL.RequestURI()
			}
			if len(target) > maxLength {
				respond.Text(w, http.StatusRequestURITooLong)
				return
			}

			decoded, err := url.PathUnescape(rawPath(r))
			if err != nil {
				respond.Text(w, http.StatusBadRequest)
				return
			}

			cleaned := NormalizePath(decoded)
			if cleaned != r.URL.Path || r.URL.RawPath != "" {
				u := *r.URL
				u.Path = cleaned
				u.RawPath = ""
				r2 := r.Clone(r.Context())
				r2.URL = &u
				r = r2
			}

			next.ServeHTTP(w, r)
		})
	}
}

// NormalizePath collapses "." and ".." segments. The result always starts with "/"
// and never climbs above it.
func NormalizePath(p string) string {
	if p == "" {
		return "/"
	}
	return path.Clean("/" + p)
}

// rawPath is the path as the client sent it, before net/http decoded it.
func rawPath(r *http.Request) string {
	target := r.RequestURI
	if strings.HasPrefix(target, "/") {
		if i := strings.IndexByte(target, '?'); i >= 0 {
			target = target[:i]
		}
		return target
	}
	return r.URL.EscapedPath()
}
