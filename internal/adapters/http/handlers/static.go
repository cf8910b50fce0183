package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"

	"github.com/leminkozey/whoami/internal/adapters/http/respond"
)

const (
	IndexDocument = "/index.html"

	immutableCache = "public, max-age=2592000, immutable"
	shortCache     = "public, max-age=3600"
	noCache        = "no-cache"
)

// AllowedDirs e AllowedFiles formam a única fronteira do que pode ser servido.
var (
	AllowedDirs  = []string{"/js/", "/css/", "/assets/"}
	AllowedFiles = []string{IndexDocument, "/robots.txt", "/sitemap.xml", "/favicon.ico"}
)

var errOutsideRoot = errors.New("path escapes project root")

// StaticHandler serves allow-listed files from the project root.
type StaticHandler struct {
	root   string
	logger zerolog.Logger
}

func NewStaticHandler(root string, logger zerolog.Logger) (*StaticHandler, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}
	return &StaticHandler{
		root:   resolved,
		logger: logger.With().Str("component", "static").Logger(),
	}, nil
}

// IsAllowed reports whether a normalized URL path is on the allowlist.
func IsAllowed(urlPath string) bool {
	for _, file := range AllowedFiles {
		if urlPath == file {
			return true
		}
	}
	for _, dir := range AllowedDirs {
		if strings.HasPrefix(urlPath, dir) && len(urlPath) > len(dir) {
			return true
		}
	}
	return false
}

// CachePolicy tiers freshness: hashed assets rarely change, scripts and styles
// change with deploys, documents must always revalidate.
func CachePolicy(urlPath string) string {
	switch {
	case strings.HasPrefix(urlPath, "/assets/"):
		return immutableCache
	case strings.HasSuffix(urlPath, ".js"), strings.HasSuffix(urlPath, ".css"):
		return shortCache
	default:
		return noCache
	}
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	urlPath := r.URL.Path
	if urlPath == "/" {
		urlPath = IndexDocument
	}

	if !IsAllowed(urlPath) {
		respond.Text(w, http.StatusNotFound)
		return
	}

	filePath, err := h.resolve(urlPath)
	if err != nil {
		if errors.Is(err, errOutsideRoot) {
			h.logger.Warn().Str("path", urlPath).Msg("blocked path outside project root")
			respond.Text(w, http.StatusForbidden)
			return
		}
		respond.Text(w, http.StatusNotFound)
		return
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			h.logger.Debug().Err(err).Str("path", urlPath).Msg("read failed")
		}
		respond.Text(w, http.StatusNotFound)
		return
	}

	contentType := ContentType(filePath)
	header := w.Header()
	header.Set("Content-Type", contentType)
	header.Set("Cache-Control", CachePolicy(urlPath))

	if IsCompressible(contentType) {
		header.Add("Vary", "Accept-Encoding")
		if AcceptsGzip(r.Header.Get("Accept-Encoding")) {
			compressed, err := gzipBytes(data)
			if err != nil {
				h.logger.Error().Err(err).Str("path", urlPath).Msg("gzip failed")
			} else {
				data = compressed
				header.Set("Content-Encoding", "gzip")
			}
		}
	}

	header.Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(data)
	}
}

// resolve maps a URL path to a file below the root. Symlinks are followed and
// the final target must still be inside the root.
func (h *StaticHandler) resolve(urlPath string) (string, error) {
	joined := filepath.Join(h.root, filepath.FromSlash(urlPath))
	if !within(h.root, joined) {
		return "", errOutsideRoot
	}

	resolved, err := filepath.EvalSymlinks(joined)
	if err != nil {
		return "", err
	}
	if !within(h.root, resolved) {
		return "", errOutsideRoot
	}
	return resolved, nil
}

func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// AcceptsGzip parses an Accept-Encoding value; q=0 disables a coding.
func AcceptsGzip(acceptEncoding string) bool {
	for _, part := range strings.Split(acceptEncoding, ",") {
		coding, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		coding = strings.ToLower(strings.TrimSpace(coding))
		if coding != "gzip" && coding != "x-gzip" && coding != "*" {
			continue
		}
		if q, ok := qValue(params); ok && q == 0 {
			continue
		}
		return true
	}
	return false
}

func qValue(params string) (float64, bool) {
	for _, param := range strings.Split(params, ";") {
		key, value, found := strings.Cut(strings.TrimSpace(param), "=")
		if !found || !strings.EqualFold(strings.TrimSpace(key), "q") {
			continue
		}
		q, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0, true
		}
		return q, true
	}
	return 1, false
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
