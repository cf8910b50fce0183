package handlers

import (
	"path"
	"strings"

	"github.com/aohorodnyk/mimeheader"
)

const defaultContentType = "application/octet-stream"

var mimeTypes = map[string]string{
	".html":  "text/html; charset=utf-8",
	".css":   "text/css; charset=utf-8",
	".js":    "application/javascript; charset=utf-8",
	".json":  "application/json; charset=utf-8",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".ico":   "image/x-icon",
	".webp":  "image/webp",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".xml":   "application/xml; charset=utf-8",
	".txt":   "text/plain; charset=utf-8",
}

// compressibleTypes uses accept-header syntax so wildcards like text/* work.
var compressibleTypes = mimeheader.ParseAcceptHeader(
	"text/*, application/javascript, application/json, application/xml, image/svg+xml",
)

// ContentType picks the MIME type by file extension.
func ContentType(name string) string {
	if ctype, ok := mimeTypes[strings.ToLower(path.Ext(name))]; ok {
		return ctype
	}
	return defaultContentType
}

// IsCompressible reports whether a response of this content type may be gzipped.
func IsCompressible(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	mediaType = strings.TrimSpace(mediaType)
	if mediaType == "" || mediaType == defaultContentType {
		return false
	}
	return compressibleTypes.Match(mediaType)
}
