// Package respond agrupa helpers para escrever respostas HTTP padronizadas.
package respond

import (
	"net/http"

	"github.com/goccy/go-json"
)

// ErrorBody é o formato de erro de todas as rotas de API.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSON writes v with the given status. API responses are never cached.
func JSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"Internal server error"}`)
	}

	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Error: message})
}

// Text writes the generic status phrase as a plain-text body.
func Text(w http.ResponseWriter, status int) {
	h := w.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Del("Content-Encoding")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(http.StatusText(status)))
}
