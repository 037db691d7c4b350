package middleware

import (
	"encoding/json"
	"net/http"
)

// Middleware wraps an http.Handler. Server-level middleware has this shape
// so it covers everything mounted on the root ServeMux, Gin included.
type Middleware func(http.Handler) http.Handler

// Chain composes middlewares so the first one listed sees the request first.
func Chain(middlewares ...Middleware) Middleware {
	return func(h http.Handler) http.Handler {
		for i := range middlewares {
			h = middlewares[len(middlewares)-1-i](h)
		}
		return h
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
