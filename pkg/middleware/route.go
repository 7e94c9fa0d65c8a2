package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// routeOf returns the chi route pattern matched for r, or "other" when the
// request did not go through a chi router or matched nothing. Call it after
// the next handler has run; chi fills the pattern in while routing.
func routeOf(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "other"
}
