// Package middleware provides net/http middleware for the preview server:
// Prometheus request metrics and OpenTelemetry request spans.
//
// Both are plain func(http.Handler) http.Handler values and work with any
// router. Under chi they label requests with the matched route pattern
// instead of the raw path, which keeps label cardinality bounded.
//
//	r := chi.NewRouter()
//	r.Use(middleware.Prometheus(middleware.WithRegistry(reg)))
//	r.Use(middleware.OpenTelemetry())
package middleware
