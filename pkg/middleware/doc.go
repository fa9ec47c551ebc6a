// Package middleware provides observability middleware for the navintent
// HTTP service.
//
// This package includes:
//   - OpenTelemetry request tracing
//   - Prometheus request metrics plus recorders for resolutions and live
//     search sessions
//
// Both middlewares have the standard func(http.Handler) http.Handler shape
// and plug into chi:
//
//	r := chi.NewRouter()
//	r.Use(middleware.OpenTelemetry(middleware.WithTracerName("navintent")))
//	r.Use(middleware.Prometheus(middleware.WithNamespace("navintent")))
//	r.Handle("/metrics", promhttp.Handler())
//
// # Recorders
//
// Work that is not one request per unit is recorded explicitly:
//
//	middleware.RecordResolve(string(intent.Kind))
//	middleware.RecordSessionOpen()
//	defer middleware.RecordSessionClose(time.Since(start))
//
// Recorders are no-ops until Prometheus has been called once.
package middleware
