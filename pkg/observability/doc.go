// Package observability provides logging and Prometheus metrics.
//
// # Logging
//
// Loggers are plain logrus loggers built from configuration:
//
//	logger, err := observability.NewLogger("debug", observability.FormatJSON, os.Stderr)
//	logger.WithField("generation", snap.Generation).Info("Snapshot loaded")
//
// # Prometheus Metrics
//
// Metrics are registered against a caller-provided registry:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.ObserveQuery("signature", err)
//
// The Observe* helpers are safe to call on a nil *Metrics.
//
// # Panics
//
// Background goroutines defer RecoverPanic to log panics with a stack trace
// instead of crashing the process.
package observability
