// Package metric provides Prometheus-based metrics collection and an HTTP server
// for observing retry behaviour.
//
// The package offers a centralized metrics registry holding the core retry
// executor metrics plus any component-specific metrics (the worker pool
// registers its own), and an HTTP server exposing them in Prometheus format.
//
// # Architecture
//
//  1. Core Metrics: retry executor metrics registered automatically (Metrics type)
//  2. Component Registry: extensible registration for other metrics (MetricsRegistrar interface)
//  3. HTTP Server: metrics endpoint with a health check (Server type)
//
// # Basic Usage
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil {
//	        slog.Error("metrics server failed", "error", err)
//	    }
//	}()
//
//	r, err := retry.New(retry.WithMetrics(registry.CoreMetrics()))
//
// # Core Metrics
//
// All core metrics are labelled with the wrapped function's name:
//
//   - retrywrap_executor_attempts_total: every call of the wrapped function
//   - retrywrap_executor_retries_total: retries actually scheduled
//   - retrywrap_executor_outcomes_total{outcome}: success, exhausted, rejected, cancelled
//   - retrywrap_executor_backoff_seconds: scheduled backoff delays
//   - retrywrap_executor_invocation_duration_seconds{outcome}: time to settlement
//   - retrywrap_executor_in_flight: invocations not yet settled
//
// # Thread Safety
//
// The registry is safe for concurrent registration. Prometheus collectors are
// themselves safe for concurrent updates.
package metric
