// Package http serves the local status endpoints of a running
// "feastflow watch": Prometheus metrics, a health summary and the
// orders the watcher currently holds.
//
// # Endpoints
//
//	GET /metrics - Prometheus exposition of the injected registry
//	GET /health  - JSON health summary, 503 while the gateway breaker is open
//	GET /orders  - JSON snapshot of the watched orders view
//
// The server binds to 127.0.0.1 unless told otherwise; it has no
// authentication and exposes nothing that can change state.
package http
