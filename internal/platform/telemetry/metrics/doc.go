// Package metrics provides operational metrics collection.
//
// Metrics are registered with the default Prometheus registry and exposed by
// the host on the configured metrics address.
//
// # gRPC Interceptor
//
// The interceptor records:
//   - Request count by method and status code
//   - Request latency by method
//
// # Dispatcher
//
// The dispatcher records command outcomes by command type and result, and
// committed events by event type.
package metrics
