// Package server is the folio HTTP server: gin for the JSON API, with h2c
// so HTTP/2 works without TLS.
//
// Middleware (server/middleware) wraps the whole root mux:
//
//   - Recovery: panics become a 500 AppError body
//   - RequestID: X-Request-Id propagation
//   - CORS: allowed origins and preflight
//   - BodySizeLimit: request body cap from server.max_body_size
//   - RequestLogger: one log line per request
//
// Gin-level middleware adds per-client rate limiting and request metrics.
// Responses use the {"data": ...} envelope; errors use the AppError body.
package server
