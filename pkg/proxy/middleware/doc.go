// Package middleware provides HTTP middleware for cross-cutting concerns.
//
// # Middleware Chain
//
// The server chains middleware in this order (innermost first):
//
//	handler = Recovery(Tracing(RequestID(Logging(Metrics(CORS(Timeout(mux)))))))
//
//  1. Timeout: bound the handler by server.write_timeout, answer 504
//  2. CORS: answer preflights, add Access-Control headers
//  3. Metrics: count requests by path and status
//  4. Logging: one structured line per request
//  5. RequestID: reuse or mint X-Request-ID, store it for logging
//  6. Tracing: server span per request (pkg/telemetry/tracing)
//  7. Recovery: turn panics into 500 responses
//
// # Request ID
//
// The ID is stored with logging.WithRequestID, so every log line written
// with the request context carries request_id, including the bridge's
// submission logs.
//
// # Client Disconnects
//
// A handler that writes nothing because its context ended is reported with
// status 499 by Logging and Metrics. Nothing is sent to the client.
package middleware
