// Package proxy provides the HTTP surface of the preview API.
//
// A preview request is a JSON object of pricing inputs. The handler decodes
// it, hands it to the bridge, and answers with the engine's decision once
// the engine has converged on the request's correlation token. Everything
// about the engine exchange lives in pkg/bridge; this package only deals
// with the wire.
//
// # Architecture
//
//   - Handlers: the preview endpoint (handlers.PreviewHandler)
//   - Middleware: request ID, logging, metrics, CORS, recovery, timeouts
//   - Types: the error response format
//   - This package: body parsing (ParsePreviewRequest), error mapping
//     (HandleError) and JSON writers
//
// # Request Flow
//
//  1. Client POSTs JSON to /v1/preview (or /api/preview)
//  2. Middleware assigns a request ID, starts the span and the timer
//  3. ParsePreviewRequest enforces server.max_body_bytes and decodes JSON
//  4. bridge.Submit normalizes, takes the input slot and polls the engine
//  5. The result is written with the X-Build-Marker header
//
// # Error Handling
//
// Errors are mapped by HandleError:
//
//	{
//	  "error": {
//	    "message": "The pricing engine did not answer within 30s",
//	    "type": "gateway_timeout",
//	    "code": "engine_timeout",
//	    "token": "qg-5f0c9d2e"
//	  }
//	}
//
// A request whose caller disconnected is logged with status 499 and
// nothing is written.
//
// # Configuration
//
//	server:
//	  listen_address: "127.0.0.1:8080"
//	  write_timeout: "60s"
//	  max_body_bytes: 65536
//	  build_marker: "quotegate"
//	  cors:
//	    enabled: true
//	    allowed_origins: ["*"]
//	    allowed_methods: ["POST", "OPTIONS"]
package proxy
