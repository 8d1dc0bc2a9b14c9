// Package handlers provides the HTTP handlers of the preview API.
//
// PreviewHandler serves POST /v1/preview and its alias /api/preview:
//
//  1. Reject any method other than POST with 405
//  2. Decode the JSON body (proxy.ParsePreviewRequest)
//  3. Submit it to the bridge and wait for the engine
//  4. Write the bridge.Result, or the error mapped by proxy.HandleError
//
// Every response carries the configured X-Build-Marker header. When the
// caller goes away before the engine answers, the handler logs the
// abandoned token and writes nothing.
//
// Liveness, readiness and version endpoints are served by
// pkg/telemetry/health.
package handlers
