// Package server provides the HTTP quota API.
//
// The server exposes the decision path over HTTP so that chat backends can
// consult quota state without linking the engine directly:
//
//	POST /v1/check    - evaluate a request against the caller's quota
//	GET  /v1/inspect  - explain the resolved policy and usage for a user
//	GET  /health      - liveness probe
//	GET  /ready       - readiness probe (pings the policy store)
//
// Requests flow through a middleware chain, outermost first: panic
// recovery, structured request logging, and request ID propagation. The
// request ID is honored from the X-Request-ID header when the client
// provides one.
//
// The check endpoint is read-only with respect to policy but records
// warning, block, downgrade, and override events through the configured
// event sink, exactly as an in-process check would.
package server
