// Package types defines the wire error format of the preview API.
//
// Every failed preview answers with an ErrorResponse whose Type selects the
// HTTP status:
//
//	invalid_request_error  400  malformed JSON or rejected fields (Details)
//	method_not_allowed     405
//	request_too_large      413
//	bad_gateway            502  engine transport or contract failure
//	service_unavailable    503  input slot busy
//	gateway_timeout        504  engine did not converge before the deadline
//
// Token carries the correlation token of a submission that reached the
// engine, so an operator can find it in the run ledger. Successful previews
// are encoded from bridge.Result directly.
package types
