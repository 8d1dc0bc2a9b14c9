package types

import "net/http"

// ErrorResponse is the body of every non-2xx preview response.
//
//	{
//	  "error": {
//	    "message": "invalid input: hourlyRate: must be a number",
//	    "type": "invalid_request_error",
//	    "code": "validation_failed",
//	    "details": [{"field": "hourlyRate", "code": "invalid", "message": "must be a number"}]
//	  }
//	}
type ErrorResponse struct {
	// Error contains the error details.
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information.
type ErrorDetail struct {
	// Message is a human-readable error message.
	Message string `json:"message"`

	// Type categorizes the error and determines the HTTP status.
	Type string `json:"type"`

	// Param is the name of the parameter that caused the error (if applicable).
	Param string `json:"param,omitempty"`

	// Code is a machine-readable error code.
	Code string `json:"code,omitempty"`

	// Token is the correlation token of the abandoned submission, empty when
	// the request failed before one was minted.
	Token string `json:"token,omitempty"`

	// Details lists every invalid field of a rejected request.
	Details []FieldDetail `json:"details,omitempty"`
}

// FieldDetail describes one invalid request field.
type FieldDetail struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error types.
const (
	// ErrorTypeInvalidRequest indicates a client-side error (400).
	ErrorTypeInvalidRequest = "invalid_request_error"

	// ErrorTypeMethodNotAllowed indicates an unsupported HTTP method (405).
	ErrorTypeMethodNotAllowed = "method_not_allowed"

	// ErrorTypeRequestTooLarge indicates an oversized body (413).
	ErrorTypeRequestTooLarge = "request_too_large"

	// ErrorTypeClientClosed indicates the caller went away before the
	// engine answered (499). It is logged, never written.
	ErrorTypeClientClosed = "client_closed_request"

	// ErrorTypeServerError indicates an internal server error (500).
	ErrorTypeServerError = "server_error"

	// ErrorTypeBadGateway indicates an engine transport or contract failure (502).
	ErrorTypeBadGateway = "bad_gateway"

	// ErrorTypeServiceUnavailable indicates the input slot is busy (503).
	ErrorTypeServiceUnavailable = "service_unavailable"

	// ErrorTypeGatewayTimeout indicates the engine did not converge in time (504).
	ErrorTypeGatewayTimeout = "gateway_timeout"
)

// Error codes.
const (
	CodeInvalidJSON      = "invalid_json"
	CodeValidationFailed = "validation_failed"
	CodeRequestTooLarge  = "request_too_large"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeEngineBusy       = "engine_busy"
	CodeEngineTimeout    = "engine_timeout"
	CodeEngineTransport  = "engine_transport"
	CodeEngineContract   = "engine_contract"
	CodeRequestCanceled  = "request_canceled"
	CodeRequestTimeout   = "request_timeout"
	CodeInternalError    = "internal_error"
)

// StatusClientClosedRequest is the non-standard status used for logging a
// request whose caller disconnected.
const StatusClientClosedRequest = 499

// NewErrorResponse creates a new error response with the given details.
func NewErrorResponse(message, errorType, param, code string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Type:    errorType,
			Param:   param,
			Code:    code,
		},
	}
}

// NewInvalidRequestError creates an error response for invalid requests (400).
func NewInvalidRequestError(message, param, code string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeInvalidRequest, param, code)
}

// NewMethodNotAllowedError creates an error response for a wrong method (405).
func NewMethodNotAllowedError(method string) *ErrorResponse {
	return NewErrorResponse("method "+method+" is not allowed", ErrorTypeMethodNotAllowed, "", CodeMethodNotAllowed)
}

// NewServerError creates an error response for internal server errors (500).
func NewServerError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeServerError, "", CodeInternalError)
}

// NewBadGatewayError creates an error response for engine failures (502).
func NewBadGatewayError(message, code string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeBadGateway, "", code)
}

// NewServiceUnavailableError creates an error response for a busy engine (503).
func NewServiceUnavailableError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeServiceUnavailable, "", CodeEngineBusy)
}

// NewGatewayTimeoutError creates an error response for timeouts (504).
func NewGatewayTimeoutError(message, code string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeGatewayTimeout, "", code)
}

// WithToken sets the correlation token and returns e.
func (e *ErrorResponse) WithToken(token string) *ErrorResponse {
	e.Error.Token = token
	return e
}

// HTTPStatusCode returns the appropriate HTTP status code for the error type.
func (e *ErrorDetail) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case ErrorTypeRequestTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrorTypeClientClosed:
		return StatusClientClosedRequest
	case ErrorTypeBadGateway:
		return http.StatusBadGateway
	case ErrorTypeServiceUnavailable:
		return http.StatusServiceUnavailable
	case ErrorTypeGatewayTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
