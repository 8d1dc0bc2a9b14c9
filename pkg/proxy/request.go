package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"mercator-hq/quotegate/pkg/normalize"
	"mercator-hq/quotegate/pkg/proxy/types"
)

const (
	// DefaultMaxBodyBytes bounds a preview body when no limit is configured.
	DefaultMaxBodyBytes = 64 * 1024

	// RequestIDHeader is the HTTP header for request ID propagation.
	RequestIDHeader = "X-Request-ID"

	// BuildMarkerHeader identifies the deployment that answered a preview.
	BuildMarkerHeader = "X-Build-Marker"
)

// ParsePreviewRequest decodes the JSON object in the request body into a
// normalize.Request. Bodies larger than maxBytes are rejected with 413;
// anything that is not a single JSON object is rejected with 400. Field
// values are left untouched for the normalizer.
//
// Example usage:
//
//	req, err := ParsePreviewRequest(r, cfg.MaxBodyBytes)
//	if err != nil {
//	    WriteErrorResponse(w, HandleError(err))
//	    return
//	}
func ParsePreviewRequest(r *http.Request, maxBytes int64) (normalize.Request, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	if r.Body == nil {
		return nil, &RequestError{
			Message: "request body is empty",
			Code:    types.CodeInvalidJSON,
			Param:   "body",
		}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if int64(len(body)) > maxBytes {
		return nil, &RequestError{
			Message:  fmt.Sprintf("request body exceeds maximum size of %d bytes", maxBytes),
			Code:     types.CodeRequestTooLarge,
			Param:    "body",
			TooLarge: true,
		}
	}

	var req normalize.Request
	if err := json.Unmarshal(body, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		msg := fmt.Sprintf("invalid JSON: %v", err)
		if errors.As(err, &typeErr) {
			msg = "request body must be a JSON object"
		}
		return nil, &RequestError{
			Message: msg,
			Code:    types.CodeInvalidJSON,
			Param:   "body",
		}
	}
	if req == nil {
		return nil, &RequestError{
			Message: "request body must be a JSON object",
			Code:    types.CodeInvalidJSON,
			Param:   "body",
		}
	}
	return req, nil
}

// RequestError represents a request parsing error.
type RequestError struct {
	Message string
	Code    string
	Param   string

	// TooLarge selects 413 instead of 400.
	TooLarge bool
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return e.Message
}

// ToErrorResponse converts a RequestError to an error response.
func (e *RequestError) ToErrorResponse() *types.ErrorResponse {
	if e.TooLarge {
		return types.NewErrorResponse(e.Message, types.ErrorTypeRequestTooLarge, e.Param, e.Code)
	}
	return types.NewInvalidRequestError(e.Message, e.Param, e.Code)
}
