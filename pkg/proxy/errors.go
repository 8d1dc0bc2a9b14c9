package proxy

import (
	"context"
	"errors"
	"fmt"

	"mercator-hq/quotegate/pkg/bridge"
	"mercator-hq/quotegate/pkg/normalize"
	"mercator-hq/quotegate/pkg/proxy/types"
)

// HandleError converts a Submit or request-parsing error to a preview error
// response. The status follows from the response type:
//
//   - *RequestError: 400 or 413
//   - *normalize.ValidationError: 400 with one detail per field
//   - bridge.ErrBusy: 503
//   - *bridge.TimeoutError: 504
//   - *bridge.TransportError, *bridge.ContractError: 502
//   - cancellation: 499, which callers log instead of writing
//
// Example usage:
//
//	if err != nil {
//	    errResp := HandleError(err)
//	    WriteErrorResponse(w, errResp)
//	    return
//	}
func HandleError(err error) *types.ErrorResponse {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.ToErrorResponse()
	}

	var validationErr *normalize.ValidationError
	if errors.As(err, &validationErr) {
		return handleValidationError(validationErr)
	}

	token := string(bridge.TokenOf(err))

	var timeoutErr *bridge.TimeoutError
	var contractErr *bridge.ContractError
	var transportErr *bridge.TransportError
	switch {
	case errors.Is(err, bridge.ErrBusy):
		return types.NewServiceUnavailableError(
			"The pricing engine is busy with another request. Please retry.",
		).WithToken(token)

	case errors.As(err, &timeoutErr):
		return types.NewGatewayTimeoutError(
			fmt.Sprintf("The pricing engine did not answer within %s", timeoutErr.Deadline),
			types.CodeEngineTimeout,
		).WithToken(token)

	case errors.As(err, &contractErr):
		return types.NewBadGatewayError(
			fmt.Sprintf("The pricing engine returned malformed output: %s", contractErr.Reason),
			types.CodeEngineContract,
		).WithToken(token)

	case errors.As(err, &transportErr):
		return types.NewBadGatewayError(
			fmt.Sprintf("The pricing engine %s failed", transportErr.Op),
			types.CodeEngineTransport,
		).WithToken(token)

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return types.NewErrorResponse(
			"The request was canceled before the engine answered",
			types.ErrorTypeClientClosed,
			"",
			types.CodeRequestCanceled,
		).WithToken(token)
	}

	return types.NewServerError(
		"An internal error occurred. Please try again later.",
	).WithToken(token)
}

// handleValidationError lists every invalid field in Details. Param names
// the field when only one is wrong.
func handleValidationError(err *normalize.ValidationError) *types.ErrorResponse {
	resp := types.NewInvalidRequestError(err.Error(), "", types.CodeValidationFailed)
	resp.Error.Details = make([]types.FieldDetail, 0, len(err.Errors))
	for _, fe := range err.Errors {
		resp.Error.Details = append(resp.Error.Details, types.FieldDetail{
			Field:   fe.Field,
			Code:    fe.Code,
			Message: fe.Message,
		})
	}
	if len(err.Errors) == 1 {
		resp.Error.Param = err.Errors[0].Field
	}
	return resp
}
