package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"mercator-hq/quotegate/pkg/bridge"
	"mercator-hq/quotegate/pkg/normalize"
	"mercator-hq/quotegate/pkg/proxy/types"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantToken  string
	}{
		{
			name:       "request error",
			err:        &RequestError{Message: "invalid JSON", Code: types.CodeInvalidJSON, Param: "body"},
			wantStatus: http.StatusBadRequest,
			wantCode:   types.CodeInvalidJSON,
		},
		{
			name: "validation error",
			err: &normalize.ValidationError{Errors: []normalize.FieldError{
				{Field: "hourlyRate", Code: normalize.CodeRequired, Message: "is required"},
			}},
			wantStatus: http.StatusBadRequest,
			wantCode:   types.CodeValidationFailed,
		},
		{
			name:       "busy",
			err:        fmt.Errorf("submit: %w", bridge.ErrBusy),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   types.CodeEngineBusy,
		},
		{
			name:       "timeout",
			err:        &bridge.TimeoutError{Token: "qg-1", Deadline: 30 * time.Second, Attempts: 60},
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   types.CodeEngineTimeout,
			wantToken:  "qg-1",
		},
		{
			name:       "transport",
			err:        &bridge.TransportError{Op: "write", Token: "qg-2", Cause: errors.New("googleapi: Error 503")},
			wantStatus: http.StatusBadGateway,
			wantCode:   types.CodeEngineTransport,
			wantToken:  "qg-2",
		},
		{
			name:       "contract",
			err:        &bridge.ContractError{Token: "qg-3", Row: 2, Reason: "expected 2 columns"},
			wantStatus: http.StatusBadGateway,
			wantCode:   types.CodeEngineContract,
			wantToken:  "qg-3",
		},
		{
			name:       "canceled",
			err:        &bridge.CanceledError{Token: "qg-4", Cause: context.Canceled},
			wantStatus: types.StatusClientClosedRequest,
			wantCode:   types.CodeRequestCanceled,
			wantToken:  "qg-4",
		},
		{
			name:       "unknown",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   types.CodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := HandleError(tt.err)
			if got := resp.Error.HTTPStatusCode(); got != tt.wantStatus {
				t.Errorf("HTTPStatusCode() = %d, want %d", got, tt.wantStatus)
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", resp.Error.Code, tt.wantCode)
			}
			if resp.Error.Token != tt.wantToken {
				t.Errorf("Token = %q, want %q", resp.Error.Token, tt.wantToken)
			}
		})
	}
}

func TestHandleError_ValidationDetails(t *testing.T) {
	err := &normalize.ValidationError{Errors: []normalize.FieldError{
		{Field: "hours", Code: normalize.CodeInvalid, Message: "must be a number"},
		{Field: "region", Code: normalize.CodeInvalid, Message: "unknown region"},
	}}

	resp := HandleError(err)
	if len(resp.Error.Details) != 2 {
		t.Fatalf("Details = %v, want 2 entries", resp.Error.Details)
	}
	if resp.Error.Details[1].Field != "region" || resp.Error.Details[1].Code != normalize.CodeInvalid {
		t.Errorf("Details[1] = %+v", resp.Error.Details[1])
	}
	if resp.Error.Param != "" {
		t.Errorf("Param = %q, want empty for several fields", resp.Error.Param)
	}

	single := HandleError(&normalize.ValidationError{Errors: err.Errors[:1]})
	if single.Error.Param != "hours" {
		t.Errorf("Param = %q, want hours", single.Error.Param)
	}
}

func TestHandleError_MessagesHideCause(t *testing.T) {
	err := &bridge.TransportError{Op: "read", Token: "qg-9", Cause: errors.New("private key rejected for svc@project")}

	resp := HandleError(err)
	if resp.Error.Message != "The pricing engine read failed" {
		t.Errorf("Message = %q", resp.Error.Message)
	}
}
