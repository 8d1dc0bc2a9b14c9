package handlers

import (
	"log/slog"
	"net/http"

	"mercator-hq/quotegate/pkg/proxy"
	"mercator-hq/quotegate/pkg/proxy/types"
)

// PreviewHandler answers pricing previews.
type PreviewHandler struct {
	submitter    Submitter
	maxBodyBytes int64
	buildMarker  string
	logger       *slog.Logger
}

// NewPreviewHandler creates a preview handler. maxBodyBytes bounds the
// request body; buildMarker is echoed in X-Build-Marker when non-empty.
func NewPreviewHandler(s Submitter, maxBodyBytes int64, buildMarker string) *PreviewHandler {
	return &PreviewHandler{
		submitter:    s,
		maxBodyBytes: maxBodyBytes,
		buildMarker:  buildMarker,
		logger:       slog.Default().With("component", "proxy.preview"),
	}
}

// ServeHTTP implements http.Handler.
func (h *PreviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.buildMarker != "" {
		w.Header().Set(proxy.BuildMarkerHeader, h.buildMarker)
	}

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		_ = proxy.WriteErrorResponse(w, types.NewMethodNotAllowedError(r.Method))
		return
	}

	req, err := proxy.ParsePreviewRequest(r, h.maxBodyBytes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.submitter.Submit(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := proxy.WriteJSONResponse(w, http.StatusOK, result); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write preview response",
			"token", result.Token,
			"error", err,
		)
	}
}

func (h *PreviewHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	errResp := proxy.HandleError(err)
	status := errResp.Error.HTTPStatusCode()

	if status == types.StatusClientClosedRequest {
		h.logger.InfoContext(r.Context(), "preview abandoned by client",
			"token", errResp.Error.Token,
			"error", err,
		)
		return
	}

	if status >= http.StatusInternalServerError {
		h.logger.WarnContext(r.Context(), "preview failed",
			"status", status,
			"code", errResp.Error.Code,
			"token", errResp.Error.Token,
			"error", err,
		)
	}

	_ = proxy.WriteErrorResponse(w, errResp)
}
