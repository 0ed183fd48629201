package generatespecs

import (
	"io"
	"net/http"
	"strconv"
	"time"

	apperrors "drone-configurator/internal/common/errors"
	commonhttp "drone-configurator/internal/common/http"
	"drone-configurator/internal/common/metrics"
	"drone-configurator/internal/specgen"
)

// Route is the HTTP path of the generation endpoint.
const Route = "/api/generate-specs"

// Routes returns the API mux with request-id and panic recovery applied.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(Route, h)

	var handler http.Handler = mux
	handler = commonhttp.Recover(h.logger, specgen.AssembleInternalFault())(handler)
	handler = commonhttp.RequestID(handler)
	return handler
}

// ServeHTTP answers every method; non-POST requests get 405 from the
// pipeline's own method check.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	metrics.RequestsActive.WithLabelValues(transportHTTP).Inc()
	defer metrics.RequestsActive.WithLabelValues(transportHTTP).Dec()

	var body []byte
	if r.Method == http.MethodPost {
		limited := http.MaxBytesReader(w, r.Body, h.maxBodyBytes())
		data, err := io.ReadAll(limited)
		if err != nil {
			h.logger.Warn("request body rejected", map[string]interface{}{
				"requestId": commonhttp.RequestIDFromContext(r.Context()),
				"error":     err.Error(),
			})
			outcome := specgen.AssembleError(apperrors.NewPromptRequiredError(err.Error()))
			h.write(w, r, outcome.StatusCode(), outcome, start)
			return
		}
		body = data
	}

	outcome := h.pipeline.Handle(r.Context(), r.Method, body)
	if outcome.Code == apperrors.ErrCodeMethodNotAllowed {
		w.Header().Set("Allow", http.MethodPost)
	}
	h.write(w, r, outcome.StatusCode(), outcome, start)
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, status int, body interface{}, start time.Time) {
	commonhttp.WriteJSON(w, status, body)
	h.record(r.Context(), transportHTTP, strconv.Itoa(status), start)
	h.logger.Debug("request served", map[string]interface{}{
		"requestId":  commonhttp.RequestIDFromContext(r.Context()),
		"status":     status,
		"durationMs": time.Since(start).Milliseconds(),
	})
}

func (h *Handler) maxBodyBytes() int64 {
	if h.config.MaxBodyBytes > 0 {
		return h.config.MaxBodyBytes
	}
	return 1 << 20
}
