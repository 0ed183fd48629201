package generatespecs

import (
	"context"
	"net/http"
	"time"

	commonhttp "drone-configurator/internal/common/http"
	"drone-configurator/internal/common/logger"
	"drone-configurator/internal/specgen"
)

const readyPingTimeout = 2 * time.Second

// ProviderStatus is implemented by specgen.Pipeline.
type ProviderStatus interface {
	Readiness() specgen.Readiness
}

// Pinger checks a backing service such as the answer cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyHandler answers 200 when the default provider holds a credential and
// the answer cache, if cache is non-nil, responds to a ping. Anything else
// is 503 with the failing part named in the body.
func ReadyHandler(status ProviderStatus, cache Pinger, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		readiness := status.Readiness()
		ready := readiness.Ready()

		body := map[string]interface{}{
			"defaultProvider": readiness.DefaultProvider,
			"providers":       readiness.Providers,
			"time":            time.Now().Format(time.RFC3339),
		}

		if cache != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readyPingTimeout)
			defer cancel()
			if err := cache.Ping(ctx); err != nil {
				log.Warn("readiness: answer cache unreachable", map[string]interface{}{"error": err.Error()})
				body["cache"] = "unreachable"
				ready = false
			} else {
				body["cache"] = "ok"
			}
		}

		code := http.StatusOK
		body["status"] = "ready"
		if !ready {
			code = http.StatusServiceUnavailable
			body["status"] = "not_ready"
		}
		commonhttp.WriteJSON(w, code, body)
	}
}
