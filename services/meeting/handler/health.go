package handler

import (
	"net/http"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	httpjson "github.com/xilidan/meetings/pkg/json"
)

// Health reports the overall status held by the gRPC health server.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	res, err := h.health.Check(r.Context(), &healthpb.HealthCheckRequest{})
	if err != nil {
		httpjson.WriteError(w, http.StatusServiceUnavailable, err)
		return
	}

	status := http.StatusOK
	if res.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		status = http.StatusServiceUnavailable
	}
	httpjson.WriteProtoJSON(w, status, res)
}
