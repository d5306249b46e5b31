package api

import (
	"fmt"
	"net/http"
	"time"

	"snippetcorpus/internal/application/dto"
	"snippetcorpus/internal/port/inbound"
)

// HealthHandler handles HTTP requests for health check operations.
type HealthHandler struct {
	healthService inbound.HealthService
	errorHandler  ErrorHandler
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(healthService inbound.HealthService, errorHandler ErrorHandler) *HealthHandler {
	return &HealthHandler{healthService: healthService, errorHandler: errorHandler}
}

// GetHealth handles GET /health.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	response, err := h.healthService.GetHealth(r.Context())
	if err != nil {
		h.errorHandler.HandleServiceError(w, r, err)
		return
	}

	w.Header().Set("X-Health-Check-Duration", fmt.Sprintf("%.2fms", float64(time.Since(start).Microseconds())/1000))

	statusCode := http.StatusOK
	if response.Status == string(dto.HealthStatusUnhealthy) {
		statusCode = http.StatusServiceUnavailable
	}
	if err := WriteJSON(w, statusCode, response); err != nil {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Health check response encoding failed"))
	}
}
