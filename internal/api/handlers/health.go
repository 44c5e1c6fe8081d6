package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/uGE89/gestion-compras-app-sub000/internal/api/dto"
)

// HealthHandler answers liveness probes. It takes no dependencies on
// storage or the engine: a live process reports healthy even while a
// session load is in flight.
type HealthHandler struct{}

// NewHealthHandler creates a health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(dto.NewHealthResponse())
}
