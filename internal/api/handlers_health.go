package api

import (
	"context"
	"net/http"
	"time"

	"github.com/iammorganparry/clive/apps/regression/internal/models"
	"github.com/iammorganparry/clive/apps/regression/internal/store"
)

// HealthChecker reports whether the analysis service is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HealthHandler struct {
	db          *store.DB
	service     HealthChecker
	workbenches *Workbenches
}

func NewHealthHandler(db *store.DB, service HealthChecker, workbenches *Workbenches) *HealthHandler {
	return &HealthHandler{db: db, service: service, workbenches: workbenches}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status:      "ok",
		Workbenches: h.workbenches.Len(),
	}

	// Check analysis service
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := h.service.HealthCheck(ctx); err != nil {
		resp.AnalysisService = models.ServiceCheck{Status: "error", Message: err.Error()}
		resp.Status = "degraded"
	} else {
		resp.AnalysisService = models.ServiceCheck{Status: "ok"}
	}

	// Check DB
	if _, err := h.db.UploadCount(); err != nil {
		resp.DB = models.ServiceCheck{Status: "error", Message: err.Error()}
		resp.Status = "degraded"
	} else {
		resp.DB = models.ServiceCheck{Status: "ok"}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
