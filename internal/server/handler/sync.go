package handler

import (
	"log/slog"
	"net/http"

	"github.com/dondie52/agriconnect/internal/pipeline"
	"github.com/dondie52/agriconnect/internal/service"
)

// SyncHandler exposes the manual sync trigger and sync status endpoints used
// by the admin console.
type SyncHandler struct {
	scheduler *pipeline.Scheduler
	svc       *service.PriceService
	logger    *slog.Logger
}

// NewSyncHandler creates a SyncHandler.
func NewSyncHandler(scheduler *pipeline.Scheduler, svc *service.PriceService, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{
		scheduler: scheduler,
		svc:       svc,
		logger:    logger.With(slog.String("handler", "sync")),
	}
}

// TriggerSync runs a sync immediately and responds with its stats. Degraded
// runs still return 200: callers inspect the errors list.
// POST /api/sync/trigger
func (h *SyncHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats := h.scheduler.TriggerSync(ctx)
	writeJSON(w, http.StatusOK, stats)
}

// GetStatus responds with the last sync time, scheduler state, and cache
// statistics.
// GET /api/sync/status
func (h *SyncHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := h.svc.GetSyncStatus(ctx)
	writeJSON(w, http.StatusOK, map[string]any{
		"last_sync": status.LastSync,
		"cache":     status.Cache,
		"scheduler": h.scheduler.Status(),
	})
}
