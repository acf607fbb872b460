package handlers

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/odclabs/kiosk/internal/api"
	"github.com/odclabs/kiosk/internal/service"
)

type Rebuilder interface {
	Rebuild(ctx context.Context) (*service.RebuildResult, error)
}

// RebuildHandler triggers an on-demand index rebuild, used after manual
// corpus edits rather than waiting for the scheduled refresh.
type RebuildHandler struct {
	rebuilder Rebuilder
	running   atomic.Bool
}

func NewRebuildHandler(rebuilder Rebuilder) *RebuildHandler {
	return &RebuildHandler{rebuilder: rebuilder}
}

type RebuildResponse struct {
	Documents  int    `json:"documents"`
	Passages   int    `json:"passages"`
	DurationMS int64  `json:"duration_ms"`
	Status     string `json:"status"`
}

// Rebuild runs one rebuild synchronously. Only one may run at a time;
// a concurrent request gets 409 rather than queuing.
func (h *RebuildHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	if !h.running.CompareAndSwap(false, true) {
		api.Error(w, http.StatusConflict, "a rebuild is already running")
		return
	}
	defer h.running.Store(false)

	result, err := h.rebuilder.Rebuild(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, RebuildResponse{
		Documents:  result.Documents,
		Passages:   result.Passages,
		DurationMS: result.Duration.Milliseconds(),
		Status:     "rebuilt",
	})
}
