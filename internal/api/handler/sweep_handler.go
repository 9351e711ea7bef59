package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/chatwire/push-bridge/internal/sweeper"
)

// SweepHandler exposes the retention sweep as a manual trigger, for
// operators and for external schedulers that prefer to own the timer.
type SweepHandler struct {
	sweeper *sweeper.Sweeper
	logger  *zap.Logger
}

func NewSweepHandler(s *sweeper.Sweeper, logger *zap.Logger) *SweepHandler {
	return &SweepHandler{sweeper: s, logger: logger}
}

// Sweep handles POST /hooks/sweep
func (h *SweepHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.sweeper.Sweep(r.Context())
	if err != nil {
		h.logger.Error("manual sweep failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "sweep failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}
