package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apimw "github.com/chatwire/push-bridge/internal/api/middleware"
	"github.com/chatwire/push-bridge/internal/dispatch"
	"github.com/chatwire/push-bridge/internal/domain"
	"github.com/chatwire/push-bridge/internal/store"
	"github.com/chatwire/push-bridge/internal/tracker"
)

// EventHandler receives document-created webhooks from the database's
// change feed: one endpoint per triggering record kind.
type EventHandler struct {
	tracker *tracker.Tracker
	engine  *dispatch.Engine
	store   store.Store
	logger  *zap.Logger
}

func NewEventHandler(t *tracker.Tracker, e *dispatch.Engine, st store.Store, logger *zap.Logger) *EventHandler {
	return &EventHandler{tracker: t, engine: e, store: st, logger: logger}
}

// RequestCreated handles POST /hooks/requests
//
// The body is the new NotificationRequest document. The request is recorded
// (insert-if-absent), guarded by the idempotency tracker, and dispatched to
// its single explicit target. A delivery failure is reported as 502 after
// the record has been marked failed, so the event source can alert or retry
// at the platform level; the record itself will not be reprocessed.
func (h *EventHandler) RequestCreated(w http.ResponseWriter, r *http.Request) {
	var req domain.NotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		mapError(w, err)
		return
	}

	if err := h.store.RecordRequest(r.Context(), &req); err != nil {
		h.logger.Warn("could not record request",
			zap.String("request_id", req.ID),
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
	}

	result, err := h.tracker.Process(r.Context(), &req)
	if err != nil {
		h.logger.Warn("request processing failed",
			zap.String("request_id", req.ID),
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		respondJSON(w, http.StatusBadGateway, map[string]string{
			"result": string(result),
			"error":  err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"result": string(result)})
}

// MessageCreated handles POST /hooks/chats/{chatID}/messages
//
// The body is the new ChatMessage document; the chat id comes from the path.
// A missing chat or sender record consumes the event as a no-op, matching
// the change feed's at-least-once contract: there is nothing useful a replay
// could do.
func (h *EventHandler) MessageCreated(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	var msg domain.ChatMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	msg.ChatID = chatID
	if err := msg.Validate(); err != nil {
		mapError(w, err)
		return
	}

	log := h.logger.With(
		zap.String("chat_id", chatID),
		zap.String("message_id", msg.ID),
		zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
	)

	if err := h.store.RecordMessage(r.Context(), &msg); err != nil {
		log.Warn("could not record message", zap.Error(err))
	}

	chat, err := h.store.GetChat(r.Context(), chatID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Info("chat not found")
		respondJSON(w, http.StatusOK, map[string]string{"result": "chat_not_found"})
		return
	}
	if err != nil {
		log.Error("chat lookup failed", zap.Error(err))
		mapErrorInternal(w, err)
		return
	}

	sender, err := h.store.GetUser(r.Context(), msg.SenderID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Info("sender not found", zap.String("sender_id", msg.SenderID))
		respondJSON(w, http.StatusOK, map[string]string{"result": "sender_not_found"})
		return
	}
	if err != nil {
		log.Error("sender lookup failed", zap.Error(err))
		mapErrorInternal(w, err)
		return
	}

	outcomes, err := h.engine.FanOut(r.Context(), &msg, chat, sender)
	if err != nil {
		log.Error("fan-out failed", zap.Error(err))
		mapErrorInternal(w, err)
		return
	}

	sent, failed := 0, 0
	for _, o := range outcomes {
		if o.Success() {
			sent++
		} else {
			failed++
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"result":     "dispatched",
		"recipients": len(outcomes),
		"sent":       sent,
		"failed":     failed,
	})
}

// mapErrorInternal hides store failures behind a generic 500; the detail is
// already in the logs.
func mapErrorInternal(w http.ResponseWriter, _ error) {
	respondError(w, http.StatusInternalServerError, "internal server error")
}
