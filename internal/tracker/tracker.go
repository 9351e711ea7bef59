package tracker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chatwire/push-bridge/internal/dispatch"
	"github.com/chatwire/push-bridge/internal/domain"
	"github.com/chatwire/push-bridge/internal/store"
)

// Result classifies what happened to a request event.
type Result string

const (
	ResultProcessed    Result = "processed"     // delivered and marked processed
	ResultSkipped      Result = "skipped"       // already handled; pure no-op
	ResultMissingToken Result = "missing_token" // no delivery target; record untouched
	ResultFailed       Result = "failed"        // delivery failed; record marked failed
)

// Tracker guards request processing against duplicate event delivery and
// records the terminal outcome back onto the request record.
type Tracker struct {
	store  store.Store
	engine *dispatch.Engine
	logger *zap.Logger
}

func New(st store.Store, engine *dispatch.Engine, logger *zap.Logger) *Tracker {
	return &Tracker{store: st, engine: engine, logger: logger}
}

// Process handles one request-created event.
//
// The processed flag on the event payload is the fast path; the store's
// conditional claim is the authoritative guard, so two near-simultaneous
// deliveries of the same event cannot both dispatch. On delivery failure the
// record is marked failed first and the error is then re-signalled to the
// caller so the platform can alert; this subsystem never retries a request.
func (t *Tracker) Process(ctx context.Context, req *domain.NotificationRequest) (Result, error) {
	log := t.logger.With(zap.String("request_id", req.ID))

	if req.Processed {
		log.Debug("request already processed")
		return ResultSkipped, nil
	}

	if req.RecipientToken == "" {
		log.Error("no recipient token provided")
		return ResultMissingToken, nil
	}

	claimed, err := t.store.ClaimRequest(ctx, req.ID)
	if err != nil {
		return ResultFailed, fmt.Errorf("claim request: %w", err)
	}
	if !claimed {
		log.Debug("request claimed by a concurrent event delivery")
		return ResultSkipped, nil
	}

	receipt, sendErr := t.engine.SendDirect(ctx, req)
	now := time.Now().UTC()

	if sendErr != nil {
		log.Error("error sending notification", zap.Error(sendErr))
		if markErr := t.store.MarkRequestFailed(ctx, req.ID, sendErr.Error(), now); markErr != nil {
			log.Error("failed to record failure status", zap.Error(markErr))
		}
		return ResultFailed, fmt.Errorf("send notification: %w", sendErr)
	}

	if err := t.store.MarkRequestProcessed(ctx, req.ID, receipt, now); err != nil {
		// The send succeeded; log the receipt so the outcome is not lost
		// even though the status write did not land.
		log.Error("failed to record processed status",
			zap.String("receipt_id", receipt),
			zap.Error(err),
		)
		return ResultFailed, fmt.Errorf("mark request processed: %w", err)
	}

	log.Info("successfully sent message", zap.String("receipt_id", receipt))
	return ResultProcessed, nil
}
