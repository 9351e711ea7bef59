package dispatch

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/chatwire/push-bridge/internal/domain"
	"github.com/chatwire/push-bridge/internal/push"
	"github.com/chatwire/push-bridge/internal/resolver"
)

// Outcome is the per-target result of one delivery attempt.
type Outcome struct {
	Token     string
	ReceiptID string
	Err       error
}

// Success reports whether the delivery was accepted.
func (o Outcome) Success() bool { return o.Err == nil }

// Hooks carries the metric callback functions injected by main.
// Using a struct keeps the engine constructor signature clean.
type Hooks struct {
	OnSent   func(latency time.Duration)
	OnFailed func()
	OnFanOut func(recipients int)
}

// Engine delivers notifications: one explicit target for a request document,
// or a concurrent fan-out over a chat's resolved recipients.
type Engine struct {
	resolver *resolver.Resolver
	prov     push.Provider
	limiter  *rate.Limiter
	logger   *zap.Logger
	hooks    Hooks
}

// NewEngine constructs an engine. Hook fields are optional (nil = no-op).
func NewEngine(
	res *resolver.Resolver,
	prov push.Provider,
	limiter *rate.Limiter,
	logger *zap.Logger,
	hooks Hooks,
) *Engine {
	if hooks.OnSent == nil {
		hooks.OnSent = func(time.Duration) {}
	}
	if hooks.OnFailed == nil {
		hooks.OnFailed = func() {}
	}
	if hooks.OnFanOut == nil {
		hooks.OnFanOut = func(int) {}
	}
	return &Engine{resolver: res, prov: prov, limiter: limiter, logger: logger, hooks: hooks}
}

// SendDirect delivers a single request document to its explicit target and
// returns the receipt id. Failures propagate to the caller; the tracker owns
// the status bookkeeping for this path.
func (e *Engine) SendDirect(ctx context.Context, req *domain.NotificationRequest) (string, error) {
	if req.RecipientToken == "" {
		return "", domain.ErrMissingToken
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return "", err
	}

	msg := push.BuildMessage(req.RecipientToken, req.Title, req.Body, req.Data, req.CreatedAt)

	start := time.Now()
	receipt, err := e.prov.Send(ctx, msg)
	if err != nil {
		e.hooks.OnFailed()
		return "", err
	}
	e.hooks.OnSent(time.Since(start))
	return receipt, nil
}

// FanOut delivers one chat message to every resolved recipient concurrently.
// Every send's outcome is captured independently: one slot per token, in
// resolver order, and a failed send never aborts its siblings. The returned
// error covers only recipient resolution; it is never set merely because
// some sends failed.
func (e *Engine) FanOut(
	ctx context.Context,
	msg *domain.ChatMessage,
	chat *domain.Chat,
	sender *domain.User,
) ([]Outcome, error) {
	tokens, err := e.resolver.Resolve(ctx, chat.Participants, msg.SenderID)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		e.logger.Info("no recipients for message",
			zap.String("chat_id", chat.ID),
			zap.String("message_id", msg.ID),
		)
		return nil, nil
	}
	e.hooks.OnFanOut(len(tokens))

	title, body := notificationContent(msg, chat, sender)
	data := map[string]string{
		"chatId":    msg.ChatID,
		"messageId": msg.ID,
		"senderId":  msg.SenderID,
		"type":      "new_message",
	}

	outcomes := make([]Outcome, len(tokens))
	var wg sync.WaitGroup
	for i, token := range tokens {
		wg.Add(1)
		go func(i int, token string) {
			defer wg.Done()

			if err := e.limiter.Wait(ctx); err != nil {
				outcomes[i] = Outcome{Token: token, Err: err}
				e.hooks.OnFailed()
				return
			}

			m := push.BuildMessage(token, title, body, data, msg.CreatedAt)
			start := time.Now()
			receipt, err := e.prov.Send(ctx, m)
			if err != nil {
				outcomes[i] = Outcome{Token: token, Err: err}
				e.hooks.OnFailed()
				return
			}
			outcomes[i] = Outcome{Token: token, ReceiptID: receipt}
			e.hooks.OnSent(time.Since(start))
		}(i, token)
	}
	wg.Wait()

	log := e.logger.With(
		zap.String("chat_id", chat.ID),
		zap.String("message_id", msg.ID),
	)
	for i, o := range outcomes {
		if o.Success() {
			log.Info("notification sent",
				zap.Int("target", i),
				zap.String("receipt_id", o.ReceiptID),
			)
		} else {
			log.Warn("notification failed",
				zap.Int("target", i),
				zap.Error(o.Err),
			)
		}
	}

	return outcomes, nil
}

// notificationContent derives the title/body pair for a chat message.
// Group chats lead with the chat name and prefix the sender; direct chats
// lead with the sender's name.
func notificationContent(msg *domain.ChatMessage, chat *domain.Chat, sender *domain.User) (string, string) {
	preview := domain.MessagePreview(msg)
	if chat.IsGroupChat {
		title := chat.Name
		if title == "" {
			title = "Group Chat"
		}
		return title, sender.Name + ": " + preview
	}
	return sender.Name, preview
}
