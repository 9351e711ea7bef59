package resolver

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/chatwire/push-bridge/internal/store"
)

// Resolver turns a chat's participant list into the set of delivery tokens a
// fan-out should address. The sender is always excluded, and only offline
// users holding a token are deliverable.
type Resolver struct {
	store  store.Store
	logger *zap.Logger
}

func New(st store.Store, logger *zap.Logger) *Resolver {
	return &Resolver{store: st, logger: logger}
}

// Resolve returns the deduplicated delivery tokens for everyone in
// participants except the sender. An empty result is not an error; it means
// there is nothing to deliver.
func (r *Resolver) Resolve(ctx context.Context, participants []string, senderID string) ([]string, error) {
	recipients := make([]string, 0, len(participants))
	seen := make(map[string]struct{}, len(participants))
	for _, id := range participants {
		if id == senderID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		recipients = append(recipients, id)
	}
	if len(recipients) == 0 {
		return nil, nil
	}

	users, err := r.store.GetUsers(ctx, recipients)
	if err != nil {
		return nil, fmt.Errorf("fetch recipients: %w", err)
	}

	byID := make(map[string]int, len(users))
	for i, u := range users {
		byID[u.ID] = i
	}

	// Tokens come out in participant order so fan-out outcomes line up with
	// the input for caller-side logging.
	tokens := make([]string, 0, len(users))
	taken := make(map[string]struct{}, len(users))
	for _, id := range recipients {
		i, ok := byID[id]
		if !ok {
			continue // recipient record missing: nothing to deliver for them
		}
		u := users[i]
		if !u.Deliverable() {
			continue
		}
		if _, dup := taken[u.FCMToken]; dup {
			continue
		}
		taken[u.FCMToken] = struct{}{}
		tokens = append(tokens, u.FCMToken)
	}

	if len(tokens) == 0 {
		r.logger.Debug("no deliverable recipients",
			zap.Int("participants", len(participants)),
			zap.String("sender_id", senderID),
		)
	}
	return tokens, nil
}
