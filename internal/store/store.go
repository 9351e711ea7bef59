package store

import (
	"context"
	"time"

	"github.com/chatwire/push-bridge/internal/domain"
)

// Store defines all document-store operations the bridge needs.
// The pgx implementation is in pg_store.go.
// Tests use a hand-written mock (mock_store.go).
type Store interface {
	// Notification requests
	RecordRequest(ctx context.Context, r *domain.NotificationRequest) error
	GetRequest(ctx context.Context, id string) (*domain.NotificationRequest, error)
	// ClaimRequest flips processed from false to true and reports whether
	// this caller won the claim. A duplicate event delivery loses the claim
	// and must treat the request as already handled.
	ClaimRequest(ctx context.Context, id string) (bool, error)
	MarkRequestProcessed(ctx context.Context, id, receiptID string, processedAt time.Time) error
	MarkRequestFailed(ctx context.Context, id, errMsg string, processedAt time.Time) error

	// Chat lookups
	GetChat(ctx context.Context, id string) (*domain.Chat, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUsers(ctx context.Context, ids []string) ([]*domain.User, error)
	RecordMessage(ctx context.Context, m *domain.ChatMessage) error

	// Retention
	FindStaleRequests(ctx context.Context, cutoff time.Time) ([]string, error)
	DeleteRequests(ctx context.Context, ids []string) error
}
