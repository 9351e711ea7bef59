package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatwire/push-bridge/internal/domain"
)

type pgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore returns a Store backed by PostgreSQL.
func NewPgStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

// RecordRequest inserts the request document if it is not already present.
// An existing row is left untouched so a replayed created-event can never
// reset a processed record.
func (s *pgStore) RecordRequest(ctx context.Context, r *domain.NotificationRequest) error {
	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notification_requests
			(id, recipient_token, title, body, data, processed, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO NOTHING`,
		r.ID, r.RecipientToken, r.Title, r.Body, r.Data, r.Processed, createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification request: %w", err)
	}
	return nil
}

func (s *pgStore) GetRequest(ctx context.Context, id string) (*domain.NotificationRequest, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, recipient_token, title, body, data, processed, failed,
		       COALESCE(error_message, ''), COALESCE(message_id, ''),
		       created_at, processed_at
		FROM notification_requests WHERE id = $1`, id)

	var r domain.NotificationRequest
	err := row.Scan(
		&r.ID, &r.RecipientToken, &r.Title, &r.Body, &r.Data,
		&r.Processed, &r.Failed, &r.ErrorMessage, &r.MessageID,
		&r.CreatedAt, &r.ProcessedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get notification request: %w", err)
	}
	return &r, nil
}

// ClaimRequest is a conditional write: only one caller can move a request
// from unprocessed to processed, which absorbs duplicate event deliveries.
func (s *pgStore) ClaimRequest(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notification_requests
		SET processed = TRUE
		WHERE id = $1 AND processed = FALSE`, id)
	if err != nil {
		return false, fmt.Errorf("claim notification request: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *pgStore) MarkRequestProcessed(ctx context.Context, id, receiptID string, processedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE notification_requests
		SET processed = TRUE, message_id = $1, processed_at = $2
		WHERE id = $3`, receiptID, processedAt, id)
	if err != nil {
		return fmt.Errorf("mark request processed: %w", err)
	}
	return nil
}

func (s *pgStore) MarkRequestFailed(ctx context.Context, id, errMsg string, processedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE notification_requests
		SET processed = TRUE, failed = TRUE, error_message = $1, processed_at = $2
		WHERE id = $3`, errMsg, processedAt, id)
	if err != nil {
		return fmt.Errorf("mark request failed: %w", err)
	}
	return nil
}

func (s *pgStore) GetChat(ctx context.Context, id string) (*domain.Chat, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, COALESCE(name, ''), is_group_chat, participants
		FROM chats WHERE id = $1`, id)

	var c domain.Chat
	err := row.Scan(&c.ID, &c.Name, &c.IsGroupChat, &c.Participants)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get chat: %w", err)
	}
	return &c, nil
}

func (s *pgStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(fcm_token, ''), is_online
		FROM users WHERE id = $1`, id)

	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.FCMToken, &u.IsOnline)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// GetUsers fetches user records for an id set. Ids without a matching record
// are simply absent from the result; that is not an error.
func (s *pgStore) GetUsers(ctx context.Context, ids []string) ([]*domain.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, COALESCE(fcm_token, ''), is_online
		FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Name, &u.FCMToken, &u.IsOnline); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// RecordMessage keeps an audit copy of each inbound message event.
func (s *pgStore) RecordMessage(ctx context.Context, m *domain.ChatMessage) error {
	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO chat_messages (id, chat_id, sender_id, type, text, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO NOTHING`,
		m.ID, m.ChatID, m.SenderID, m.Type, m.Text, createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

func (s *pgStore) FindStaleRequests(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id FROM notification_requests WHERE created_at < $1`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("find stale requests: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan stale request id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteRequests removes the given requests in a single transaction so a
// sweep either deletes the whole batch or nothing.
func (s *pgStore) DeleteRequests(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`DELETE FROM notification_requests WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("delete requests: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}
