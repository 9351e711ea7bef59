package domain

import "time"

// MessageType classifies a chat message for preview rendering.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeFile  MessageType = "file"
)

// NotificationRequest is a push request document created by an external
// producer. The tracker mutates it exactly once: processed=true plus either
// a receipt (MessageID) or failed+error. JSON tags follow the document
// field names used by the producing clients.
type NotificationRequest struct {
	ID             string            `json:"id"`
	RecipientToken string            `json:"recipientToken"`
	Title          string            `json:"title"`
	Body           string            `json:"body"`
	Data           map[string]string `json:"data,omitempty"`
	Processed      bool              `json:"processed"`
	Failed         bool              `json:"failed,omitempty"`
	ErrorMessage   string            `json:"error,omitempty"`
	MessageID      string            `json:"messageId,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	ProcessedAt    *time.Time        `json:"processedAt,omitempty"`
}

func (r *NotificationRequest) Validate() error {
	if r.ID == "" {
		return ErrInvalidEvent
	}
	return nil
}

// ChatMessage is a message document. Read-only to this service apart from
// the audit copy recorded on arrival.
type ChatMessage struct {
	ID        string      `json:"id"`
	ChatID    string      `json:"chatId"`
	SenderID  string      `json:"senderId"`
	Type      MessageType `json:"type"`
	Text      string      `json:"text,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

func (m *ChatMessage) Validate() error {
	if m.ID == "" || m.ChatID == "" || m.SenderID == "" {
		return ErrInvalidEvent
	}
	return nil
}

// Chat holds the participant set a message fans out to. Read-only.
type Chat struct {
	ID           string   `json:"id"`
	Name         string   `json:"name,omitempty"`
	IsGroupChat  bool     `json:"isGroupChat"`
	Participants []string `json:"participants"`
}

// User is a chat participant. Read-only.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	FCMToken string `json:"fcmToken,omitempty"`
	IsOnline bool   `json:"isOnline"`
}

// Deliverable reports whether a push should be addressed to this user.
// Online users are skipped so they do not get an in-app alert and a push
// for the same message.
func (u *User) Deliverable() bool {
	return u.FCMToken != "" && !u.IsOnline
}
