package domain_test

import (
	"testing"

	"github.com/chatwire/push-bridge/internal/domain"
)

func TestUser_Deliverable(t *testing.T) {
	tests := []struct {
		name string
		user domain.User
		want bool
	}{
		{"offline with token", domain.User{FCMToken: "t1", IsOnline: false}, true},
		{"online with token", domain.User{FCMToken: "t1", IsOnline: true}, false},
		{"offline without token", domain.User{IsOnline: false}, false},
		{"online without token", domain.User{IsOnline: true}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.user.Deliverable(); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestNotificationRequest_Validate(t *testing.T) {
	r := domain.NotificationRequest{ID: "req-1", RecipientToken: "tok"}
	if err := r.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	r.ID = ""
	if err := r.Validate(); err != domain.ErrInvalidEvent {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

func TestChatMessage_Validate(t *testing.T) {
	valid := domain.ChatMessage{ID: "m1", ChatID: "c1", SenderID: "u1"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	tests := []struct {
		name string
		msg  domain.ChatMessage
	}{
		{"missing id", domain.ChatMessage{ChatID: "c1", SenderID: "u1"}},
		{"missing chat id", domain.ChatMessage{ID: "m1", SenderID: "u1"}},
		{"missing sender id", domain.ChatMessage{ID: "m1", ChatID: "c1"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.msg.Validate(); err != domain.ErrInvalidEvent {
				t.Fatalf("expected ErrInvalidEvent, got %v", err)
			}
		})
	}
}
