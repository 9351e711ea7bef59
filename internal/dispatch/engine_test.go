package dispatch_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/chatwire/push-bridge/internal/dispatch"
	"github.com/chatwire/push-bridge/internal/domain"
	"github.com/chatwire/push-bridge/internal/push"
	"github.com/chatwire/push-bridge/internal/resolver"
	"github.com/chatwire/push-bridge/internal/store"
)

func newEngine() (*dispatch.Engine, *store.MockStore, *push.MockProvider) {
	st := store.NewMockStore()
	prov := push.NewMockProvider()
	res := resolver.New(st, zap.NewNop())
	engine := dispatch.NewEngine(res, prov, rate.NewLimiter(rate.Inf, 0), zap.NewNop(), dispatch.Hooks{})
	return engine, st, prov
}

func seedGroupChat(st *store.MockStore, tokens ...string) *domain.Chat {
	ids := make([]string, 0, len(tokens)+1)
	ids = append(ids, "sender")
	for i, tok := range tokens {
		id := string(rune('A' + i))
		st.PutUser(&domain.User{ID: id, Name: "User " + id, FCMToken: tok, IsOnline: false})
		ids = append(ids, id)
	}
	chat := &domain.Chat{ID: "chat-1", Name: "Team", IsGroupChat: true, Participants: ids}
	st.PutChat(chat)
	return chat
}

func TestSendDirect_Success(t *testing.T) {
	engine, _, prov := newEngine()

	req := &domain.NotificationRequest{
		ID:             "req-1",
		RecipientToken: "tokX",
		Title:          "Hello",
		Body:           "World",
	}
	receipt, err := engine.SendDirect(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt == "" {
		t.Fatal("expected a receipt id")
	}
	sent := prov.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 send, got %d", len(sent))
	}
	if sent[0].Token != "tokX" {
		t.Fatalf("expected token=tokX, got %q", sent[0].Token)
	}
}

func TestSendDirect_MissingToken(t *testing.T) {
	engine, _, prov := newEngine()

	_, err := engine.SendDirect(context.Background(), &domain.NotificationRequest{ID: "req-1"})
	if !errors.Is(err, domain.ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
	if prov.SendCount() != 0 {
		t.Fatal("expected no delivery attempt without a token")
	}
}

func TestSendDirect_DeliveryFailurePropagates(t *testing.T) {
	engine, _, prov := newEngine()
	prov.SendErr = errors.New("delivery down")

	_, err := engine.SendDirect(context.Background(), &domain.NotificationRequest{
		ID:             "req-1",
		RecipientToken: "tokX",
	})
	if err == nil {
		t.Fatal("expected delivery failure to propagate")
	}
}

// TestFanOut_FailureIsolation verifies that with N targets where one is
// configured to fail, the engine still invokes the provider N times and
// returns N outcomes with exactly one failure at the failing position.
func TestFanOut_FailureIsolation(t *testing.T) {
	engine, st, prov := newEngine()

	st.PutUser(&domain.User{ID: "sender", Name: "Sam"})
	chat := seedGroupChat(st, "t1", "t2", "t3")
	prov.FailTokens = map[string]error{"t2": errors.New("invalid registration")}

	msg := &domain.ChatMessage{ID: "m1", ChatID: chat.ID, SenderID: "sender", Type: domain.MessageTypeText, Text: "hi"}
	sender := &domain.User{ID: "sender", Name: "Sam"}

	outcomes, err := engine.FanOut(context.Background(), msg, chat, sender)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	if prov.SendCount() != 3 {
		t.Fatalf("expected provider invoked 3 times, got %d", prov.SendCount())
	}

	failures := 0
	for i, o := range outcomes {
		if o.Success() {
			if o.ReceiptID == "" {
				t.Fatalf("outcome %d: success without receipt", i)
			}
			continue
		}
		failures++
		if o.Token != "t2" {
			t.Fatalf("expected failure on t2, got %q at position %d", o.Token, i)
		}
		if i != 1 {
			t.Fatalf("expected failure at position 1, got %d", i)
		}
	}
	if failures != 1 {
		t.Fatalf("expected exactly 1 failure, got %d", failures)
	}
}

func TestFanOut_NoRecipientsIsNoOp(t *testing.T) {
	engine, st, prov := newEngine()

	chat := &domain.Chat{ID: "chat-1", Participants: []string{"sender"}}
	st.PutChat(chat)
	sender := &domain.User{ID: "sender", Name: "Sam"}
	msg := &domain.ChatMessage{ID: "m1", ChatID: chat.ID, SenderID: "sender", Type: domain.MessageTypeText, Text: "hi"}

	outcomes, err := engine.FanOut(context.Background(), msg, chat, sender)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcomes != nil {
		t.Fatalf("expected nil outcomes, got %v", outcomes)
	}
	if prov.SendCount() != 0 {
		t.Fatal("expected no delivery attempts")
	}
}

func TestFanOut_GroupChatContent(t *testing.T) {
	engine, st, prov := newEngine()

	st.PutUser(&domain.User{ID: "sender", Name: "Sam"})
	chat := seedGroupChat(st, "t1")
	sender := &domain.User{ID: "sender", Name: "Sam"}
	msg := &domain.ChatMessage{ID: "m1", ChatID: chat.ID, SenderID: "sender", Type: domain.MessageTypeText, Text: "lunch?"}

	if _, err := engine.FanOut(context.Background(), msg, chat, sender); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sent := prov.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 send, got %d", len(sent))
	}
	if sent[0].Notification.Title != "Team" {
		t.Fatalf("expected title=Team, got %q", sent[0].Notification.Title)
	}
	if sent[0].Notification.Body != "Sam: lunch?" {
		t.Fatalf("expected body with sender prefix, got %q", sent[0].Notification.Body)
	}
	if sent[0].Data["chatId"] != "chat-1" || sent[0].Data["messageId"] != "m1" ||
		sent[0].Data["senderId"] != "sender" || sent[0].Data["type"] != "new_message" {
		t.Fatalf("unexpected data bag: %v", sent[0].Data)
	}
}

func TestFanOut_GroupChatWithoutNameUsesFallbackTitle(t *testing.T) {
	engine, st, prov := newEngine()

	st.PutUser(&domain.User{ID: "B", FCMToken: "t1", IsOnline: false})
	chat := &domain.Chat{ID: "chat-1", IsGroupChat: true, Participants: []string{"sender", "B"}}
	st.PutChat(chat)
	sender := &domain.User{ID: "sender", Name: "Sam"}
	msg := &domain.ChatMessage{ID: "m1", ChatID: chat.ID, SenderID: "sender", Type: domain.MessageTypeText, Text: "hi"}

	if _, err := engine.FanOut(context.Background(), msg, chat, sender); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := prov.Sent()[0].Notification.Title; got != "Group Chat" {
		t.Fatalf("expected fallback title, got %q", got)
	}
}

func TestFanOut_DirectChatContent(t *testing.T) {
	engine, st, prov := newEngine()

	st.PutUser(&domain.User{ID: "B", FCMToken: "t1", IsOnline: false})
	chat := &domain.Chat{ID: "chat-1", Participants: []string{"sender", "B"}}
	st.PutChat(chat)
	sender := &domain.User{ID: "sender", Name: "Sam"}
	msg := &domain.ChatMessage{ID: "m1", ChatID: chat.ID, SenderID: "sender", Type: domain.MessageTypeImage}

	if _, err := engine.FanOut(context.Background(), msg, chat, sender); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sent := prov.Sent()
	if sent[0].Notification.Title != "Sam" {
		t.Fatalf("expected title=Sam, got %q", sent[0].Notification.Title)
	}
	if sent[0].Notification.Body != "📷 Photo" {
		t.Fatalf("expected media preview body, got %q", sent[0].Notification.Body)
	}
}

func TestFanOut_ResolverFailurePropagates(t *testing.T) {
	engine, st, _ := newEngine()
	st.GetUsersErr = errors.New("store down")

	chat := &domain.Chat{ID: "chat-1", Participants: []string{"sender", "B"}}
	sender := &domain.User{ID: "sender", Name: "Sam"}
	msg := &domain.ChatMessage{ID: "m1", ChatID: chat.ID, SenderID: "sender", Type: domain.MessageTypeText, Text: "hi"}

	if _, err := engine.FanOut(context.Background(), msg, chat, sender); err == nil {
		t.Fatal("expected resolver failure to propagate")
	}
}
