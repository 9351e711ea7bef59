package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/chatwire/push-bridge/internal/api/handler"
	"github.com/chatwire/push-bridge/internal/dispatch"
	"github.com/chatwire/push-bridge/internal/domain"
	"github.com/chatwire/push-bridge/internal/push"
	"github.com/chatwire/push-bridge/internal/resolver"
	"github.com/chatwire/push-bridge/internal/store"
	"github.com/chatwire/push-bridge/internal/tracker"
)

func newTestRouter() (http.Handler, *store.MockStore, *push.MockProvider) {
	st := store.NewMockStore()
	prov := push.NewMockProvider()
	res := resolver.New(st, zap.NewNop())
	engine := dispatch.NewEngine(res, prov, rate.NewLimiter(rate.Inf, 0), zap.NewNop(), dispatch.Hooks{})
	trk := tracker.New(st, engine, zap.NewNop())
	eh := handler.NewEventHandler(trk, engine, st, zap.NewNop())

	r := chi.NewRouter()
	r.Post("/hooks/requests", eh.RequestCreated)
	r.Post("/hooks/chats/{chatID}/messages", eh.MessageCreated)
	return r, st, prov
}

func post(t *testing.T, router http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	return out
}

func TestRequestCreated(t *testing.T) {
	router, st, prov := newTestRouter()

	rec := post(t, router, "/hooks/requests",
		`{"id":"req-1","recipientToken":"tokX","title":"Hi","body":"There"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decodeBody(t, rec)["result"]; got != "processed" {
		t.Fatalf("expected result=processed, got %v", got)
	}
	if prov.SendCount() != 1 {
		t.Fatalf("expected 1 delivery, got %d", prov.SendCount())
	}

	stored, err := st.GetRequest(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("request was not recorded: %v", err)
	}
	if !stored.Processed || stored.MessageID == "" {
		t.Fatalf("expected processed record with receipt, got %+v", stored)
	}
}

func TestRequestCreated_InvalidBody(t *testing.T) {
	router, _, _ := newTestRouter()

	rec := post(t, router, "/hooks/requests", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRequestCreated_MissingID(t *testing.T) {
	router, _, _ := newTestRouter()

	rec := post(t, router, "/hooks/requests", `{"recipientToken":"tokX"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestRequestCreated_MissingTokenIsNoOp(t *testing.T) {
	router, _, prov := newTestRouter()

	rec := post(t, router, "/hooks/requests", `{"id":"req-1","title":"Hi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decodeBody(t, rec)["result"]; got != "missing_token" {
		t.Fatalf("expected result=missing_token, got %v", got)
	}
	if prov.SendCount() != 0 {
		t.Fatal("expected no delivery attempt")
	}
}

func TestRequestCreated_DeliveryFailureReturns502(t *testing.T) {
	router, _, prov := newTestRouter()
	prov.SendErr = errFailed{}

	rec := post(t, router, "/hooks/requests",
		`{"id":"req-1","recipientToken":"tokX"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

type errFailed struct{}

func (errFailed) Error() string { return "delivery failed" }

func TestMessageCreated(t *testing.T) {
	router, st, prov := newTestRouter()

	st.PutChat(&domain.Chat{
		ID:           "chat-1",
		Name:         "Team",
		IsGroupChat:  true,
		Participants: []string{"u1", "u2", "u3"},
	})
	st.PutUser(&domain.User{ID: "u1", Name: "Sam"})
	st.PutUser(&domain.User{ID: "u2", FCMToken: "t1", IsOnline: false})
	st.PutUser(&domain.User{ID: "u3", FCMToken: "t2", IsOnline: true})

	rec := post(t, router, "/hooks/chats/chat-1/messages",
		`{"id":"m1","senderId":"u1","type":"text","text":"hello"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["result"] != "dispatched" {
		t.Fatalf("expected result=dispatched, got %v", body["result"])
	}
	if body["recipients"] != float64(1) || body["sent"] != float64(1) || body["failed"] != float64(0) {
		t.Fatalf("unexpected summary: %v", body)
	}
	if prov.SendCount() != 1 {
		t.Fatalf("expected 1 delivery, got %d", prov.SendCount())
	}
}

func TestMessageCreated_ChatNotFound(t *testing.T) {
	router, _, prov := newTestRouter()

	rec := post(t, router, "/hooks/chats/missing/messages",
		`{"id":"m1","senderId":"u1","type":"text","text":"hello"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a consumed no-op event, got %d", rec.Code)
	}
	if got := decodeBody(t, rec)["result"]; got != "chat_not_found" {
		t.Fatalf("expected result=chat_not_found, got %v", got)
	}
	if prov.SendCount() != 0 {
		t.Fatal("expected no delivery attempt")
	}
}

func TestMessageCreated_SenderNotFound(t *testing.T) {
	router, st, prov := newTestRouter()

	st.PutChat(&domain.Chat{ID: "chat-1", Participants: []string{"u1", "u2"}})

	rec := post(t, router, "/hooks/chats/chat-1/messages",
		`{"id":"m1","senderId":"u1","type":"text","text":"hello"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decodeBody(t, rec)["result"]; got != "sender_not_found" {
		t.Fatalf("expected result=sender_not_found, got %v", got)
	}
	if prov.SendCount() != 0 {
		t.Fatal("expected no delivery attempt")
	}
}

func TestMessageCreated_MissingSenderID(t *testing.T) {
	router, _, _ := newTestRouter()

	rec := post(t, router, "/hooks/chats/chat-1/messages", `{"id":"m1","type":"text"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}
