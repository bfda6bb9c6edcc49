// AngelaMos | 2026
// handler_test.go

package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/brasil-no-mundo/internal/config"
	"github.com/carterperez-dev/brasil-no-mundo/internal/core"
	"github.com/carterperez-dev/brasil-no-mundo/internal/domain"
	"github.com/carterperez-dev/brasil-no-mundo/internal/middleware"
)

type fakeSender struct {
	mu   sync.Mutex
	hub  *Hub
	sent []domain.ChatMessage
}

func (f *fakeSender) Send(
	_ context.Context,
	author, text string,
) (domain.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return domain.ChatMessage{}, core.ValidationError("text is required")
	}

	f.mu.Lock()
	msg := domain.ChatMessage{ID: int64(len(f.sent) + 1), Author: author, Text: text}
	f.sent = append(f.sent, msg)
	f.mu.Unlock()

	f.hub.Publish(TopicMessageNew, msg)
	return msg, nil
}

const (
	sessionCookie = "token"
	memberToken   = "member-token"
)

// sessionTable resolves tokens the way the auth service does: against the
// current user record, failing once the session is expired or revoked.
type sessionTable struct {
	mu       sync.Mutex
	sessions map[string]*middleware.AccessTokenClaims
	failures map[string]error
}

func newSessionTable() *sessionTable {
	return &sessionTable{
		sessions: map[string]*middleware.AccessTokenClaims{},
		failures: map[string]error{},
	}
}

func (s *sessionTable) set(token string, claims *middleware.AccessTokenClaims) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = claims
	delete(s.failures, token)
}

func (s *sessionTable) fail(token string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[token] = err
}

func (s *sessionTable) VerifyAccessToken(
	_ context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.failures[token]; ok {
		return nil, err
	}
	claims, ok := s.sessions[token]
	if !ok {
		return nil, core.ErrTokenInvalid
	}
	copied := *claims
	return &copied, nil
}

func newTestServer(
	t *testing.T,
	claims *middleware.AccessTokenClaims,
) (*httptest.Server, *Hub, *fakeSender, *sessionTable) {
	t.Helper()

	hub := NewHub(16, nil)
	sender := &fakeSender{hub: hub}
	sessions := newSessionTable()
	if claims != nil {
		sessions.set(memberToken, claims)
	}

	h := NewHandler(hub, sender, Session{
		Verifier: sessions,
		Cookie:   sessionCookie,
	}, config.RealtimeConfig{
		WriteTimeout: time.Second,
		PongTimeout:  5 * time.Second,
	}, nil, nil)

	srv := httptest.NewServer(middleware.OptionalAuth(sessions, sessionCookie)(h))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})

	return srv, hub, sender, sessions
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := http.Header{}
	header.Set("Cookie", sessionCookie+"="+memberToken)
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func waitForSubscribers(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return hub.Count() == n
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHandler_BroadcastsToAnonymousClient(t *testing.T) {
	srv, hub, _, _ := newTestServer(t, nil)
	conn := dial(t, srv)
	waitForSubscribers(t, hub, 1)

	hub.Publish(TopicPostApproved, map[string]int{"id": 7})

	ev := readEvent(t, conn)
	assert.Equal(t, string(TopicPostApproved), ev.Type)
	assert.JSONEq(t, `{"id":7}`, string(ev.Payload))
}

func TestHandler_AnonymousSendRejected(t *testing.T) {
	srv, hub, sender, _ := newTestServer(t, nil)
	conn := dial(t, srv)
	waitForSubscribers(t, hub, 1)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    FrameMessageSend,
		"payload": map[string]string{"text": "oi"},
	}))

	ev := readEvent(t, conn)
	assert.Equal(t, FrameError, ev.Type)

	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	assert.Equal(t, "UNAUTHORIZED", payload.Code)
	assert.Empty(t, sender.sent)
}

func TestHandler_AuthenticatedSendUsesSessionName(t *testing.T) {
	srv, hub, _, _ := newTestServer(t, &middleware.AccessTokenClaims{
		UserID: "u1",
		Name:   "Mariana",
		Role:   domain.RoleUser,
		Tier:   domain.TierFree,
	})
	conn := dial(t, srv)
	waitForSubscribers(t, hub, 1)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    FrameMessageSend,
		"payload": map[string]string{"author": "Someone Else", "text": "Olá!"},
	}))

	ev := readEvent(t, conn)
	require.Equal(t, string(TopicMessageNew), ev.Type)

	var msg domain.ChatMessage
	require.NoError(t, json.Unmarshal(ev.Payload, &msg))
	assert.Equal(t, "Mariana", msg.Author)
	assert.Equal(t, "Olá!", msg.Text)
}

func TestHandler_SendErrorIsReported(t *testing.T) {
	srv, hub, _, _ := newTestServer(t, &middleware.AccessTokenClaims{
		UserID: "u1",
		Name:   "Mariana",
	})
	conn := dial(t, srv)
	waitForSubscribers(t, hub, 1)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    FrameMessageSend,
		"payload": map[string]string{"text": "   "},
	}))

	ev := readEvent(t, conn)
	require.Equal(t, FrameError, ev.Type)

	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	assert.Equal(t, "VALIDATION_ERROR", payload.Code)
}

func sendText(t *testing.T, conn *websocket.Conn, text string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    FrameMessageSend,
		"payload": map[string]string{"text": text},
	}))
}

func TestHandler_SendUsesCurrentProfileName(t *testing.T) {
	srv, hub, _, sessions := newTestServer(t, &middleware.AccessTokenClaims{
		UserID: "u1",
		Name:   "Mariana",
	})
	conn := dial(t, srv)
	waitForSubscribers(t, hub, 1)

	sessions.set(memberToken, &middleware.AccessTokenClaims{
		UserID: "u1",
		Name:   "Mari Souza",
	})
	sendText(t, conn, "Oi de novo")

	ev := readEvent(t, conn)
	require.Equal(t, string(TopicMessageNew), ev.Type)

	var msg domain.ChatMessage
	require.NoError(t, json.Unmarshal(ev.Payload, &msg))
	assert.Equal(t, "Mari Souza", msg.Author)
}

func TestHandler_EndedSessionClosesSocket(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "revoked", err: core.ErrTokenRevoked},
		{name: "expired", err: core.ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, hub, sender, sessions := newTestServer(t, &middleware.AccessTokenClaims{
				UserID: "u1",
				Name:   "Mariana",
			})
			conn := dial(t, srv)
			waitForSubscribers(t, hub, 1)

			sendText(t, conn, "antes")
			require.Equal(t, string(TopicMessageNew), readEvent(t, conn).Type)

			sessions.fail(memberToken, tt.err)
			sendText(t, conn, "depois")

			ev := readEvent(t, conn)
			require.Equal(t, FrameError, ev.Type)
			var payload ErrorPayload
			require.NoError(t, json.Unmarshal(ev.Payload, &payload))
			assert.Equal(t, "UNAUTHORIZED", payload.Code)

			require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
			_, _, err := conn.ReadMessage()
			assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)

			waitForSubscribers(t, hub, 0)

			sender.mu.Lock()
			defer sender.mu.Unlock()
			assert.Len(t, sender.sent, 1)
		})
	}
}

func TestHandler_DisconnectUnsubscribes(t *testing.T) {
	srv, hub, _, _ := newTestServer(t, nil)
	conn := dial(t, srv)
	waitForSubscribers(t, hub, 1)

	require.NoError(t, conn.Close())
	waitForSubscribers(t, hub, 0)
}

func TestCheckOrigin(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://api.example.com/api/realtime", nil)
	assert.True(t, checkOrigin(r, nil))

	r.Header.Set("Origin", "http://api.example.com")
	assert.True(t, checkOrigin(r, nil))

	r.Header.Set("Origin", "https://evil.example")
	assert.False(t, checkOrigin(r, []string{"https://app.example"}))

	r.Header.Set("Origin", "https://app.example")
	assert.True(t, checkOrigin(r, []string{"https://app.example"}))
}
