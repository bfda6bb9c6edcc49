// AngelaMos | 2026
// handler.go

package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/carterperez-dev/brasil-no-mundo/internal/config"
	"github.com/carterperez-dev/brasil-no-mundo/internal/core"
	"github.com/carterperez-dev/brasil-no-mundo/internal/domain"
	"github.com/carterperez-dev/brasil-no-mundo/internal/middleware"
)

// ChatSender appends a chat message on behalf of a connected member.
type ChatSender interface {
	Send(ctx context.Context, author, text string) (domain.ChatMessage, error)
}

// Session re-checks the connecting member's token on every send, so expiry,
// revocation and profile changes apply to sockets that are already open.
type Session struct {
	Verifier middleware.TokenVerifier
	Cookie   string
}

type outbound struct {
	frame []byte
	last  bool
}

type Handler struct {
	hub      *Hub
	sender   ChatSender
	session  Session
	upgrader websocket.Upgrader
	cfg      config.RealtimeConfig
	logger   *slog.Logger
}

func NewHandler(
	hub *Hub,
	sender ChatSender,
	session Session,
	cfg config.RealtimeConfig,
	allowedOrigins []string,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = 60 * time.Second
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 8192
	}

	return &Handler{
		hub:     hub,
		sender:  sender,
		session: session,
		cfg:     cfg,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return checkOrigin(r, allowedOrigins)
			},
		},
	}
}

// checkOrigin accepts clients without an Origin header, same-host pages and
// the configured CORS origins.
func checkOrigin(r *http.Request, allowed []string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if middleware.OriginAllowed(allowed, origin) {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var token string
	if middleware.IsAuthenticated(r.Context()) {
		token = middleware.ExtractToken(r, h.session.Cookie)
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	sub := h.hub.Subscribe()
	replies := make(chan outbound, 8)

	h.logger.Debug("realtime client connected",
		"subscriber", sub.ID,
		"authenticated", token != "",
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(ctx, conn, sub, replies)
	}()

	if ended := h.readPump(ctx, conn, token, replies); ended {
		<-done
	}

	cancel()
	sub.Close()
	<-done

	h.logger.Debug("realtime client disconnected", "subscriber", sub.ID)
}

// readPump returns true when it ended the session itself and queued a
// final frame for the writer.
func (h *Handler) readPump(
	ctx context.Context,
	conn *websocket.Conn,
	token string,
	replies chan<- outbound,
) bool {
	conn.SetReadLimit(h.cfg.MaxMessageSize)
	//nolint:errcheck // deadline errors surface on the next read
	_ = conn.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(
				err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
			) {
				h.logger.Debug("websocket read failed", "error", err)
			}
			return false
		}

		var frame Event
		if err := json.Unmarshal(data, &frame); err != nil {
			h.reply(ctx, replies, errorFrame("INVALID_FRAME", "malformed frame"))
			continue
		}

		switch frame.Type {
		case FrameMessageSend:
			if !h.handleSend(ctx, token, frame.Payload, replies) {
				return true
			}
		default:
			h.reply(ctx, replies, errorFrame("UNKNOWN_FRAME", "unsupported frame type"))
		}
	}
}

// handleSend reports false when the connection's session is no longer
// valid and the socket must be closed.
func (h *Handler) handleSend(
	ctx context.Context,
	token string,
	raw json.RawMessage,
	replies chan<- outbound,
) bool {
	if token == "" {
		h.reply(ctx, replies, errorFrame("UNAUTHORIZED", "login required to send messages"))
		return true
	}

	claims, err := h.session.Verifier.VerifyAccessToken(ctx, token)
	if err != nil {
		h.logger.Debug("realtime session rejected", "error", err)
		h.finish(ctx, replies, errorFrame("UNAUTHORIZED", "session expired or revoked"))
		return false
	}

	var payload SendPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.reply(ctx, replies, errorFrame("INVALID_FRAME", "malformed payload"))
		return true
	}

	if _, err := h.sender.Send(ctx, claims.Name, payload.Text); err != nil {
		var appErr *core.AppError
		if errors.As(err, &appErr) {
			h.reply(ctx, replies, errorFrame(appErr.Code, appErr.Message))
			return true
		}
		h.logger.Error("realtime chat send failed", "error", err)
		h.reply(ctx, replies, errorFrame("INTERNAL_ERROR", "message not sent"))
	}
	return true
}

func (h *Handler) reply(ctx context.Context, replies chan<- outbound, frame []byte) {
	select {
	case replies <- outbound{frame: frame}:
	case <-ctx.Done():
	}
}

func (h *Handler) finish(ctx context.Context, replies chan<- outbound, frame []byte) {
	select {
	case replies <- outbound{frame: frame, last: true}:
	case <-ctx.Done():
	}
}

func (h *Handler) writePump(
	ctx context.Context,
	conn *websocket.Conn,
	sub *Subscription,
	replies <-chan outbound,
) {
	ticker := time.NewTicker(h.cfg.PongTimeout * 9 / 10)
	defer func() {
		ticker.Stop()
		//nolint:errcheck // connection is being torn down
		_ = conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			h.writeClose(conn)
			return

		case frame, ok := <-sub.Events():
			if !ok {
				h.writeClose(conn)
				return
			}
			if err := h.write(conn, websocket.TextMessage, frame); err != nil {
				return
			}

		case out := <-replies:
			if err := h.write(conn, websocket.TextMessage, out.frame); err != nil {
				return
			}
			if out.last {
				h.writeCloseCode(conn, websocket.ClosePolicyViolation, "session ended")
				return
			}

		case <-ticker.C:
			if err := h.write(conn, websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) write(conn *websocket.Conn, messageType int, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(messageType, data)
}

func (h *Handler) writeClose(conn *websocket.Conn) {
	h.writeCloseCode(conn, websocket.CloseNormalClosure, "")
}

func (h *Handler) writeCloseCode(conn *websocket.Conn, code int, text string) {
	//nolint:errcheck // best-effort close frame
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, text),
		time.Now().Add(h.cfg.WriteTimeout),
	)
}

func errorFrame(code, message string) []byte {
	event, err := NewEvent(FrameError, ErrorPayload{Code: code, Message: message})
	if err != nil {
		return nil
	}
	frame, err := json.Marshal(event)
	if err != nil {
		return nil
	}
	return frame
}
