package websocket

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"slices"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"

	conversation "github.com/aria-vt/aria-core/core"
)

// Handler accepts client websocket connections and runs one conversation
// session per connection.
type Handler struct {
	orchestrator *conversation.Orchestrator
	upgrader     websocket.Upgrader

	// onSessionStart runs after the session is created, before the first
	// message is read. Used to restore agent memory from history.
	onSessionStart func(ctx context.Context, sessionID string)
}

type HandlerOption func(*Handler)

func WithSessionStartHook(hook func(ctx context.Context, sessionID string)) HandlerOption {
	return func(h *Handler) {
		h.onSessionStart = hook
	}
}

func NewHandler(orchestrator *conversation.Orchestrator, opts ...HandlerOption) *Handler {
	h := &Handler{
		orchestrator: orchestrator,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	ctx, span := tracer.Start(r.Context(), "client session")
	defer span.End()

	// Clients that want their history back across reconnects pass a stable
	// session id; everyone else gets a fresh one.
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	span.SetAttributes(attribute.String("session.id", sessionID))
	session := conversation.NewSession(sessionID, NewSink(conn))
	logger.Info("client session started", "session", sessionID)

	if h.onSessionStart != nil {
		h.onSessionStart(ctx, sessionID)
	}

	h.readLoop(session, conn)

	// The connection is gone; stop whatever is still speaking into it.
	session.CancelActiveTurn()
	logger.Info("client session ended", "session", sessionID)
}

func (h *Handler) readLoop(session *conversation.Session, conn *websocket.Conn) {
	sink := NewSink(conn)
	var audioBuf bytes.Buffer

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("failed to read client message", "session", session.ID, "error", err)
			}
			return
		}

		msg, err := parseInbound(payload)
		if err != nil {
			logger.Warn("rejected client message", "session", session.ID, "error", err)
			sink.Send(conversation.NewErrorMessage(err.Error()))
			continue
		}

		switch msg.Type {
		case inboundInterruptSignal:
			session.CancelActiveTurn()

		case inboundTextInput:
			h.runTurn(session, conversation.Input{Text: msg.Text})

		case inboundMicAudioData:
			decoded, err := base64.StdEncoding.DecodeString(msg.Audio)
			if err != nil {
				logger.Warn("rejected undecodable audio fragment", "session", session.ID, "error", err)
				sink.Send(conversation.NewErrorMessage("audio fragment is not valid base64"))
				continue
			}
			audioBuf.Write(decoded)

		case inboundMicAudioEnd:
			audio := slices.Clone(audioBuf.Bytes())
			audioBuf.Reset()
			h.runTurn(session, conversation.Input{Audio: audio})
		}
	}
}

// runTurn starts the turn without blocking the read loop, so an interrupt
// can still come through while the agent is speaking.
func (h *Handler) runTurn(session *conversation.Session, input conversation.Input) {
	go func() {
		if _, err := h.orchestrator.RunTurn(context.Background(), session, input); err != nil {
			logger.Warn("turn ended with error", "session", session.ID, "error", err)
		}
	}()
}
