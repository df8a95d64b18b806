package websocket

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/gorilla/websocket"

	conversation "github.com/aria-vt/aria-core/core"
)

// Sink delivers orchestrator messages over a websocket connection. Writes
// are serialized; gorilla connections do not allow concurrent writers.
type Sink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func NewSink(conn *websocket.Conn) *Sink {
	return &Sink{conn: conn}
}

// Send writes one message to the client. Audio references name server-local
// cache files that are deleted as soon as Send returns, so the payload
// carries the encoded bytes instead of the reference.
func (s *Sink) Send(msg conversation.Message) error {
	if msg.Type == conversation.MessageTypeAudio && msg.Audio != nil {
		data, err := os.ReadFile(*msg.Audio)
		if err != nil {
			logger.Warn("failed to read audio for payload, sending caption only", "ref", *msg.Audio, "error", err)
			msg.Audio = nil
		} else {
			encoded := base64.StdEncoding.EncodeToString(data)
			msg.Audio = &encoded
		}
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("error marshalling JSON: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("failed to write to client: %w", err)
	}
	return nil
}
