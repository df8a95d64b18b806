package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"

	conversation "github.com/aria-vt/aria-core/core"
)

const listenEndpoint = "wss://api.deepgram.com/v1/listen"

// writeChunkSize keeps individual websocket frames small enough for
// Deepgram's streaming intake.
const writeChunkSize = 8192

// TranscriptionClient transcribes finished utterances by replaying them over
// Deepgram's streaming endpoint and collecting the final results.
type TranscriptionClient struct {
	apiKey   string
	model    string
	language string
}

type Option func(*TranscriptionClient)

func WithModel(model string) Option {
	return func(c *TranscriptionClient) {
		c.model = model
	}
}

func WithLanguage(language string) Option {
	return func(c *TranscriptionClient) {
		c.language = language
	}
}

func New(apiKey string, opts ...Option) *TranscriptionClient {
	c := &TranscriptionClient{
		apiKey:   apiKey,
		model:    "nova-3",
		language: "en-US",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcribe sends audio, mono PCM16 at the orchestrator's input sample
// rate, and returns the complete transcript.
func (c *TranscriptionClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	ctx, span := tracer.Start(ctx, "transcribe utterance")
	defer span.End()
	span.SetAttributes(attribute.Int("request.audio_bytes", len(audio)))

	conn, err := c.connect(ctx)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	defer conn.Close()

	for start := 0; start < len(audio); start += writeChunkSize {
		end := min(start+writeChunkSize, len(audio))
		if err := conn.WriteMessage(websocket.BinaryMessage, audio[start:end]); err != nil {
			err = fmt.Errorf("failed to write audio to deepgram: %w", err)
			span.RecordError(err)
			return "", err
		}
	}

	if err := conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		err = fmt.Errorf("failed to close deepgram stream: %w", err)
		span.RecordError(err)
		return "", err
	}

	transcript, err := c.collectTranscript(conn)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	span.SetAttributes(attribute.Int("response.transcript_length", len(transcript)))
	return transcript, nil
}

func (c *TranscriptionClient) connect(ctx context.Context) (*websocket.Conn, error) {
	listenURL, _ := url.Parse(listenEndpoint)
	queryParams := listenURL.Query()
	queryParams.Set("encoding", "linear16")
	queryParams.Set("sample_rate", strconv.Itoa(conversation.InputSampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", c.model)
	queryParams.Set("language", c.language)
	queryParams.Set("smart_format", "true")
	listenURL.RawQuery = queryParams.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, listenURL.String(),
		http.Header{"Authorization": {"Token " + c.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}
	return conn, nil
}

// messageReader is the read half of a websocket connection.
type messageReader interface {
	ReadMessage() (int, []byte, error)
}

func (c *TranscriptionClient) collectTranscript(conn messageReader) (string, error) {
	var transcript strings.Builder

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				break
			}
			return "", fmt.Errorf("failed to read deepgram message: %w", err)
		}
		if msgType == websocket.BinaryMessage {
			continue
		}

		var parsedMsg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &parsedMsg); err != nil {
			logger.Warn("failed to unmarshal deepgram message", "error", err)
			continue
		}

		// The SDK declares its response-type constants across two packages,
		// so the comparison is done on the raw strings.
		switch parsedMsg.Type {
		case string(api.TypeMessageResponse):
			var msgResp api.MessageResponse
			if err := json.Unmarshal(msg, &msgResp); err != nil {
				logger.Warn("failed to unmarshal deepgram transcript message", "error", err)
				continue
			}
			if msgResp.IsFinal && len(msgResp.Channel.Alternatives) > 0 {
				piece := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
				if piece != "" {
					if transcript.Len() > 0 {
						transcript.WriteString(" ")
					}
					transcript.WriteString(piece)
				}
			}

		case string(api.TypeErrorResponse):
			var errResp api.ErrorResponse
			if err := json.Unmarshal(msg, &errResp); err != nil {
				return "", fmt.Errorf("deepgram reported an unparseable error")
			}
			return "", fmt.Errorf("deepgram error: %s", errResp.Description)

		case string(api.TypeMetadataResponse):
			// Metadata closes out the request once the buffer is drained.
			return transcript.String(), nil
		}
	}

	return transcript.String(), nil
}
