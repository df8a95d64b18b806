package conversation

import "encoding/json"

type MessageType string

const (
	MessageTypeControl       MessageType = "control"
	MessageTypeTranscription MessageType = "user-input-transcription"
	MessageTypeAudio         MessageType = "audio"
	MessageTypeToolStatus    MessageType = "tool_call_status"
	MessageTypeError         MessageType = "error"
)

const (
	ControlConversationChainStart = "conversation-chain-start"
	ControlConversationChainEnd   = "conversation-chain-end"
)

// Message is the envelope sent to the client through an OutputSink. Fields
// are populated per type; unused fields are omitted on the wire.
type Message struct {
	Type MessageType `json:"type"`

	// Text carries control tokens and transcriptions.
	Text string `json:"text,omitempty"`

	// Audio references playable audio for audio messages. Nil means a
	// silent payload: the caption is displayed but nothing is played.
	Audio       *string  `json:"audio,omitempty"`
	DisplayText string   `json:"display_text,omitempty"`
	Actions     *Actions `json:"actions,omitempty"`
	// DurationMS is set only by producers that know the clip length up
	// front; zero means the client derives it from the decoded audio.
	DurationMS int `json:"duration_ms,omitempty"`

	// Name and Payload carry tool status passthrough.
	Name    string          `json:"name,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`

	// ErrorMessage is the human-readable error description.
	ErrorMessage string `json:"message,omitempty"`
}

func newControlMessage(text string) Message {
	return Message{Type: MessageTypeControl, Text: text}
}

func newTranscriptionMessage(text string) Message {
	return Message{Type: MessageTypeTranscription, Text: text}
}

func newAudioMessage(audio *string, displayText string, actions *Actions) Message {
	return Message{
		Type:        MessageTypeAudio,
		Audio:       audio,
		DisplayText: displayText,
		Actions:     actions,
	}
}

func newToolStatusMessage(unit ToolStatusUnit) Message {
	return Message{Type: MessageTypeToolStatus, Name: unit.Name, Payload: unit.Payload}
}

// NewErrorMessage is exported for transports that need to report protocol
// errors on the same envelope.
func NewErrorMessage(text string) Message {
	return Message{Type: MessageTypeError, ErrorMessage: text}
}
