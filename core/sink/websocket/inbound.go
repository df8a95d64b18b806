package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	inboundTextInput       = "text-input"
	inboundMicAudioData    = "mic-audio-data"
	inboundMicAudioEnd     = "mic-audio-end"
	inboundInterruptSignal = "interrupt-signal"
)

// inboundSchema rejects malformed client envelopes before they reach the
// orchestrator.
const inboundSchema = `{
	"type": "object",
	"required": ["type"],
	"properties": {
		"type": {"enum": ["text-input", "mic-audio-data", "mic-audio-end", "interrupt-signal"]},
		"text": {"type": "string"},
		"audio": {"type": "string"}
	},
	"allOf": [
		{
			"if": {"properties": {"type": {"const": "text-input"}}},
			"then": {"required": ["text"]}
		},
		{
			"if": {"properties": {"type": {"const": "mic-audio-data"}}},
			"then": {"required": ["audio"]}
		}
	]
}`

var inboundValidator = jsonschema.MustCompileString("inbound.json", inboundSchema)

type inboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
	// Audio is a base64-encoded PCM16 fragment.
	Audio string `json:"audio"`
}

func parseInbound(payload []byte) (inboundMessage, error) {
	var raw any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return inboundMessage{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := inboundValidator.Validate(raw); err != nil {
		return inboundMessage{}, fmt.Errorf("invalid message: %w", err)
	}

	var msg inboundMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return inboundMessage{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return msg, nil
}
