package websocket

import "testing"

func TestParseInboundAcceptsValidEnvelopes(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		msgType string
	}{
		{"text input", `{"type":"text-input","text":"hello"}`, inboundTextInput},
		{"audio fragment", `{"type":"mic-audio-data","audio":"AAAA"}`, inboundMicAudioData},
		{"audio end", `{"type":"mic-audio-end"}`, inboundMicAudioEnd},
		{"interrupt", `{"type":"interrupt-signal"}`, inboundInterruptSignal},
	}

	for _, tc := range cases {
		msg, err := parseInbound([]byte(tc.payload))
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if msg.Type != tc.msgType {
			t.Fatalf("%s: expected type %q, got %q", tc.name, tc.msgType, msg.Type)
		}
	}
}

func TestParseInboundRejectsMalformedEnvelopes(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"not json", `not json`},
		{"missing type", `{"text":"hello"}`},
		{"unknown type", `{"type":"dance"}`},
		{"text input without text", `{"type":"text-input"}`},
		{"audio fragment without audio", `{"type":"mic-audio-data"}`},
		{"wrong field type", `{"type":"text-input","text":42}`},
	}

	for _, tc := range cases {
		if _, err := parseInbound([]byte(tc.payload)); err == nil {
			t.Fatalf("%s: expected rejection", tc.name)
		}
	}
}
