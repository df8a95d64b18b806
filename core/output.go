package conversation

import "encoding/json"

// BatchInput is one prepared request to the language agent.
type BatchInput struct {
	Text     string
	Images   []Image
	FromName string
}

// Image is auxiliary visual input attached to a turn (camera frame,
// screenshot, upload). Data holds the raw image bytes.
type Image struct {
	Source   string
	Data     []byte
	MimeType string
}

// Output is a single structured unit produced by the language agent. It is a
// closed union: exactly SentenceUnit, AudioUnit or ToolStatusUnit.
type Output interface {
	outputUnit()
}

// SentenceUnit is one speakable sentence. DisplayText is shown to the user
// and accumulated into the turn response; SynthesisText is what gets spoken
// (display markers stripped, possibly translated downstream).
type SentenceUnit struct {
	DisplayText   string
	SynthesisText string
	Actions       *Actions
}

// AudioUnit is pre-rendered audio from the agent, bypassing synthesis. It
// still occupies an ordering slot so it cannot overtake earlier sentences.
type AudioUnit struct {
	Audio       AudioHandle
	DisplayText string
	Transcript  string
	Actions     *Actions
}

// ToolStatusUnit is an out-of-band tool progress report, forwarded to the
// client immediately without an ordering slot.
type ToolStatusUnit struct {
	Name    string
	Payload json.RawMessage
}

func (SentenceUnit) outputUnit()   {}
func (AudioUnit) outputUnit()      {}
func (ToolStatusUnit) outputUnit() {}

// Actions carries presentation hints extracted from the response (avatar
// expressions and similar), passed through to the client untouched.
type Actions struct {
	Expressions []string `json:"expressions,omitempty"`
}
