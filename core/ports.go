package conversation

import "context"

// SpeechToText transcribes a complete user utterance. The audio is expected
// to be mono PCM16 at InputSampleRate.
type SpeechToText interface {
	Transcribe(ctx context.Context, pcm16 []byte) (string, error)
}

// OutputStream is a lazy, pull-driven sequence of structured agent outputs.
// Consumption stops when the consumer returns false from yield; producers
// must also honor ctx cancellation between units.
type OutputStream func(yield func(Output, error) bool)

// LanguageAgent is the conversational model behind a session. Chat returns
// the agent's response as an ordered stream of output units; the order units
// are produced in defines delivery order downstream.
type LanguageAgent interface {
	Chat(ctx context.Context, input BatchInput) OutputStream

	// Interrupt tells the agent how much of its response the user actually
	// heard before cutting it off, so its memory reflects reality.
	Interrupt(heardText string)

	ResetMemory()
	LoadMemory(messages []HistoryMessage)
}

// Translator rewrites synthesis text into the spoken-output language. A nil
// Translator means passthrough.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// AudioHandle references one synthesized (or pre-rendered) piece of audio
// held by a SpeechSynthesizer until released. The concrete value is
// synthesizer-defined (typically a cache file path).
type AudioHandle string

// SpeechSynthesizer turns one unit of text into audio. Synthesize may be
// called concurrently for many units of the same turn; Release must be safe
// to call exactly once per handle.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) (AudioHandle, error)
	Release(handle AudioHandle) error
}

// HistoryStore persists finished conversation messages. The core only ever
// appends; reading history back for session reattach is the caller's
// concern.
type HistoryStore interface {
	Append(ctx context.Context, sessionID, turnID, role, content string) error
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// HistoryMessage is a prior message handed to LanguageAgent.LoadMemory on
// session reattach.
type HistoryMessage struct {
	Role    string
	Content string
}

// CommandHandler executes a side-effect command (e.g. a web search) found in
// the agent's response. A nil result with nil error means the command
// produced nothing to report.
type CommandHandler interface {
	Invoke(ctx context.Context, command string) (*CommandResult, error)
}

type CommandResult struct {
	Results []SearchResult
}

type SearchResult struct {
	Title string
	Body  string
}

// OutputSink is the ordered, reliable channel back to the client. The core
// assumes the underlying transport preserves send order; Send must not call
// back into the orchestrator.
type OutputSink interface {
	Send(msg Message) error
}
