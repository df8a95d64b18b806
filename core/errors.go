package conversation

import "fmt"

// InputFormatError reports malformed turn input (e.g. odd-length PCM16
// audio). It aborts the turn before any agent call and is not fatal to the
// session.
type InputFormatError struct {
	Reason string
}

func (e *InputFormatError) Error() string {
	return fmt.Sprintf("invalid input format: %s", e.Reason)
}

// AsrError wraps a transcription backend failure. The turn is aborted but
// the session survives.
type AsrError struct {
	Err error
}

func (e *AsrError) Error() string { return fmt.Sprintf("speech recognition failed: %v", e.Err) }
func (e *AsrError) Unwrap() error { return e.Err }

// AgentStreamError wraps an exception raised mid-stream by the language
// agent. The turn is aborted at the point of failure; any partial response
// already accumulated is still persisted.
type AgentStreamError struct {
	Err error
}

func (e *AgentStreamError) Error() string { return fmt.Sprintf("agent stream failed: %v", e.Err) }
func (e *AgentStreamError) Unwrap() error { return e.Err }

// TtsError wraps a per-slot synthesis failure. It never aborts the turn; the
// affected slot is flushed as a silent caption instead.
type TtsError struct {
	Err error
}

func (e *TtsError) Error() string { return fmt.Sprintf("speech synthesis failed: %v", e.Err) }
func (e *TtsError) Unwrap() error { return e.Err }

// CommandHandlerError wraps a failure in the post-response command step. It
// is absorbed locally and substituted with a fallback utterance.
type CommandHandlerError struct {
	Err error
}

func (e *CommandHandlerError) Error() string { return fmt.Sprintf("command handler failed: %v", e.Err) }
func (e *CommandHandlerError) Unwrap() error { return e.Err }
