package conversation

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	// InputSampleRate is the agreed sample rate for turn audio input.
	InputSampleRate = 16000
	// InputSampleBytes is the width of one PCM16 sample.
	InputSampleBytes = 2
)

// Input is the raw material for one turn: exactly one of Text or Audio is
// set, immutable once the turn starts.
type Input struct {
	Text string
	// Audio is mono PCM16 at InputSampleRate.
	Audio  []byte
	Images []Image
}

func (in Input) validate() error {
	hasText := in.Text != ""
	hasAudio := len(in.Audio) > 0

	switch {
	case !hasText && !hasAudio:
		return &InputFormatError{Reason: "empty input"}
	case hasText && hasAudio:
		return &InputFormatError{Reason: "both text and audio provided"}
	case hasAudio && len(in.Audio)%InputSampleBytes != 0:
		return &InputFormatError{Reason: "audio is not 16-bit aligned"}
	}

	return nil
}

// CancelToken is the cooperative cancellation handle owned by one turn.
// Cancel is idempotent; IsCancelled is polled at suspension points.
type CancelToken struct {
	once sync.Once
	done chan struct{}
}

func newCancelToken() *CancelToken {
	return &CancelToken{done: make(chan struct{})}
}

func (t *CancelToken) Cancel() {
	t.once.Do(func() { close(t.done) })
}

func (t *CancelToken) IsCancelled() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *CancelToken) Done() <-chan struct{} { return t.done }

// Turn is one request/response cycle. It is created when the orchestrator
// accepts new input and released in finalize; a session holds at most one
// live Turn at any instant.
type Turn struct {
	ID    string
	token *CancelToken
	input Input

	// accumulated is appended to only by the goroutine running the turn.
	accumulated strings.Builder
	// nextSlot assigns ordering slots in production order, 0-based.
	nextSlot int

	// finished closes when the turn's finalize phase completed.
	finished chan struct{}
}

func newTurn(input Input) *Turn {
	return &Turn{
		ID:       uuid.NewString(),
		token:    newCancelToken(),
		input:    input,
		finished: make(chan struct{}),
	}
}

func (t *Turn) Cancel()             { t.token.Cancel() }
func (t *Turn) Token() *CancelToken { return t.token }

func (t *Turn) nextSlotIndex() int {
	index := t.nextSlot
	t.nextSlot++
	return index
}

// withCancelHook runs onCancel as soon as the token is cancelled, unless the
// returned channel is closed first.
func withCancelHook(token *CancelToken, onCancel func()) chan struct{} {
	done := make(chan struct{})
	go func() {
		select {
		case <-token.Done():
			onCancel()
		case <-done:
		}
	}()
	return done
}
