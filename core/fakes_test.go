package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

type recordingSink struct {
	mu       sync.Mutex
	messages []Message
}

func (s *recordingSink) Send(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *recordingSink) all() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *recordingSink) byType(messageType MessageType) []Message {
	var out []Message
	for _, msg := range s.all() {
		if msg.Type == messageType {
			out = append(out, msg)
		}
	}
	return out
}

type fakeSynth struct {
	mu       sync.Mutex
	delays   map[string]time.Duration
	failOn   map[string]bool
	calls    []string
	released map[AudioHandle]int
	counter  int
}

func newFakeSynth() *fakeSynth {
	return &fakeSynth{
		delays:   map[string]time.Duration{},
		failOn:   map[string]bool{},
		released: map[AudioHandle]int{},
	}
}

func (f *fakeSynth) Synthesize(_ context.Context, text string) (AudioHandle, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.counter++
	handle := AudioHandle(fmt.Sprintf("audio-%d", f.counter))
	delay := f.delays[text]
	fail := f.failOn[text]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if fail {
		return "", errors.New("synthesis backend unavailable")
	}
	return handle, nil
}

func (f *fakeSynth) Release(handle AudioHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released[handle]++
	return nil
}

func (f *fakeSynth) releaseCounts() map[AudioHandle]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[AudioHandle]int, len(f.released))
	for handle, count := range f.released {
		out[handle] = count
	}
	return out
}

func (f *fakeSynth) synthCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// scriptedAgent replays a per-call script; chat receives the 1-based call
// number so tests can script nested sub-turns.
type scriptedAgent struct {
	mu         sync.Mutex
	callCount  int
	chat       func(call int, input BatchInput) OutputStream
	inputs     []BatchInput
	interrupts []string
}

func (a *scriptedAgent) Chat(_ context.Context, input BatchInput) OutputStream {
	a.mu.Lock()
	a.callCount++
	call := a.callCount
	a.inputs = append(a.inputs, input)
	chat := a.chat
	a.mu.Unlock()

	if chat == nil {
		return streamOf()
	}
	return chat(call, input)
}

func (a *scriptedAgent) Interrupt(heardText string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.interrupts = append(a.interrupts, heardText)
}

func (a *scriptedAgent) ResetMemory() {}

func (a *scriptedAgent) LoadMemory(_ []HistoryMessage) {}

func (a *scriptedAgent) interruptCalls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.interrupts))
	copy(out, a.interrupts)
	return out
}

func (a *scriptedAgent) chatInputs() []BatchInput {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]BatchInput, len(a.inputs))
	copy(out, a.inputs)
	return out
}

func streamOf(outputs ...Output) OutputStream {
	return func(yield func(Output, error) bool) {
		for _, output := range outputs {
			if !yield(output, nil) {
				return
			}
		}
	}
}

func sentence(text string) SentenceUnit {
	return SentenceUnit{DisplayText: text, SynthesisText: text}
}

type fakeASR struct {
	text string
	err  error
}

func (f *fakeASR) Transcribe(_ context.Context, _ []byte) (string, error) {
	return f.text, f.err
}

type historyEntry struct {
	sessionID string
	turnID    string
	role      string
	content   string
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []historyEntry
}

func (h *fakeHistory) Append(_ context.Context, sessionID, turnID, role, content string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, historyEntry{sessionID, turnID, role, content})
	return nil
}

func (h *fakeHistory) appended() []historyEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]historyEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

type fakeCommands struct {
	mu       sync.Mutex
	commands []string
	result   *CommandResult
	err      error
}

func (c *fakeCommands) Invoke(_ context.Context, command string) (*CommandResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands = append(c.commands, command)
	return c.result, c.err
}

func (c *fakeCommands) invoked() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.commands))
	copy(out, c.commands)
	return out
}

type prefixTranslator struct{}

func (prefixTranslator) Translate(_ context.Context, text string) (string, error) {
	return "translated:" + text, nil
}
