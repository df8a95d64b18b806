package agent

import (
	"context"
	"errors"
	"sync"
	"testing"

	conversation "github.com/aria-vt/aria-core/core"
)

type scriptedClient struct {
	mu      sync.Mutex
	scripts [][]Chunk
	err     error
	calls   [][]ChatMessage
}

func (c *scriptedClient) ChatStream(_ context.Context, messages []ChatMessage) Stream {
	c.mu.Lock()
	c.calls = append(c.calls, messages)
	var script []Chunk
	if len(c.scripts) > 0 {
		script = c.scripts[0]
		c.scripts = c.scripts[1:]
	}
	err := c.err
	c.mu.Unlock()

	return func(yield func(Chunk, error) bool) {
		for _, chunk := range script {
			if !yield(chunk, nil) {
				return
			}
		}
		if err != nil {
			yield(Chunk{}, err)
		}
	}
}

func collect(t *testing.T, stream conversation.OutputStream) []conversation.Output {
	t.Helper()
	var outputs []conversation.Output
	for output, err := range stream {
		if err != nil {
			t.Fatalf("unexpected stream error: %v", err)
		}
		outputs = append(outputs, output)
	}
	return outputs
}

func TestChatSegmentsStreamedChunks(t *testing.T) {
	client := &scriptedClient{scripts: [][]Chunk{{
		{Content: "Hello the"},
		{Content: "re. How are "},
		{Content: "you?"},
	}}}
	a := New(client)

	outputs := collect(t, a.Chat(context.Background(), conversation.BatchInput{Text: "hi"}))

	if len(outputs) != 2 {
		t.Fatalf("expected 2 sentence units, got %d", len(outputs))
	}
	first, ok := outputs[0].(conversation.SentenceUnit)
	if !ok || first.DisplayText != "Hello there." {
		t.Fatalf("unexpected first unit %+v", outputs[0])
	}
	second, ok := outputs[1].(conversation.SentenceUnit)
	if !ok || second.DisplayText != " How are you?" {
		t.Fatalf("unexpected second unit %+v", outputs[1])
	}
}

func TestChatExtractsExpressionsAndCleansSynthesisText(t *testing.T) {
	client := &scriptedClient{scripts: [][]Chunk{{
		{Content: "[joy] That's *wonderful* news!"},
	}}}
	a := New(client)

	outputs := collect(t, a.Chat(context.Background(), conversation.BatchInput{Text: "I got the job"}))

	if len(outputs) != 1 {
		t.Fatalf("expected 1 unit, got %d", len(outputs))
	}
	unit := outputs[0].(conversation.SentenceUnit)
	if unit.DisplayText != "[joy] That's *wonderful* news!" {
		t.Fatalf("display text must keep cues, got %q", unit.DisplayText)
	}
	if unit.SynthesisText != "That's wonderful news!" {
		t.Fatalf("unexpected synthesis text %q", unit.SynthesisText)
	}
	if unit.Actions == nil || len(unit.Actions.Expressions) != 1 || unit.Actions.Expressions[0] != "joy" {
		t.Fatalf("expected joy expression, got %+v", unit.Actions)
	}
}

func TestChatNeverSurfacesReservedMarkerAsExpression(t *testing.T) {
	client := &scriptedClient{scripts: [][]Chunk{{
		{Content: "[web_search] latest go release"},
	}}}
	a := New(client)

	outputs := collect(t, a.Chat(context.Background(), conversation.BatchInput{Text: "search it"}))

	unit := outputs[0].(conversation.SentenceUnit)
	if unit.Actions != nil {
		t.Fatalf("reserved marker leaked as expression: %+v", unit.Actions)
	}
	if unit.SynthesisText != "latest go release" {
		t.Fatalf("expected marker stripped from speech, got %q", unit.SynthesisText)
	}
}

func TestChatForwardsToolCalls(t *testing.T) {
	client := &scriptedClient{scripts: [][]Chunk{{
		{ToolCall: &ToolCall{ID: "call-1", Name: "get_weather", Arguments: `{"city":"Zagreb"}`}},
		{Content: "Checking."},
	}}}
	a := New(client)

	outputs := collect(t, a.Chat(context.Background(), conversation.BatchInput{Text: "weather?"}))

	if len(outputs) != 2 {
		t.Fatalf("expected tool status and sentence, got %d outputs", len(outputs))
	}
	status, ok := outputs[0].(conversation.ToolStatusUnit)
	if !ok || status.Name != "get_weather" {
		t.Fatalf("unexpected first unit %+v", outputs[0])
	}
}

func TestChatCommitsResponseToMemory(t *testing.T) {
	client := &scriptedClient{scripts: [][]Chunk{
		{{Content: "Nice to meet you, Mira."}},
		{{Content: "You are Mira."}},
	}}
	a := New(client, WithSystemPrompt("You are a helpful companion."))

	collect(t, a.Chat(context.Background(), conversation.BatchInput{Text: "my name is Mira"}))
	collect(t, a.Chat(context.Background(), conversation.BatchInput{Text: "what's my name?"}))

	if len(client.calls) != 2 {
		t.Fatalf("expected 2 client calls, got %d", len(client.calls))
	}

	second := client.calls[1]
	want := []struct{ role, content string }{
		{RoleSystem, "You are a helpful companion."},
		{RoleUser, "my name is Mira"},
		{RoleAssistant, "Nice to meet you, Mira."},
		{RoleUser, "what's my name?"},
	}
	if len(second) != len(want) {
		t.Fatalf("expected %d messages, got %+v", len(want), second)
	}
	for i, w := range want {
		if second[i].Role != w.role || second[i].Content != w.content {
			t.Fatalf("message %d: expected %+v, got %+v", i, w, second[i])
		}
	}
}

func TestInterruptRecordsHeardTextOnly(t *testing.T) {
	client := &scriptedClient{scripts: [][]Chunk{
		{{Content: "First sentence. Second sentence that keeps going."}},
		{{Content: "Sorry about that."}},
	}}
	a := New(client)

	stream := a.Chat(context.Background(), conversation.BatchInput{Text: "tell me everything"})
	for range stream {
		break
	}
	a.Interrupt("First sentence.")

	collect(t, a.Chat(context.Background(), conversation.BatchInput{Text: "go on"}))

	second := client.calls[1]
	if len(second) != 4 {
		t.Fatalf("expected 4 messages, got %+v", second)
	}
	if second[1].Role != RoleAssistant || second[1].Content != "First sentence..." {
		t.Fatalf("expected truncated assistant message, got %+v", second[1])
	}
	if second[2].Role != RoleSystem {
		t.Fatalf("expected interruption note, got %+v", second[2])
	}
}

func TestChatSurfacesClientErrors(t *testing.T) {
	client := &scriptedClient{err: errors.New("connection reset")}
	a := New(client)

	var streamErr error
	for _, err := range a.Chat(context.Background(), conversation.BatchInput{Text: "hi"}) {
		if err != nil {
			streamErr = err
			break
		}
	}
	if streamErr == nil {
		t.Fatalf("expected stream error")
	}
}

func TestLoadMemoryReplacesWorkingMemory(t *testing.T) {
	client := &scriptedClient{scripts: [][]Chunk{{{Content: "Welcome back."}}}}
	a := New(client)
	a.Interrupt("stale")
	a.LoadMemory([]conversation.HistoryMessage{
		{Role: conversation.RoleUser, Content: "hello"},
		{Role: conversation.RoleAssistant, Content: "hi there"},
	})

	collect(t, a.Chat(context.Background(), conversation.BatchInput{Text: "I'm back"}))

	call := client.calls[0]
	if len(call) != 3 {
		t.Fatalf("expected restored history plus new input, got %+v", call)
	}
	if call[0].Content != "hello" || call[1].Content != "hi there" || call[2].Content != "I'm back" {
		t.Fatalf("unexpected prompt %+v", call)
	}
}
