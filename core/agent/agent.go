package agent

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"sync"

	conversation "github.com/aria-vt/aria-core/core"
)

// MemoryAgent wraps an LLMClient with conversational working memory and
// turns its raw chunk stream into speakable sentence units. It implements
// the orchestrator's language agent port.
type MemoryAgent struct {
	client LLMClient

	mu           sync.Mutex
	systemPrompt string
	messages     []ChatMessage
}

type Option func(*MemoryAgent)

func WithSystemPrompt(prompt string) Option {
	return func(a *MemoryAgent) {
		a.systemPrompt = prompt
	}
}

func New(client LLMClient, opts ...Option) *MemoryAgent {
	a := &MemoryAgent{client: client}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Chat records the input in memory and returns a lazy stream of output
// units. The response is committed to memory only when the stream is
// consumed to its end; an abandoned stream leaves memory to Interrupt.
func (a *MemoryAgent) Chat(ctx context.Context, input conversation.BatchInput) conversation.OutputStream {
	a.mu.Lock()
	a.messages = append(a.messages, ChatMessage{Role: RoleUser, Content: input.Text, Images: input.Images})
	snapshot := a.promptMessages()
	a.mu.Unlock()

	return func(yield func(conversation.Output, error) bool) {
		ctx, span := tracer.Start(ctx, "agent chat")
		defer span.End()

		var (
			seg      segmenter
			response strings.Builder
		)

		for chunk, err := range a.client.ChatStream(ctx, snapshot) {
			if err != nil {
				span.RecordError(err)
				yield(nil, err)
				return
			}

			if chunk.ToolCall != nil {
				if !yield(toolStatusUnit(*chunk.ToolCall), nil) {
					return
				}
				continue
			}

			response.WriteString(chunk.Content)
			for _, sentenceText := range seg.Feed(chunk.Content) {
				if !yield(sentenceUnit(sentenceText), nil) {
					return
				}
			}
		}

		if sentenceText, ok := seg.Flush(); ok {
			if !yield(sentenceUnit(sentenceText), nil) {
				return
			}
		}

		a.mu.Lock()
		a.messages = append(a.messages, ChatMessage{Role: RoleAssistant, Content: response.String()})
		a.mu.Unlock()
	}
}

// Interrupt rewrites memory to reflect what the user actually heard, so the
// next turn's context does not contain unspoken text.
func (a *MemoryAgent) Interrupt(heardText string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.messages = append(a.messages,
		ChatMessage{Role: RoleAssistant, Content: strings.TrimRight(heardText, " .") + "..."},
		ChatMessage{Role: RoleSystem, Content: "[The user interrupted you before you finished speaking.]"},
	)
}

func (a *MemoryAgent) ResetMemory() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = nil
}

// LoadMemory replaces working memory with persisted history.
func (a *MemoryAgent) LoadMemory(history []conversation.HistoryMessage) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.messages = make([]ChatMessage, 0, len(history))
	for _, msg := range history {
		a.messages = append(a.messages, ChatMessage{Role: msg.Role, Content: msg.Content})
	}
}

func (a *MemoryAgent) promptMessages() []ChatMessage {
	messages := make([]ChatMessage, 0, len(a.messages)+1)
	if a.systemPrompt != "" {
		messages = append(messages, ChatMessage{Role: RoleSystem, Content: a.systemPrompt})
	}
	return append(messages, a.messages...)
}

// expressionTag matches bracketed cue tokens like [joy] embedded in the
// model's text.
var expressionTag = regexp.MustCompile(`\[([a-z_]+)\]`)

// reservedTags are markers with orchestration meaning; they are never
// surfaced as expressions.
var reservedTags = map[string]bool{"web_search": true}

func sentenceUnit(text string) conversation.SentenceUnit {
	var expressions []string
	for _, match := range expressionTag.FindAllStringSubmatch(text, -1) {
		if !reservedTags[match[1]] {
			expressions = append(expressions, match[1])
		}
	}

	var actions *conversation.Actions
	if len(expressions) > 0 {
		actions = &conversation.Actions{Expressions: expressions}
	}

	return conversation.SentenceUnit{
		DisplayText:   text,
		SynthesisText: cleanForSynthesis(text),
		Actions:       actions,
	}
}

// cleanForSynthesis strips everything that reads fine but speaks badly:
// bracketed cues and emphasis asterisks.
func cleanForSynthesis(text string) string {
	cleaned := expressionTag.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, "*", "")
	return strings.TrimSpace(cleaned)
}

func toolStatusUnit(call ToolCall) conversation.ToolStatusUnit {
	payload, err := json.Marshal(map[string]string{"id": call.ID, "arguments": call.Arguments})
	if err != nil {
		payload = nil
	}
	return conversation.ToolStatusUnit{Name: call.Name, Payload: payload}
}
