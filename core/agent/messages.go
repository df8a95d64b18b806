package agent

import (
	"context"

	conversation "github.com/aria-vt/aria-core/core"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry in the agent's working memory, in the shape LLM
// chat APIs expect.
type ChatMessage struct {
	Role    string
	Content string
	Images  []conversation.Image
}

// ToolCall is a structured function invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolDefinition describes a callable tool to the model. Parameters is any
// value that marshals to a JSON schema.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  any
}

// Chunk is one streamed increment from an LLM: either response text or a
// tool call, never both.
type Chunk struct {
	Content  string
	ToolCall *ToolCall
}

// Stream yields chunks as the model produces them. A yielded error ends the
// stream.
type Stream func(yield func(Chunk, error) bool)

// LLMClient is the transport-level contract implemented per provider.
type LLMClient interface {
	ChatStream(ctx context.Context, messages []ChatMessage) Stream
}
