package openai

import (
	"encoding/base64"
	"fmt"

	"github.com/aria-vt/aria-core/core/agent"
)

type messageRole string

const (
	messageRoleSystem    messageRole = "system"
	messageRoleUser      messageRole = "user"
	messageRoleAssistant messageRole = "assistant"
)

type message struct {
	Role messageRole `json:"role"`
	// Content is a string, or content parts when the message carries images.
	Content any `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type toolCall struct {
	Index    int              `json:"index"`
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function toolCallFunction `json:"function"`
}

type toolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type requestBody struct {
	Model      string    `json:"model"`
	Messages   []message `json:"messages"`
	Stream     bool      `json:"stream"`
	Tools      []tool    `json:"tools,omitempty"`
	ToolChoice *string   `json:"tool_choice,omitempty"`
}

type streamingResponseBody struct {
	Choices []struct {
		Delta struct {
			Content   string     `json:"content"`
			ToolCalls []toolCall `json:"tool_calls"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

func toWireMessages(messages []agent.ChatMessage) []message {
	wire := make([]message, 0, len(messages))
	for _, msg := range messages {
		role := messageRoleUser
		switch msg.Role {
		case agent.RoleSystem:
			role = messageRoleSystem
		case agent.RoleAssistant:
			role = messageRoleAssistant
		}

		if len(msg.Images) == 0 {
			wire = append(wire, message{Role: role, Content: msg.Content})
			continue
		}

		parts := []contentPart{{Type: "text", Text: msg.Content}}
		for _, img := range msg.Images {
			parts = append(parts, contentPart{
				Type: "image_url",
				ImageURL: &imageURL{
					URL: fmt.Sprintf("data:%s;base64,%s", img.MimeType, base64.StdEncoding.EncodeToString(img.Data)),
				},
			})
		}
		wire = append(wire, message{Role: role, Content: parts})
	}
	return wire
}
