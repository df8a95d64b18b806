package gemini

import (
	"context"
	"fmt"

	"github.com/aria-vt/aria-core/core/agent"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"
)

// Client streams responses from the Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

func New(ctx context.Context, apiKey, model string) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating gemini client: %w", err)
	}

	return &Client{client: client, model: model}, nil
}

// ChatStream maps the conversation onto Gemini's content format and yields
// text deltas as they stream in.
func (c *Client) ChatStream(ctx context.Context, messages []agent.ChatMessage) agent.Stream {
	return func(yield func(agent.Chunk, error) bool) {
		ctx, span := tracer.Start(ctx, "generate content stream")
		defer span.End()
		span.SetAttributes(attribute.String("request.model", c.model))

		contents, config := toContents(messages)
		for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, contents, config) {
			if err != nil {
				err = fmt.Errorf("error streaming gemini response: %w", err)
				span.RecordError(err)
				yield(agent.Chunk{}, err)
				return
			}

			text := resp.Text()
			if text == "" {
				continue
			}
			if !yield(agent.Chunk{Content: text}, nil) {
				return
			}
		}
	}
}

// toContents converts chat messages to Gemini contents. A leading system
// message becomes the system instruction; system notes later in the
// conversation are folded into user-role contents, which is the closest
// Gemini offers.
func toContents(messages []agent.ChatMessage) ([]*genai.Content, *genai.GenerateContentConfig) {
	var config *genai.GenerateContentConfig
	contents := make([]*genai.Content, 0, len(messages))

	for i, msg := range messages {
		if msg.Role == agent.RoleSystem && i == 0 {
			config = &genai.GenerateContentConfig{
				SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: msg.Content}}},
			}
			continue
		}

		role := genai.RoleUser
		if msg.Role == agent.RoleAssistant {
			role = genai.RoleModel
		}

		parts := []*genai.Part{{Text: msg.Content}}
		for _, img := range msg.Images {
			parts = append(parts, &genai.Part{
				InlineData: &genai.Blob{MIMEType: img.MimeType, Data: img.Data},
			})
		}

		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}

	return contents, config
}
