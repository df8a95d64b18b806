package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/aria-vt/aria-core/core/agent"
	"github.com/aria-vt/aria-core/internal/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	chunkPrefix = "data:"
	endMessage  = "[DONE]"
)

// ChatStream sends messages and yields the response as it streams in.
// Content deltas are yielded immediately; tool call deltas arrive fragmented
// across the stream and are yielded once assembled.
func (c *Client) ChatStream(ctx context.Context, messages []agent.ChatMessage) agent.Stream {
	requestToFirstTokenTime := time.Time{}
	setRequestToFirstTokenTime := func(span trace.Span) {
		if requestToFirstTokenTime.IsZero() {
			return
		}
		span.SetAttributes(attribute.Float64("response.request_to_first_token_time", time.Since(requestToFirstTokenTime).Seconds()))
		span.AddEvent("received first chunk")
		requestToFirstTokenTime = time.Time{}
	}

	return func(yield func(agent.Chunk, error) bool) {
		ctx, span := tracer.Start(ctx, "chat completion stream")
		defer span.End()
		span.SetAttributes(attribute.String("request.model", c.model))

		var toolChoice *string
		wireTools := toWireTools(c.tools)
		if wireTools != nil {
			toolChoice = utils.Ptr("auto")
		}

		reqBody := requestBody{
			Model:      c.model,
			Messages:   toWireMessages(messages),
			Stream:     true,
			Tools:      wireTools,
			ToolChoice: toolChoice,
		}

		requestBodyBytes, err := json.Marshal(reqBody)
		if err != nil {
			err = fmt.Errorf("error marshalling JSON: %w", err)
			span.RecordError(err)
			yield(agent.Chunk{}, err)
			return
		}

		req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(requestBodyBytes))
		if err != nil {
			err = fmt.Errorf("error creating HTTP request: %w", err)
			span.RecordError(err)
			yield(agent.Chunk{}, err)
			return
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		span.SetAttributes(attribute.String("request.url", req.URL.String()))
		requestToFirstTokenTime = time.Now()
		span.AddEvent("request started")
		resp, err := c.httpClient.Do(req)
		if err != nil {
			err = fmt.Errorf("error sending request: %w", err)
			span.RecordError(err)
			yield(agent.Chunk{}, err)
			return
		}
		defer resp.Body.Close()

		span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
		if resp.StatusCode != http.StatusOK {
			if errorBody, err := io.ReadAll(resp.Body); err == nil {
				span.SetAttributes(attribute.String("response.error", string(errorBody)))
			}
			err := fmt.Errorf("non-OK HTTP status: %s", resp.Status)
			span.RecordError(err)
			yield(agent.Chunk{}, err)
			return
		}

		pendingCalls := map[int]*toolCall{}
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			chunk := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), chunkPrefix))
			setRequestToFirstTokenTime(span)

			if len(chunk) == 0 {
				continue
			}
			if chunk == endMessage {
				break
			}

			var responseBody streamingResponseBody
			if err := json.Unmarshal([]byte(chunk), &responseBody); err != nil {
				err = fmt.Errorf("error unmarshalling JSON: %w", err)
				span.RecordError(err)
				if !yield(agent.Chunk{}, err) {
					return
				}
				continue
			}

			if len(responseBody.Choices) == 0 {
				continue
			}
			delta := responseBody.Choices[0].Delta

			for _, fragment := range delta.ToolCalls {
				pending, ok := pendingCalls[fragment.Index]
				if !ok {
					fragmentCopy := fragment
					pendingCalls[fragment.Index] = &fragmentCopy
					continue
				}
				pending.Function.Arguments += fragment.Function.Arguments
			}

			if delta.Content != "" {
				if !yield(agent.Chunk{Content: delta.Content}, nil) {
					return
				}
			}
		}

		if err := scanner.Err(); err != nil {
			yield(agent.Chunk{}, fmt.Errorf("error reading streamed response: %w", err))
			return
		}

		for _, index := range sortedIndexes(pendingCalls) {
			call := pendingCalls[index]
			span.AddEvent("tool call assembled", trace.WithAttributes(attribute.String("tool.name", call.Function.Name)))
			if !yield(agent.Chunk{ToolCall: &agent.ToolCall{
				ID:        call.ID,
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			}}, nil) {
				return
			}
		}
	}
}

func sortedIndexes(calls map[int]*toolCall) []int {
	indexes := make([]int, 0, len(calls))
	for index := range calls {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)
	return indexes
}
