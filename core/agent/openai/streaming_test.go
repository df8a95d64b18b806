package openai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aria-vt/aria-core/core/agent"
)

func sseHandler(t *testing.T, lines []string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", auth)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			w.Write([]byte(line + "\n\n"))
		}
	}
}

func TestChatStreamYieldsContentDeltas(t *testing.T) {
	server := httptest.NewServer(sseHandler(t, []string{
		`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
		`data: {"choices":[{"delta":{"content":"lo."}}]}`,
		`data: [DONE]`,
	}))
	defer server.Close()

	client := New("test-key", "test-model", WithBaseURL(server.URL))

	var content string
	for chunk, err := range client.ChatStream(context.Background(), []agent.ChatMessage{{Role: agent.RoleUser, Content: "hi"}}) {
		if err != nil {
			t.Fatalf("unexpected stream error: %v", err)
		}
		content += chunk.Content
	}

	if content != "Hello." {
		t.Fatalf("expected reassembled content, got %q", content)
	}
}

func TestChatStreamAssemblesFragmentedToolCalls(t *testing.T) {
	server := httptest.NewServer(sseHandler(t, []string{
		`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call-1","type":"function","function":{"name":"get_weather","arguments":"{\"ci"}}]}}]}`,
		`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"ty\":\"Zagreb\"}"}}]}}]}`,
		`data: [DONE]`,
	}))
	defer server.Close()

	client := New("test-key", "test-model",
		WithBaseURL(server.URL),
		WithTools(agent.ToolDefinition{Name: "get_weather", Description: "Current weather"}),
	)

	var calls []agent.ToolCall
	for chunk, err := range client.ChatStream(context.Background(), []agent.ChatMessage{{Role: agent.RoleUser, Content: "weather?"}}) {
		if err != nil {
			t.Fatalf("unexpected stream error: %v", err)
		}
		if chunk.ToolCall != nil {
			calls = append(calls, *chunk.ToolCall)
		}
	}

	if len(calls) != 1 {
		t.Fatalf("expected 1 assembled tool call, got %d", len(calls))
	}
	if calls[0].Name != "get_weather" || calls[0].Arguments != `{"city":"Zagreb"}` {
		t.Fatalf("unexpected tool call %+v", calls[0])
	}
}

func TestChatStreamReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New("test-key", "test-model", WithBaseURL(server.URL))

	var streamErr error
	for _, err := range client.ChatStream(context.Background(), nil) {
		if err != nil {
			streamErr = err
			break
		}
	}
	if streamErr == nil {
		t.Fatalf("expected an error for non-OK status")
	}
}
