package duckduckgo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestInvokeMapsInstantAnswers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query().Get("q"); q != "go programming" {
			t.Errorf("unexpected query %q", q)
		}
		w.Write([]byte(`{
			"Heading": "Go (programming language)",
			"AbstractText": "Go is a statically typed language.",
			"RelatedTopics": [
				{"Text": "Go was designed at Google.", "FirstURL": "https://example.com/go"},
				{"Text": ""}
			]
		}`))
	}))
	defer server.Close()

	result, err := New(withEndpoint(server.URL)).Invoke(context.Background(), "web_search go programming")
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}

	if len(result.Results) != 2 {
		t.Fatalf("expected 2 results, got %+v", result.Results)
	}
	if result.Results[0].Title != "Go (programming language)" {
		t.Fatalf("unexpected first result %+v", result.Results[0])
	}
	if result.Results[1].Body != "Go was designed at Google." {
		t.Fatalf("unexpected second result %+v", result.Results[1])
	}
}

func TestInvokeRejectsUnknownCommand(t *testing.T) {
	if _, err := New().Invoke(context.Background(), "play_music jazz"); err == nil {
		t.Fatalf("expected unsupported command error")
	}
}
