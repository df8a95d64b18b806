package duckduckgo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"

	conversation "github.com/aria-vt/aria-core/core"
)

const searchEndpoint = "https://api.duckduckgo.com/"

const maxResults = 5

// Searcher answers web_search commands through DuckDuckGo's instant answer
// API.
type Searcher struct {
	endpoint   string
	httpClient *http.Client
}

type Option func(*Searcher)

// withEndpoint redirects requests, for tests.
func withEndpoint(endpoint string) Option {
	return func(s *Searcher) {
		s.endpoint = endpoint
	}
}

func New(opts ...Option) *Searcher {
	s := &Searcher{
		endpoint: searchEndpoint,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type instantAnswer struct {
	AbstractText  string `json:"AbstractText"`
	AbstractURL   string `json:"AbstractURL"`
	Heading       string `json:"Heading"`
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

// Invoke handles commands of the form "web_search <query>".
func (s *Searcher) Invoke(ctx context.Context, command string) (*conversation.CommandResult, error) {
	ctx, span := tracer.Start(ctx, "web search")
	defer span.End()

	query, ok := strings.CutPrefix(command, "web_search ")
	if !ok {
		err := fmt.Errorf("unsupported command %q", command)
		span.RecordError(err)
		return nil, err
	}
	query = strings.TrimSpace(query)
	span.SetAttributes(attribute.String("request.query", query))

	searchURL, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid search endpoint: %w", err)
	}
	queryParams := searchURL.Query()
	queryParams.Set("q", query)
	queryParams.Set("format", "json")
	queryParams.Set("no_html", "1")
	searchURL.RawQuery = queryParams.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", searchURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("error sending request: %w", err)
		span.RecordError(err)
		return nil, err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("non-OK HTTP status: %s", resp.Status)
		span.RecordError(err)
		return nil, err
	}

	var answer instantAnswer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		err = fmt.Errorf("error unmarshalling JSON: %w", err)
		span.RecordError(err)
		return nil, err
	}

	result := &conversation.CommandResult{}
	if answer.AbstractText != "" {
		result.Results = append(result.Results, conversation.SearchResult{
			Title: answer.Heading,
			Body:  answer.AbstractText,
		})
	}
	for _, topic := range answer.RelatedTopics {
		if len(result.Results) >= maxResults {
			break
		}
		if topic.Text == "" {
			continue
		}
		result.Results = append(result.Results, conversation.SearchResult{
			Title: topic.FirstURL,
			Body:  topic.Text,
		})
	}

	span.SetAttributes(attribute.Int("response.result_count", len(result.Results)))
	return result, nil
}
