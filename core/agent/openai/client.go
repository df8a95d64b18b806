package openai

import (
	"net/http"

	"github.com/aria-vt/aria-core/core/agent"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client streams chat completions from any OpenAI-compatible endpoint.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	tools   []agent.ToolDefinition

	httpClient *http.Client
}

type Option func(*Client)

// WithBaseURL points the client at a compatible endpoint (Groq, Ollama,
// vLLM and the like).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func WithTools(definitions ...agent.ToolDefinition) Option {
	return func(c *Client) {
		c.tools = definitions
	}
}

func New(apiKey, model string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
