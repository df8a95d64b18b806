package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"

	conversation "github.com/aria-vt/aria-core/core"
)

const speakEndpoint = "https://api.deepgram.com/v1/speak"

// Synthesizer renders speech through Deepgram's speak endpoint into files
// under a cache directory. The audio handle is the file path.
type Synthesizer struct {
	apiKey   string
	model    string
	endpoint string
	cacheDir string

	httpClient *http.Client
}

type Option func(*Synthesizer)

func WithModel(model string) Option {
	return func(s *Synthesizer) {
		s.model = model
	}
}

// withEndpoint redirects requests, for tests.
func withEndpoint(endpoint string) Option {
	return func(s *Synthesizer) {
		s.endpoint = endpoint
	}
}

func New(apiKey, cacheDir string, opts ...Option) (*Synthesizer, error) {
	s := &Synthesizer{
		apiKey:   apiKey,
		model:    "aura-asteria-en",
		endpoint: speakEndpoint,
		cacheDir: cacheDir,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audio cache dir: %w", err)
	}
	return s, nil
}

func (s *Synthesizer) Synthesize(ctx context.Context, text string) (conversation.AudioHandle, error) {
	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()
	span.SetAttributes(attribute.Int("request.text_length", len(text)))

	requestBodyBytes, err := json.Marshal(struct {
		Text string `json:"text"`
	}{Text: text})
	if err != nil {
		return "", fmt.Errorf("error marshalling JSON: %w", err)
	}

	speakURL, err := url.Parse(s.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid speak endpoint: %w", err)
	}
	queryParams := speakURL.Query()
	queryParams.Set("model", s.model)
	queryParams.Set("encoding", "mp3")
	speakURL.RawQuery = queryParams.Encode()

	req, err := http.NewRequestWithContext(ctx, "POST", speakURL.String(), bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return "", fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("error sending request: %w", err)
		span.RecordError(err)
		return "", err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		if errorBody, readErr := io.ReadAll(resp.Body); readErr == nil {
			span.SetAttributes(attribute.String("response.error", string(errorBody)))
		}
		err := fmt.Errorf("non-OK HTTP status: %s", resp.Status)
		span.RecordError(err)
		return "", err
	}

	path := filepath.Join(s.cacheDir, uuid.NewString()+".mp3")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create audio file: %w", err)
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write audio file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close audio file: %w", err)
	}

	span.SetAttributes(attribute.String("response.audio_path", path))
	return conversation.AudioHandle(path), nil
}

// Release deletes the rendered audio file.
func (s *Synthesizer) Release(handle conversation.AudioHandle) error {
	if err := os.Remove(string(handle)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove audio file: %w", err)
	}
	return nil
}
