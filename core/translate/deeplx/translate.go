package deeplx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

// Translator translates synthesis text through a self-hosted DeepLX
// endpoint, so speech can be rendered in a different language than the
// displayed captions.
type Translator struct {
	endpoint   string
	targetLang string

	httpClient *http.Client
}

func New(endpoint, targetLang string) *Translator {
	return &Translator{
		endpoint:   endpoint,
		targetLang: targetLang,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}
}

type translateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

type translateResponse struct {
	Code int    `json:"code"`
	Data string `json:"data"`
}

func (t *Translator) Translate(ctx context.Context, text string) (string, error) {
	ctx, span := tracer.Start(ctx, "translate text")
	defer span.End()
	span.SetAttributes(
		attribute.Int("request.text_length", len(text)),
		attribute.String("request.target_lang", t.targetLang),
	)

	requestBodyBytes, err := json.Marshal(translateRequest{
		Text:       text,
		SourceLang: "auto",
		TargetLang: t.targetLang,
	})
	if err != nil {
		return "", fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.endpoint, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return "", fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("error sending request: %w", err)
		span.RecordError(err)
		return "", err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("non-OK HTTP status: %s", resp.Status)
		span.RecordError(err)
		return "", err
	}

	var body translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		err = fmt.Errorf("error unmarshalling JSON: %w", err)
		span.RecordError(err)
		return "", err
	}
	if body.Code != http.StatusOK {
		err := fmt.Errorf("translation rejected with code %d", body.Code)
		span.RecordError(err)
		return "", err
	}

	return body.Data, nil
}
