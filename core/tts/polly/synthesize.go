package polly

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	pollytypes "github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	conversation "github.com/aria-vt/aria-core/core"
)

type synthClient interface {
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

// Synthesizer renders speech through Amazon Polly into files under a cache
// directory. The audio handle is the file path; Release deletes the file.
type Synthesizer struct {
	client   synthClient
	cacheDir string
	voiceID  string
	engine   pollytypes.Engine
}

type Option func(*Synthesizer)

func WithVoice(voiceID string) Option {
	return func(s *Synthesizer) {
		s.voiceID = voiceID
	}
}

func WithEngine(engine string) Option {
	return func(s *Synthesizer) {
		if strings.EqualFold(engine, "standard") {
			s.engine = pollytypes.EngineStandard
		} else {
			s.engine = pollytypes.EngineNeural
		}
	}
}

// withClient swaps the Polly client, for tests.
func withClient(client synthClient) Option {
	return func(s *Synthesizer) {
		s.client = client
	}
}

func New(ctx context.Context, cacheDir string, opts ...Option) (*Synthesizer, error) {
	s := &Synthesizer{
		cacheDir: cacheDir,
		voiceID:  "Joanna",
		engine:   pollytypes.EngineNeural,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load aws config: %w", err)
		}
		s.client = polly.NewFromConfig(cfg)
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

	output, err := s.client.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Engine:       s.engine,
		OutputFormat: pollytypes.OutputFormatMp3,
		Text:         &text,
		TextType:     pollytypes.TextTypeText,
		VoiceId:      pollytypes.VoiceId(s.voiceID),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			err = fmt.Errorf("polly rejected synthesis (%s): %w", apiErr.ErrorCode(), err)
		} else {
			err = fmt.Errorf("polly synthesis failed: %w", err)
		}
		span.RecordError(err)
		return "", err
	}
	if output == nil || output.AudioStream == nil {
		err := fmt.Errorf("polly returned no audio")
		span.RecordError(err)
		return "", err
	}
	defer output.AudioStream.Close()

	path := filepath.Join(s.cacheDir, uuid.NewString()+".mp3")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create audio file: %w", err)
	}

	if _, err := io.Copy(file, output.AudioStream); err != nil {
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

// Release deletes the rendered audio file. Releasing a handle twice is not
// an error at the filesystem level but signals a bookkeeping bug upstream.
func (s *Synthesizer) Release(handle conversation.AudioHandle) error {
	if err := os.Remove(string(handle)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove audio file: %w", err)
	}
	return nil
}
