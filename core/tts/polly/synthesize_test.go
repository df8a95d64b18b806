package polly

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/polly"
)

type fakeSynthClient struct {
	audio []byte
	err   error
	texts []string
}

func (f *fakeSynthClient) SynthesizeSpeech(_ context.Context, params *polly.SynthesizeSpeechInput, _ ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error) {
	f.texts = append(f.texts, *params.Text)
	if f.err != nil {
		return nil, f.err
	}
	return &polly.SynthesizeSpeechOutput{AudioStream: io.NopCloser(bytes.NewReader(f.audio))}, nil
}

func TestSynthesizeWritesAndReleasesAudioFile(t *testing.T) {
	client := &fakeSynthClient{audio: []byte("mp3-bytes")}
	s, err := New(context.Background(), t.TempDir(), withClient(client))
	if err != nil {
		t.Fatalf("failed to create synthesizer: %v", err)
	}

	handle, err := s.Synthesize(context.Background(), "Hello there.")
	if err != nil {
		t.Fatalf("synthesis failed: %v", err)
	}

	data, err := os.ReadFile(string(handle))
	if err != nil {
		t.Fatalf("expected audio file at %s: %v", handle, err)
	}
	if string(data) != "mp3-bytes" {
		t.Fatalf("unexpected audio content %q", data)
	}
	if len(client.texts) != 1 || client.texts[0] != "Hello there." {
		t.Fatalf("unexpected synthesis requests %v", client.texts)
	}

	if err := s.Release(handle); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if _, err := os.Stat(string(handle)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected audio file removed, got %v", err)
	}

	// A second release must stay quiet.
	if err := s.Release(handle); err != nil {
		t.Fatalf("repeated release failed: %v", err)
	}
}

func TestSynthesizeSurfacesBackendErrors(t *testing.T) {
	client := &fakeSynthClient{err: errors.New("throttled")}
	s, err := New(context.Background(), t.TempDir(), withClient(client))
	if err != nil {
		t.Fatalf("failed to create synthesizer: %v", err)
	}

	if _, err := s.Synthesize(context.Background(), "Hello."); err == nil {
		t.Fatalf("expected synthesis error")
	}
}
