package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	conversation "github.com/aria-vt/aria-core/core"
	"github.com/aria-vt/aria-core/core/agent"
	"github.com/aria-vt/aria-core/core/agent/gemini"
	"github.com/aria-vt/aria-core/core/agent/openai"
	asrdeepgram "github.com/aria-vt/aria-core/core/asr/deepgram"
	"github.com/aria-vt/aria-core/core/command/duckduckgo"
	"github.com/aria-vt/aria-core/core/history/sqlite"
	wstransport "github.com/aria-vt/aria-core/core/sink/websocket"
	"github.com/aria-vt/aria-core/core/translate/deeplx"
	ttsdeepgram "github.com/aria-vt/aria-core/core/tts/deepgram"
	ttspolly "github.com/aria-vt/aria-core/core/tts/polly"
	"github.com/aria-vt/aria-core/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	history, err := sqlite.Open(cfg.HistoryPath)
	if err != nil {
		return err
	}
	defer history.Close()

	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		return err
	}
	memoryAgent := agent.New(client, agent.WithSystemPrompt(cfg.SystemPrompt))

	synthesizer, err := newSynthesizer(ctx, cfg)
	if err != nil {
		return err
	}

	opts := []conversation.OrchestratorOption{
		conversation.WithLanguageAgent(memoryAgent),
		conversation.WithSpeechSynthesizer(synthesizer),
		conversation.WithHistoryStore(history),
		conversation.WithCommandHandler(duckduckgo.New()),
	}
	if cfg.DeepgramAPIKey != "" {
		opts = append(opts, conversation.WithSpeechToText(asrdeepgram.New(cfg.DeepgramAPIKey,
			asrdeepgram.WithModel(cfg.AsrModel),
			asrdeepgram.WithLanguage(cfg.AsrLanguage),
		)))
	}
	if cfg.DeepLXEndpoint != "" {
		opts = append(opts, conversation.WithTranslator(deeplx.New(cfg.DeepLXEndpoint, cfg.DeepLXTargetLang)))
	}
	orchestrator := conversation.NewOrchestrator(opts...)

	handler := wstransport.NewHandler(orchestrator,
		wstransport.WithSessionStartHook(func(ctx context.Context, sessionID string) {
			messages, err := history.Recent(ctx, sessionID, cfg.HistoryLimit)
			if err != nil {
				slog.Warn("failed to restore history", "session", sessionID, "error", err)
				return
			}
			memoryAgent.LoadMemory(messages)
		}),
	)

	mux := http.NewServeMux()
	mux.Handle("/client-ws", handler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.ListenAddr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newLLMClient(ctx context.Context, cfg config.Config) (agent.LLMClient, error) {
	switch cfg.AgentBackend {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai backend")
		}
		var opts []openai.Option
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
		}
		return openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, opts...), nil

	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for the gemini backend")
		}
		return gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)

	default:
		return nil, fmt.Errorf("unknown agent backend %q", cfg.AgentBackend)
	}
}

func newSynthesizer(ctx context.Context, cfg config.Config) (conversation.SpeechSynthesizer, error) {
	switch cfg.TTSBackend {
	case "polly":
		return ttspolly.New(ctx, cfg.AudioCacheDir,
			ttspolly.WithVoice(cfg.PollyVoice),
			ttspolly.WithEngine(cfg.PollyEngine),
		)

	case "deepgram":
		if cfg.DeepgramAPIKey == "" {
			return nil, fmt.Errorf("DEEPGRAM_API_KEY is required for the deepgram tts backend")
		}
		return ttsdeepgram.New(cfg.DeepgramAPIKey, cfg.AudioCacheDir,
			ttsdeepgram.WithModel(cfg.DeepgramTTSModel),
		)

	default:
		return nil, fmt.Errorf("unknown tts backend %q", cfg.TTSBackend)
	}
}
