package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the server configuration, read from the environment.
type Config struct {
	ListenAddr string `env:"ARIA_LISTEN_ADDR" envDefault:":12393"`

	AgentBackend  string `env:"ARIA_AGENT_BACKEND" envDefault:"openai"`
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"ARIA_OPENAI_BASE_URL"`
	OpenAIModel   string `env:"ARIA_OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	GeminiModel   string `env:"ARIA_GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	SystemPrompt  string `env:"ARIA_SYSTEM_PROMPT" envDefault:"You are Aria, a cheerful virtual companion. Keep responses short and conversational."`

	DeepgramAPIKey string `env:"DEEPGRAM_API_KEY"`
	AsrModel       string `env:"ARIA_ASR_MODEL" envDefault:"nova-3"`
	AsrLanguage    string `env:"ARIA_ASR_LANGUAGE" envDefault:"en-US"`

	TTSBackend       string `env:"ARIA_TTS_BACKEND" envDefault:"polly"`
	PollyVoice       string `env:"ARIA_POLLY_VOICE" envDefault:"Joanna"`
	PollyEngine      string `env:"ARIA_POLLY_ENGINE" envDefault:"neural"`
	DeepgramTTSModel string `env:"ARIA_DEEPGRAM_TTS_MODEL" envDefault:"aura-asteria-en"`
	AudioCacheDir    string `env:"ARIA_AUDIO_CACHE_DIR" envDefault:"cache/audio"`

	DeepLXEndpoint   string `env:"ARIA_DEEPLX_ENDPOINT"`
	DeepLXTargetLang string `env:"ARIA_DEEPLX_TARGET_LANG" envDefault:"JA"`

	HistoryPath  string `env:"ARIA_HISTORY_PATH" envDefault:"history.db"`
	HistoryLimit int    `env:"ARIA_HISTORY_LIMIT" envDefault:"50"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}

	switch cfg.AgentBackend {
	case "openai", "gemini":
	default:
		return Config{}, fmt.Errorf("unknown agent backend %q", cfg.AgentBackend)
	}
	switch cfg.TTSBackend {
	case "polly", "deepgram":
	default:
		return Config{}, fmt.Errorf("unknown tts backend %q", cfg.TTSBackend)
	}

	return cfg, nil
}
