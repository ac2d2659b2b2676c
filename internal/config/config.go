package config

import (
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8000"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"10m"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	AllowedOrigins string        `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:5173,https://speechtotext07.netlify.app"`
	AuthToken      string        `env:"AUTH_TOKEN"`
	RateLimitRPS   float64       `env:"RATE_LIMIT_RPS" envDefault:"0"`
	RateLimitBurst int           `env:"RATE_LIMIT_BURST" envDefault:"10"`
	MaxUploadMB    int64         `env:"MAX_UPLOAD_MB" envDefault:"32"`
	TempDir        string        `env:"TEMP_DIR"`
	TempMaxAge     time.Duration `env:"TEMP_MAX_AGE" envDefault:"1h"`

	Transcribe TranscribeConfig
	Enhance    EnhanceConfig

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// TranscribeConfig selects and tunes the speech-to-text backend.
type TranscribeConfig struct {
	Backend   string        `env:"TRANSCRIBE_BACKEND" envDefault:"whisper-http"`
	Model     string        `env:"WHISPER_MODEL" envDefault:"base"`
	URL       string        `env:"WHISPER_URL" envDefault:"http://localhost:9000/v1/audio/transcriptions"`
	ModelDir  string        `env:"WHISPER_MODEL_DIR" envDefault:"./models"`
	Language  string        `env:"WHISPER_LANGUAGE"`
	Preload   bool          `env:"WHISPER_PRELOAD" envDefault:"false"`
	Workers   int           `env:"TRANSCRIBE_WORKERS" envDefault:"2"`
	QueueSize int           `env:"TRANSCRIBE_QUEUE_SIZE" envDefault:"16"`
	Timeout   time.Duration `env:"TRANSCRIBE_TIMEOUT" envDefault:"5m"`
}

// EnhanceConfig configures the completion provider used for text enhancement.
// API keys are read here but only checked when an enhancement is requested.
type EnhanceConfig struct {
	Provider        string        `env:"ENHANCE_PROVIDER" envDefault:"anthropic"`
	Model           string        `env:"ENHANCE_MODEL" envDefault:"claude-opus-4-5-20250514"`
	MaxTokens       int64         `env:"ENHANCE_MAX_TOKENS" envDefault:"1024"`
	Timeout         time.Duration `env:"ENHANCE_TIMEOUT" envDefault:"60s"`
	StrictTasks     bool          `env:"ENHANCE_STRICT_TASKS" envDefault:"false"`
	AnthropicAPIKey string        `env:"ANTHROPIC_API_KEY"`
	AnthropicURL    string        `env:"ANTHROPIC_BASE_URL"`
	OpenAIAPIKey    string        `env:"OPENAI_API_KEY"`
	OpenAIURL       string        `env:"OPENAI_BASE_URL"`
}

// Origins splits AllowedOrigins into a trimmed, non-empty list.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile      string
	HTTPAddr     string
	LogLevel     string
	WhisperModel string
	Backend      string
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	// Load .env file (silent if missing)
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Apply CLI overrides (non-empty values win)
	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.WhisperModel != "" {
		cfg.Transcribe.Model = overrides.WhisperModel
	}
	if overrides.Backend != "" {
		cfg.Transcribe.Backend = overrides.Backend
	}

	return cfg, nil
}
