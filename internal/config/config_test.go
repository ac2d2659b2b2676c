package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	cleanup := setEnvs(t, map[string]string{
		"ANTHROPIC_API_KEY": "sk-test",
	})
	defer cleanup()

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":8000" {
			t.Errorf("HTTPAddr = %q, want :8000", cfg.HTTPAddr)
		}
		if cfg.LogLevel != "info" {
			t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
		}
		if cfg.Transcribe.Model != "base" {
			t.Errorf("Transcribe.Model = %q, want base", cfg.Transcribe.Model)
		}
		if cfg.Transcribe.Backend != "whisper-http" {
			t.Errorf("Transcribe.Backend = %q, want whisper-http", cfg.Transcribe.Backend)
		}
		if cfg.Transcribe.Timeout != 5*time.Minute {
			t.Errorf("Transcribe.Timeout = %v, want 5m", cfg.Transcribe.Timeout)
		}
		if cfg.Enhance.MaxTokens != 1024 {
			t.Errorf("Enhance.MaxTokens = %d, want 1024", cfg.Enhance.MaxTokens)
		}
		if cfg.Enhance.Provider != "anthropic" {
			t.Errorf("Enhance.Provider = %q, want anthropic", cfg.Enhance.Provider)
		}
		if cfg.Enhance.StrictTasks {
			t.Error("Enhance.StrictTasks = true, want false")
		}
		if cfg.MaxUploadMB != 32 {
			t.Errorf("MaxUploadMB = %d, want 32", cfg.MaxUploadMB)
		}
		if cfg.TempMaxAge != time.Hour {
			t.Errorf("TempMaxAge = %v, want 1h", cfg.TempMaxAge)
		}
	})

	t.Run("cli_overrides_take_priority", func(t *testing.T) {
		cfg, err := Load(Overrides{
			EnvFile:      "nonexistent.env",
			HTTPAddr:     ":9090",
			LogLevel:     "debug",
			WhisperModel: "medium",
			Backend:      "whispercpp",
		})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":9090" {
			t.Errorf("HTTPAddr = %q, want :9090", cfg.HTTPAddr)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
		}
		if cfg.Transcribe.Model != "medium" {
			t.Errorf("Transcribe.Model = %q, want medium", cfg.Transcribe.Model)
		}
		if cfg.Transcribe.Backend != "whispercpp" {
			t.Errorf("Transcribe.Backend = %q, want whispercpp", cfg.Transcribe.Backend)
		}
	})

	t.Run("env_vars_read", func(t *testing.T) {
		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.Enhance.AnthropicAPIKey != "sk-test" {
			t.Errorf("AnthropicAPIKey = %q, want sk-test", cfg.Enhance.AnthropicAPIKey)
		}
	})

	t.Run("env_file_loaded", func(t *testing.T) {
		path := t.TempDir() + "/test.env"
		if err := os.WriteFile(path, []byte("WHISPER_MODEL=small\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		defer os.Unsetenv("WHISPER_MODEL")

		cfg, err := Load(Overrides{EnvFile: path})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.Transcribe.Model != "small" {
			t.Errorf("Transcribe.Model = %q, want small", cfg.Transcribe.Model)
		}
	})
}

func TestOrigins(t *testing.T) {
	cfg := &Config{AllowedOrigins: " http://a.test ,,https://b.test"}
	got := cfg.Origins()
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "https://b.test" {
		t.Errorf("Origins() = %v", got)
	}

	empty := &Config{}
	if got := empty.Origins(); got != nil {
		t.Errorf("Origins() on empty = %v, want nil", got)
	}
}

// setEnvs sets environment variables and returns a cleanup function.
func setEnvs(t *testing.T, envs map[string]string) func() {
	t.Helper()
	originals := make(map[string]string)
	unset := make([]string, 0)

	for k, v := range envs {
		if orig, ok := os.LookupEnv(k); ok {
			originals[k] = orig
		} else {
			unset = append(unset, k)
		}
		os.Setenv(k, v)
	}

	return func() {
		for k, v := range originals {
			os.Setenv(k, v)
		}
		for _, k := range unset {
			os.Unsetenv(k)
		}
	}
}
