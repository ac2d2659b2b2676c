package transcribe

import (
	"fmt"

	"github.com/snarg/scribe/internal/config"
)

// Backend names accepted by NewLoader.
const (
	BackendWhisperHTTP = "whisper-http"
	BackendWhisperCpp  = "whispercpp"
)

// NewLoader picks the model loader for the configured backend.
func NewLoader(cfg config.TranscribeConfig) (Loader, error) {
	switch cfg.Backend {
	case BackendWhisperHTTP, "":
		return NewWhisperHTTPLoader(cfg.URL, cfg.Language, cfg.Timeout), nil
	case BackendWhisperCpp:
		return NewWhisperCppLoader(cfg.ModelDir, cfg.Language), nil
	default:
		return nil, fmt.Errorf("transcribe: unknown backend %q (supported: %s, %s)", cfg.Backend, BackendWhisperHTTP, BackendWhisperCpp)
	}
}
