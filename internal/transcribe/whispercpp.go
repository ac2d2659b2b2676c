//go:build whisper

package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// cppModel runs a ggml model in-process through the whisper.cpp bindings.
type cppModel struct {
	model    whisper.Model
	language string
	// whisper.cpp contexts share model buffers; serialize inference.
	mu sync.Mutex
}

// NewWhisperCppLoader returns a Loader that reads modelDir/ggml-<size>.bin.
func NewWhisperCppLoader(modelDir, language string) Loader {
	return func(ctx context.Context, size string) (Model, error) {
		path := filepath.Join(modelDir, "ggml-"+size+".bin")
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("whisper model not found at %s: %w", path, err)
		}
		if !CheckSox() {
			return nil, fmt.Errorf("whispercpp backend requires sox in PATH")
		}
		m, err := whisper.New(path)
		if err != nil {
			return nil, fmt.Errorf("load whisper model: %w", err)
		}
		return &cppModel{model: m, language: language}, nil
	}
}

func (m *cppModel) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	samples, err := DecodePCM(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wctx, err := m.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("create whisper context: %w", err)
	}

	lang := m.language
	if lang == "" {
		lang = "auto"
	}
	if err := wctx.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("set language %q: %w", lang, err)
	}
	wctx.SetTranslate(false)

	var text strings.Builder
	onSegment := func(seg whisper.Segment) {
		text.WriteString(seg.Text)
	}
	if err := wctx.Process(samples, nil, onSegment, nil); err != nil {
		return nil, fmt.Errorf("process audio: %w", err)
	}

	return &Result{
		Text:     text.String(),
		Language: wctx.DetectedLanguage(),
	}, nil
}

func (m *cppModel) Close() error {
	return m.model.Close()
}
