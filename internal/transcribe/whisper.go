package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// WhisperClient calls an OpenAI-compatible /v1/audio/transcriptions endpoint
// (speaches, faster-whisper-server, whisper.cpp server).
type WhisperClient struct {
	url      string
	model    string
	language string
	client   *http.Client
}

// whisperResponse is the verbose_json response body.
type whisperResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
}

// NewWhisperClient creates a new Whisper HTTP client. An empty language lets
// the server detect it.
func NewWhisperClient(url, model, language string, timeout time.Duration) *WhisperClient {
	return &WhisperClient{
		url:      url,
		model:    model,
		language: language,
		client:   &http.Client{Timeout: timeout},
	}
}

// NewWhisperHTTPLoader returns a Loader that binds a WhisperClient to the
// requested model size.
func NewWhisperHTTPLoader(url, language string, timeout time.Duration) Loader {
	return func(ctx context.Context, size string) (Model, error) {
		if url == "" {
			return nil, fmt.Errorf("whisper url not configured")
		}
		return NewWhisperClient(url, size, language, timeout), nil
	}
}

// Transcribe sends an audio file to the Whisper API and returns the result.
func (wc *WhisperClient) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("copy audio data: %w", err)
	}

	if wc.model != "" {
		w.WriteField("model", wc.model)
	}
	if wc.language != "" {
		w.WriteField("language", wc.language)
	}
	// verbose_json carries the detected language
	w.WriteField("response_format", "verbose_json")
	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wc.url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := wc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whisper API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result whisperResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &Result{Text: result.Text, Language: result.Language}, nil
}

// Close is a no-op; the HTTP client holds no model state.
func (wc *WhisperClient) Close() error { return nil }

// Model returns the model name sent to the server.
func (wc *WhisperClient) Model() string { return wc.model }
