package transcribe

import (
	"context"
	"errors"
)

// UnknownLanguage is reported when the model does not detect a language.
const UnknownLanguage = "unknown"

// Result is the transcript of one audio file.
type Result struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Model is a loaded speech-to-text model.
type Model interface {
	Transcribe(ctx context.Context, audioPath string) (*Result, error)
	Close() error
}

// Loader loads the model identified by size ("tiny", "base", "medium", ...).
// It is called at most once per successful load.
type Loader func(ctx context.Context, size string) (Model, error)

var (
	// ErrBusy is returned when the transcription queue is full.
	ErrBusy = errors.New("transcription queue full")
	// ErrTimeout is returned when a transcription exceeds its deadline.
	ErrTimeout = errors.New("transcription timed out")
	// ErrClosed is returned after the service has been stopped.
	ErrClosed = errors.New("transcription service stopped")
)

// Error wraps any model load or inference failure.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return "Transcription failed: " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
