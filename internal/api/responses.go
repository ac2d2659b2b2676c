package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/snarg/scribe/internal/enhance"
	"github.com/snarg/scribe/internal/transcribe"
)

// Error codes carried in the "error" field of error responses.
const (
	ErrCodeValidation    = "validation_error"
	ErrCodeTooLarge      = "upload_too_large"
	ErrCodeConfiguration = "configuration_error"
	ErrCodeTranscription = "transcription_error"
	ErrCodeEnhancement   = "enhancement_error"
	ErrCodeBusy          = "busy"
	ErrCodeTimeout       = "timeout"
	ErrCodeCanceled      = "canceled"
	ErrCodeInternal      = "internal_error"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Detail  string `json:"detail,omitempty"`
	// RawTranscription is set when transcribe-and-enhance fails after the
	// transcription step succeeded.
	RawTranscription *string `json:"raw_transcription,omitempty"`
}

// WriteError writes a JSON error response with only an error code.
func WriteError(w http.ResponseWriter, status int, code string) {
	WriteJSON(w, status, ErrorResponse{Error: code})
}

// WriteErrorWithCode writes a JSON error response with a code and detail message.
func WriteErrorWithCode(w http.ResponseWriter, status int, code, detail string) {
	WriteJSON(w, status, ErrorResponse{Error: code, Detail: detail})
}

// ValidationError is a client mistake in the request itself.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// tooLargeError is an upload rejected by the body size limit.
type tooLargeError struct {
	limit int64
}

func (e *tooLargeError) Error() string {
	return fmt.Sprintf("audio upload exceeds %d MB", e.limit>>20)
}

// classifyError maps a service error to an HTTP status and error code.
func classifyError(err error) (int, string) {
	var (
		verr  *ValidationError
		large *tooLargeError
		terr  *transcribe.Error
		eerr  *enhance.Error
	)
	switch {
	case errors.As(err, &verr), errors.Is(err, enhance.ErrUnknownTask):
		return http.StatusBadRequest, ErrCodeValidation
	case errors.As(err, &large):
		return http.StatusRequestEntityTooLarge, ErrCodeTooLarge
	case errors.Is(err, enhance.ErrNotConfigured):
		return http.StatusInternalServerError, ErrCodeConfiguration
	case errors.Is(err, transcribe.ErrBusy):
		return http.StatusServiceUnavailable, ErrCodeBusy
	case errors.Is(err, transcribe.ErrTimeout), errors.Is(err, enhance.ErrTimeout):
		return http.StatusGatewayTimeout, ErrCodeTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout, ErrCodeCanceled
	case errors.As(err, &terr):
		return http.StatusInternalServerError, ErrCodeTranscription
	case errors.As(err, &eerr):
		return http.StatusInternalServerError, ErrCodeEnhancement
	}
	return http.StatusInternalServerError, ErrCodeInternal
}

// internalDetail replaces the message of unclassified errors, which may carry
// file system paths.
const internalDetail = "internal server error"

// writeServiceError writes err as a structured failure. raw, if non-nil, is
// included as raw_transcription.
func writeServiceError(w http.ResponseWriter, err error, raw *string) {
	status, code := classifyError(err)
	detail := err.Error()
	if code == ErrCodeInternal {
		detail = internalDetail
	}
	WriteJSON(w, status, ErrorResponse{
		Error:            code,
		Detail:           detail,
		RawTranscription: raw,
	})
}

// DecodeJSON decodes a single JSON value from the request body into v.
// Anything after the value other than whitespace is an error.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return fmt.Errorf("missing request body")
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}
