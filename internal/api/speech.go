package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/snarg/scribe/internal/enhance"
	"github.com/snarg/scribe/internal/storage"
	"github.com/snarg/scribe/internal/transcribe"
)

// multipartMemory is how much of a multipart body is buffered in memory
// before spilling to disk.
const multipartMemory = 32 << 20

// Transcriber turns an audio file on disk into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (*transcribe.Result, error)
}

// Enhancer rewrites text according to a task.
type Enhancer interface {
	Enhance(ctx context.Context, req enhance.Request) (*enhance.Result, error)
}

// SpeechHandler serves the transcription and enhancement endpoints.
type SpeechHandler struct {
	store       *storage.TempStore
	transcriber Transcriber
	enhancer    Enhancer
	maxUpload   int64
	log         zerolog.Logger
}

// NewSpeechHandler creates the handler. maxUpload caps the request body in bytes.
func NewSpeechHandler(store *storage.TempStore, t Transcriber, e Enhancer, maxUpload int64, log zerolog.Logger) *SpeechHandler {
	return &SpeechHandler{
		store:       store,
		transcriber: t,
		enhancer:    e,
		maxUpload:   maxUpload,
		log:         log.With().Str("handler", "speech").Logger(),
	}
}

// Routes registers the speech endpoints.
func (h *SpeechHandler) Routes(r chi.Router) {
	r.Post("/transcribe", h.Transcribe)
	r.Post("/enhance", h.Enhance)
	r.Post("/transcribe-and-enhance", h.TranscribeAndEnhance)
}

type transcribeResponse struct {
	Success  bool   `json:"success"`
	Text     string `json:"text"`
	Language string `json:"language"`
}

type enhanceBody struct {
	Text *string `json:"text"`
	Task string  `json:"task"`
}

type enhanceResponse struct {
	Success  bool   `json:"success"`
	Original string `json:"original"`
	Enhanced string `json:"enhanced"`
	Task     string `json:"task"`
}

type transcribeEnhanceResponse struct {
	Success          bool   `json:"success"`
	RawTranscription string `json:"raw_transcription"`
	EnhancedText     string `json:"enhanced_text"`
	Language         string `json:"language"`
	Task             string `json:"task"`
}

// Transcribe handles POST /transcribe.
// Accepts a multipart form with the audio file in the "audio" field.
func (h *SpeechHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	data, filename, err := h.readUpload(w, r)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}

	res, err := h.transcribe(r.Context(), data, filename)
	if err != nil {
		h.logFailure(r, err, "transcription failed")
		writeServiceError(w, err, nil)
		return
	}

	WriteJSON(w, http.StatusOK, transcribeResponse{
		Success:  true,
		Text:     res.Text,
		Language: res.Language,
	})
}

// Enhance handles POST /enhance with a JSON body {text, task?}.
func (h *SpeechHandler) Enhance(w http.ResponseWriter, r *http.Request) {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}
	var body enhanceBody
	if err := DecodeJSON(r, &body); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeServiceError(w, &tooLargeError{limit: mbe.Limit}, nil)
			return
		}
		WriteErrorWithCode(w, http.StatusBadRequest, ErrCodeValidation, "invalid request body: "+err.Error())
		return
	}
	if body.Text == nil {
		WriteErrorWithCode(w, http.StatusBadRequest, ErrCodeValidation, "text is required")
		return
	}

	res, err := h.enhancer.Enhance(r.Context(), enhance.Request{Text: *body.Text, Task: body.Task})
	if err != nil {
		h.logFailure(r, err, "enhancement failed")
		writeServiceError(w, err, nil)
		return
	}

	WriteJSON(w, http.StatusOK, enhanceResponse{
		Success:  true,
		Original: res.Original,
		Enhanced: res.Enhanced,
		Task:     res.Task,
	})
}

// TranscribeAndEnhance handles POST /transcribe-and-enhance.
// The task comes from the query string or a form field.
func (h *SpeechHandler) TranscribeAndEnhance(w http.ResponseWriter, r *http.Request) {
	data, filename, err := h.readUpload(w, r)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	task := r.FormValue("task")

	tr, err := h.transcribe(r.Context(), data, filename)
	if err != nil {
		h.logFailure(r, err, "transcription failed")
		writeServiceError(w, err, nil)
		return
	}

	en, err := h.enhancer.Enhance(r.Context(), enhance.Request{Text: tr.Text, Task: task})
	if err != nil {
		h.logFailure(r, err, "enhancement failed")
		raw := tr.Text
		writeServiceError(w, err, &raw)
		return
	}

	WriteJSON(w, http.StatusOK, transcribeEnhanceResponse{
		Success:          true,
		RawTranscription: tr.Text,
		EnhancedText:     en.Enhanced,
		Language:         tr.Language,
		Task:             en.Task,
	})
}

// readUpload parses the multipart body and returns the "audio" file contents.
// Multipart spill files are removed before returning.
func (h *SpeechHandler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, "", &tooLargeError{limit: mbe.Limit}
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, "", &ValidationError{Msg: "No audio file provided"}
		}
		return nil, "", &ValidationError{Msg: "invalid multipart form: " + err.Error()}
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("audio")
	if err != nil || header.Filename == "" {
		return nil, "", &ValidationError{Msg: "No audio file provided"}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("read audio upload: %w", err)
	}
	return data, header.Filename, nil
}

// transcribe writes the upload to a temp file for the lifetime of the call.
func (h *SpeechHandler) transcribe(ctx context.Context, data []byte, filename string) (*transcribe.Result, error) {
	path, err := h.store.Store(data, storage.ExtFor(filename))
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	defer h.store.Release(path)

	return h.transcriber.Transcribe(ctx, path)
}

func (h *SpeechHandler) logFailure(r *http.Request, err error, msg string) {
	status, code := classifyError(err)
	ev := h.log.Error()
	if status < http.StatusInternalServerError {
		ev = h.log.Warn()
	}
	ev.Err(err).Str("path", r.URL.Path).Str("code", code).Msg(msg)
}
