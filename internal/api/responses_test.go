package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/snarg/scribe/internal/enhance"
	"github.com/snarg/scribe/internal/transcribe"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", &ValidationError{Msg: "No audio file provided"}, http.StatusBadRequest, ErrCodeValidation},
		{"unknown_task", fmt.Errorf("%w: haiku", enhance.ErrUnknownTask), http.StatusBadRequest, ErrCodeValidation},
		{"too_large", &tooLargeError{limit: 32 << 20}, http.StatusRequestEntityTooLarge, ErrCodeTooLarge},
		{"missing_credential", &enhance.ConfigError{Var: "ANTHROPIC_API_KEY"}, http.StatusInternalServerError, ErrCodeConfiguration},
		{"busy", transcribe.ErrBusy, http.StatusServiceUnavailable, ErrCodeBusy},
		{"transcribe_timeout", transcribe.ErrTimeout, http.StatusGatewayTimeout, ErrCodeTimeout},
		{"enhance_timeout", enhance.ErrTimeout, http.StatusGatewayTimeout, ErrCodeTimeout},
		{"canceled", context.Canceled, http.StatusRequestTimeout, ErrCodeCanceled},
		{"transcription", &transcribe.Error{Err: errors.New("bad audio")}, http.StatusInternalServerError, ErrCodeTranscription},
		{"enhancement", &enhance.Error{Err: errors.New("529 overloaded")}, http.StatusInternalServerError, ErrCodeEnhancement},
		{"other", errors.New("disk full"), http.StatusInternalServerError, ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := classifyError(tt.err)
			if status != tt.wantStatus || code != tt.wantCode {
				t.Errorf("classifyError() = (%d, %q), want (%d, %q)", status, code, tt.wantStatus, tt.wantCode)
			}
		})
	}
}

func TestWriteServiceError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, &transcribe.Error{Err: errors.New("bad audio")}, nil)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"success":false`) {
		t.Errorf("body %s missing success=false", body)
	}
	if !strings.Contains(body, `"detail":"Transcription failed: bad audio"`) {
		t.Errorf("body %s missing detail", body)
	}
	if strings.Contains(body, "raw_transcription") {
		t.Errorf("body %s should omit raw_transcription", body)
	}
}

func TestWriteServiceError_InternalHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, fmt.Errorf("store upload: %w", errors.New("open /tmp/scribe-1.wav: file name too long")), nil)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "/tmp") {
		t.Errorf("body %s exposes a server path", body)
	}
	if !strings.Contains(body, `"error":"internal_error"`) || !strings.Contains(body, `"detail":"internal server error"`) {
		t.Errorf("unexpected body %s", body)
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Text string `json:"text"`
	}

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"text":"hi"}`))
	if err := DecodeJSON(req, &v); err != nil || v.Text != "hi" {
		t.Errorf("DecodeJSON() = %v, text = %q", err, v.Text)
	}

	req = httptest.NewRequest("POST", "/", nil)
	req.Body = nil
	if err := DecodeJSON(req, &v); err == nil {
		t.Error("expected error for nil body")
	}

	req = httptest.NewRequest("POST", "/", strings.NewReader(`[1,2`))
	if err := DecodeJSON(req, &v); err == nil {
		t.Error("expected error for malformed JSON")
	}

	for _, body := range []string{`{"text":"hi"} junk`, `{"text":"hi"}{"text":"again"}`} {
		req = httptest.NewRequest("POST", "/", strings.NewReader(body))
		if err := DecodeJSON(req, &v); err == nil {
			t.Errorf("expected error for trailing data in %q", body)
		}
	}

	req = httptest.NewRequest("POST", "/", strings.NewReader("{\"text\":\"hi\"}\n\t "))
	if err := DecodeJSON(req, &v); err != nil {
		t.Errorf("trailing whitespace rejected: %v", err)
	}
}
