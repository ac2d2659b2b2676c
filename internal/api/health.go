package api

import (
	"net/http"
	"time"

	"github.com/snarg/scribe/internal/transcribe"
)

type RootResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Root handles GET /.
func Root(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, RootResponse{Message: "Speech to Text API", Status: "running"})
}

type HealthResponse struct {
	Status        string                 `json:"status"`
	Version       string                 `json:"version"`
	UptimeSeconds int64                  `json:"uptime_seconds"`
	Checks        map[string]string      `json:"checks"`
	Model         string                 `json:"model,omitempty"`
	Backend       string                 `json:"backend,omitempty"`
	Queue         *transcribe.QueueStats `json:"queue,omitempty"`
}

// ModelStatus exposes transcription model state.
type ModelStatus interface {
	Loaded() bool
	Model() string
	Backend() string
	QueueStats() transcribe.QueueStats
}

// CredentialStatus exposes whether the enhancement provider can be called.
type CredentialStatus interface {
	Configured() bool
}

type HealthHandler struct {
	model     ModelStatus
	enhance   CredentialStatus
	version   string
	startTime time.Time
}

func NewHealthHandler(model ModelStatus, enhance CredentialStatus, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{
		model:     model,
		enhance:   enhance,
		version:   version,
		startTime: startTime,
	}
}

// ServeHTTP handles GET /health. A missing credential or an unloaded model
// does not make the service unhealthy; both are reported under checks.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "healthy",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        make(map[string]string),
	}

	if h.model != nil {
		resp.Model = h.model.Model()
		resp.Backend = h.model.Backend()
		stats := h.model.QueueStats()
		resp.Queue = &stats
		if h.model.Loaded() {
			resp.Checks["model"] = "loaded"
		} else {
			resp.Checks["model"] = "not_loaded"
		}
		if h.model.Backend() == transcribe.BackendWhisperCpp {
			if transcribe.CheckSox() {
				resp.Checks["sox"] = "ok"
			} else {
				resp.Checks["sox"] = "missing"
				resp.Status = "degraded"
			}
		}
	}

	if h.enhance != nil {
		if h.enhance.Configured() {
			resp.Checks["enhance"] = "configured"
		} else {
			resp.Checks["enhance"] = "missing_credential"
			resp.Status = "degraded"
		}
	}

	WriteJSON(w, http.StatusOK, resp)
}
