package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/snarg/scribe/internal/config"
	"github.com/snarg/scribe/internal/metrics"
	"github.com/snarg/scribe/internal/storage"
)

// ServerOptions holds the services the HTTP layer composes.
type ServerOptions struct {
	Store       *storage.TempStore
	Transcriber Transcriber
	Enhancer    Enhancer
	Model       ModelStatus
	Credentials CredentialStatus
	Version     string
	StartTime   time.Time
	Log         zerolog.Logger
}

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

func NewServer(cfg *config.Config, opts ServerOptions) *Server {
	return &Server{
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      NewRouter(cfg, opts),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: opts.Log,
	}
}

// NewRouter builds the handler tree. Exposed for tests.
func NewRouter(cfg *config.Config, opts ServerOptions) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(Logger(opts.Log))
	r.Use(metrics.InstrumentHandler)
	r.Use(CORSWithOrigins(cfg.Origins()))
	if cfg.RateLimitRPS > 0 {
		r.Use(RateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	// Unauthenticated
	r.Get("/", Root)
	health := NewHealthHandler(opts.Model, opts.Credentials, opts.Version, opts.StartTime)
	r.Get("/health", health.ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	speech := NewSpeechHandler(opts.Store, opts.Transcriber, opts.Enhancer, cfg.MaxUploadMB<<20, opts.Log)
	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(cfg.AuthToken))
		speech.Routes(r)
	})

	return r
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
