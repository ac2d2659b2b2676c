package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/snarg/scribe/internal/api"
	"github.com/snarg/scribe/internal/config"
	"github.com/snarg/scribe/internal/enhance"
	"github.com/snarg/scribe/internal/metrics"
	"github.com/snarg/scribe/internal/storage"
	"github.com/snarg/scribe/internal/transcribe"
)

var version = "dev"

func main() {
	startTime := time.Now()

	var overrides config.Overrides
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.StringVar(&overrides.EnvFile, "env-file", "", "Path to .env file (default: .env)")
	flag.StringVar(&overrides.HTTPAddr, "listen", "", "HTTP listen address (env: HTTP_ADDR)")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "Log level: debug, info, warn, error (env: LOG_LEVEL)")
	flag.StringVar(&overrides.WhisperModel, "model", "", "Whisper model size (env: WHISPER_MODEL)")
	flag.StringVar(&overrides.Backend, "backend", "", "Transcription backend: whisper-http, whispercpp (env: TRANSCRIBE_BACKEND)")
	flag.Parse()

	if *showVersion {
		fmt.Println("scribe", version)
		return
	}

	// Config
	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	// Logger
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().
		Str("version", version).
		Str("backend", cfg.Transcribe.Backend).
		Str("model", cfg.Transcribe.Model).
		Str("enhance_provider", cfg.Enhance.Provider).
		Msg("scribe starting")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Transcription
	trLog := log.With().Str("component", "transcribe").Logger()
	loader, err := transcribe.NewLoader(cfg.Transcribe)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure transcription backend")
	}
	transcriber := transcribe.NewService(transcribe.ServiceOptions{
		Loader:    loader,
		ModelSize: cfg.Transcribe.Model,
		Backend:   cfg.Transcribe.Backend,
		Workers:   cfg.Transcribe.Workers,
		QueueSize: cfg.Transcribe.QueueSize,
		Timeout:   cfg.Transcribe.Timeout,
		Log:       trLog,
	})
	transcriber.Start()
	defer transcriber.Stop()

	if cfg.Transcribe.Preload {
		if err := transcriber.Preload(ctx); err != nil {
			// Not fatal: the next request retries the load.
			trLog.Error().Err(err).Msg("model preload failed")
		}
	}

	// Enhancement
	enLog := log.With().Str("component", "enhance").Logger()
	provider, err := enhance.NewProvider(cfg.Enhance)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure enhancement provider")
	}
	enhancer := enhance.NewService(enhance.ServiceOptions{
		Provider:    provider,
		Model:       cfg.Enhance.Model,
		MaxTokens:   cfg.Enhance.MaxTokens,
		Timeout:     cfg.Enhance.Timeout,
		StrictTasks: cfg.Enhance.StrictTasks,
		Log:         enLog,
	})
	if !enhancer.Configured() {
		enLog.Warn().Str("provider", enhancer.ProviderName()).Msg("no API key configured; enhancement requests will fail")
	}

	prometheus.MustRegister(metrics.NewCollector(transcriber))

	// Temp uploads
	storeLog := log.With().Str("component", "storage").Logger()
	store := storage.NewTempStore(cfg.TempDir, storeLog)
	sweeper := storage.NewSweeper(store, cfg.TempMaxAge, storeLog)
	sweeper.Start()
	defer sweeper.Stop()

	// HTTP Server
	httpLog := log.With().Str("component", "http").Logger()
	srv := api.NewServer(cfg, api.ServerOptions{
		Store:       store,
		Transcriber: transcriber,
		Enhancer:    enhancer,
		Model:       transcriber,
		Credentials: enhancer,
		Version:     version,
		StartTime:   startTime,
		Log:         httpLog,
	})

	// Start HTTP server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	// Graceful shutdown with 10s timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("scribe stopped")
}
