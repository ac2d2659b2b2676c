package transcribe

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/snarg/scribe/internal/metrics"
)

// ServiceOptions configures the transcription service.
type ServiceOptions struct {
	Loader    Loader
	ModelSize string
	Backend   string
	Workers   int
	QueueSize int
	Timeout   time.Duration
	Log       zerolog.Logger
}

// Service owns the lazily loaded model handle and the worker pool that
// runs inference against it.
type Service struct {
	loader  Loader
	size    string
	backend string
	timeout time.Duration
	pool    *WorkerPool
	log     zerolog.Logger

	mu     sync.Mutex
	model  Model
	loaded atomic.Bool
	loads  atomic.Int64
}

// NewService creates a transcription service. The model is not loaded until
// the first Transcribe or Preload call.
func NewService(opts ServiceOptions) *Service {
	if opts.ModelSize == "" {
		opts.ModelSize = "base"
	}
	return &Service{
		loader:  opts.Loader,
		size:    opts.ModelSize,
		backend: opts.Backend,
		timeout: opts.Timeout,
		pool:    NewWorkerPool(opts.Workers, opts.QueueSize, opts.Log),
		log:     opts.Log,
	}
}

// Start launches the worker pool.
func (s *Service) Start() { s.pool.Start() }

// Stop drains the worker pool and releases the model.
func (s *Service) Stop() {
	s.pool.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model != nil {
		if err := s.model.Close(); err != nil {
			s.log.Warn().Err(err).Msg("model close failed")
		}
		s.model = nil
		s.loaded.Store(false)
	}
}

// Preload loads the model before traffic arrives.
func (s *Service) Preload(ctx context.Context) error {
	if _, err := s.handle(ctx); err != nil {
		return &Error{Err: err}
	}
	return nil
}

// Transcribe runs the model over the audio file at path.
func (s *Service) Transcribe(ctx context.Context, path string) (*Result, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := s.pool.Do(ctx, func(ctx context.Context) (*Result, error) {
		m, err := s.handle(ctx)
		if err != nil {
			return nil, err
		}
		return m.Transcribe(ctx, path)
	})
	metrics.TranscriptionDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		err = s.classify(err)
		metrics.TranscriptionsTotal.WithLabelValues(resultLabel(err)).Inc()
		return nil, err
	}
	metrics.TranscriptionsTotal.WithLabelValues("success").Inc()

	out := &Result{
		Text:     strings.TrimSpace(res.Text),
		Language: res.Language,
	}
	if out.Language == "" {
		out.Language = UnknownLanguage
	}
	return out, nil
}

// Loaded reports whether the model handle has been loaded.
func (s *Service) Loaded() bool { return s.loaded.Load() }

// Loads returns the number of load attempts made so far.
func (s *Service) Loads() int64 { return s.loads.Load() }

// Model returns the configured model size.
func (s *Service) Model() string { return s.size }

// Backend returns the configured backend name.
func (s *Service) Backend() string { return s.backend }

// QueueStats returns worker pool statistics.
func (s *Service) QueueStats() QueueStats { return s.pool.Stats() }

// QueuePending returns the number of queued jobs.
func (s *Service) QueuePending() int { return s.pool.Stats().Pending }

// handle returns the loaded model, loading it on first use. The mutex makes
// concurrent first callers wait for a single load. A failed load leaves the
// handle empty so a later call can retry.
func (s *Service) handle(ctx context.Context) (Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model != nil {
		return s.model, nil
	}

	s.loads.Add(1)
	metrics.ModelLoadsTotal.Inc()
	start := time.Now()
	s.log.Info().Str("model", s.size).Str("backend", s.backend).Msg("loading transcription model")

	m, err := s.loader(ctx, s.size)
	if err != nil {
		s.log.Error().Err(err).Str("model", s.size).Msg("model load failed")
		return nil, err
	}
	s.model = m
	s.loaded.Store(true)
	s.log.Info().Str("model", s.size).Dur("took", time.Since(start)).Msg("transcription model loaded")
	return m, nil
}

func (s *Service) classify(err error) error {
	switch {
	case errors.Is(err, ErrBusy), errors.Is(err, ErrClosed):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(err, context.Canceled):
		return err
	}
	return &Error{Err: err}
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return "error"
}
