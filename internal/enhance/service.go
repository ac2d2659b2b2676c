package enhance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/snarg/scribe/internal/metrics"
)

// DefaultMaxTokens caps the length of the enhanced text.
const DefaultMaxTokens = 1024

// Request is the input to Enhance. An empty Task means DefaultTask.
type Request struct {
	Text string `json:"text"`
	Task string `json:"task"`
}

// Result is the enhanced text along with the input that produced it.
type Result struct {
	Original string `json:"original"`
	Enhanced string `json:"enhanced"`
	Task     string `json:"task"`
}

// ServiceOptions configures the enhancement service.
type ServiceOptions struct {
	Provider  Provider
	Model     string
	MaxTokens int64
	Timeout   time.Duration
	// StrictTasks rejects unknown task names instead of falling back to cleanup.
	StrictTasks bool
	Log         zerolog.Logger
}

// Service wraps text in a task instruction and sends it to the provider.
type Service struct {
	provider  Provider
	model     string
	maxTokens int64
	timeout   time.Duration
	strict    bool
	log       zerolog.Logger
}

// NewService creates an enhancement service.
func NewService(opts ServiceOptions) *Service {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	return &Service{
		provider:  opts.Provider,
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		timeout:   opts.Timeout,
		strict:    opts.StrictTasks,
		log:       opts.Log,
	}
}

// Enhance runs req.Text through the instruction selected by req.Task.
// The call is attempted once.
func (s *Service) Enhance(ctx context.Context, req Request) (*Result, error) {
	task := req.Task
	if task == "" {
		task = DefaultTask
	}
	label := task
	if _, ok := Instruction(task); !ok {
		if s.strict {
			return nil, fmt.Errorf("%w %q: expected one of cleanup, summarize, action_items, format", ErrUnknownTask, task)
		}
		s.log.Debug().Str("task", task).Msg("unknown task, using cleanup instruction")
		label = DefaultTask
	}

	if !s.provider.Configured() {
		metrics.EnhancementsTotal.WithLabelValues(label, "not_configured").Inc()
		return nil, &ConfigError{Var: s.provider.CredentialVar()}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.provider.Complete(ctx, CompletionRequest{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		Prompt:    BuildPrompt(task, req.Text),
	})
	metrics.EnhancementDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			err = ErrTimeout
		case errors.Is(err, context.Canceled):
		default:
			err = &Error{Err: err}
		}
		metrics.EnhancementsTotal.WithLabelValues(label, "error").Inc()
		s.log.Warn().Err(err).Str("provider", s.provider.Name()).Str("task", task).Msg("enhancement failed")
		return nil, err
	}
	metrics.EnhancementsTotal.WithLabelValues(label, "success").Inc()

	return &Result{
		Original: req.Text,
		Enhanced: text,
		Task:     task,
	}, nil
}

// Configured reports whether the provider has a credential.
func (s *Service) Configured() bool { return s.provider.Configured() }

// ProviderName returns the configured provider's name.
func (s *Service) ProviderName() string { return s.provider.Name() }
