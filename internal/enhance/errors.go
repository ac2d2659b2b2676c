package enhance

import "errors"

var (
	// ErrNotConfigured matches any *ConfigError.
	ErrNotConfigured = errors.New("enhancement provider not configured")
	// ErrUnknownTask is returned in strict mode for tasks outside Tasks().
	ErrUnknownTask = errors.New("unknown task")
	// ErrTimeout is returned when the completion call exceeds its deadline.
	ErrTimeout = errors.New("enhancement timed out")
)

// ConfigError reports a missing credential. It is raised before any network call.
type ConfigError struct {
	Var string
}

func (e *ConfigError) Error() string { return e.Var + " not configured" }

func (e *ConfigError) Is(target error) bool { return target == ErrNotConfigured }

// Error wraps a failed completion API call.
type Error struct {
	Err error
}

func (e *Error) Error() string { return "Enhancement failed: " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }
