package transcribe

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	res    *Result
	err    error
	delay  time.Duration
	calls  atomic.Int32
	closed atomic.Bool
}

func (m *fakeModel) Transcribe(ctx context.Context, path string) (*Result, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.res, nil
}

func (m *fakeModel) Close() error {
	m.closed.Store(true)
	return nil
}

type countingLoader struct {
	model *fakeModel
	err   error
	delay time.Duration
	calls atomic.Int32
	sizes chan string
}

func (l *countingLoader) load(ctx context.Context, size string) (Model, error) {
	l.calls.Add(1)
	if l.sizes != nil {
		l.sizes <- size
	}
	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	if l.err != nil {
		return nil, l.err
	}
	return l.model, nil
}

func newTestService(t *testing.T, loader Loader, workers, queue int, timeout time.Duration) *Service {
	t.Helper()
	svc := NewService(ServiceOptions{
		Loader:    loader,
		ModelSize: "base",
		Workers:   workers,
		QueueSize: queue,
		Timeout:   timeout,
		Log:       zerolog.Nop(),
	})
	svc.Start()
	t.Cleanup(svc.Stop)
	return svc
}

func TestService_TranscribeLoadsLazily(t *testing.T) {
	l := &countingLoader{
		model: &fakeModel{res: &Result{Text: "  hello world \n", Language: "en"}},
		sizes: make(chan string, 1),
	}
	svc := newTestService(t, l.load, 1, 4, 0)

	assert.False(t, svc.Loaded())
	assert.Equal(t, int32(0), l.calls.Load())

	res, err := svc.Transcribe(context.Background(), "/tmp/a.wav")
	require.NoError(t, err)
	assert.Equal(t, "hello world", res.Text)
	assert.Equal(t, "en", res.Language)
	assert.Equal(t, "base", <-l.sizes)
	assert.True(t, svc.Loaded())

	_, err = svc.Transcribe(context.Background(), "/tmp/b.wav")
	require.NoError(t, err)
	assert.Equal(t, int32(1), l.calls.Load(), "model must not be reloaded")
	assert.Equal(t, int32(2), l.model.calls.Load())
}

func TestService_UnknownLanguage(t *testing.T) {
	l := &countingLoader{model: &fakeModel{res: &Result{Text: "bonjour"}}}
	svc := newTestService(t, l.load, 1, 1, 0)

	res, err := svc.Transcribe(context.Background(), "x.wav")
	require.NoError(t, err)
	assert.Equal(t, UnknownLanguage, res.Language)
}

func TestService_ConcurrentFirstCallsLoadOnce(t *testing.T) {
	l := &countingLoader{
		model: &fakeModel{res: &Result{Text: "ok", Language: "en"}},
		delay: 50 * time.Millisecond,
	}
	const n = 16
	svc := newTestService(t, l.load, 8, n, 0)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Transcribe(context.Background(), "x.wav")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), l.calls.Load())
	assert.Equal(t, int64(1), svc.Loads())
	assert.Equal(t, int32(n), l.model.calls.Load())
}

func TestService_LoadFailureIsRetried(t *testing.T) {
	l := &countingLoader{err: errors.New("model file corrupt")}
	svc := newTestService(t, l.load, 1, 1, 0)

	_, err := svc.Transcribe(context.Background(), "x.wav")
	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "Transcription failed: model file corrupt", err.Error())
	assert.False(t, svc.Loaded())

	l.err = nil
	l.model = &fakeModel{res: &Result{Text: "second try"}}
	res, err := svc.Transcribe(context.Background(), "x.wav")
	require.NoError(t, err)
	assert.Equal(t, "second try", res.Text)
	assert.Equal(t, int32(2), l.calls.Load())
}

func TestService_InferenceError(t *testing.T) {
	l := &countingLoader{model: &fakeModel{err: errors.New("unsupported format")}}
	svc := newTestService(t, l.load, 1, 1, 0)

	_, err := svc.Transcribe(context.Background(), "x.ogg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Transcription failed: unsupported format")
}

func TestService_Timeout(t *testing.T) {
	l := &countingLoader{model: &fakeModel{res: &Result{Text: "late"}, delay: time.Second}}
	svc := newTestService(t, l.load, 1, 1, 20*time.Millisecond)

	_, err := svc.Transcribe(context.Background(), "x.wav")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestService_Busy(t *testing.T) {
	release := make(chan struct{})
	blocking := func(ctx context.Context, size string) (Model, error) {
		<-release
		return &fakeModel{res: &Result{Text: "ok"}}, nil
	}
	svc := newTestService(t, blocking, 1, 1, 0)

	done := make(chan error, 2)
	transcribe := func(name string) {
		_, err := svc.Transcribe(context.Background(), name)
		done <- err
	}

	// First job occupies the only worker, second fills the queue.
	go transcribe("a.wav")
	require.Eventually(t, func() bool { return svc.Loads() == 1 }, time.Second, 5*time.Millisecond)
	go transcribe("b.wav")
	require.Eventually(t, func() bool { return svc.QueueStats().Pending == 1 }, time.Second, 5*time.Millisecond)

	_, err := svc.Transcribe(context.Background(), "c.wav")
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	require.NoError(t, <-done)
	require.NoError(t, <-done)
}

func TestService_Preload(t *testing.T) {
	l := &countingLoader{model: &fakeModel{res: &Result{Text: "x"}}}
	svc := newTestService(t, l.load, 1, 1, 0)

	require.NoError(t, svc.Preload(context.Background()))
	assert.True(t, svc.Loaded())
	_, err := svc.Transcribe(context.Background(), "x.wav")
	require.NoError(t, err)
	assert.Equal(t, int32(1), l.calls.Load())
}

func TestService_StopClosesModel(t *testing.T) {
	m := &fakeModel{res: &Result{Text: "x"}}
	l := &countingLoader{model: m}
	svc := NewService(ServiceOptions{Loader: l.load, Workers: 1, QueueSize: 1, Log: zerolog.Nop()})
	svc.Start()
	require.NoError(t, svc.Preload(context.Background()))
	require.True(t, svc.Loaded())

	svc.Stop()
	assert.True(t, m.closed.Load())
	assert.False(t, svc.Loaded(), "model reported loaded after Stop")

	_, err := svc.Transcribe(context.Background(), "x.wav")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestService_DefaultModelSize(t *testing.T) {
	svc := NewService(ServiceOptions{Log: zerolog.Nop()})
	assert.Equal(t, "base", svc.Model())
}
