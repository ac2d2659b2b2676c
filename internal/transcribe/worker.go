package transcribe

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// jobFunc runs on a worker goroutine.
type jobFunc func(ctx context.Context) (*Result, error)

type job struct {
	ctx  context.Context
	fn   jobFunc
	done chan jobResult
}

type jobResult struct {
	res *Result
	err error
}

// QueueStats reports the current state of the transcription queue.
type QueueStats struct {
	Pending   int   `json:"pending"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// WorkerPool runs transcriptions off the request goroutines with a bounded queue.
type WorkerPool struct {
	jobs    chan job
	workers int
	log     zerolog.Logger
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	completed atomic.Int64
	failed    atomic.Int64
}

// NewWorkerPool creates a pool. Call Start before submitting work.
func NewWorkerPool(workers, queueSize int, log zerolog.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &WorkerPool{
		jobs:    make(chan job, queueSize),
		workers: workers,
		log:     log,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
	wp.log.Info().Int("workers", wp.workers).Int("queue_size", cap(wp.jobs)).Msg("transcription worker pool started")
}

// Stop rejects new work, drains queued jobs and waits for the workers.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if wp.closed {
		wp.mu.Unlock()
		return
	}
	wp.closed = true
	close(wp.jobs)
	wp.mu.Unlock()

	wp.wg.Wait()
	wp.log.Info().
		Int64("completed", wp.completed.Load()).
		Int64("failed", wp.failed.Load()).
		Msg("transcription worker pool stopped")
}

// Do queues fn and waits for its result or for ctx to end.
// Returns ErrBusy without waiting if the queue is full.
func (wp *WorkerPool) Do(ctx context.Context, fn jobFunc) (*Result, error) {
	j := job{ctx: ctx, fn: fn, done: make(chan jobResult, 1)}

	wp.mu.RLock()
	if wp.closed {
		wp.mu.RUnlock()
		return nil, ErrClosed
	}
	select {
	case wp.jobs <- j:
	default:
		wp.mu.RUnlock()
		return nil, ErrBusy
	}
	wp.mu.RUnlock()

	select {
	case r := <-j.done:
		return r.res, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stats returns current queue statistics.
func (wp *WorkerPool) Stats() QueueStats {
	return QueueStats{
		Pending:   len(wp.jobs),
		Completed: wp.completed.Load(),
		Failed:    wp.failed.Load(),
	}
}

// Workers returns the number of worker goroutines.
func (wp *WorkerPool) Workers() int { return wp.workers }

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	log := wp.log.With().Int("worker", id).Logger()

	for j := range wp.jobs {
		res, err := wp.run(j)
		if err != nil {
			wp.failed.Add(1)
			log.Debug().Err(err).Msg("transcription job failed")
		} else {
			wp.completed.Add(1)
		}
		j.done <- jobResult{res: res, err: err}
	}
}

func (wp *WorkerPool) run(j job) (res *Result, err error) {
	// The caller may have given up while the job sat in the queue.
	if err := j.ctx.Err(); err != nil {
		return nil, err
	}
	defer func() {
		if rv := recover(); rv != nil {
			res, err = nil, fmt.Errorf("panic: %v", rv)
		}
	}()
	return j.fn(j.ctx)
}
