package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/guttosm/varpulse/internal/logger"
	"github.com/guttosm/varpulse/internal/metrics"
)

// Defaults used when NewFlushExecutor gets a non-positive worker count or a
// negative queue depth.
const (
	DefaultFlushWorkers    = 8
	DefaultFlushQueueDepth = 16
)

// FlushTask writes one full or partial buffer.
type FlushTask struct {
	Entity  string
	Seq     int64
	Records int
	Run     func(ctx context.Context) error
}

// FlushExecutor drains a bounded queue of flush tasks with a fixed number of
// workers. Submit blocks while the queue is full.
type FlushExecutor struct {
	ctx   context.Context
	queue chan FlushTask
	wg    sync.WaitGroup
	done  chan struct{}

	// intake guards closed and sends on queue.
	intake    sync.RWMutex
	closed    bool
	closeOnce sync.Once

	errMu sync.Mutex
	errs  []error

	completed atomic.Int64
	failed    atomic.Int64
}

// NewFlushExecutor starts workers goroutines draining a queue of queueDepth
// tasks. Tasks run with a context derived from ctx that is never cancelled,
// so a submitted flush always gets to finish.
func NewFlushExecutor(ctx context.Context, workers, queueDepth int) *FlushExecutor {
	if workers <= 0 {
		workers = DefaultFlushWorkers
	}
	if queueDepth < 0 {
		queueDepth = DefaultFlushQueueDepth
	}
	e := &FlushExecutor{
		ctx:   context.WithoutCancel(ctx),
		queue: make(chan FlushTask, queueDepth),
		done:  make(chan struct{}),
	}
	e.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go e.worker()
	}
	go func() {
		e.wg.Wait()
		close(e.done)
	}()
	return e
}

// Submit enqueues a task, blocking while the queue is full.
func (e *FlushExecutor) Submit(ctx context.Context, task FlushTask) error {
	e.intake.RLock()
	defer e.intake.RUnlock()
	if e.closed {
		return fmt.Errorf("%s #%d: %w", task.Entity, task.Seq, ErrExecutorClosed)
	}
	// counted before the send so a worker's Dec never runs ahead of it
	metrics.FlushQueueDepth.Inc()
	select {
	case e.queue <- task:
		return nil
	case <-ctx.Done():
		metrics.FlushQueueDepth.Dec()
		return fmt.Errorf("submit %s #%d: %w", task.Entity, task.Seq, ctx.Err())
	}
}

// Close stops intake and waits for every submitted task. It returns the joined
// task errors, or ErrFlushTimeout if ctx expires first.
func (e *FlushExecutor) Close(ctx context.Context) error {
	e.closeOnce.Do(func() {
		// Submit may hold the read lock while the queue is full, so the
		// write lock is taken off the caller's path.
		go func() {
			e.intake.Lock()
			e.closed = true
			close(e.queue)
			e.intake.Unlock()
		}()
	})

	select {
	case <-e.done:
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrFlushTimeout, ctx.Err())
	}
	return e.Err()
}

// Err returns the joined errors of the tasks that failed so far.
func (e *FlushExecutor) Err() error {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	return errors.Join(e.errs...)
}

// Completed reports how many tasks finished successfully.
func (e *FlushExecutor) Completed() int64 { return e.completed.Load() }

// Failed reports how many tasks returned an error or panicked.
func (e *FlushExecutor) Failed() int64 { return e.failed.Load() }

func (e *FlushExecutor) worker() {
	defer e.wg.Done()
	for task := range e.queue {
		metrics.FlushQueueDepth.Dec()
		e.execute(task)
	}
}

func (e *FlushExecutor) execute(task FlushTask) {
	start := time.Now()
	err := runTask(e.ctx, task)
	elapsed := time.Since(start)

	metrics.Flushes.WithLabelValues(task.Entity, metrics.StatusOf(err)).Inc()
	metrics.FlushDuration.WithLabelValues(task.Entity).Observe(elapsed.Seconds())

	if err != nil {
		e.failed.Add(1)
		logger.L().Error().Err(err).Str("entity", task.Entity).Int64("seq", task.Seq).Int("records", task.Records).Msg("flush failed")
		e.errMu.Lock()
		e.errs = append(e.errs, fmt.Errorf("flush %s #%d (%d records): %w", task.Entity, task.Seq, task.Records, err))
		e.errMu.Unlock()
		return
	}
	e.completed.Add(1)
	logger.L().Debug().Str("entity", task.Entity).Int64("seq", task.Seq).Int("records", task.Records).Dur("elapsed", elapsed).Msg("flush done")
}

func runTask(ctx context.Context, task FlushTask) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return task.Run(ctx)
}
