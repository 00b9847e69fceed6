package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/guttosm/varpulse/internal/metrics"
)

// FlushFunc persists one buffer. seq is unique per sink and starts at 0.
type FlushFunc[T any] func(ctx context.Context, seq int64, records []T) error

// Sink accumulates records of one entity in a fixed-capacity buffer and hands
// each full buffer to a FlushExecutor.
type Sink[T any] struct {
	entity   string
	capacity int
	exec     *FlushExecutor
	flush    FlushFunc[T]
	appended prometheus.Counter

	mu     sync.Mutex
	buf    []T
	pos    int
	seq    int64
	closed bool

	count     atomic.Int64
	handedOff atomic.Int64
}

// NewSink returns an open sink. A non-positive capacity is treated as 1.
func NewSink[T any](entity string, capacity int, exec *FlushExecutor, flush FlushFunc[T]) *Sink[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Sink[T]{
		entity:   entity,
		capacity: capacity,
		exec:     exec,
		flush:    flush,
		appended: metrics.RecordsAppended.WithLabelValues(entity),
		buf:      make([]T, capacity),
	}
}

// Entity returns the name the sink was created with.
func (s *Sink[T]) Entity() string { return s.entity }

// Capacity returns the buffer size.
func (s *Sink[T]) Capacity() int { return s.capacity }

// Append adds rec to the current buffer. The append that fills the buffer
// submits it to the executor outside the lock and may block on a full queue.
func (s *Sink[T]) Append(ctx context.Context, rec T) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", s.entity, ErrSinkClosed)
	}
	s.buf[s.pos] = rec
	s.pos++
	if s.pos < s.capacity {
		s.mu.Unlock()
		s.record()
		return nil
	}
	full, seq := s.swapLocked(make([]T, s.capacity))
	s.mu.Unlock()

	s.record()
	return s.handOff(ctx, seq, full)
}

// Flush hands off the partial buffer, if any, and closes the sink. Calling it
// again is a no-op.
func (s *Sink[T]) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.pos == 0 {
		s.buf = nil
		s.mu.Unlock()
		return nil
	}
	partial, seq := s.swapLocked(nil)
	s.mu.Unlock()

	return s.handOff(ctx, seq, partial)
}

// Appended reports how many records were accepted.
func (s *Sink[T]) Appended() int64 { return s.count.Load() }

// HandedOff reports how many records were submitted for flushing.
func (s *Sink[T]) HandedOff() int64 { return s.handedOff.Load() }

// Buffers reports how many buffers were handed off.
func (s *Sink[T]) Buffers() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

func (s *Sink[T]) swapLocked(next []T) ([]T, int64) {
	full := s.buf[:s.pos]
	seq := s.seq
	s.seq++
	s.buf = next
	s.pos = 0
	return full, seq
}

func (s *Sink[T]) record() {
	s.count.Add(1)
	s.appended.Inc()
}

func (s *Sink[T]) handOff(ctx context.Context, seq int64, records []T) error {
	task := FlushTask{
		Entity:  s.entity,
		Seq:     seq,
		Records: len(records),
		Run: func(ctx context.Context) error {
			return s.flush(ctx, seq, records)
		},
	}
	if err := s.exec.Submit(ctx, task); err != nil {
		return fmt.Errorf("hand off %s buffer #%d: %w", s.entity, seq, err)
	}
	s.handedOff.Add(int64(len(records)))
	return nil
}
