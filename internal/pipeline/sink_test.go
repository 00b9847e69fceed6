package pipeline

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
)

type flushRecorder struct {
	mu      sync.Mutex
	buffers map[int64][]int
}

func newFlushRecorder() *flushRecorder {
	return &flushRecorder{buffers: make(map[int64][]int)}
}

func (r *flushRecorder) flush(ctx context.Context, seq int64, recs []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.buffers[seq]; dup {
		return errors.New("duplicate sequence number")
	}
	r.buffers[seq] = append([]int(nil), recs...)
	return nil
}

func TestSink_ConcurrentAppendsLoseNothing(t *testing.T) {
	exec := NewFlushExecutor(context.Background(), 3, 2)
	rec := newFlushRecorder()
	sink := NewSink("trades", 10, exec, rec.flush)

	const writers, perWriter = 5, 19
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if err := sink.Append(context.Background(), w*perWriter+i); err != nil {
					t.Errorf("append: %v", err)
				}
			}
		}(w)
	}
	wg.Wait()
	if err := sink.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := exec.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}

	const total = writers * perWriter
	if len(rec.buffers) != 10 {
		t.Fatalf("buffers=%d, want 10", len(rec.buffers))
	}
	var all []int
	for seq := int64(0); seq < 10; seq++ {
		buf, ok := rec.buffers[seq]
		if !ok {
			t.Fatalf("missing sequence %d", seq)
		}
		all = append(all, buf...)
	}
	sort.Ints(all)
	if len(all) != total {
		t.Fatalf("records=%d, want %d", len(all), total)
	}
	for i, v := range all {
		if v != i {
			t.Fatalf("record %d missing or duplicated (got %d)", i, v)
		}
	}
	if sink.Appended() != total || sink.HandedOff() != total || sink.Buffers() != 10 {
		t.Fatalf("appended=%d handedOff=%d buffers=%d", sink.Appended(), sink.HandedOff(), sink.Buffers())
	}
}

func TestSink_AppendOrderWithinBuffer(t *testing.T) {
	exec := NewFlushExecutor(context.Background(), 1, 1)
	rec := newFlushRecorder()
	sink := NewSink("risks", 4, exec, rec.flush)
	for i := 0; i < 6; i++ {
		if err := sink.Append(context.Background(), i); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	_ = sink.Flush(context.Background())
	if err := exec.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	want := map[int64][]int{0: {0, 1, 2, 3}, 1: {4, 5}}
	for seq, w := range want {
		got := rec.buffers[seq]
		if len(got) != len(w) {
			t.Fatalf("seq %d = %v, want %v", seq, got, w)
		}
		for i := range w {
			if got[i] != w[i] {
				t.Fatalf("seq %d = %v, want %v", seq, got, w)
			}
		}
	}
}

func TestSink_ClosedAfterFlush(t *testing.T) {
	exec := NewFlushExecutor(context.Background(), 1, 1)
	rec := newFlushRecorder()
	sink := NewSink("products", 8, exec, rec.flush)

	_ = sink.Append(context.Background(), 1)
	if err := sink.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := sink.Flush(context.Background()); err != nil {
		t.Fatalf("second flush: %v", err)
	}
	if err := sink.Append(context.Background(), 2); !errors.Is(err, ErrSinkClosed) {
		t.Fatalf("err=%v, want ErrSinkClosed", err)
	}
	if err := exec.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(rec.buffers) != 1 {
		t.Fatalf("buffers=%d, want 1", len(rec.buffers))
	}
}

func TestSink_EmptyFlushSubmitsNothing(t *testing.T) {
	exec := NewFlushExecutor(context.Background(), 1, 1)
	rec := newFlushRecorder()
	sink := NewSink("products", 8, exec, rec.flush)
	if err := sink.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	_ = exec.Close(context.Background())
	if len(rec.buffers) != 0 || exec.Completed() != 0 {
		t.Fatalf("expected no flush, got %d buffers", len(rec.buffers))
	}
}

func TestSink_ExactMultipleHasNoPartialBuffer(t *testing.T) {
	exec := NewFlushExecutor(context.Background(), 2, 2)
	rec := newFlushRecorder()
	sink := NewSink("trades", 5, exec, rec.flush)
	for i := 0; i < 20; i++ {
		_ = sink.Append(context.Background(), i)
	}
	_ = sink.Flush(context.Background())
	_ = exec.Close(context.Background())
	if len(rec.buffers) != 4 {
		t.Fatalf("buffers=%d, want 4", len(rec.buffers))
	}
}

func TestSink_NonPositiveCapacity(t *testing.T) {
	exec := NewFlushExecutor(context.Background(), 1, 1)
	sink := NewSink("trades", 0, exec, newFlushRecorder().flush)
	if sink.Capacity() != 1 {
		t.Fatalf("capacity=%d, want 1", sink.Capacity())
	}
	_ = exec.Close(context.Background())
}

func TestSink_HandOffFailsOnClosedExecutor(t *testing.T) {
	exec := NewFlushExecutor(context.Background(), 1, 1)
	_ = exec.Close(context.Background())
	sink := NewSink("risks", 1, exec, newFlushRecorder().flush)
	if err := sink.Append(context.Background(), 1); !errors.Is(err, ErrExecutorClosed) {
		t.Fatalf("err=%v, want ErrExecutorClosed", err)
	}
}
