package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/guttosm/varpulse/internal/domain/models"
)

// memOutput collects flushed buffers in memory.
type memOutput struct {
	*Sinks

	mu       sync.Mutex
	products []models.Product
	trades   []models.Trade
	risks    []models.Risk

	completed atomic.Bool
	aborted   atomic.Bool
}

func newMemOutput(capacity int) *memOutput {
	o := &memOutput{}
	o.Sinks = NewSinks(context.Background(),
		BufferSizes{Products: capacity, Trades: capacity, Risks: capacity},
		FlushConfig{Workers: 4, QueueDepth: 4, Timeout: 10 * time.Second},
		Writers{
			Products: func(ctx context.Context, seq int64, recs []models.Product) error {
				o.mu.Lock()
				defer o.mu.Unlock()
				o.products = append(o.products, recs...)
				return nil
			},
			Trades: func(ctx context.Context, seq int64, recs []models.Trade) error {
				o.mu.Lock()
				defer o.mu.Unlock()
				o.trades = append(o.trades, recs...)
				return nil
			},
			Risks: func(ctx context.Context, seq int64, recs []models.Risk) error {
				o.mu.Lock()
				defer o.mu.Unlock()
				o.risks = append(o.risks, recs...)
				return nil
			},
		})
	return o
}

func (o *memOutput) Complete(ctx context.Context) error {
	if err := o.Drain(ctx); err != nil {
		return err
	}
	o.completed.Store(true)
	return nil
}

func (o *memOutput) Abort(ctx context.Context) error {
	o.aborted.Store(true)
	return o.Drain(ctx)
}

// failingOutput rejects one trade id.
type failingOutput struct {
	*memOutput
	badTrade int64
}

func (o *failingOutput) AppendTrade(ctx context.Context, t models.Trade) error {
	if t.Id == o.badTrade {
		return errors.New("rejected")
	}
	return o.memOutput.AppendTrade(ctx, t)
}

func defaultOptions() Options {
	return Options{
		RunID:             "test",
		TradeCount:        1000,
		ProductCount:      100,
		CounterpartyCount: 50,
		VectorLength:      260,
		BatchSize:         250,
		Parallelism:       4,
		AsOf:              time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestGenerate_EndToEnd(t *testing.T) {
	out := newMemOutput(64)
	sum, err := Generate(context.Background(), defaultOptions(), out)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !out.completed.Load() || out.aborted.Load() {
		t.Fatalf("completed=%v aborted=%v", out.completed.Load(), out.aborted.Load())
	}
	if sum.Products != 100 || sum.Trades != 1000 || sum.Risks != 1000 || sum.Batches != 4 {
		t.Fatalf("summary=%+v", sum)
	}
	if len(out.products) != 100 || len(out.trades) != 1000 || len(out.risks) != 1000 {
		t.Fatalf("collected products=%d trades=%d risks=%d", len(out.products), len(out.trades), len(out.risks))
	}

	trades := make(map[int64]models.Trade, len(out.trades))
	for _, tr := range out.trades {
		if _, dup := trades[tr.Id]; dup {
			t.Fatalf("duplicate trade id %d", tr.Id)
		}
		if tr.Id < 0 || tr.Id >= 1000 {
			t.Fatalf("trade id %d out of range", tr.Id)
		}
		if int64(tr.ProductId) != tr.Id%100 {
			t.Fatalf("trade %d has product %d, want %d", tr.Id, tr.ProductId, tr.Id%100)
		}
		trades[tr.Id] = tr
	}

	seenRisk := make(map[int64]bool, len(out.risks))
	for _, r := range out.risks {
		if _, ok := trades[r.TradeId]; !ok {
			t.Fatalf("orphan risk for trade %d", r.TradeId)
		}
		if seenRisk[r.TradeId] {
			t.Fatalf("two risks for trade %d", r.TradeId)
		}
		seenRisk[r.TradeId] = true
		if len(r.PnlVector) != 260 {
			t.Fatalf("risk %d vector length %d", r.TradeId, len(r.PnlVector))
		}
	}
}

func TestGenerate_BatchFailureAborts(t *testing.T) {
	out := &failingOutput{memOutput: newMemOutput(50), badTrade: 500}
	sum, err := Generate(context.Background(), defaultOptions(), out)
	if !errors.Is(err, ErrBatchFailed) {
		t.Fatalf("err=%v, want ErrBatchFailed", err)
	}
	if out.completed.Load() || !out.aborted.Load() {
		t.Fatalf("completed=%v aborted=%v, want abort only", out.completed.Load(), out.aborted.Load())
	}
	// batch [500, 750) stops at its first trade; the other three batches finish
	if sum.Trades != 750 {
		t.Fatalf("trades=%d, want 750", sum.Trades)
	}
	out.mu.Lock()
	flushed := len(out.trades)
	out.mu.Unlock()
	if flushed != 750 {
		t.Fatalf("flushed trades=%d, want 750", flushed)
	}
	for _, tr := range out.trades {
		if tr.Id >= 500 && tr.Id < 750 {
			t.Fatalf("trade %d from the failed batch was written", tr.Id)
		}
	}
}

func TestGenerate_ZeroTrades(t *testing.T) {
	out := newMemOutput(16)
	opts := defaultOptions()
	opts.TradeCount = 0
	sum, err := Generate(context.Background(), opts, out)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if sum.Trades != 0 || sum.Batches != 0 || sum.Products != 100 || !out.completed.Load() {
		t.Fatalf("summary=%+v completed=%v", sum, out.completed.Load())
	}
}

func TestGenerate_InvalidOptions(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Options)
		want   error
	}{
		{"zero batch size", func(o *Options) { o.BatchSize = 0 }, ErrInvalidPartition},
		{"no products", func(o *Options) { o.ProductCount = 0 }, ErrEmptyReferenceData},
		{"no counterparties", func(o *Options) { o.CounterpartyCount = 0 }, ErrEmptyReferenceData},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out := newMemOutput(16)
			opts := defaultOptions()
			c.mutate(&opts)
			if _, err := Generate(context.Background(), opts, out); !errors.Is(err, c.want) {
				t.Fatalf("err=%v, want %v", err, c.want)
			}
			if out.completed.Load() || !out.aborted.Load() {
				t.Fatalf("expected abort without completion")
			}
		})
	}
}

func TestGenerate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := newMemOutput(16)
	if _, err := Generate(ctx, defaultOptions(), out); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v, want context.Canceled", err)
	}
	if out.completed.Load() {
		t.Fatalf("cancelled run must not complete")
	}
}
