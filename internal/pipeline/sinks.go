package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/guttosm/varpulse/internal/domain/models"
)

// Entity names, used for directories, metric labels and log fields.
const (
	EntityProducts = "products"
	EntityTrades   = "trades"
	EntityRisks    = "risks"
)

const (
	DefaultProductBuffer = 1024
	DefaultTradeBuffer   = 15 * 1024
	DefaultRiskBuffer    = 15 * 1024
	DefaultFlushTimeout  = time.Hour
)

// BufferSizes holds the per-entity buffer capacities.
type BufferSizes struct {
	Products int
	Trades   int
	Risks    int
}

// FlushConfig sizes the flush executor.
type FlushConfig struct {
	Workers    int
	QueueDepth int
	Timeout    time.Duration
}

// Writers persist one buffer of each entity.
type Writers struct {
	Products FlushFunc[models.Product]
	Trades   FlushFunc[models.Trade]
	Risks    FlushFunc[models.Risk]
}

// Counts is the number of records handed off per entity.
type Counts struct {
	Products int64
	Trades   int64
	Risks    int64
}

// Sinks bundles the three entity sinks sharing one flush executor. Outputs
// embed it and add their own completion semantics.
type Sinks struct {
	exec     *FlushExecutor
	timeout  time.Duration
	products *Sink[models.Product]
	trades   *Sink[models.Trade]
	risks    *Sink[models.Risk]
}

// NewSinks starts a flush executor and opens one sink per entity.
func NewSinks(ctx context.Context, sizes BufferSizes, cfg FlushConfig, w Writers) *Sinks {
	exec := NewFlushExecutor(ctx, cfg.Workers, cfg.QueueDepth)
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultFlushTimeout
	}
	return &Sinks{
		exec:     exec,
		timeout:  timeout,
		products: NewSink(EntityProducts, sizes.Products, exec, w.Products),
		trades:   NewSink(EntityTrades, sizes.Trades, exec, w.Trades),
		risks:    NewSink(EntityRisks, sizes.Risks, exec, w.Risks),
	}
}

// AppendProduct buffers p, handing a full buffer to the flush executor.
func (s *Sinks) AppendProduct(ctx context.Context, p models.Product) error {
	return s.products.Append(ctx, p)
}

// AppendTrade buffers t, handing a full buffer to the flush executor.
func (s *Sinks) AppendTrade(ctx context.Context, t models.Trade) error {
	return s.trades.Append(ctx, t)
}

// AppendRisk buffers r, handing a full buffer to the flush executor.
func (s *Sinks) AppendRisk(ctx context.Context, r models.Risk) error {
	return s.risks.Append(ctx, r)
}

// Drain flushes every sink and waits for all outstanding flushes, bounded by
// the flush timeout. Cancellation of ctx does not cut the wait short.
func (s *Sinks) Drain(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	var errs []error
	if err := s.products.Flush(waitCtx); err != nil {
		errs = append(errs, err)
	}
	if err := s.trades.Flush(waitCtx); err != nil {
		errs = append(errs, err)
	}
	if err := s.risks.Flush(waitCtx); err != nil {
		errs = append(errs, err)
	}
	if err := s.exec.Close(waitCtx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Counts reports the records handed off so far.
func (s *Sinks) Counts() Counts {
	return Counts{
		Products: s.products.HandedOff(),
		Trades:   s.trades.HandedOff(),
		Risks:    s.risks.HandedOff(),
	}
}

// Executor exposes the shared flush executor.
func (s *Sinks) Executor() *FlushExecutor { return s.exec }
