package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/varpulse/internal/domain/models"
	"github.com/guttosm/varpulse/internal/logger"
	"github.com/guttosm/varpulse/internal/metrics"
)

// BatchFunc generates every record of one batch.
type BatchFunc func(ctx context.Context, b models.Batch) error

// Driver runs batches with bounded parallelism.
//
// By default a failing batch does not stop its siblings: every batch runs and
// all failures are returned together. With FailFast the first failure cancels
// the shared context and batches that have not started yet are skipped.
type Driver struct {
	Parallelism int
	FailFast    bool
}

// Run blocks until every batch has finished (or was skipped) and returns the
// joined batch errors. A cancelled parent context is always reported.
func (d Driver) Run(ctx context.Context, batches []models.Batch, fn BatchFunc) error {
	parallelism := d.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		g       errgroup.Group
		mu      sync.Mutex
		errs    []error
		skipped int
	)
	g.SetLimit(parallelism)

	for _, b := range batches {
		g.Go(func() error {
			if runCtx.Err() != nil {
				mu.Lock()
				skipped++
				mu.Unlock()
				return nil
			}

			err := runBatch(runCtx, b, fn)
			metrics.Batches.WithLabelValues(metrics.StatusOf(err)).Inc()
			if err != nil {
				logger.L().Error().Err(err).Int("batch", b.Index).Int64("start", b.Start).Int64("end", b.End).Msg("batch failed")
				mu.Lock()
				errs = append(errs, fmt.Errorf("%w: #%d [%d, %d): %w", ErrBatchFailed, b.Index, b.Start, b.End, err))
				mu.Unlock()
				if d.FailFast {
					cancel()
				}
				return nil
			}
			logger.L().Debug().Int("batch", b.Index).Int64("records", b.Len()).Msg("batch done")
			return nil
		})
	}
	_ = g.Wait()

	if skipped > 0 {
		logger.L().Warn().Int("skipped", skipped).Int("total", len(batches)).Msg("batches skipped after cancellation")
	}
	if err := ctx.Err(); err != nil {
		errs = append(errs, fmt.Errorf("generation cancelled: %w", err))
	}
	return errors.Join(errs...)
}

// runBatch recovers a panic in fn into an error.
func runBatch(ctx context.Context, b models.Batch, fn BatchFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return fn(ctx, b)
}
