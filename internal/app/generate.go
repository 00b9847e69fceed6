package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/guttosm/varpulse/config"
	"github.com/guttosm/varpulse/internal/metrics"
	"github.com/guttosm/varpulse/internal/pipeline"
)

// RunGeneration executes one complete run described by cfg: it builds the
// output, generates every record and releases the output backend.
func RunGeneration(ctx context.Context, cfg config.Config, runID string) (sum pipeline.Summary, err error) {
	defer func() {
		metrics.Runs.WithLabelValues(cfg.Output.Mode, metrics.StatusOf(err)).Inc()
	}()

	out, release, err := NewOutput(ctx, cfg, cfg.Generator.TradeCount)
	if err != nil {
		return pipeline.Summary{}, fmt.Errorf("build output: %w", err)
	}

	g := cfg.Generator
	sum, err = pipeline.Generate(ctx, pipeline.Options{
		RunID:             runID,
		TradeCount:        g.TradeCount,
		ProductCount:      g.ProductCount,
		CounterpartyCount: g.CounterpartyCount,
		VectorLength:      g.VectorLength,
		BatchSize:         g.BatchSize,
		Parallelism:       g.Parallelism,
		FailFast:          g.FailFast,
	}, out)

	if cerr := release(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("release output: %w", cerr))
	}

	return sum, err
}
