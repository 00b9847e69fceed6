package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/guttosm/varpulse/internal/domain/models"
	"github.com/guttosm/varpulse/internal/generator"
	"github.com/guttosm/varpulse/internal/logger"
)

// cancelCheckEvery is how many trades a batch generates between context checks.
const cancelCheckEvery = 1024

// Output receives generated records. Complete is the success barrier; Abort
// releases resources after a failed or cancelled run and never marks the
// output as complete.
type Output interface {
	AppendProduct(ctx context.Context, p models.Product) error
	AppendTrade(ctx context.Context, t models.Trade) error
	AppendRisk(ctx context.Context, r models.Risk) error
	Complete(ctx context.Context) error
	Abort(ctx context.Context) error
}

// Options describe one generation run.
type Options struct {
	RunID             string
	TradeCount        int64
	ProductCount      int
	CounterpartyCount int
	VectorLength      int
	BatchSize         int64
	Parallelism       int
	FailFast          bool
	// AsOf anchors trade dates; zero means today (UTC).
	AsOf time.Time
}

// Summary reports what a run produced.
type Summary struct {
	Products int64
	Trades   int64
	Risks    int64
	Batches  int
	Elapsed  time.Duration
}

// Generate produces the product table followed by TradeCount trades and their
// risks, writes them to out and completes it. On any failure out is aborted
// and the joined errors are returned alongside the partial summary.
func Generate(ctx context.Context, opts Options, out Output) (Summary, error) {
	start := time.Now()
	log := logger.WithRun(opts.RunID)

	var sum Summary
	batches, err := Partition(opts.TradeCount, opts.BatchSize)
	if err != nil {
		return sum, errors.Join(err, out.Abort(ctx))
	}
	sum.Batches = len(batches)

	products := generator.NewProductRepository(opts.ProductCount)
	cptys := generator.NewCounterpartyRepository(opts.CounterpartyCount)
	if opts.TradeCount > 0 && (products.Count() == 0 || cptys.Count() == 0) {
		err := fmt.Errorf("%w: %d products, %d counterparties", ErrEmptyReferenceData, products.Count(), cptys.Count())
		return sum, errors.Join(err, out.Abort(ctx))
	}

	asOf := opts.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	trades := generator.NewTradeGenerator(asOf, generator.DefaultDateSpan)
	risks := generator.NewRiskCalculator(opts.VectorLength)

	log.Info().
		Int64("trades", opts.TradeCount).
		Int("products", products.Count()).
		Int("vector_length", risks.VectorLength()).
		Int("batches", len(batches)).
		Int("parallelism", opts.Parallelism).
		Msg("generation started")

	for _, p := range products.Products() {
		if err := out.AppendProduct(ctx, p); err != nil {
			return sum, errors.Join(fmt.Errorf("append product %d: %w", p.Id, err), out.Abort(ctx))
		}
		sum.Products++
	}

	var tradeCount, riskCount atomic.Int64
	driver := Driver{Parallelism: opts.Parallelism, FailFast: opts.FailFast}
	genErr := driver.Run(ctx, batches, func(ctx context.Context, b models.Batch) error {
		rng := generator.NewRand()
		for i := b.Start; i < b.End; i++ {
			if (i-b.Start)%cancelCheckEvery == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			product := products.Product(int(i % int64(products.Count())))
			cpty := cptys.CounterParty(int(i % int64(cptys.Count())))

			trade := trades.Generate(i, product, cpty, rng)
			if err := out.AppendTrade(ctx, trade); err != nil {
				return fmt.Errorf("append trade %d: %w", i, err)
			}
			tradeCount.Add(1)

			if err := out.AppendRisk(ctx, risks.Execute(trade, product, rng)); err != nil {
				return fmt.Errorf("append risk %d: %w", i, err)
			}
			riskCount.Add(1)
		}
		return nil
	})
	sum.Trades = tradeCount.Load()
	sum.Risks = riskCount.Load()

	if genErr != nil {
		err := errors.Join(genErr, out.Abort(ctx))
		sum.Elapsed = time.Since(start)
		log.Error().Err(err).Int64("trades", sum.Trades).Dur("elapsed", sum.Elapsed).Msg("generation failed")
		return sum, err
	}

	if err := out.Complete(ctx); err != nil {
		sum.Elapsed = time.Since(start)
		log.Error().Err(err).Dur("elapsed", sum.Elapsed).Msg("output completion failed")
		return sum, fmt.Errorf("complete output: %w", err)
	}
	sum.Elapsed = time.Since(start)

	log.Info().
		Int64("products", sum.Products).
		Int64("trades", sum.Trades).
		Int64("risks", sum.Risks).
		Dur("elapsed", sum.Elapsed).
		Msg("generation finished")
	return sum, nil
}
