// Package service coordinates generation runs started through the API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/guttosm/varpulse/internal/domain/models"
	"github.com/guttosm/varpulse/internal/logger"
	"github.com/guttosm/varpulse/internal/output"
	"github.com/guttosm/varpulse/internal/pipeline"
)

var (
	// ErrRunInProgress is returned by Start while another run is active.
	ErrRunInProgress = errors.New("a generation run is already in progress")
	// ErrInvalidRunSpec is returned by Start for non-positive counts or an unknown mode.
	ErrInvalidRunSpec = errors.New("invalid run request")
	// ErrShuttingDown is returned by Start after Shutdown was called.
	ErrShuttingDown = errors.New("run service is shutting down")
)

// DefaultListLimit bounds List when the caller passes no limit.
const DefaultListLimit = 50

// persistTimeout bounds the final store write of a finished run.
const persistTimeout = 10 * time.Second

// RunSpec is what a caller may choose for one run. Zero fields take the
// service defaults.
type RunSpec struct {
	TradeCount   int64
	ProductCount int
	VectorLength int
	Mode         string
}

// Runner executes one generation run to completion.
type Runner func(ctx context.Context, id string, spec RunSpec) (pipeline.Summary, error)

// RunService starts at most one generation run at a time in the background
// and records its lifecycle in a RunStore.
type RunService struct {
	store    RunStore
	runner   Runner
	defaults RunSpec

	mu       sync.Mutex
	active   string
	cancel   context.CancelFunc
	closed   bool
	inflight sync.WaitGroup

	now func() time.Time
}

func NewRunService(store RunStore, runner Runner, defaults RunSpec) *RunService {
	return &RunService{
		store:    store,
		runner:   runner,
		defaults: defaults,
		now:      time.Now,
	}
}

func (s *RunService) resolve(spec RunSpec) (RunSpec, error) {
	if spec.TradeCount == 0 {
		spec.TradeCount = s.defaults.TradeCount
	}
	if spec.ProductCount == 0 {
		spec.ProductCount = s.defaults.ProductCount
	}
	if spec.VectorLength == 0 {
		spec.VectorLength = s.defaults.VectorLength
	}
	if spec.Mode == "" {
		spec.Mode = s.defaults.Mode
	}

	var problems []error
	if spec.TradeCount <= 0 {
		problems = append(problems, fmt.Errorf("trade_count must be positive, got %d", spec.TradeCount))
	}
	if spec.ProductCount <= 0 {
		problems = append(problems, fmt.Errorf("product_count must be positive, got %d", spec.ProductCount))
	}
	if spec.VectorLength < 0 {
		problems = append(problems, fmt.Errorf("vector_length must not be negative, got %d", spec.VectorLength))
	}
	switch spec.Mode {
	case output.ModeChannel, output.ModeCSV, output.ModeColumnar:
	default:
		problems = append(problems, fmt.Errorf("unknown mode %q", spec.Mode))
	}
	if len(problems) > 0 {
		return spec, fmt.Errorf("%w: %w", ErrInvalidRunSpec, errors.Join(problems...))
	}
	return spec, nil
}

// Start validates spec, records a running Run and executes it in the
// background. The returned Run is the initial record.
func (s *RunService) Start(ctx context.Context, spec RunSpec) (models.Run, error) {
	spec, err := s.resolve(spec)
	if err != nil {
		return models.Run{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return models.Run{}, ErrShuttingDown
	}
	if s.active != "" {
		return models.Run{}, fmt.Errorf("%w: %s", ErrRunInProgress, s.active)
	}

	run := models.Run{
		ID:           uuid.NewString(),
		Status:       models.RunRunning,
		Mode:         spec.Mode,
		TradeCount:   spec.TradeCount,
		ProductCount: spec.ProductCount,
		VectorLength: spec.VectorLength,
		StartedAt:    s.now().UTC(),
	}
	if err := s.store.Save(ctx, run); err != nil {
		return models.Run{}, fmt.Errorf("record run: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.active = run.ID
	s.cancel = cancel
	s.inflight.Add(1)
	go s.execute(runCtx, run, spec)

	return run, nil
}

func (s *RunService) execute(ctx context.Context, run models.Run, spec RunSpec) {
	defer s.inflight.Done()
	log := logger.WithRun(run.ID)

	sum, err := s.invoke(ctx, run.ID, spec)

	finished := s.now().UTC()
	run.FinishedAt = &finished
	run.ProductsWritten = sum.Products
	run.TradesWritten = sum.Trades
	run.RisksWritten = sum.Risks
	if err != nil {
		run.Status = models.RunFailed
		run.Error = err.Error()
		log.Error().Err(err).Msg("run failed")
	} else {
		run.Status = models.RunSucceeded
		log.Info().Int64("trades", sum.Trades).Dur("elapsed", sum.Elapsed).Msg("run succeeded")
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	if err := s.store.Save(saveCtx, run); err != nil {
		log.Error().Err(err).Msg("failed to record finished run")
	}
	cancel()

	s.mu.Lock()
	s.cancel()
	s.active = ""
	s.cancel = nil
	s.mu.Unlock()
}

func (s *RunService) invoke(ctx context.Context, id string, spec RunSpec) (sum pipeline.Summary, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("run panicked: %v", r)
		}
	}()
	return s.runner(ctx, id, spec)
}

func (s *RunService) Get(ctx context.Context, id string) (models.Run, error) {
	return s.store.Get(ctx, id)
}

// List returns recent runs, newest first. limit <= 0 means DefaultListLimit.
func (s *RunService) List(ctx context.Context, limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.store.List(ctx, limit)
}

// Active returns the id of the running run, or "".
func (s *RunService) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Ping reports whether the run store is reachable.
func (s *RunService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Shutdown refuses new runs, cancels the active one and waits for it to
// record its final state or for ctx to end.
func (s *RunService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
