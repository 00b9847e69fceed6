package app

import (
	"context"
	"fmt"

	"github.com/guttosm/varpulse/config"
	"github.com/guttosm/varpulse/internal/channel"
	"github.com/guttosm/varpulse/internal/messaging"
	"github.com/guttosm/varpulse/internal/output"
	"github.com/guttosm/varpulse/internal/pipeline"
	"github.com/guttosm/varpulse/internal/storage"
)

// Channel backends for in-memory-channel mode.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendKafka    = "kafka"
	BackendNats     = "nats"
)

// Indirections for unit testing; overridden to avoid real brokers.
var (
	kafkaFactory = func(brokers []string, prefix string) (channel.Factory, error) {
		return messaging.NewKafkaFactory(brokers, prefix), nil
	}
	natsFactory = func(url, prefix string) (channel.Factory, error) {
		return messaging.NewNatsFactory(url, prefix)
	}
)

// resetter is implemented by backends that clear previous output before a run.
type resetter interface {
	Reset(ctx context.Context) error
}

// NewChannelFactory builds the ingestion backend named by cfg.Channel.Backend.
func NewChannelFactory(cfg config.Config) (channel.Factory, error) {
	switch cfg.Channel.Backend {
	case BackendMemory, "":
		return channel.NewMemoryFactory(), nil
	case BackendPostgres:
		db, err := postgresOpener(cfg)
		if err != nil {
			return nil, err
		}
		return storage.NewPostgresFactory(db), nil
	case BackendKafka:
		return kafkaFactory(cfg.Kafka.Brokers, cfg.Kafka.TopicPrefix)
	case BackendNats:
		return natsFactory(cfg.Nats.URL, cfg.Nats.SubjectPrefix)
	default:
		return nil, fmt.Errorf("unknown channel backend %q", cfg.Channel.Backend)
	}
}

// NewOutput builds the destination for a run of tradeCount trades. The
// returned release func closes backend resources and must be called once the
// run has completed or aborted.
func NewOutput(ctx context.Context, cfg config.Config, tradeCount int64) (pipeline.Output, func() error, error) {
	sizes := pipeline.BufferSizes{
		Products: cfg.Output.ProductBuffer,
		Trades:   cfg.Output.TradeCapacity(tradeCount),
		Risks:    cfg.Output.RiskCapacity(tradeCount),
	}
	flush := pipeline.FlushConfig{
		Workers:    cfg.Output.FlushWorkers,
		QueueDepth: cfg.Output.FlushQueueDepth,
		Timeout:    cfg.Output.FlushTimeout,
	}
	noop := func() error { return nil }

	switch cfg.Output.Mode {
	case output.ModeCSV, output.ModeColumnar:
		format, err := output.FormatFor(cfg.Output.Mode, cfg.Output.Separator(), cfg.Output.VectorSeparator())
		if err != nil {
			return nil, nil, err
		}
		out, err := output.NewFileOutput(ctx, output.FileConfig{
			Dir:     cfg.Output.Dir,
			Format:  format,
			Buffers: sizes,
			Flush:   flush,
		})
		if err != nil {
			return nil, nil, err
		}
		return out, noop, nil

	case output.ModeChannel:
		f, err := NewChannelFactory(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("channel backend %s: %w", cfg.Channel.Backend, err)
		}
		if r, ok := f.(resetter); ok {
			if err := r.Reset(ctx); err != nil {
				_ = f.Close()
				return nil, nil, fmt.Errorf("reset %s backend: %w", cfg.Channel.Backend, err)
			}
		}
		out, err := output.NewChannelOutput(ctx, f, output.ChannelConfig{Buffers: sizes, Flush: flush})
		if err != nil {
			_ = f.Close()
			return nil, nil, err
		}
		return out, f.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown output mode %q", cfg.Output.Mode)
	}
}
