package output

import (
	"context"
	"fmt"

	"github.com/guttosm/varpulse/internal/channel"
	"github.com/guttosm/varpulse/internal/domain/models"
	"github.com/guttosm/varpulse/internal/pipeline"
)

// ChannelConfig configures a ChannelOutput.
type ChannelConfig struct {
	Buffers pipeline.BufferSizes
	Flush   pipeline.FlushConfig
}

// ChannelOutput sends every flushed buffer as one message with one chunk on
// the entity's channel. There is no success marker.
type ChannelOutput struct {
	*pipeline.Sinks

	products channel.Channel
	trades   channel.Channel
	risks    channel.Channel
}

// NewChannelOutput creates the Products, Trades and Risks channels from f.
func NewChannelOutput(ctx context.Context, f channel.Factory, cfg ChannelConfig) (*ChannelOutput, error) {
	o := &ChannelOutput{}
	var err error
	if o.products, err = f.CreateChannel(channel.Products); err != nil {
		return nil, fmt.Errorf("create %s channel: %w", channel.Products, err)
	}
	if o.trades, err = f.CreateChannel(channel.Trades); err != nil {
		return nil, fmt.Errorf("create %s channel: %w", channel.Trades, err)
	}
	if o.risks, err = f.CreateChannel(channel.Risks); err != nil {
		return nil, fmt.Errorf("create %s channel: %w", channel.Risks, err)
	}

	o.Sinks = pipeline.NewSinks(ctx, cfg.Buffers, cfg.Flush, pipeline.Writers{
		Products: func(ctx context.Context, _ int64, recs []models.Product) error {
			return channel.Publish(ctx, o.products, recs)
		},
		Trades: func(ctx context.Context, _ int64, recs []models.Trade) error {
			return channel.Publish(ctx, o.trades, recs)
		},
		Risks: func(ctx context.Context, _ int64, recs []models.Risk) error {
			return channel.Publish(ctx, o.risks, recs)
		},
	})
	return o, nil
}

// Complete drains every sink and waits for all sends.
func (o *ChannelOutput) Complete(ctx context.Context) error {
	return o.Drain(ctx)
}

// Abort drains what is buffered and waits for in-flight sends.
func (o *ChannelOutput) Abort(ctx context.Context) error {
	return o.Drain(ctx)
}
