package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/guttosm/varpulse/internal/channel"
	"github.com/guttosm/varpulse/internal/domain/models"
)

// PostgresFactory creates ingestion channels that COPY each message into the
// table of its entity.
type PostgresFactory struct {
	db   *sql.DB
	repo Repository
}

func NewPostgresFactory(db *sql.DB) *PostgresFactory {
	return &PostgresFactory{db: db, repo: NewRepository(db)}
}

func (f *PostgresFactory) CreateChannel(name string) (channel.Channel, error) {
	switch name {
	case channel.Products, channel.Trades, channel.Risks:
		return &PostgresChannel{name: name, repo: f.repo}, nil
	default:
		return nil, fmt.Errorf("%w: %s", channel.ErrUnknownChannel, name)
	}
}

// Reset empties the target tables.
func (f *PostgresFactory) Reset(ctx context.Context) error { return f.repo.Reset(ctx) }

func (f *PostgresFactory) Close() error { return f.db.Close() }

// PostgresChannel loads one entity's messages into Postgres.
type PostgresChannel struct {
	name string
	repo Repository
}

func (c *PostgresChannel) Name() string { return c.name }

func (c *PostgresChannel) NewMessage(name string) channel.Message { return channel.NewMessage(name) }

func (c *PostgresChannel) Send(ctx context.Context, msg channel.Message) error {
	switch c.name {
	case channel.Products:
		recs, err := channel.Collect[models.Product](msg)
		if err != nil {
			return err
		}
		return c.repo.InsertProducts(ctx, recs)
	case channel.Trades:
		recs, err := channel.Collect[models.Trade](msg)
		if err != nil {
			return err
		}
		return c.repo.InsertTrades(ctx, recs)
	case channel.Risks:
		recs, err := channel.Collect[models.Risk](msg)
		if err != nil {
			return err
		}
		return c.repo.InsertRisks(ctx, recs)
	}
	return fmt.Errorf("%w: %s", channel.ErrUnknownChannel, c.name)
}
