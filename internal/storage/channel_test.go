package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/guttosm/varpulse/internal/channel"
	"github.com/guttosm/varpulse/internal/domain/models"
)

// fakeRepository records what each channel delivers.
type fakeRepository struct {
	products []models.Product
	trades   []models.Trade
	risks    []models.Risk
	err      error
}

func (f *fakeRepository) InsertProducts(ctx context.Context, p []models.Product) error {
	f.products = append(f.products, p...)
	return f.err
}

func (f *fakeRepository) InsertTrades(ctx context.Context, t []models.Trade) error {
	f.trades = append(f.trades, t...)
	return f.err
}

func (f *fakeRepository) InsertRisks(ctx context.Context, r []models.Risk) error {
	f.risks = append(f.risks, r...)
	return f.err
}

func (f *fakeRepository) Reset(ctx context.Context) error { return f.err }

func TestPostgresChannel_RoutesByEntity(t *testing.T) {
	repo := &fakeRepository{}
	f := &PostgresFactory{repo: repo}
	ctx := context.Background()

	for _, name := range []string{channel.Products, channel.Trades, channel.Risks} {
		ch, err := f.CreateChannel(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if ch.Name() != name {
			t.Fatalf("name=%q, want %q", ch.Name(), name)
		}
		switch name {
		case channel.Products:
			err = channel.Publish(ctx, ch, []models.Product{{Id: 1}, {Id: 2}})
		case channel.Trades:
			err = channel.Publish(ctx, ch, []models.Trade{{Id: 5}})
		case channel.Risks:
			err = channel.Publish(ctx, ch, []models.Risk{{TradeId: 5}})
		}
		if err != nil {
			t.Fatalf("publish %s: %v", name, err)
		}
	}
	if len(repo.products) != 2 || len(repo.trades) != 1 || len(repo.risks) != 1 {
		t.Fatalf("products=%d trades=%d risks=%d", len(repo.products), len(repo.trades), len(repo.risks))
	}
}

func TestPostgresChannel_RejectsWrongRecordType(t *testing.T) {
	f := &PostgresFactory{repo: &fakeRepository{}}
	ch, _ := f.CreateChannel(channel.Trades)
	err := channel.Publish(context.Background(), ch, []models.Risk{{TradeId: 1}})
	var typeErr *channel.RecordTypeError
	if !errors.As(err, &typeErr) {
		t.Fatalf("err=%v, want RecordTypeError", err)
	}
}

func TestPostgresChannel_PropagatesRepositoryError(t *testing.T) {
	f := &PostgresFactory{repo: &fakeRepository{err: dummyErr{}}}
	ch, _ := f.CreateChannel(channel.Products)
	if err := channel.Publish(context.Background(), ch, []models.Product{{}}); !errors.Is(err, dummyErr{}) {
		t.Fatalf("err=%v, want dummy", err)
	}
}

func TestPostgresFactory_UnknownChannel(t *testing.T) {
	f := &PostgresFactory{repo: &fakeRepository{}}
	if _, err := f.CreateChannel("Quotes"); !errors.Is(err, channel.ErrUnknownChannel) {
		t.Fatalf("err=%v, want ErrUnknownChannel", err)
	}
}

func TestPostgresFactory_CopiesThroughSQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	f := NewPostgresFactory(db)
	expectCopy(mock, 1)
	mock.ExpectClose()

	ch, _ := f.CreateChannel(channel.Trades)
	if err := channel.Publish(context.Background(), ch, []models.Trade{{Id: 1}}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
