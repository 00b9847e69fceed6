package channel

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type foreignChunk struct{ recs []any }

func (c *foreignChunk) Append(r any)   { c.recs = append(c.recs, r) }
func (c *foreignChunk) Len() int       { return len(c.recs) }
func (c *foreignChunk) Records() []any { return c.recs }

func TestMessage_RecordsInChunkOrder(t *testing.T) {
	msg := NewMessage(Trades)
	a := msg.NewChunk()
	a.Append(1)
	a.Append(2)
	b := &foreignChunk{}
	b.Append(3)
	msg.Append(a)
	msg.Append(b)

	got := msg.Records()
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("records=%v, want [1 2 3]", got)
	}
	if msg.Name() != Trades {
		t.Fatalf("name=%q", msg.Name())
	}
}

func TestPublishAndCollect(t *testing.T) {
	ch := NewMemoryChannel(Risks)
	if err := Publish(context.Background(), ch, []string{"a", "b"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	msgs := ch.Messages()
	if len(msgs) != 1 {
		t.Fatalf("messages=%d, want 1", len(msgs))
	}
	got, err := Collect[string](msgs[0])
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("collected=%v", got)
	}

	_, err = Collect[int](msgs[0])
	var typeErr *RecordTypeError
	if !errors.As(err, &typeErr) {
		t.Fatalf("expected RecordTypeError, got %v", err)
	}
	if typeErr.Index != 0 || typeErr.Channel != Risks {
		t.Fatalf("unexpected error fields: %+v", typeErr)
	}
}

func TestMemoryChannel_ConcurrentSend(t *testing.T) {
	ch := NewMemoryChannel(Products)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := Publish(context.Background(), ch, []int{i, i, i}); err != nil {
				t.Errorf("publish: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if ch.Count() != 48 || len(ch.Records()) != 48 {
		t.Fatalf("count=%d records=%d, want 48", ch.Count(), len(ch.Records()))
	}
	if len(ch.Messages()) != 16 {
		t.Fatalf("messages=%d, want 16", len(ch.Messages()))
	}
}

func TestMemoryChannel_CancelledContext(t *testing.T) {
	ch := NewMemoryChannel(Products)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Publish(ctx, ch, []int{1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if ch.Count() != 0 {
		t.Fatalf("count=%d, want 0", ch.Count())
	}
}

func TestMemoryFactory_ReusesChannels(t *testing.T) {
	f := NewMemoryFactory()
	a, _ := f.CreateChannel(Trades)
	b, _ := f.CreateChannel(Trades)
	if a != b {
		t.Fatalf("expected the same channel for the same name")
	}
	if f.Channel(Risks).Name() != Risks {
		t.Fatalf("wrong channel name")
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
