// Package channel defines the narrow ingestion contract used by the
// in-memory-channel output mode: records are appended to chunks, chunks to a
// message, and the message is sent on a named channel.
package channel

import (
	"context"
	"sync"
)

// Channel names, one per entity.
const (
	Products = "Products"
	Trades   = "Trades"
	Risks    = "Risks"
)

// Chunk is an ordered group of records.
type Chunk interface {
	Append(record any)
	Len() int
	Records() []any
}

// Message carries one or more chunks to a channel.
type Message interface {
	Name() string
	NewChunk() Chunk
	Append(chunk Chunk)
	// Records returns every record in chunk order.
	Records() []any
}

// Channel is an ingestion endpoint.
type Channel interface {
	Name() string
	NewMessage(name string) Message
	Send(ctx context.Context, msg Message) error
}

// Factory creates the channel for an entity and releases backend resources.
type Factory interface {
	CreateChannel(name string) (Channel, error)
	Close() error
}

type recordChunk struct {
	records []any
}

func (c *recordChunk) Append(record any) { c.records = append(c.records, record) }
func (c *recordChunk) Len() int          { return len(c.records) }
func (c *recordChunk) Records() []any    { return c.records }

type recordMessage struct {
	name string

	mu     sync.Mutex
	chunks []*recordChunk
}

// NewMessage returns an empty message. Backends usually return it from
// Channel.NewMessage.
func NewMessage(name string) Message {
	return &recordMessage{name: name}
}

func (m *recordMessage) Name() string { return m.name }

func (m *recordMessage) NewChunk() Chunk { return &recordChunk{} }

// Append adds a chunk. Chunks from other implementations are copied.
func (m *recordMessage) Append(chunk Chunk) {
	c, ok := chunk.(*recordChunk)
	if !ok {
		c = &recordChunk{records: append([]any(nil), chunk.Records()...)}
	}
	m.mu.Lock()
	m.chunks = append(m.chunks, c)
	m.mu.Unlock()
}

func (m *recordMessage) Records() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.chunks {
		n += len(c.records)
	}
	out := make([]any, 0, n)
	for _, c := range m.chunks {
		out = append(out, c.records...)
	}
	return out
}

// Publish sends records on ch as one message with one chunk.
func Publish[T any](ctx context.Context, ch Channel, records []T) error {
	msg := ch.NewMessage(ch.Name())
	chunk := msg.NewChunk()
	for _, r := range records {
		chunk.Append(r)
	}
	msg.Append(chunk)
	return ch.Send(ctx, msg)
}

// Collect converts a message's records back to T, reporting the first record
// of another type.
func Collect[T any](msg Message) ([]T, error) {
	records := msg.Records()
	out := make([]T, 0, len(records))
	for i, r := range records {
		v, ok := r.(T)
		if !ok {
			return nil, &RecordTypeError{Channel: msg.Name(), Index: i, Record: r}
		}
		out = append(out, v)
	}
	return out, nil
}
