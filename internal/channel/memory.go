package channel

import (
	"context"
	"sync"
)

// MemoryChannel keeps every message sent on it.
type MemoryChannel struct {
	name string

	mu       sync.Mutex
	messages []Message
	records  int
}

// NewMemoryChannel returns an empty channel called name.
func NewMemoryChannel(name string) *MemoryChannel {
	return &MemoryChannel{name: name}
}

// Name implements Channel.
func (c *MemoryChannel) Name() string { return c.name }

// NewMessage implements Channel.
func (c *MemoryChannel) NewMessage(name string) Message { return NewMessage(name) }

// Send stores msg. It fails only if ctx is already done.
func (c *MemoryChannel) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n := len(msg.Records())
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.records += n
	c.mu.Unlock()
	return nil
}

// Messages returns a snapshot of the messages sent so far.
func (c *MemoryChannel) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// Records returns every record sent, message by message.
func (c *MemoryChannel) Records() []any {
	var out []any
	for _, m := range c.Messages() {
		out = append(out, m.Records()...)
	}
	return out
}

// Count returns the number of records sent.
func (c *MemoryChannel) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.records
}

// MemoryFactory hands out one MemoryChannel per name.
type MemoryFactory struct {
	mu       sync.Mutex
	channels map[string]*MemoryChannel
}

// NewMemoryFactory returns a factory with no channels.
func NewMemoryFactory() *MemoryFactory {
	return &MemoryFactory{channels: make(map[string]*MemoryChannel)}
}

// CreateChannel implements Factory. Repeated names share one channel.
func (f *MemoryFactory) CreateChannel(name string) (Channel, error) {
	return f.Channel(name), nil
}

// Channel returns the channel registered under name, creating it if needed.
func (f *MemoryFactory) Channel(name string) *MemoryChannel {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[name]
	if !ok {
		ch = NewMemoryChannel(name)
		f.channels[name] = ch
	}
	return ch
}

// Close is a no-op; the channels stay readable.
func (f *MemoryFactory) Close() error { return nil }
