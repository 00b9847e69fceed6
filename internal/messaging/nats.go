package messaging

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/guttosm/varpulse/internal/channel"
)

// publisher is the subset of *nats.Conn the channels use.
type publisher interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NatsFactory creates channels that publish on the subject {prefix}{channel}.
type NatsFactory struct {
	conn   publisher
	prefix string
}

func NewNatsFactory(url, prefix string) (*NatsFactory, error) {
	conn, err := nats.Connect(url, nats.Name("varpulse"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return newNatsFactory(conn, prefix), nil
}

func newNatsFactory(conn publisher, prefix string) *NatsFactory {
	return &NatsFactory{conn: conn, prefix: prefix}
}

func (f *NatsFactory) CreateChannel(name string) (channel.Channel, error) {
	return &NatsChannel{name: name, subject: f.prefix + name, conn: f.conn}, nil
}

func (f *NatsFactory) Close() error {
	f.conn.Close()
	return nil
}

// NatsChannel publishes each record of a message and flushes once per message.
type NatsChannel struct {
	name    string
	subject string
	conn    publisher
}

func (c *NatsChannel) Name() string { return c.name }

// Subject returns the NATS subject the channel publishes on.
func (c *NatsChannel) Subject() string { return c.subject }

func (c *NatsChannel) NewMessage(name string) channel.Message { return channel.NewMessage(name) }

func (c *NatsChannel) Send(ctx context.Context, msg channel.Message) error {
	recs, err := encode(msg)
	if err != nil {
		return err
	}
	for i, r := range recs {
		if err := c.conn.Publish(c.subject, r.value); err != nil {
			return fmt.Errorf("publish %s record %d: %w", c.subject, i, err)
		}
	}
	if err := c.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush %s: %w", c.subject, err)
	}
	return nil
}
