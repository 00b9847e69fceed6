package messaging

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/guttosm/varpulse/internal/channel"
)

// messageWriter is the subset of *kafka.Writer the channels use.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaFactory creates channels that publish to the topic {prefix}{channel}.
type KafkaFactory struct {
	writer messageWriter
	prefix string
}

// NewKafkaFactory builds a synchronous writer over brokers. Records are
// hash-partitioned by id.
func NewKafkaFactory(brokers []string, prefix string) *KafkaFactory {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		Compression:            kafka.Snappy,
	}
	return newKafkaFactory(w, prefix)
}

func newKafkaFactory(w messageWriter, prefix string) *KafkaFactory {
	return &KafkaFactory{writer: w, prefix: prefix}
}

func (f *KafkaFactory) CreateChannel(name string) (channel.Channel, error) {
	return &KafkaChannel{name: name, topic: f.prefix + name, writer: f.writer}, nil
}

func (f *KafkaFactory) Close() error { return f.writer.Close() }

// KafkaChannel writes each record of a message as one Kafka message.
type KafkaChannel struct {
	name   string
	topic  string
	writer messageWriter
}

func (c *KafkaChannel) Name() string { return c.name }

// Topic returns the Kafka topic the channel writes to.
func (c *KafkaChannel) Topic() string { return c.topic }

func (c *KafkaChannel) NewMessage(name string) channel.Message { return channel.NewMessage(name) }

func (c *KafkaChannel) Send(ctx context.Context, msg channel.Message) error {
	recs, err := encode(msg)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, len(recs))
	for i, r := range recs {
		msgs[i] = kafka.Message{Topic: c.topic, Key: r.key, Value: r.value}
	}
	if err := c.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d messages to %s: %w", len(msgs), c.topic, err)
	}
	return nil
}
