package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Publisher puts notifications on the bus for the mailer consumer.
type Publisher struct {
	writer messageWriter
}

func NewPublisher(topic string, brokers ...string) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
	}
	return &Publisher{writer: w}
}

func (p *Publisher) Notify(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(n.To), // one recipient's mail stays ordered
		Value: payload,
		Headers: []kafka.Header{
			{Key: "template", Value: []byte(n.Template)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish notification %s: %w", n.ID, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Consumer reads published notifications and delivers them through a Notifier,
// normally the HTTP mailer.
type Consumer struct {
	reader  messageReader
	deliver Notifier
}

func NewConsumer(deliver Notifier, topic, groupID string, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, deliver: deliver}
}

// Run consumes until ctx is cancelled or the reader is closed.
func (c *Consumer) Run(ctx context.Context) {
	for c.processMessage(ctx) {
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		slog.Error("error closing kafka reader", "error", err)
	}
}

// processMessage handles one message and reports whether the loop should go on.
func (c *Consumer) processMessage(ctx context.Context) bool {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, io.EOF) {
			return false
		}
		slog.ErrorContext(ctx, "error reading notification message", "error", err)
		return true
	}

	var n Notification
	if err := json.Unmarshal(m.Value, &n); err != nil {
		slog.ErrorContext(ctx, "error parsing notification message",
			"offset", m.Offset, "partition", m.Partition, "error", err)
		return true
	}

	if err := c.deliver.Notify(ctx, n); err != nil {
		slog.ErrorContext(ctx, "failed to deliver notification",
			"notification_id", n.ID, "template", n.Template, "error", err)
		return true
	}
	slog.DebugContext(ctx, "notification delivered", "notification_id", n.ID, "template", n.Template)
	return true
}
