package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

type mockWriter struct {
	msgs []kafkaGo.Message
	err  error
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msgs...)
	return nil
}

func (m *mockWriter) Close() error { return nil }

// chanReader serves queued messages, then io.EOF once the channel is closed.
type chanReader struct {
	msgs chan kafkaGo.Message
}

func (c *chanReader) ReadMessage(ctx context.Context) (kafkaGo.Message, error) {
	select {
	case m, ok := <-c.msgs:
		if !ok {
			return kafkaGo.Message{}, io.EOF
		}
		return m, nil
	case <-ctx.Done():
		return kafkaGo.Message{}, ctx.Err()
	}
}

func (c *chanReader) Close() error { return nil }

func TestPublisher_WritesKeyedMessage(t *testing.T) {
	w := &mockWriter{}
	p := &Publisher{writer: w}

	n := PaymentConfirmation(testOrder())
	require.NoError(t, p.Notify(context.Background(), n))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "ama@example.com", string(w.msgs[0].Key))
	assert.Equal(t, "template", w.msgs[0].Headers[0].Key)
	assert.Equal(t, string(TemplatePaymentConfirmation), string(w.msgs[0].Headers[0].Value))

	var decoded Notification
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, n.ID, decoded.ID)
}

func TestPublisher_WriteError(t *testing.T) {
	p := &Publisher{writer: &mockWriter{err: errors.New("broker unavailable")}}

	err := p.Notify(context.Background(), Welcome(testUser()))
	assert.ErrorContains(t, err, "broker unavailable")
}

func TestConsumer_DeliversAndSkipsBadMessages(t *testing.T) {
	good := OrderConfirmation(testOrder())
	payload, err := json.Marshal(good)
	require.NoError(t, err)

	reader := &chanReader{msgs: make(chan kafkaGo.Message, 3)}
	reader.msgs <- kafkaGo.Message{Value: []byte("{not json")}
	reader.msgs <- kafkaGo.Message{Value: payload}
	close(reader.msgs)

	deliver := &recordingNotifier{}
	c := &Consumer{reader: reader, deliver: deliver}

	done := make(chan struct{})
	go func() {
		c.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop after reader was exhausted")
	}

	sent := deliver.notifications()
	require.Len(t, sent, 1)
	assert.Equal(t, good.ID, sent[0].ID)
}

func TestConsumer_StopsOnCancel(t *testing.T) {
	c := &Consumer{reader: &chanReader{msgs: make(chan kafkaGo.Message)}, deliver: &recordingNotifier{}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop on cancel")
	}
}

func TestKafka_PublishThenConsume(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping kafka container test in short mode")
	}
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)
	defer func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	}()

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)

	topic := "storefront-notifications-test"
	publisher := NewPublisher(topic, brokers...)
	defer publisher.Close()

	n := PaymentConfirmation(testOrder())
	require.Eventually(t, func() bool {
		return publisher.Notify(ctx, n) == nil
	}, 30*time.Second, time.Second, "publish never succeeded")

	deliver := &recordingNotifier{}
	consumer := NewConsumer(deliver, topic, "storefront-mailer-test", brokers...)
	runCtx, cancel := context.WithCancel(ctx)
	go consumer.Run(runCtx)
	defer func() {
		cancel()
		consumer.Close()
	}()

	require.Eventually(t, func() bool {
		return len(deliver.notifications()) == 1
	}, 60*time.Second, 500*time.Millisecond, "notification was not consumed")
	assert.Equal(t, n.ID, deliver.notifications()[0].ID)
}
