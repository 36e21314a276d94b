package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/orderdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/orderdesk/internal/domain"
	"github.com/YelzhanWeb/orderdesk/internal/interfaces"
)

type published struct {
	exchange, key string
	msg           amqp.Publishing
}

type fakeChannel struct {
	mu         sync.Mutex
	exchanges  map[string]string
	bindings   []string
	published  []published
	deliveries chan amqp.Delivery
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{exchanges: map[string]string{}, deliveries: make(chan amqp.Delivery, 8)}
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exchanges[name] = kind
	return nil
}

func (c *fakeChannel) QueueDeclare(name string, _, _, _, _ bool, _ amqp.Table) (Queue, error) {
	if name == "" {
		name = "amq.gen-test"
	}
	return Queue{Name: name}, nil
}

func (c *fakeChannel) QueueBind(name, key, exchange string, _ bool, _ amqp.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings = append(c.bindings, exchange+"->"+name+":"+key)
	return nil
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (c *fakeChannel) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return c.deliveries, nil
}

func (c *fakeChannel) Qos(int, int, bool) error { return nil }
func (c *fakeChannel) Close() error { return nil }
func (c *fakeChannel) NotifyClose() <-chan *amqp.Error { return make(chan *amqp.Error) }

type fakeConnection struct {
	ch *fakeChannel
}

func (c *fakeConnection) Channel() (Channel, error) { return c.ch, nil }
func (c *fakeConnection) Close() error { return nil }
func (c *fakeConnection) NotifyClose() <-chan *amqp.Error { return make(chan *amqp.Error) }
func (c *fakeConnection) IsClosed() bool { return false }

// acks records how each delivery was settled.
type acks struct {
	mu      sync.Mutex
	results map[uint64]string
}

func (a *acks) set(tag uint64, result string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results[tag] = result
	return nil
}

func (a *acks) get(tag uint64) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.results[tag]
}

func (a *acks) Ack(tag uint64, _ bool) error { return a.set(tag, "ack") }

func (a *acks) Nack(tag uint64, _ bool, requeue bool) error {
	if requeue {
		return a.set(tag, "requeue")
	}
	return a.set(tag, "dead-letter")
}

func (a *acks) Reject(tag uint64, requeue bool) error { return a.Nack(tag, false, requeue) }

func TestPublishPaymentEvent(t *testing.T) {
	ch := newFakeChannel()
	pub := NewPublisher(&fakeConnection{ch: ch})

	event := domain.PaymentEvent{ID: "evt_1", Type: domain.EventPaymentSucceeded, IntentID: "pi_1"}
	require.NoError(t, pub.PublishPaymentEvent(context.Background(), event))

	require.Len(t, ch.published, 1)
	p := ch.published[0]
	assert.Equal(t, PaymentsExchange, p.exchange)
	assert.Equal(t, "payment.payment_intent.succeeded", p.key)
	assert.Equal(t, amqp.Persistent, p.msg.DeliveryMode)

	var got domain.PaymentEvent
	require.NoError(t, json.Unmarshal(p.msg.Body, &got))
	assert.Equal(t, event, got)

	assert.Equal(t, "topic", ch.exchanges[PaymentsExchange])
	assert.Equal(t, "topic", ch.exchanges[PaymentsDLX])
	assert.Contains(t, ch.bindings, PaymentsDLX+"->"+PaymentEventsDLQ+":#")
	assert.Contains(t, ch.bindings, PaymentsExchange+"->"+PaymentEventsQueue+":payment.#")
}

func TestPublishCatalogChangeIsTransient(t *testing.T) {
	ch := newFakeChannel()
	pub := NewPublisher(&fakeConnection{ch: ch})

	msg := interfaces.CatalogChangeMessage{Entity: "branches", Op: interfaces.ChangeUpdate, ID: "b1", At: time.Now().UTC()}
	require.NoError(t, pub.PublishCatalogChange(context.Background(), msg))

	require.Len(t, ch.published, 1)
	assert.Equal(t, CatalogExchange, ch.published[0].exchange)
	assert.Equal(t, "fanout", ch.exchanges[CatalogExchange])
	assert.NotEqual(t, amqp.Persistent, ch.published[0].msg.DeliveryMode)
}

func TestConsumerSettlesDeliveries(t *testing.T) {
	ch := newFakeChannel()
	settled := &acks{results: map[uint64]string{}}
	c := NewConsumer(&fakeConnection{ch: ch}, 1, logger.NewNop())

	handler := func(_ context.Context, body []byte) error {
		switch string(body) {
		case "ok":
			return nil
		case "poison":
			return interfaces.ErrPoisonMessage
		default:
			return errors.New("db down")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.ConsumePaymentEvents(ctx, handler) }()

	deliveries := []amqp.Delivery{
		{Acknowledger: settled, DeliveryTag: 1, Body: []byte("ok")},
		{Acknowledger: settled, DeliveryTag: 2, Body: []byte("poison")},
		{Acknowledger: settled, DeliveryTag: 3, Body: []byte("transient")},
		{Acknowledger: settled, DeliveryTag: 4, Body: []byte("transient"), Redelivered: true},
	}
	for _, d := range deliveries {
		ch.deliveries <- d
	}

	require.Eventually(t, func() bool { return settled.get(4) != "" }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "ack", settled.get(1))
	assert.Equal(t, "dead-letter", settled.get(2))
	assert.Equal(t, "requeue", settled.get(3))
	assert.Equal(t, "dead-letter", settled.get(4))

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}
