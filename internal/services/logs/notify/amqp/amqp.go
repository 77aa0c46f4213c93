// Package amqp mirrors change notifications over a RabbitMQ fanout exchange
// so watchers attached to other provider instances see local writes.
package amqp

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/louisbranch/logsprovider/internal/platform/timeouts"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultExchange is the fanout exchange used when none is configured.
const DefaultExchange = "logs.changes"

// PublishChannel is the subset of *amqp.Channel used by Publisher.
type PublishChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// ConsumeChannel is the subset of *amqp.Channel used by Consumer.
type ConsumeChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Deliverer receives changes that arrived from the broker.
type Deliverer interface {
	Deliver(uri string)
}

// Connect dials url and opens one channel.
func Connect(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open amqp channel: %w", err)
	}
	return conn, ch, nil
}

func declareExchange(ch interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
}, exchange string) error {
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return nil
}

func exchangeOrDefault(exchange string) string {
	exchange = strings.TrimSpace(exchange)
	if exchange == "" {
		return DefaultExchange
	}
	return exchange
}

// Publisher forwards hub changes to the exchange. It satisfies notify.Sink.
type Publisher struct {
	ch       PublishChannel
	exchange string
	origin   string
}

// NewPublisher declares the exchange and returns a publisher stamping every
// message with origin.
func NewPublisher(ch PublishChannel, exchange, origin string) (*Publisher, error) {
	if ch == nil {
		return nil, fmt.Errorf("amqp channel is required")
	}
	exchange = exchangeOrDefault(exchange)
	if err := declareExchange(ch, exchange); err != nil {
		return nil, err
	}
	return &Publisher{ch: ch, exchange: exchange, origin: origin}, nil
}

// NotifyChange publishes uri as a text/plain message.
func (p *Publisher) NotifyChange(ctx context.Context, uri string) error {
	pubCtx, cancel := context.WithTimeout(ctx, timeouts.AMQPPublish)
	defer cancel()
	err := p.ch.PublishWithContext(pubCtx, p.exchange, "", false, false, amqp.Publishing{
		ContentType: "text/plain",
		AppId:       p.origin,
		Timestamp:   time.Now().UTC(),
		Body:        []byte(uri),
	})
	if err != nil {
		return fmt.Errorf("publish change %s: %w", uri, err)
	}
	return nil
}

// Consumer feeds changes from the exchange into a Deliverer. Messages
// stamped with the consumer's own origin are skipped.
type Consumer struct {
	ch       ConsumeChannel
	exchange string
	origin   string
	target   Deliverer
}

// NewConsumer creates a consumer. Nothing is declared until Run.
func NewConsumer(ch ConsumeChannel, exchange, origin string, target Deliverer) (*Consumer, error) {
	if ch == nil {
		return nil, fmt.Errorf("amqp channel is required")
	}
	if target == nil {
		return nil, fmt.Errorf("change target is required")
	}
	return &Consumer{ch: ch, exchange: exchangeOrDefault(exchange), origin: origin, target: target}, nil
}

// Run binds an exclusive queue to the exchange and delivers messages until
// ctx ends or the broker closes the channel.
func (c *Consumer) Run(ctx context.Context) error {
	if err := declareExchange(c.ch, c.exchange); err != nil {
		return err
	}
	queue, err := c.ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := c.ch.QueueBind(queue.Name, "", c.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", queue.Name, err)
	}
	deliveries, err := c.ch.Consume(queue.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue.Name, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("amqp delivery channel closed")
			}
			c.handle(d)
		}
	}
}

func (c *Consumer) handle(d amqp.Delivery) {
	if c.origin != "" && d.AppId == c.origin {
		return
	}
	uri := strings.TrimSpace(string(d.Body))
	if uri == "" {
		log.Printf("amqp: discarding empty change message %s", d.MessageId)
		return
	}
	c.target.Deliver(uri)
}
