package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aq2208/gpos-checkout/internal/usecase"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeSaleEvents   = "sale.events"
	RoutingSaleCompleted = "sale.completed"
	QueueSaleCompleted   = "sale.completed.q"
)

// publisher is the slice of *amqp.Channel used to publish.
type publisher interface {
	PublishWithDeferredConfirmWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) (*amqp.DeferredConfirmation, error)
}

// SalePublisher implements usecase.SaleEventPublisher.
type SalePublisher struct {
	ch   publisher
	wait func(ctx context.Context, c *amqp.DeferredConfirmation) (bool, error)
}

// DeclareTopology sets up the exchange, queue and binding once at startup and
// switches the channel to confirm mode.
func DeclareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(
		ExchangeSaleEvents,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	q, err := ch.QueueDeclare(QueueSaleCompleted, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, RoutingSaleCompleted, ExchangeSaleEvents, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		return fmt.Errorf("enable confirm mode: %w", err)
	}
	return nil
}

func NewSalePublisher(ch publisher) *SalePublisher {
	return &SalePublisher{ch: ch, wait: func(ctx context.Context, c *amqp.DeferredConfirmation) (bool, error) {
		return c.WaitContext(ctx)
	}}
}

// PublishCompleted sends a "sale.completed" event and, when the channel is in
// confirm mode, blocks until the broker acks it or ctx ends.
func (p *SalePublisher) PublishCompleted(ctx context.Context, msg usecase.SaleCompletedMsg) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.SaleID,
		Type:         RoutingSaleCompleted,
		Body:         body,
	}
	conf, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, ExchangeSaleEvents, RoutingSaleCompleted, false, false, pub)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	// nil outside confirm mode
	if conf == nil {
		return nil
	}
	acked, err := p.wait(ctx, conf)
	if err != nil {
		return fmt.Errorf("publish confirm: %w", err)
	}
	if !acked {
		return fmt.Errorf("publish: broker nacked sale %s", msg.SaleID)
	}
	return nil
}

var _ usecase.SaleEventPublisher = (*SalePublisher)(nil)
