package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aq2208/gpos-checkout/internal/logging"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Router manages one consumer per registered queue on a single AMQP channel.
type Router struct {
	ch            *amqp.Channel
	prefetch      int
	callTimeout   time.Duration
	requeueOnErr  bool
	log           *slog.Logger
	registrations []registration
}

type registration struct {
	queueName   string
	handler     Handler
	consumerTag string
}

type RouterOption func(*Router)

func WithPrefetch(n int) RouterOption          { return func(r *Router) { r.prefetch = n } }
func WithTimeout(d time.Duration) RouterOption { return func(r *Router) { r.callTimeout = d } }
func WithRequeue(b bool) RouterOption          { return func(r *Router) { r.requeueOnErr = b } }

// NewRouter constructs a Router. Defaults: prefetch=50, timeout=10s, requeueOnErr=true.
func NewRouter(ch *amqp.Channel, opts ...RouterOption) *Router {
	r := &Router{
		ch:           ch,
		prefetch:     50,
		callTimeout:  10 * time.Second,
		requeueOnErr: true,
		log:          logging.New("rmq-router"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) Register(queueName string, h Handler) {
	r.registrations = append(r.registrations, registration{
		queueName:   queueName,
		handler:     h,
		consumerTag: "gpos_" + queueName,
	})
}

// Start begins consuming and returns immediately. Consumers are cancelled when ctx is done.
func (r *Router) Start(ctx context.Context) error {
	if err := r.ch.Qos(r.prefetch, 0, false); err != nil {
		return err
	}

	for _, reg := range r.registrations {
		deliveries, err := r.ch.Consume(
			reg.queueName,
			reg.consumerTag,
			false, // manual ack
			false, // exclusive
			false, // no-local
			false, // no-wait
			nil,
		)
		if err != nil {
			return err
		}
		go r.consume(ctx, reg, deliveries)
	}

	go func() {
		<-ctx.Done()
		for _, reg := range r.registrations {
			_ = r.ch.Cancel(reg.consumerTag, false)
		}
	}()
	return nil
}

func (r *Router) consume(ctx context.Context, reg registration, msgs <-chan amqp.Delivery) {
	l := r.log.With("queue", reg.queueName, "tag", reg.consumerTag)
	for d := range msgs {
		r.dispatch(ctx, l, reg.handler, d)
	}
	l.Info("consumer stopped")
}

func (r *Router) dispatch(ctx context.Context, l *slog.Logger, h Handler, d amqp.Delivery) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.callTimeout)
	err := h.Handle(callCtx, d)
	cancel()

	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrPoison):
		l.Error("dropping message", "rk", d.RoutingKey, "error", err, "body", string(d.Body))
		_ = d.Nack(false, false)
	default:
		l.Warn("handler error", "rk", d.RoutingKey, "error", err, "requeue", r.requeueOnErr)
		_ = d.Nack(false, r.requeueOnErr)
	}
}
