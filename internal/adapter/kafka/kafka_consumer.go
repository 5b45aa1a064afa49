package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/aq2208/gpos-checkout/internal/logging"
	"github.com/aq2208/gpos-checkout/internal/usecase"
)

// HandlerFunc processes a decoded event.
type HandlerFunc func(ctx context.Context, ev usecase.SaleStatusChangedMsg) error

// Consumer consumes sale status topics with a single handler.
// A failing event is retried Attempts times, Backoff apart, then logged and skipped.
type Consumer struct {
	Group    sarama.ConsumerGroup
	Topics   []string
	Handle   HandlerFunc
	Logger   *slog.Logger
	Attempts int
	Backoff  time.Duration
}

func NewConsumer(group sarama.ConsumerGroup, topics []string, h HandlerFunc) *Consumer {
	return &Consumer{
		Group:  group,
		Topics: topics,
		Handle:   h,
		Logger:   logging.New("kafka-consumer"),
		Attempts: 3,
		Backoff:  500 * time.Millisecond,
	}
}

// Start blocks until ctx is cancelled or the group fails.
func (c *Consumer) Start(ctx context.Context) error {
	handler := &cgHandler{handle: c.Handle, log: c.Logger, attempts: c.Attempts, backoff: c.Backoff}
	go func() {
		for err := range c.Group.Errors() {
			c.Logger.Warn("consumer group error", "error", err)
		}
	}()
	for {
		if err := c.Group.Consume(ctx, c.Topics, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return err
		}
		// Consume returns on rebalance or cancellation.
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

type cgHandler struct {
	handle   HandlerFunc
	log      *slog.Logger
	attempts int
	backoff  time.Duration
}

func (h *cgHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *cgHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *cgHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		var ev usecase.SaleStatusChangedMsg
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			h.log.Error("kafka decode error", "error", err, "topic", msg.Topic, "off", msg.Offset)
			sess.MarkMessage(msg, "decode-error")
			continue
		}
		if err := h.handleWithRetry(sess.Context(), ev, msg); err != nil {
			if sess.Context().Err() != nil {
				// unmarked; the next session resumes from here
				return nil
			}
			// marking commits past it, so the event is dropped here
			h.log.Error("handler gave up", "error", err, "key", string(msg.Key), "topic", msg.Topic, "off", msg.Offset)
			sess.MarkMessage(msg, "handler-error")
			continue
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}

func (h *cgHandler) handleWithRetry(ctx context.Context, ev usecase.SaleStatusChangedMsg, msg *sarama.ConsumerMessage) error {
	attempts := max(h.attempts, 1)
	var err error
	for i := 1; i <= attempts; i++ {
		if err = h.handle(ctx, ev); err == nil {
			return nil
		}
		h.log.Warn("handler error", "error", err, "key", string(msg.Key), "off", msg.Offset, "attempt", i)
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(h.backoff * time.Duration(i)):
		}
	}
	return err
}
