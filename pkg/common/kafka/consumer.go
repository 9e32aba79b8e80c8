package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"github.com/synaptica-ai/mindmeter/pkg/common/logger"
	"github.com/synaptica-ai/mindmeter/pkg/common/models"
	"github.com/synaptica-ai/mindmeter/pkg/common/retry"
)

type Consumer struct {
	reader *kafka.Reader
}

type EventHandler func(ctx context.Context, event models.Event) error

// ErrPoisonMessage tells Consume a message can never be processed, so it is
// not retried.
var ErrPoisonMessage = errors.New("unprocessable message")

const handlerAttempts = 3

var handlerRetryDelay = 250 * time.Millisecond

func NewConsumer(brokers []string, topic string, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	return &Consumer{reader: reader}
}

// Consume blocks until ctx is cancelled.
func (c *Consumer) Consume(ctx context.Context, handler EventHandler) error {
	for {
		message, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Log.WithError(err).Error("Failed to fetch message")
			continue
		}

		event, err := decodeEvent(message.Value)
		if err != nil {
			logger.Log.WithError(err).WithField("offset", message.Offset).Error("Failed to unmarshal event")
			c.commit(ctx, message)
			continue
		}

		if err := handleEvent(ctx, handler, event); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// The reader has already moved past this offset, so a failed
			// event is committed and dropped either way.
			logger.Log.WithError(err).WithFields(map[string]interface{}{
				"event_id": event.ID,
				"offset":   message.Offset,
			}).Error("Failed to process event")
		}

		c.commit(ctx, message)
	}
}

// handleEvent retries transient handler failures in place. Poison messages
// are returned after the first attempt.
func handleEvent(ctx context.Context, handler EventHandler, event models.Event) error {
	return retry.Do(ctx, handlerAttempts, handlerRetryDelay, func() error {
		err := handler(ctx, event)
		if errors.Is(err, ErrPoisonMessage) {
			return retry.Stop(err)
		}
		return err
	})
}

func (c *Consumer) commit(ctx context.Context, message kafka.Message) {
	if err := c.reader.CommitMessages(ctx, message); err != nil {
		logger.Log.WithError(err).Error("Failed to commit message")
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func decodeEvent(payload []byte) (models.Event, error) {
	var event models.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return models.Event{}, fmt.Errorf("decode event: %w", err)
	}
	return event, nil
}
