package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"wholesale/internal/images"
	"wholesale/internal/logger"

	"github.com/segmentio/kafka-go"
)

// Processor reacts to catalog-change events on the worker side. Currently
// its only job is warming the image cache for newly created products.
type Processor struct {
	queue  *images.Queue
	logger *logger.Logger
}

func NewProcessor(queue *images.Queue, logger *logger.Logger) *Processor {
	return &Processor{queue: queue, logger: logger}
}

func (p *Processor) Process(event Event) error {
	switch event.Type {
	case EventProductCreated:
		p.queue.Enqueue(event.RemoteID, event.GroupID)
	case EventProductUpdated, EventProductDelisted:
		// Nothing to do; the cached file stays for a possible relisting.
	default:
		p.logger.Debug("ignoring event type %s", event.Type)
	}
	return nil
}

type Consumer struct {
	reader    *kafka.Reader
	processor *Processor
	logger    *logger.Logger
}

func NewConsumer(brokers string, processor *Processor, logger *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        strings.Split(brokers, ","),
		GroupID:        "wholesale-worker",
		Topic:          Topic,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader:    reader,
		processor: processor,
		logger:    logger,
	}
}

func (c *Consumer) Start() {
	c.logger.Info("Consumer started, listening for catalog events...")

	for {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		message, err := c.reader.ReadMessage(ctx)
		cancel()

		if err != nil {
			if err == context.DeadlineExceeded {
				continue
			}
			c.logger.Error("Failed to read message: %v", err)
			continue
		}

		var event Event
		if err := json.Unmarshal(message.Value, &event); err != nil {
			c.logger.Error("Failed to parse event: %v", err)
			continue
		}

		if err := c.processor.Process(event); err != nil {
			c.logger.Error("Failed to process event: %v", err)
			continue
		}
	}
}

func (c *Consumer) Stop() {
	c.logger.Info("Stopping consumer...")
	c.reader.Close()
}
