package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"wholesale/internal/logger"

	"github.com/segmentio/kafka-go"
)

const Topic = "catalog-events"

const (
	EventProductCreated  = "product.created"
	EventProductUpdated  = "product.updated"
	EventProductDelisted = "product.delisted"
)

type Event struct {
	Type      string    `json:"type"`
	ProductID string    `json:"product_id"`
	RemoteID  string    `json:"remote_id"`
	GroupID   string    `json:"group_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher emits catalog-change events. Publishing is best effort: a broker
// outage is logged and swallowed, it never fails the sync or webhook that
// produced the event. With no brokers configured the publisher is a no-op.
type Publisher struct {
	writer *kafka.Writer
	logger *logger.Logger
}

func NewPublisher(brokers string, logger *logger.Logger) *Publisher {
	p := &Publisher{logger: logger}
	if brokers == "" {
		return p
	}
	p.writer = &kafka.Writer{
		Addr:                   kafka.TCP(strings.Split(brokers, ",")...),
		Topic:                  Topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return p
}

func (p *Publisher) Publish(eventType, productID, remoteID, groupID string) {
	if p.writer == nil {
		return
	}

	event := Event{
		Type:      eventType,
		ProductID: productID,
		RemoteID:  remoteID,
		GroupID:   groupID,
		Timestamp: time.Now(),
	}
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal event: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(remoteID),
		Value: value,
	}); err != nil {
		p.logger.Error("failed to publish %s event: %v", eventType, err)
	}
}

func (p *Publisher) Close() {
	if p.writer != nil {
		p.writer.Close()
	}
}
