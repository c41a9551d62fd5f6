// Package kafka publishes domain events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
)

// Topic receiving transfer completion events.
const Topic = "transfer_completed"

// Publisher writes events to Kafka.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher returns a Publisher writing to the given brokers.
func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    Topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Publish marshals the event to JSON and writes it to the topic.
func (p *Publisher) Publish(ctx context.Context, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{Value: data})
}

// Close closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
