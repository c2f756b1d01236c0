package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

const publishTimeout = 10 * time.Second

// Producer publishes envelopes to Kafka. A nil Producer is valid and
// only logs events, so the system runs without a broker.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish serializes the event and hands it to Kafka on a goroutine.
// Errors are logged and dropped; the caller is never blocked on the
// broker and never sees a failure.
func (p *Producer) Publish(topic, eventType string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("Failed to marshal event %s: %v", eventType, err)
		return
	}

	value, err := json.Marshal(Envelope{
		Type:      eventType,
		Data:      payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("Failed to marshal envelope for %s: %v", eventType, err)
		return
	}

	if p == nil || p.writer == nil {
		log.Printf("Event (no Kafka): %s %s", eventType, string(payload))
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		err := p.writer.WriteMessages(ctx, kafka.Message{
			Topic: topic,
			Key:   []byte(eventType),
			Value: value,
		})

		if err != nil {
			log.Printf("Failed to publish event %s to %s: %v", eventType, topic, err)
		}
	}()
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
