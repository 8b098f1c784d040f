package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/sokohub/settlement-service/internal/application/ports"
)

const (
	typeSaleCompleted    = "sale.completed"
	typePaymentFailed    = "payment.failed"
	typeLateConfirmation = "payment.late_confirmation"
)

// Publisher emits settlement events to a Kafka topic. Consumers
// (notifications, reporting, audit) are one-way: the orchestrator never
// waits on them.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Publisher{writer: writer}
}

type envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func (p *Publisher) publish(ctx context.Context, key, eventType string, payload interface{}) error {
	data, err := json.Marshal(envelope{Type: eventType, Payload: payload})
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	})
}

func (p *Publisher) PublishSaleCompleted(ctx context.Context, event ports.SaleCompletedEvent) error {
	return p.publish(ctx, event.SaleID, typeSaleCompleted, event)
}

func (p *Publisher) PublishPaymentFailed(ctx context.Context, event ports.PaymentFailedEvent) error {
	return p.publish(ctx, event.SettlementID, typePaymentFailed, event)
}

func (p *Publisher) PublishLateConfirmation(ctx context.Context, event ports.LateConfirmationEvent) error {
	return p.publish(ctx, event.ExternalReference, typeLateConfirmation, event)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
