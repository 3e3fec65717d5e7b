package repository

import (
	"context"

	"AprSight/internal/domain/models"
	domrepo "AprSight/internal/domain/repository"
	pkgkafka "AprSight/pkg/kafka"
)

// KafkaEventPublisher emits trade lifecycle events to Kafka, keyed by
// currency so events for one asset land on the same partition.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

var _ domrepo.EventPublisher = (*KafkaEventPublisher)(nil)

func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishTradeEvent(ctx context.Context, ev *models.TradeEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Currency), ev)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
