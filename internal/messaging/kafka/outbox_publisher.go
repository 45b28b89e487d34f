package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/minimart/internal/domain"
)

// OutboxTopicPublisher публикует outbox-сообщения в заданный topic.
type OutboxTopicPublisher struct {
	producer   *Producer
	topic      string
	registerID string
	now        func() time.Time
}

// NewOutboxPublisher создаёт Kafka-паблишер событий продаж.
// registerID помечает, с какой кассы пришло событие.
func NewOutboxPublisher(producer *Producer, topic, registerID string) *OutboxTopicPublisher {
	if topic == "" {
		topic = TopicSaleEvents
	}
	return &OutboxTopicPublisher{
		producer:   producer,
		topic:      topic,
		registerID: registerID,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Publish отправляет сообщение, ключом служит id чека.
func (p *OutboxTopicPublisher) Publish(event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka outbox publisher is not initialized: %w", domain.ErrOutboxPublish)
	}

	key := event.AggregateID
	if key == "" {
		key = event.ID
	}

	envelope := Envelope{
		ID:            event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		RegisterID:    p.registerID,
		Payload:       json.RawMessage(event.Payload),
		PublishedAt:   p.now(),
	}

	headers := []Header{{Key: HeaderEventType, Value: event.EventType}}
	if p.registerID != "" {
		headers = append(headers, Header{Key: HeaderRegisterID, Value: p.registerID})
	}
	if p.topic == TopicDeadLetterQueue {
		headers = append(headers, Header{Key: HeaderOriginalTopic, Value: TopicSaleEvents})
	}

	if err := p.producer.PublishEvent(p.topic, key, envelope, headers...); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrOutboxPublish, err)
	}
	return nil
}

var _ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)
