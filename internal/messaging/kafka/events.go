package kafka

import (
	"encoding/json"
	"time"
)

// Topics для событий кассы.
const (
	TopicSaleEvents      = "pos.sale.events"
	TopicDeadLetterQueue = "pos.sale.events.dlq"
)

// Заголовки сообщений.
const (
	HeaderEventType     = "x-event-type"
	HeaderRegisterID    = "x-register-id"
	HeaderOriginalTopic = "x-original-topic"
)

// Envelope — конверт outbox-сообщения в Kafka.
type Envelope struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	RegisterID    string          `json:"register_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
	PublishedAt   time.Time       `json:"published_at"`
}
