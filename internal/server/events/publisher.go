// Package events publishes safety events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// FallDetectedEvent is published when a worker's device reports a fall.
type FallDetectedEvent struct {
	UserID      string    `json:"userId"`
	UserName    string    `json:"userName,omitempty"`
	TimesheetID string    `json:"timesheetId,omitempty"`
	OfflineID   string    `json:"offlineId,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	DetectedAt  time.Time `json:"detectedAt"`
}

type Publisher interface {
	PublishFallDetected(ctx context.Context, event FallDetectedEvent) error
	Close() error
}

type noopPublisher struct{}

// NewNoopPublisher returns a Publisher that drops every event.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) PublishFallDetected(context.Context, FallDetectedEvent) error {
	return nil
}

func (noopPublisher) Close() error { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher writes to topic on brokers. Messages are keyed by user
// so one worker's alerts stay ordered.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		topic: topic,
	}
}

func (p *KafkaPublisher) PublishFallDetected(ctx context.Context, event FallDetectedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.UserID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("fall_detected")},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
