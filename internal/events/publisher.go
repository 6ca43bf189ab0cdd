package events

import (
	"context"
	"fmt"
	"time"

	"todoTracker/internal/logger"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Message struct {
	Topic string
	Key   string
	Value []byte
}

type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// KafkaPublisher пишет в Kafka; сообщения с одним ключом попадают в одну партицию.
// Publish синхронный и отправляет по одному сообщению: батч из одного сообщения
// уходит сразу, а ожидание добора батча ограничено batchTimeout.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, writeTimeout, batchTimeout time.Duration) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			WriteTimeout:           writeTimeout,
			BatchSize:              1,
			BatchTimeout:           batchTimeout,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, msg Message) error {
	start := time.Now()

	err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic: msg.Topic,
		Key:   []byte(msg.Key),
		Value: msg.Value,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(uuid.NewString())},
		},
	})
	if err != nil {
		return fmt.Errorf("запись в топик %s: %w", msg.Topic, err)
	}

	logger.Debug("Events: Сообщение отправлено",
		zap.String("topic", msg.Topic),
		zap.String("key", msg.Key),
		zap.Duration("ms", time.Since(start)))
	return nil
}

func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("закрытие kafka writer: %w", err)
	}
	logger.Info("Events: Kafka writer закрыт")
	return nil
}

// LogPublisher используется, когда брокеры не настроены: события только пишутся в лог
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, msg Message) error {
	logger.Info("Events: Брокер не настроен, событие записано в лог",
		zap.String("topic", msg.Topic),
		zap.String("key", msg.Key),
		zap.ByteString("value", msg.Value))
	return nil
}

func (LogPublisher) Close() error {
	return nil
}
