package output

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/chrisdamba/reviewclf/internal/models"
	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

// RunPublisher announces a finished report run to downstream consumers.
type RunPublisher interface {
	Publish(ctx context.Context, run models.RunSummary) error
	Close() error
}

type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *log.Entry
}

func NewKafkaPublisher(brokerList, topic string) (*KafkaPublisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Retry.Backoff = 100 * time.Millisecond
	saramaConfig.Producer.Return.Successes = true // required by SyncProducer
	saramaConfig.Net.DialTimeout = 30 * time.Second
	saramaConfig.Net.ReadTimeout = 30 * time.Second
	saramaConfig.Net.WriteTimeout = 30 * time.Second

	brokers := strings.Split(brokerList, ",")
	producer, err := sarama.NewSyncProducer(brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sarama producer: %w", err)
	}

	logger := log.WithField("component", "kafka-publisher")
	logger.WithField("brokers", brokers).Info("kafka producer created")
	return NewKafkaPublisherWithProducer(producer, topic, logger), nil
}

func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string, logger *log.Entry) *KafkaPublisher {
	if logger == nil {
		logger = log.WithField("component", "kafka-publisher")
	}
	return &KafkaPublisher{producer: producer, topic: topic, logger: logger}
}

func (k *KafkaPublisher) Publish(ctx context.Context, run models.RunSummary) error {
	if k.producer == nil {
		return fmt.Errorf("kafka producer is closed")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	partition, offset, err := k.producer.SendMessage(&sarama.ProducerMessage{
		Topic:     k.topic,
		Key:       sarama.StringEncoder(run.RunID),
		Value:     sarama.ByteEncoder(payload),
		Timestamp: run.CreatedAt,
	})
	if err != nil {
		k.logger.WithError(err).WithField("topic", k.topic).Error("failed to send run summary")
		return fmt.Errorf("failed to send message: %w", err)
	}

	k.logger.WithFields(log.Fields{
		"topic":     k.topic,
		"run_id":    run.RunID,
		"partition": partition,
		"offset":    offset,
	}).Debug("run summary published")
	return nil
}

func (k *KafkaPublisher) Close() error {
	if k.producer == nil {
		return nil
	}
	err := k.producer.Close()
	k.producer = nil
	return err
}
