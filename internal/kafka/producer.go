// Package kafka publishes analytics events. Delivery is best-effort: the
// sink never blocks a submission and never surfaces a broker failure.
package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/smarlify/playful-hub/internal/config"
)

// event is the wire envelope for one tracked milestone
type event struct {
	Event     string         `json:"event"`
	Params    map[string]any `json:"params,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Sink is a Kafka-backed analytics sink
type Sink struct {
	producer sarama.AsyncProducer
	topic    string
	logger   *slog.Logger
	// identify extracts the user id from the calling context
	identify func(ctx context.Context) (string, bool)
	wg       sync.WaitGroup
}

// NewSink creates a new Kafka analytics sink
func NewSink(
	cfg *config.AnalyticsConfig,
	identify func(ctx context.Context) (string, bool),
	logger *slog.Logger,
) (*Sink, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_0_0_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	saramaConfig.Producer.Retry.Max = cfg.RetryAttempts
	saramaConfig.Producer.Flush.Frequency = cfg.FlushInterval
	saramaConfig.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, err
	}

	s := &Sink{
		producer: producer,
		topic:    cfg.Topic,
		logger:   logger,
		identify: identify,
	}

	// Drain delivery errors so the producer never stalls
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for err := range producer.Errors() {
			s.logger.Warn("analytics event delivery failed", "error", err.Err)
		}
	}()

	return s, nil
}

// Track publishes a named event with a free-form parameter map. The
// cross-domain user id is attached when the context carries one.
func (s *Sink) Track(ctx context.Context, name string, params map[string]any) {
	evt := event{
		Event:     name,
		Params:    params,
		Timestamp: time.Now(),
	}
	if s.identify != nil {
		if userID, ok := s.identify(ctx); ok {
			evt.UserID = userID
		}
	}

	value, err := json.Marshal(evt)
	if err != nil {
		s.logger.Warn("failed to encode analytics event", "event", name, "error", err)
		return
	}

	select {
	case s.producer.Input() <- &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(name),
		Value: sarama.ByteEncoder(value),
	}:
	case <-ctx.Done():
	}
}

// Close flushes pending events and shuts the producer down
func (s *Sink) Close() error {
	err := s.producer.Close()
	s.wg.Wait()
	return err
}
