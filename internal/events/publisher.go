// Package events publishes document lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"clinical-ehr-gateway/internal/observability/metrics"
)

// Publisher publishes document and HL7 lifecycle events to separate
// Kafka topics. When disabled it logs events instead of producing, so
// pipelines behave identically with and without a broker.
type Publisher struct {
	writerDocuments *kafka.Writer
	writerHL7       *kafka.Writer
	principal       string
	topicDocuments  string
	topicHL7        string
	enabled         bool
	metrics         *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers        []string
	TopicDocuments string
	TopicHL7       string
	Principal      string
	Enabled        bool
}

// New creates a Kafka event publisher with separate topics for
// document and HL7 events.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled: false,
			metrics: m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:      cfg.Principal,
			topicDocuments: cfg.TopicDocuments,
			topicHL7:       cfg.TopicHL7,
			enabled:        false,
			metrics:        m,
		}
	}

	// Longer dial timeouts for DNS resolution in Kubernetes
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	writerDocuments := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicDocuments,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	writerHL7 := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicHL7,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicDocuments", cfg.TopicDocuments).
		Str("topicHL7", cfg.TopicHL7).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerDocuments: writerDocuments,
		writerHL7:       writerHL7,
		principal:       cfg.Principal,
		topicDocuments:  cfg.TopicDocuments,
		topicHL7:        cfg.TopicHL7,
		enabled:         true,
		metrics:         m,
	}
}

// PublishDocument publishes a document lifecycle event keyed by
// encounter, so all transitions for one encounter land on one
// partition in order.
func (p *Publisher) PublishDocument(ctx context.Context, encounterID string, event any) error {
	return p.publish(ctx, p.writerDocuments, p.topicDocuments, "document", encounterID, event)
}

// PublishHL7 publishes an HL7 message lifecycle event keyed by patient.
func (p *Publisher) PublishHL7(ctx context.Context, patientID string, event any) error {
	return p.publish(ctx, p.writerHL7, p.topicHL7, "hl7", patientID, event)
}

// publish is the internal method that writes to a specific Kafka writer.
func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	// If Kafka is disabled, just log
	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerDocuments != nil {
		if e := p.writerDocuments.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing documents writer")
			err = e
		}
	}
	if p.writerHL7 != nil {
		if e := p.writerHL7.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing HL7 writer")
			err = e
		}
	}
	return err
}
