/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package audit

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
	"go.uber.org/zap"

	"github.com/telekom/k8s-dashboard/pkg/config"
	"github.com/telekom/k8s-dashboard/pkg/metrics"
)

// KafkaSinkConfig configures a KafkaSink.
type KafkaSinkConfig struct {
	// Name is the identifier for this sink instance.
	Name string

	// Brokers is the list of Kafka broker addresses.
	Brokers []string

	// Topic is the Kafka topic to write audit events to.
	Topic string

	// TLS configuration for secure connections.
	TLS *KafkaTLSConfig

	// SASL authentication configuration.
	SASL *KafkaSASLConfig

	// BatchTimeout is the maximum time to wait before flushing a batch.
	// Default: 1 second
	BatchTimeout time.Duration

	// WriteTimeout is the timeout for writing messages.
	// Default: 10 seconds
	WriteTimeout time.Duration
}

// KafkaTLSConfig holds TLS configuration for Kafka connections.
type KafkaTLSConfig struct {
	// CACert is the PEM-encoded CA certificate for verifying the server.
	CACert []byte
}

// KafkaSASLConfig holds SASL authentication configuration.
type KafkaSASLConfig struct {
	// Mechanism is the SASL mechanism to use.
	// Valid values: "PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512"
	Mechanism string
	Username  string
	Password  string
}

// KafkaSinkConfigFrom translates the audit.kafka section of the dashboard config.
func KafkaSinkConfigFrom(cfg config.Kafka) (KafkaSinkConfig, error) {
	out := KafkaSinkConfig{Brokers: cfg.Brokers, Topic: cfg.Topic}
	if cfg.TLSCAFile != "" {
		ca, err := os.ReadFile(cfg.TLSCAFile)
		if err != nil {
			return out, fmt.Errorf("read kafka CA bundle: %w", err)
		}
		out.TLS = &KafkaTLSConfig{CACert: ca}
	}
	if cfg.SASLMechanism != "" {
		out.SASL = &KafkaSASLConfig{
			Mechanism: cfg.SASLMechanism,
			Username:  cfg.SASLUsername,
			Password:  cfg.SASLPassword,
		}
	}
	return out, nil
}

// messageWriter is the part of *kafka.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink writes audit events to a Kafka topic, keyed by cluster id so
// that events of one cluster stay ordered within a partition.
type KafkaSink struct {
	name   string
	writer messageWriter
	logger *zap.Logger
	mu     sync.Mutex
	closed bool
}

// NewKafkaSink creates a new KafkaSink.
func NewKafkaSink(cfg KafkaSinkConfig, logger *zap.Logger) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one Kafka broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}

	transport := &kafka.Transport{}
	if cfg.TLS != nil {
		tlsConfig, err := buildTLSConfig(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to build TLS config: %w", err)
		}
		transport.TLS = tlsConfig
	}
	if cfg.SASL != nil && cfg.SASL.Mechanism != "" {
		mechanism, err := buildSASLMechanism(cfg.SASL)
		if err != nil {
			return nil, fmt.Errorf("failed to build SASL mechanism: %w", err)
		}
		transport.SASL = mechanism
	}

	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           batchTimeout,
		WriteTimeout:           writeTimeout,
		RequiredAcks:           kafka.RequireAll,
		Compression:            kafka.Snappy,
		Transport:              transport,
		AllowAutoTopicCreation: false,
	}

	name := cfg.Name
	if name == "" {
		name = "kafka"
	}

	logger.Info("Kafka audit sink created",
		zap.String("name", name),
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
		zap.Bool("tls_enabled", cfg.TLS != nil),
		zap.Bool("sasl_enabled", cfg.SASL != nil && cfg.SASL.Mechanism != ""))

	return newKafkaSink(name, writer, logger), nil
}

func newKafkaSink(name string, w messageWriter, logger *zap.Logger) *KafkaSink {
	return &KafkaSink{
		name:   name,
		writer: w,
		logger: logger.Named("kafka-audit"),
	}
}

// classifyKafkaError categorizes Kafka errors for logging.
func classifyKafkaError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "timeout"
		}
		return "network"
	}

	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "SASL") || strings.Contains(errStr, "authentication"):
		return "auth"
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host"):
		return "network"
	case strings.Contains(errStr, "TLS") || strings.Contains(errStr, "certificate"):
		return "tls"
	case strings.Contains(errStr, "topic"):
		return "topic"
	default:
		return "other"
	}
}

// Write sends an audit event to Kafka.
func (s *KafkaSink) Write(ctx context.Context, event *Event) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		metrics.AuditEventsFailed.WithLabelValues(s.name).Inc()
		return fmt.Errorf("kafka sink is closed")
	}

	value, err := json.Marshal(event)
	if err != nil {
		metrics.AuditEventsFailed.WithLabelValues(s.name).Inc()
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Target.Cluster),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-id", Value: []byte(event.ID)},
			{Key: "event-type", Value: []byte(event.Type)},
			{Key: "severity", Value: []byte(event.Severity)},
			{Key: "timestamp", Value: []byte(event.Timestamp.Format(time.RFC3339))},
		},
	}
	if event.CorrelationID != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: "correlation-id", Value: []byte(event.CorrelationID)})
	}

	start := time.Now()
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		errorType := classifyKafkaError(err)
		metrics.AuditEventsFailed.WithLabelValues(s.name).Inc()
		fields := []zap.Field{
			zap.Error(err),
			zap.String("error_type", errorType),
			zap.Duration("duration", time.Since(start)),
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
		}
		switch errorType {
		case "network", "timeout":
			s.logger.Warn("Kafka sink temporarily unavailable, event dropped", fields...)
		default:
			s.logger.Error("failed to write audit event to Kafka", fields...)
		}
		return fmt.Errorf("failed to write to Kafka (%s): %w", errorType, err)
	}

	metrics.AuditEventsWritten.WithLabelValues(s.name).Inc()
	return nil
}

// Close closes the Kafka writer.
func (s *KafkaSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	s.logger.Info("closing Kafka audit sink", zap.String("name", s.name))
	if err := s.writer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka writer: %w", err)
	}
	return nil
}

// Name returns the sink identifier.
func (s *KafkaSink) Name() string {
	return s.name
}

// buildTLSConfig creates a TLS configuration from KafkaTLSConfig.
func buildTLSConfig(cfg *KafkaTLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if len(cfg.CACert) > 0 {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(cfg.CACert) {
			return nil, fmt.Errorf("failed to parse CA certificate")
		}
		tlsConfig.RootCAs = pool
	}
	return tlsConfig, nil
}

// buildSASLMechanism creates a SASL mechanism from KafkaSASLConfig.
func buildSASLMechanism(cfg *KafkaSASLConfig) (sasl.Mechanism, error) {
	switch cfg.Mechanism {
	case "PLAIN":
		return plain.Mechanism{
			Username: cfg.Username,
			Password: cfg.Password,
		}, nil
	case "SCRAM-SHA-256":
		mechanism, err := scram.Mechanism(scram.SHA256, cfg.Username, cfg.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to create SCRAM-SHA-256 mechanism: %w", err)
		}
		return mechanism, nil
	case "SCRAM-SHA-512":
		mechanism, err := scram.Mechanism(scram.SHA512, cfg.Username, cfg.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to create SCRAM-SHA-512 mechanism: %w", err)
		}
		return mechanism, nil
	default:
		return nil, fmt.Errorf("unsupported SASL mechanism: %s", cfg.Mechanism)
	}
}
