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
	"encoding/json"

	"go.uber.org/zap"

	"github.com/telekom/k8s-dashboard/pkg/metrics"
)

// Sink defines the interface for audit event destinations.
type Sink interface {
	// Write sends an audit event to the sink.
	Write(ctx context.Context, event *Event) error

	// Close releases any resources held by the sink.
	Close() error

	// Name returns the sink's identifier.
	Name() string
}

// LogSink writes audit events to a structured logger.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a new LogSink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("audit")}
}

// Write logs the audit event.
func (s *LogSink) Write(_ context.Context, event *Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("severity", string(event.Severity)),
		zap.Time("timestamp", event.Timestamp),
		zap.String("outcome", string(event.Outcome)),
		zap.String("target_cluster", event.Target.Cluster),
		zap.String("target_kind", event.Target.Kind),
	}

	if event.Target.Name != "" {
		fields = append(fields, zap.String("target_name", event.Target.Name))
	}
	if event.Target.Namespace != "" {
		fields = append(fields, zap.String("target_namespace", event.Target.Namespace))
	}
	if event.Actor.SourceIP != "" {
		fields = append(fields, zap.String("actor_ip", event.Actor.SourceIP))
	}
	if event.CorrelationID != "" {
		fields = append(fields, zap.String("correlation_id", event.CorrelationID))
	}
	if event.Error != "" {
		fields = append(fields, zap.String("error", event.Error))
	}

	// Add details as a JSON field
	if len(event.Details) > 0 {
		if detailsJSON, err := json.Marshal(event.Details); err == nil {
			fields = append(fields, zap.String("details", string(detailsJSON)))
		}
	}

	s.logger.Info("audit_event", fields...)
	metrics.AuditEventsWritten.WithLabelValues(s.Name()).Inc()
	return nil
}

// Close is a no-op for LogSink.
func (s *LogSink) Close() error {
	return nil
}

// Name returns the sink identifier.
func (s *LogSink) Name() string {
	return "log"
}

// MultiSink writes to multiple sinks in order.
type MultiSink struct {
	sinks  []Sink
	logger *zap.Logger
}

// NewMultiSink creates a sink that writes to multiple destinations.
func NewMultiSink(sinks []Sink, logger *zap.Logger) *MultiSink {
	return &MultiSink{
		sinks:  sinks,
		logger: logger,
	}
}

// Write sends the event to all sinks.
func (s *MultiSink) Write(ctx context.Context, event *Event) error {
	var lastErr error
	for _, sink := range s.sinks {
		if err := sink.Write(ctx, event); err != nil {
			// Use string representation to avoid noisy stacktraces for transient errors
			s.logger.Warn("audit sink write failed",
				zap.String("sink", sink.Name()),
				zap.String("error", err.Error()))
			lastErr = err
		}
	}
	return lastErr
}

// Close closes all sinks.
func (s *MultiSink) Close() error {
	var lastErr error
	for _, sink := range s.sinks {
		if err := sink.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Name returns the sink identifier.
func (s *MultiSink) Name() string {
	return "multi"
}
