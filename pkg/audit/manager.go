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
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/telekom/k8s-dashboard/pkg/config"
)

// Manager hands audit events to the configured sink. A nil or disabled
// Manager accepts and discards events.
type Manager struct {
	sink   Sink
	logger *zap.Logger
	closed atomic.Bool
}

// NewManager creates a Manager writing to sink. A nil sink disables auditing.
func NewManager(sink Sink, logger *zap.Logger) *Manager {
	return &Manager{sink: sink, logger: logger.Named("audit-manager")}
}

// NewManagerFromConfig builds the sink chain for cfg: the log sink, plus a
// queued Kafka sink when audit.kafka is configured.
func NewManagerFromConfig(cfg config.Audit, logger *zap.Logger) (*Manager, error) {
	if !cfg.Enabled {
		logger.Info("audit trail disabled")
		return NewManager(nil, logger), nil
	}

	sinks := []Sink{NewLogSink(logger)}
	if cfg.Kafka != nil {
		kcfg, err := KafkaSinkConfigFrom(*cfg.Kafka)
		if err != nil {
			return nil, err
		}
		ks, err := NewKafkaSink(kcfg, logger)
		if err != nil {
			return nil, fmt.Errorf("kafka audit sink: %w", err)
		}
		sinks = append(sinks, NewQueuedSink(ks, DefaultQueuedSinkConfig(), logger))
	}
	return NewManager(NewMultiSink(sinks, logger), logger), nil
}

// Enabled reports whether events reach a sink.
func (m *Manager) Enabled() bool {
	return m != nil && m.sink != nil && !m.closed.Load()
}

// Emit fills in missing id, timestamp and severity and writes the event.
// Sink failures are logged, never returned.
func (m *Manager) Emit(ctx context.Context, event *Event) {
	if !m.Enabled() {
		return
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Severity == "" {
		event.Severity = SeverityForEventType(event.Type)
	}
	if event.Outcome == "" {
		event.Outcome = OutcomeSuccess
	}
	if err := m.sink.Write(ctx, event); err != nil {
		m.logger.Warn("audit event not written",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.String("error", err.Error()))
	}
}

// Close flushes and closes the sink chain.
func (m *Manager) Close() error {
	if m == nil || m.sink == nil || m.closed.Swap(true) {
		return nil
	}
	return m.sink.Close()
}

// --- Helper methods for common events ---

// Mutation records the outcome of a cluster mutation.
func (m *Manager) Mutation(ctx context.Context, eventType EventType, target Target, details map[string]interface{}, err error) {
	if !m.Enabled() {
		return
	}
	event := NewEvent(ctx, eventType, target, err)
	event.Details = details
	m.Emit(ctx, event)
}

// ClusterChanged records a registry add, update or removal.
func (m *Manager) ClusterChanged(ctx context.Context, eventType EventType, cluster string, err error) {
	m.Mutation(ctx, eventType, Target{Cluster: cluster, Kind: "cluster", Name: cluster}, nil, err)
}
