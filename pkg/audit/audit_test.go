// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/telekom/k8s-dashboard/pkg/config"
)

// recordingSink keeps every event it receives.
type recordingSink struct {
	mu     sync.Mutex
	events []*Event
	err    error
	closed bool
}

func (s *recordingSink) Write(_ context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Events() []*Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Event(nil), s.events...)
}

func TestEventTypes(t *testing.T) {
	tests := []struct {
		eventType        EventType
		expectedSeverity Severity
	}{
		{EventClusterAdded, SeverityInfo},
		{EventNamespaceCreated, SeverityInfo},
		{EventResourceCreated, SeverityInfo},
		{EventManifestApplied, SeverityInfo},
		{EventResourceDeleted, SeverityWarning},
		{EventWorkloadScaled, SeverityWarning},
		{EventWorkloadImageSet, SeverityWarning},
		{EventNamespaceDeleted, SeverityCritical},
		{EventClusterRemoved, SeverityCritical},
	}

	for _, tc := range tests {
		t.Run(string(tc.eventType), func(t *testing.T) {
			assert.Equal(t, tc.expectedSeverity, SeverityForEventType(tc.eventType))
		})
	}
}

func TestNewEvent(t *testing.T) {
	ctx := WithRequest(context.Background(), RequestContext{
		Actor:         Actor{SourceIP: "10.1.2.3", UserAgent: "curl/8"},
		CorrelationID: "req-1",
	})
	target := Target{Cluster: "prod", Kind: "deployment", Name: "web", Namespace: "shop"}

	ok := NewEvent(ctx, EventWorkloadScaled, target, nil)
	assert.NotEmpty(t, ok.ID)
	assert.False(t, ok.Timestamp.IsZero())
	assert.Equal(t, OutcomeSuccess, ok.Outcome)
	assert.Equal(t, SeverityWarning, ok.Severity)
	assert.Equal(t, "10.1.2.3", ok.Actor.SourceIP)
	assert.Equal(t, "req-1", ok.CorrelationID)
	assert.Empty(t, ok.Error)

	failed := NewEvent(context.Background(), EventWorkloadScaled, target, errors.New("boom"))
	assert.Equal(t, OutcomeFailure, failed.Outcome)
	assert.Equal(t, "boom", failed.Error)
	assert.Empty(t, failed.Actor.SourceIP)
	assert.NotEqual(t, ok.ID, failed.ID)
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sink := NewLogSink(zap.New(core))

	event := NewEvent(context.Background(), EventResourceDeleted, Target{Cluster: "prod", Kind: "pod", Name: "web-1", Namespace: "shop"}, nil)
	event.Details = map[string]interface{}{"tail": 10}
	require.NoError(t, sink.Write(context.Background(), event))

	entries := logs.FilterMessage("audit_event").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "resource.deleted", fields["event_type"])
	assert.Equal(t, "prod", fields["target_cluster"])
	assert.Equal(t, "web-1", fields["target_name"])
	assert.Equal(t, "shop", fields["target_namespace"])
	assert.Equal(t, `{"tail":10}`, fields["details"])
	assert.Equal(t, "log", sink.Name())
	assert.NoError(t, sink.Close())
}

func TestMultiSinkWritesAllAndReportsLastError(t *testing.T) {
	good := &recordingSink{}
	bad := &recordingSink{err: errors.New("down")}
	multi := NewMultiSink([]Sink{bad, good}, zaptest.NewLogger(t))

	err := multi.Write(context.Background(), &Event{ID: "1"})
	assert.Error(t, err)
	assert.Len(t, good.Events(), 1)

	require.NoError(t, multi.Close())
	assert.True(t, good.closed)
	assert.True(t, bad.closed)
}

func TestManagerFillsDefaults(t *testing.T) {
	sink := &recordingSink{}
	m := NewManager(sink, zaptest.NewLogger(t))

	m.Emit(context.Background(), &Event{Type: EventNamespaceDeleted})
	events := sink.Events()
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.Equal(t, SeverityCritical, events[0].Severity)
	assert.Equal(t, OutcomeSuccess, events[0].Outcome)
}

func TestManagerMutation(t *testing.T) {
	sink := &recordingSink{}
	m := NewManager(sink, zaptest.NewLogger(t))

	m.Mutation(context.Background(), EventWorkloadImageSet,
		Target{Cluster: "dev", Kind: "deployment", Name: "web", Namespace: "shop"},
		map[string]interface{}{"image": "nginx:1.27"}, errors.New("forbidden"))
	m.ClusterChanged(context.Background(), EventClusterAdded, "dev", nil)

	events := sink.Events()
	require.Len(t, events, 2)
	assert.Equal(t, OutcomeFailure, events[0].Outcome)
	assert.Equal(t, "nginx:1.27", events[0].Details["image"])
	assert.Equal(t, "cluster", events[1].Target.Kind)
	assert.Equal(t, "dev", events[1].Target.Name)
}

func TestManagerSinkErrorIsSwallowed(t *testing.T) {
	m := NewManager(&recordingSink{err: errors.New("down")}, zaptest.NewLogger(t))
	assert.NotPanics(t, func() {
		m.Emit(context.Background(), &Event{Type: EventResourceCreated})
	})
}

func TestDisabledAndNilManager(t *testing.T) {
	var nilManager *Manager
	assert.False(t, nilManager.Enabled())
	assert.NotPanics(t, func() {
		nilManager.Mutation(context.Background(), EventResourceCreated, Target{}, nil, nil)
	})
	assert.NoError(t, nilManager.Close())

	m, err := NewManagerFromConfig(config.Audit{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, m.Enabled())
}

func TestManagerFromConfig(t *testing.T) {
	m, err := NewManagerFromConfig(config.Audit{Enabled: true}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.True(t, m.Enabled())
	require.NoError(t, m.Close())
	assert.False(t, m.Enabled())

	_, err = NewManagerFromConfig(config.Audit{Enabled: true, Kafka: &config.Kafka{Brokers: []string{"localhost:9092"}}}, zaptest.NewLogger(t))
	assert.Error(t, err, "topic is required")

	_, err = NewManagerFromConfig(config.Audit{Enabled: true, Kafka: &config.Kafka{
		Brokers:   []string{"localhost:9092"},
		Topic:     "audit",
		TLSCAFile: "/nonexistent/ca.pem",
	}}, zaptest.NewLogger(t))
	assert.Error(t, err)
}
