// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType names a mutation performed through the dashboard.
type EventType string

const (
	// === Cluster registry events ===
	EventClusterAdded   EventType = "cluster.added"
	EventClusterUpdated EventType = "cluster.updated"
	EventClusterRemoved EventType = "cluster.removed"

	// === Namespace events ===
	EventNamespaceCreated EventType = "namespace.created"
	EventNamespaceDeleted EventType = "namespace.deleted"

	// === Resource events ===
	EventResourceCreated  EventType = "resource.created"
	EventResourceDeleted  EventType = "resource.deleted"
	EventManifestApplied  EventType = "manifest.applied"
	EventWorkloadImageSet EventType = "workload.image_updated"
	EventWorkloadScaled   EventType = "workload.scaled"
)

// Severity represents the severity level of an audit event
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Outcome records whether the audited call succeeded.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Event represents a single audit event
type Event struct {
	// ID is a unique identifier for this event
	ID string `json:"id"`

	Type     EventType `json:"type"`
	Severity Severity  `json:"severity"`

	// Timestamp is when the event occurred
	Timestamp time.Time `json:"timestamp"`

	Actor  Actor  `json:"actor"`
	Target Target `json:"target"`

	Outcome Outcome `json:"outcome"`
	// Error is the failure message when Outcome is failure.
	Error string `json:"error,omitempty"`

	// Details contains event-specific information
	Details map[string]interface{} `json:"details,omitempty"`

	// CorrelationID ties the event to the HTTP request that caused it.
	CorrelationID string `json:"correlationId,omitempty"`
}

// Actor represents who triggered an audit event
type Actor struct {
	// SourceIP is the IP address of the request origin
	SourceIP string `json:"sourceIP,omitempty"`

	// UserAgent from the request
	UserAgent string `json:"userAgent,omitempty"`
}

// Target represents what was affected by an audit event
type Target struct {
	// Cluster is the dashboard cluster id
	Cluster string `json:"cluster"`

	// Kind is the resource kind (deployment, service, ...)
	Kind string `json:"kind"`

	Name      string `json:"name,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

// SeverityForEventType returns the default severity for an event type
func SeverityForEventType(eventType EventType) Severity {
	switch eventType {
	case EventNamespaceDeleted, EventClusterRemoved:
		return SeverityCritical
	case EventResourceDeleted, EventWorkloadScaled, EventWorkloadImageSet:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// NewEvent stamps a fresh event with id, time, severity and the actor
// carried by ctx. err decides the outcome.
func NewEvent(ctx context.Context, eventType EventType, target Target, err error) *Event {
	e := &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Severity:  SeverityForEventType(eventType),
		Timestamp: time.Now().UTC(),
		Target:    target,
		Outcome:   OutcomeSuccess,
	}
	if rc, ok := RequestFromContext(ctx); ok {
		e.Actor = rc.Actor
		e.CorrelationID = rc.CorrelationID
	}
	if err != nil {
		e.Outcome = OutcomeFailure
		e.Error = err.Error()
	}
	return e
}

// RequestContext is the request information attached to events.
type RequestContext struct {
	Actor         Actor
	CorrelationID string
}

type requestContextKey struct{}

// WithRequest returns ctx carrying rc for events created below it.
func WithRequest(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

func RequestFromContext(ctx context.Context) (RequestContext, bool) {
	rc, ok := ctx.Value(requestContextKey{}).(RequestContext)
	return rc, ok
}
