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
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/telekom/k8s-dashboard/pkg/metrics"
)

// QueuedSinkConfig configures a QueuedSink.
type QueuedSinkConfig struct {
	// QueueSize is the size of the async event queue.
	// Default: 1000
	QueueSize int

	// WorkerCount is the number of async processing workers.
	// Default: 1
	WorkerCount int

	// WriteTimeout is the timeout for writing to the underlying sink.
	// Default: 5s
	WriteTimeout time.Duration
}

// DefaultQueuedSinkConfig returns sensible defaults for a queued sink.
func DefaultQueuedSinkConfig() QueuedSinkConfig {
	return QueuedSinkConfig{
		QueueSize:    1000,
		WorkerCount:  1,
		WriteTimeout: 5 * time.Second,
	}
}

// QueuedSinkHealth represents the health status of a queued sink.
type QueuedSinkHealth struct {
	Name            string    `json:"name"`
	QueueLength     int       `json:"queueLength"`
	QueueCapacity   int       `json:"queueCapacity"`
	DroppedEvents   int64     `json:"droppedEvents"`
	ProcessedEvents int64     `json:"processedEvents"`
	FailedEvents    int64     `json:"failedEvents"`
	LastError       string    `json:"lastError,omitempty"`
	LastErrorTime   time.Time `json:"lastErrorTime,omitempty"`
}

// QueuedSink decouples callers from a slow sink. Write never blocks; events
// that do not fit into the queue are dropped and counted.
type QueuedSink struct {
	sink   Sink
	queue  chan *Event
	config QueuedSinkConfig
	logger *zap.Logger

	droppedEvents   atomic.Int64
	processedEvents atomic.Int64
	failedEvents    atomic.Int64

	mu            sync.RWMutex
	lastError     string
	lastErrorTime time.Time

	// Lifecycle
	wg      sync.WaitGroup
	closeMu sync.RWMutex
	closed  bool
}

// NewQueuedSink creates a new QueuedSink wrapper around an existing sink.
func NewQueuedSink(sink Sink, cfg QueuedSinkConfig, logger *zap.Logger) *QueuedSink {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	qs := &QueuedSink{
		sink:   sink,
		queue:  make(chan *Event, cfg.QueueSize),
		config: cfg,
		logger: logger.Named("queued-sink").With(zap.String("sink", sink.Name())),
	}

	for i := 0; i < cfg.WorkerCount; i++ {
		qs.wg.Add(1)
		go qs.processQueue(i)
	}

	qs.logger.Info("queued sink started",
		zap.Int("queue_size", cfg.QueueSize),
		zap.Int("workers", cfg.WorkerCount),
		zap.Duration("write_timeout", cfg.WriteTimeout))

	return qs
}

// Write enqueues an event for async processing (non-blocking).
func (qs *QueuedSink) Write(_ context.Context, event *Event) error {
	qs.closeMu.RLock()
	defer qs.closeMu.RUnlock()
	if qs.closed {
		return fmt.Errorf("queued sink %s is closed", qs.sink.Name())
	}

	select {
	case qs.queue <- event:
		return nil
	default:
		qs.droppedEvents.Add(1)
		metrics.AuditEventsDropped.WithLabelValues(qs.sink.Name(), "queue_full").Inc()
		qs.logger.Warn("audit queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID))
		return nil
	}
}

// processQueue is the worker goroutine that processes events from the queue.
func (qs *QueuedSink) processQueue(workerID int) {
	defer qs.wg.Done()

	for event := range qs.queue {
		ctx, cancel := context.WithTimeout(context.Background(), qs.config.WriteTimeout)
		err := qs.sink.Write(ctx, event)
		cancel()

		if err != nil {
			qs.failedEvents.Add(1)

			qs.mu.Lock()
			qs.lastError = err.Error()
			qs.lastErrorTime = time.Now()
			qs.mu.Unlock()

			qs.logger.Error("failed to write audit event",
				zap.Int("worker", workerID),
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.String("error", err.Error()))
			continue
		}
		qs.processedEvents.Add(1)
	}
}

// Health returns the current health status of this sink.
func (qs *QueuedSink) Health() QueuedSinkHealth {
	qs.mu.RLock()
	defer qs.mu.RUnlock()
	return QueuedSinkHealth{
		Name:            qs.sink.Name(),
		QueueLength:     len(qs.queue),
		QueueCapacity:   cap(qs.queue),
		DroppedEvents:   qs.droppedEvents.Load(),
		ProcessedEvents: qs.processedEvents.Load(),
		FailedEvents:    qs.failedEvents.Load(),
		LastError:       qs.lastError,
		LastErrorTime:   qs.lastErrorTime,
	}
}

// Close drains the queue and closes the underlying sink.
func (qs *QueuedSink) Close() error {
	qs.closeMu.Lock()
	if qs.closed {
		qs.closeMu.Unlock()
		return nil
	}
	qs.closed = true
	close(qs.queue)
	qs.closeMu.Unlock()

	qs.wg.Wait()
	return qs.sink.Close()
}

// Name returns the underlying sink's name.
func (qs *QueuedSink) Name() string {
	return qs.sink.Name()
}
