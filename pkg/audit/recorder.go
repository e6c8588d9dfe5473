package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"solara-hq/quotient/pkg/quota"
)

// RecorderConfig contains configuration for the audit recorder.
type RecorderConfig struct {
	// Enabled enables event recording. When false, Record is a no-op.
	Enabled bool

	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout is the timeout for writing an event to storage.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultRecorderConfig returns the default recorder configuration.
func DefaultRecorderConfig() *RecorderConfig {
	return &RecorderConfig{
		Enabled:      true,
		AsyncBuffer:  1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder writes quota decision events to storage asynchronously.
// It satisfies quota.EventSink: Record never blocks the quota check path,
// and when the buffer is full the event is dropped and counted.
type Recorder struct {
	storage   Storage
	config    *RecorderConfig
	eventChan chan *Event
	wg        sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once
	dropped   atomic.Int64
	logger    *slog.Logger
}

// NewRecorder creates an audit recorder with the provided storage backend
// and starts its background writer.
func NewRecorder(storage Storage, config *RecorderConfig) *Recorder {
	if config == nil {
		config = DefaultRecorderConfig()
	}
	if config.AsyncBuffer <= 0 {
		config.AsyncBuffer = 1000
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}

	r := &Recorder{
		storage:   storage,
		config:    config,
		eventChan: make(chan *Event, config.AsyncBuffer),
		done:      make(chan struct{}),
		logger:    slog.Default().With("component", "audit.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("audit recorder initialized",
		"async_buffer", config.AsyncBuffer,
		"write_timeout", config.WriteTimeout,
	)

	return r
}

// Record enqueues a quota decision event for async writing. It returns
// immediately; when the buffer is full the event is dropped.
func (r *Recorder) Record(decision *quota.DecisionEvent) {
	if !r.config.Enabled || decision == nil {
		return
	}

	event := &Event{
		EventID:        uuid.New().String(),
		Timestamp:      time.Now().UTC(),
		UserID:         decision.UserID,
		TierID:         decision.TierID,
		Type:           decision.Type,
		CurrentUsage:   decision.CurrentUsage,
		QuotaLimit:     decision.QuotaLimit,
		PercentageUsed: decision.PercentageUsed,
		SessionID:      decision.SessionID,
		Metadata:       decision.Metadata,
	}

	select {
	case r.eventChan <- event:
	default:
		dropped := r.dropped.Add(1)
		r.logger.Warn("audit event channel full, dropping event",
			"event_id", event.EventID,
			"event_type", event.Type,
			"user_id", event.UserID,
			"dropped_total", dropped,
		)
	}
}

// Dropped returns the number of events dropped because the buffer was full.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close gracefully shuts down the recorder by draining the channel and
// waiting for pending writes to complete. It is idempotent.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.logger.Info("shutting down audit recorder")
		close(r.done)
		r.wg.Wait()
		r.logger.Info("audit recorder shut down complete",
			"dropped_total", r.dropped.Load(),
		)
	})
	return nil
}

// worker drains the event channel and writes events to storage.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case event := <-r.eventChan:
			r.writeEvent(event)

		case <-r.done:
			// Drain remaining events before exit.
			r.logger.Info("draining audit event channel before shutdown",
				"pending_count", len(r.eventChan),
			)

			for {
				select {
				case event := <-r.eventChan:
					r.writeEvent(event)
				default:
					r.logger.Info("audit event channel drained")
					return
				}
			}
		}
	}
}

// writeEvent writes a single event to storage.
func (r *Recorder) writeEvent(event *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()

	if err := r.storage.Store(ctx, event); err != nil {
		r.logger.Error("failed to store audit event",
			"event_id", event.EventID,
			"event_type", event.Type,
			"user_id", event.UserID,
			"error", err,
		)
		return
	}

	duration := time.Since(start)

	r.logger.Debug("audit event recorded",
		"event_id", event.EventID,
		"event_type", event.Type,
		"user_id", event.UserID,
		"duration_ms", duration.Milliseconds(),
	)

	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow audit event write",
			"event_id", event.EventID,
			"duration_ms", duration.Milliseconds(),
			"threshold_ms", (r.config.WriteTimeout / 2).Milliseconds(),
		)
	}
}
