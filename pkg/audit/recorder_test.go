package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"solara-hq/quotient/pkg/quota"
)

// blockableStorage is a Storage stub whose writes can be held open to fill
// the recorder's buffer.
type blockableStorage struct {
	mu      sync.Mutex
	events  []*Event
	release chan struct{}
}

func newBlockableStorage() *blockableStorage {
	return &blockableStorage{}
}

func (s *blockableStorage) Store(ctx context.Context, event *Event) error {
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *blockableStorage) stored() []*Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *blockableStorage) Query(ctx context.Context, q *Query) ([]*Event, error) { return nil, nil }
func (s *blockableStorage) Count(ctx context.Context, q *Query) (int64, error)    { return 0, nil }
func (s *blockableStorage) Delete(ctx context.Context, q *Query) (int64, error)   { return 0, nil }
func (s *blockableStorage) Close() error                                          { return nil }

func sampleDecision(userID string) *quota.DecisionEvent {
	return &quota.DecisionEvent{
		UserID:         userID,
		TierID:         "pro",
		Type:           quota.EventWarning,
		CurrentUsage:   85,
		QuotaLimit:     100,
		PercentageUsed: 85,
		SessionID:      "s1",
		Metadata:       map[string]string{"period": "2026-08"},
	}
}

func TestRecorder_WritesEvents(t *testing.T) {
	storage := newBlockableStorage()
	recorder := NewRecorder(storage, &RecorderConfig{Enabled: true, AsyncBuffer: 10})

	recorder.Record(sampleDecision("alice"))
	if err := recorder.Close(); err != nil {
		t.Fatal(err)
	}

	events := storage.stored()
	if len(events) != 1 {
		t.Fatalf("expected 1 stored event, got %d", len(events))
	}
	e := events[0]
	if e.EventID == "" {
		t.Error("expected an assigned event ID")
	}
	if e.Timestamp.IsZero() {
		t.Error("expected an assigned timestamp")
	}
	if e.UserID != "alice" || e.TierID != "pro" || e.Type != quota.EventWarning {
		t.Errorf("decision fields lost: %+v", e)
	}
	if e.Metadata["period"] != "2026-08" {
		t.Errorf("metadata lost: %v", e.Metadata)
	}
}

func TestRecorder_DisabledIsNoop(t *testing.T) {
	storage := newBlockableStorage()
	recorder := NewRecorder(storage, &RecorderConfig{Enabled: false, AsyncBuffer: 10})

	recorder.Record(sampleDecision("alice"))
	recorder.Record(nil)
	if err := recorder.Close(); err != nil {
		t.Fatal(err)
	}

	if got := len(storage.stored()); got != 0 {
		t.Errorf("disabled recorder stored %d events", got)
	}
}

func TestRecorder_DropsWhenBufferFull(t *testing.T) {
	storage := newBlockableStorage()
	storage.release = make(chan struct{})

	recorder := NewRecorder(storage, &RecorderConfig{Enabled: true, AsyncBuffer: 1})

	// First event is picked up by the worker and held inside Store; the
	// second fills the buffer; everything after is dropped.
	recorder.Record(sampleDecision("a"))

	deadline := time.After(2 * time.Second)
	for recorder.Dropped() == 0 {
		recorder.Record(sampleDecision("b"))
		select {
		case <-deadline:
			t.Fatal("recorder never dropped with a full buffer")
		default:
		}
	}

	close(storage.release)
	if err := recorder.Close(); err != nil {
		t.Fatal(err)
	}

	if recorder.Dropped() == 0 {
		t.Error("expected a nonzero dropped count")
	}
}

func TestRecorder_CloseDrainsAndIsIdempotent(t *testing.T) {
	storage := newBlockableStorage()
	recorder := NewRecorder(storage, &RecorderConfig{Enabled: true, AsyncBuffer: 100})

	for i := 0; i < 20; i++ {
		recorder.Record(sampleDecision("alice"))
	}
	if err := recorder.Close(); err != nil {
		t.Fatal(err)
	}
	if err := recorder.Close(); err != nil {
		t.Errorf("second close returned error: %v", err)
	}

	if got := len(storage.stored()); got != 20 {
		t.Errorf("expected all 20 events drained on close, got %d", got)
	}
}
