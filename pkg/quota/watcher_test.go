package quota

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	d := newDebouncer(50 * time.Millisecond)
	defer d.stop()

	var fired atomic.Int32
	for i := 0; i < 10; i++ {
		d.trigger(func() { fired.Add(1) })
	}

	time.Sleep(200 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Errorf("expected one callback after quiet period, got %d", got)
	}
}

func TestDebouncer_FiresAgainAfterQuietPeriod(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)
	defer d.stop()

	var fired atomic.Int32
	d.trigger(func() { fired.Add(1) })
	time.Sleep(100 * time.Millisecond)
	d.trigger(func() { fired.Add(1) })
	time.Sleep(100 * time.Millisecond)

	if got := fired.Load(); got != 2 {
		t.Errorf("expected two separated callbacks, got %d", got)
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	d := newDebouncer(50 * time.Millisecond)

	var fired atomic.Int32
	d.trigger(func() { fired.Add(1) })
	d.stop()

	time.Sleep(150 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Errorf("expected no callback after stop, got %d", got)
	}
}
