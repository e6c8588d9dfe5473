package cli

import (
	"os"
	"syscall"
	"testing"
	"time"
)

func TestWaitForShutdown_EmptyUntilSignaled(t *testing.T) {
	ch := WaitForShutdown()
	if ch == nil {
		t.Fatal("expected a signal channel")
	}

	select {
	case sig := <-ch:
		t.Errorf("unexpected signal before delivery: %v", sig)
	case <-time.After(10 * time.Millisecond):
	}
}

func TestWaitForShutdown_ReceivesSIGTERM(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping self-signal test in short mode")
	}

	ch := WaitForShutdown()

	proc, err := os.FindProcess(os.Getpid())
	if err != nil {
		t.Fatal(err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		t.Fatal(err)
	}

	select {
	case sig := <-ch:
		if sig != syscall.SIGTERM {
			t.Errorf("expected SIGTERM, got %v", sig)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("signal not delivered")
	}
}
