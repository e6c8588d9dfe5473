package cli

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestProgress_DrawsBarAndCounts(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(10)
	progress.Update(5)
	progress.Finish()

	out := buf.String()
	if !strings.Contains(out, "5/10") {
		t.Errorf("expected midpoint count in output: %q", out)
	}
	if !strings.Contains(out, "10/10") {
		t.Errorf("expected final count in output: %q", out)
	}
	if !strings.Contains(out, "100.0%") {
		t.Errorf("expected completion percentage: %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("expected Finish to end the line")
	}
}

func TestProgress_ZeroTotalDrawsNothing(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(0)
	progress.Update(0)

	if got := buf.String(); strings.Contains(got, "[") {
		t.Errorf("expected no bar with zero total, got %q", got)
	}
}

func TestProgress_OverflowClampsToFull(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(10)
	progress.Update(15)

	if !strings.Contains(buf.String(), "100.0%") {
		t.Errorf("expected clamp at 100%%, got %q", buf.String())
	}
}

func TestProgress_Error(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(10)
	progress.Error(errors.New("worker died"))

	if !strings.Contains(buf.String(), "error: worker died") {
		t.Errorf("expected error line, got %q", buf.String())
	}
}

func TestProgress_ConcurrentUpdates(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)
	progress.Start(1000)

	var wg sync.WaitGroup
	for w := 0; w < 10; w++ {
		wg.Add(1)
		go func(base int64) {
			defer wg.Done()
			for i := int64(0); i < 100; i++ {
				progress.Update(base*100 + i)
			}
		}(int64(w))
	}
	wg.Wait()
	progress.Finish()

	if buf.Len() == 0 {
		t.Error("expected progress output")
	}
}

func TestProgress_NilWriterDefaultsToStdout(t *testing.T) {
	progress := NewProgressReporter(nil)
	if progress == nil {
		t.Fatal("expected a reporter for nil writer")
	}
}
