package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressReporter reports completion of a long-running operation.
type ProgressReporter interface {
	Start(total int64)
	Update(done int64)
	Finish()
	Error(err error)
}

const progressBarWidth = 32

// barProgress renders a single-line bar, redrawn in place with carriage
// returns. Safe for concurrent Update calls.
type barProgress struct {
	mu      sync.Mutex
	w       io.Writer
	total   int64
	done    int64
	started time.Time
}

// NewProgressReporter returns a reporter writing to w, or os.Stdout when
// w is nil.
func NewProgressReporter(w io.Writer) ProgressReporter {
	if w == nil {
		w = os.Stdout
	}
	return &barProgress{w: w}
}

func (p *barProgress) Start(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.done = 0
	p.started = time.Now()
	p.draw()
}

func (p *barProgress) Update(done int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = done
	p.draw()
}

func (p *barProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = p.total
	p.draw()
	fmt.Fprintln(p.w)
}

func (p *barProgress) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.w, "\nerror: %v\n", err)
}

func (p *barProgress) draw() {
	if p.total <= 0 {
		return
	}

	frac := float64(p.done) / float64(p.total)
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * progressBarWidth)
	rate := float64(p.done) / time.Since(p.started).Seconds()

	fmt.Fprintf(p.w, "\r[%-*s] %5.1f%%  %d/%d  %.0f/s",
		progressBarWidth, strings.Repeat("=", filled), frac*100, p.done, p.total, rate)
}
