// Package progressbar implements printing a progress bar to the
// terminal window
package progressbar

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ProgressBar prints a textual progress bar to a writer. The bar is
// redrawn in place on every Increment call, so it should be the only
// writer to its line while it is displayed.
type ProgressBar struct {
	out     io.Writer
	width   int
	max     int
	current int
	start   time.Time
	closed  bool
}

// New returns a new progress bar that is width characters wide and
// reaches 100% after max Increment calls.
func New(out io.Writer, width, max int) *ProgressBar {
	return &ProgressBar{
		out:   out,
		width: width,
		max:   max,
		start: time.Now(),
	}
}

// Increment increments the internal progress counter and redraws the
// bar. Each time an iteration is performed, Increment should be called.
func (p *ProgressBar) Increment() {
	if p.closed || p.current >= p.max {
		return
	}
	p.current++
	p.draw()
}

// Close finishes the progress bar, jumping to the next terminal line.
func (p *ProgressBar) Close() {
	if p.closed {
		panic("close: close on closed progress bar")
	}
	p.closed = true
	fmt.Fprintln(p.out)
}

func (p *ProgressBar) draw() {
	var bar strings.Builder

	bar.WriteString("|")
	filled := p.current * p.width / p.max
	for i := 0; i < filled; i++ {
		bar.WriteString("█")
	}
	for i := filled; i < p.width; i++ {
		bar.WriteString(" ")
	}
	fmt.Fprintf(p.out, "\r%v| [%.2f%% | elapsed: %v]", bar.String(),
		float64(p.current)/float64(p.max)*100,
		time.Since(p.start).Round(time.Second))
}
