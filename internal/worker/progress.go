package worker

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const barWidth = 30

// Progress tracks batch progress and draws a single-line bar on a terminal.
type Progress struct {
	startTime time.Time
	output    io.Writer
	total     int
	completed int
	failed    int
	mu        sync.RWMutex
	enabled   bool
}

// NewProgress creates a tracker writing to stderr when enabled.
func NewProgress(total int, enabled bool) *Progress {
	return &Progress{
		total:     total,
		startTime: time.Now(),
		output:    os.Stderr,
		enabled:   enabled,
	}
}

// SetOutput redirects the bar.
func (p *Progress) SetOutput(w io.Writer) {
	p.mu.Lock()
	p.output = w
	p.mu.Unlock()
}

// Update records progress and redraws the bar when enabled.
func (p *Progress) Update(completed, total, failed int) {
	p.mu.Lock()
	p.completed = completed
	p.total = total
	p.failed = failed
	p.mu.Unlock()

	if p.enabled {
		p.Print()
	}
}

// Callback returns a ProgressFunc suitable for Config.OnProgress.
func (p *Progress) Callback() ProgressFunc {
	return p.Update
}

type snapshot struct {
	completed, total, failed int
	elapsed                  time.Duration
}

func (p *Progress) snapshot() snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return snapshot{
		completed: p.completed,
		total:     p.total,
		failed:    p.failed,
		elapsed:   time.Since(p.startTime),
	}
}

// rate returns completed strips per second so far.
func (s snapshot) rate() float64 {
	if s.completed == 0 || s.elapsed <= 0 {
		return 0
	}
	return float64(s.completed) / s.elapsed.Seconds()
}

func (s snapshot) eta() time.Duration {
	rate := s.rate()
	if rate == 0 || s.completed >= s.total {
		return 0
	}
	return time.Duration(float64(s.total-s.completed)/rate) * time.Second
}

// Print draws the current progress line.
func (p *Progress) Print() {
	s := p.snapshot()

	filled := 0
	if s.total > 0 {
		filled = s.completed * barWidth / s.total
	}
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	var b strings.Builder
	fmt.Fprintf(&b, "\r[%s] %d/%d strips", bar, s.completed, s.total)
	if s.failed > 0 {
		fmt.Fprintf(&b, " (%d failed)", s.failed)
	}
	fmt.Fprintf(&b, " - %.1f strips/sec", s.rate())
	if eta := s.eta(); eta > 0 {
		fmt.Fprintf(&b, " - ETA: %s", formatDuration(eta))
	}
	if s.completed == s.total {
		fmt.Fprintf(&b, " - Done in %s", formatDuration(s.elapsed))
	}
	// Pad to clear what the previous line left behind.
	b.WriteString("          ")

	p.mu.RLock()
	out := p.output
	p.mu.RUnlock()
	fmt.Fprint(out, b.String())
}

// Done prints the final line and a newline when enabled.
func (p *Progress) Done() {
	if p.enabled {
		p.Print()
		p.mu.RLock()
		fmt.Fprintln(p.output)
		p.mu.RUnlock()
	}
}

// Summary describes the finished batch.
func (p *Progress) Summary() string {
	s := p.snapshot()
	return fmt.Sprintf("Generated %d/%d strips (%d failed) in %s (%.1f strips/sec)",
		s.completed-s.failed, s.total, s.failed, formatDuration(s.elapsed), s.rate())
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
