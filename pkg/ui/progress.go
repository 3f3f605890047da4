package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Spinner renders an animated status line until stopped
type Spinner struct {
	mu      sync.Mutex
	message string
	done    chan struct{}
	stopped bool
}

var spinnerFrames = []string{"▹▹▹▹▹", "▸▹▹▹▹", "▹▸▹▹▹", "▹▹▸▹▹", "▹▹▹▸▹", "▹▹▹▹▸"}

// NewSpinner starts a spinner with the given message
func NewSpinner(message string) *Spinner {
	s := &Spinner{
		message: message,
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Spinner) run() {
	ticker := time.NewTicker(120 * time.Millisecond)
	defer ticker.Stop()

	frame := 0
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			fmt.Printf("\r%s %s", Cyan(spinnerFrames[frame%len(spinnerFrames)]), s.message)
			s.mu.Unlock()
			frame++
		}
	}
}

// SetMessage updates the spinner's status text
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Stop halts the spinner and clears its line
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.done)
	fmt.Printf("\r%s\r", strings.Repeat(" ", len(s.message)+8))
}

// ProgressBar tracks completed items out of a fixed total
type ProgressBar struct {
	mu        sync.Mutex
	total     int
	completed int
	failed    int
	startTime time.Time
}

// NewProgressBar creates a progress bar for the given item count
func NewProgressBar(total int) *ProgressBar {
	return &ProgressBar{
		total:     total,
		startTime: time.Now(),
	}
}

// Increment records one completed item and redraws
func (p *ProgressBar) Increment(failed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.completed++
	if failed {
		p.failed++
	}
	p.draw()
}

func (p *ProgressBar) draw() {
	barWidth := 20
	filled := 0
	if p.total > 0 {
		filled = p.completed * barWidth / p.total
	}
	bar := strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)

	line := fmt.Sprintf("\r[%s] %d/%d", bar, p.completed, p.total)
	if p.failed > 0 {
		line += fmt.Sprintf(" • %s", Red(fmt.Sprintf("%d failed", p.failed)))
	}
	fmt.Print(line)
}

// Finish completes the bar and moves to the next line
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.startTime).Round(time.Second)
	fmt.Printf(" • %s\n", Dim(elapsed.String()))
}
