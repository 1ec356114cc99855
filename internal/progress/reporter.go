package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Options configures the progress reporter.
type Options struct {
	// TotalItems is the number of items in the batch.
	TotalItems int

	// Workers is the number of parallel workers.
	Workers int

	// OutputDir is the batch output directory (for display).
	OutputDir string

	// Output is where to write progress output.
	// Default: os.Stderr (stdout carries the identifier stream).
	Output io.Writer

	// UpdateInterval is how often to update the progress display.
	// Default: 500ms
	UpdateInterval time.Duration
}

// Reporter outputs human-readable progress information.
type Reporter struct {
	opts Options

	mu         sync.Mutex
	completed  atomic.Int32
	failed     atomic.Int32
	inProgress atomic.Int32
	startTime  time.Time
	stopCh     chan struct{}
	stopped    bool
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 500 * time.Millisecond
	}

	return &Reporter{
		opts:   opts,
		stopCh: make(chan struct{}),
	}
}

// Start begins outputting progress information.
func (r *Reporter) Start() {
	r.startTime = time.Now()

	fmt.Fprintf(r.opts.Output, "[aviary] Generating %d images into %s | Workers: %d\n",
		r.opts.TotalItems,
		r.opts.OutputDir,
		r.opts.Workers,
	)

	go r.updateLoop()
}

// Stop stops the progress reporter.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	close(r.stopCh)
}

// ItemStarted marks an item as in progress.
func (r *Reporter) ItemStarted() {
	r.inProgress.Add(1)
}

// ItemCompleted marks an item as completed.
func (r *Reporter) ItemCompleted() {
	r.completed.Add(1)
	r.inProgress.Add(-1)
}

// ItemFailed marks an item as failed (removes it from in-progress).
func (r *Reporter) ItemFailed() {
	r.failed.Add(1)
	r.inProgress.Add(-1)
}

// Completed returns the number of items completed so far.
func (r *Reporter) Completed() int {
	return int(r.completed.Load())
}

// updateLoop periodically updates the progress display.
func (r *Reporter) updateLoop() {
	ticker := time.NewTicker(r.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.printFinalStatus()
			return
		case <-ticker.C:
			r.printProgress()
		}
	}
}

// printProgress outputs the current progress.
func (r *Reporter) printProgress() {
	completed := int(r.completed.Load())
	failed := int(r.failed.Load())
	inProgress := int(r.inProgress.Load())

	elapsed := time.Since(r.startTime).Seconds()
	if elapsed < 0.1 {
		elapsed = 0.1
	}
	rate := float64(completed) / elapsed

	var percent float64
	var eta string
	if r.opts.TotalItems > 0 {
		percent = float64(completed) / float64(r.opts.TotalItems) * 100
		if rate > 0 {
			remaining := float64(r.opts.TotalItems - completed)
			eta = formatDuration(time.Duration(remaining / rate * float64(time.Second)))
		} else {
			eta = "calculating..."
		}
	}

	pending := r.opts.TotalItems - completed - failed - inProgress
	if pending < 0 {
		pending = 0
	}

	fmt.Fprintf(r.opts.Output, "\r[aviary] Progress: %.1f%% | %d / %d images | Rate: %.1f/s | ETA: %s    ",
		percent,
		completed,
		r.opts.TotalItems,
		rate,
		eta,
	)
	fmt.Fprintf(r.opts.Output, "\n[aviary] Items: %d completed | %d failed | %d in-progress | %d pending    \033[A",
		completed,
		failed,
		inProgress,
		pending,
	)
}

// printFinalStatus outputs the final status.
func (r *Reporter) printFinalStatus() {
	completed := int(r.completed.Load())
	failed := int(r.failed.Load())
	duration := time.Since(r.startTime)
	rate := float64(completed) / duration.Seconds()

	fmt.Fprintf(r.opts.Output, "\r[aviary] Items: %d completed | %d failed | 0 in-progress    \n",
		completed,
		failed,
	)
	fmt.Fprintf(r.opts.Output, "[aviary] Total time: %s | Average rate: %.1f images/s\n",
		formatDuration(duration),
		rate,
	)
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}
