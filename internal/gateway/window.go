package gateway

import (
	"sync"
	"time"
)

// Default limiter settings.
const (
	DefaultMaxRequests  = 60
	DefaultWindow       = 60 * time.Second
	DefaultMaxWait      = 65 * time.Second
	DefaultPollInterval = time.Second
)

// RateWindow is a sliding-window counter of outbound calls. It is safe for
// concurrent use.
type RateWindow struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	calls       []time.Time // ascending
	now         func() time.Time
}

// WindowStatus is a snapshot of a RateWindow.
type WindowStatus struct {
	Used      int           `json:"used"`
	Remaining int           `json:"remaining"`
	Max       int           `json:"max"`
	Window    time.Duration `json:"-"`
	ResetAt   *time.Time    `json:"reset_at"`
}

// NewRateWindow creates a window admitting maxRequests calls per window.
// Non-positive values fall back to the defaults.
func NewRateWindow(maxRequests int, window time.Duration) *RateWindow {
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &RateWindow{
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
	}
}

// prune drops calls that have aged out. Callers hold mu.
func (w *RateWindow) prune(now time.Time) {
	cutoff := now.Add(-w.window)
	i := 0
	for i < len(w.calls) && !w.calls[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.calls = append(w.calls[:0], w.calls[i:]...)
	}
}

// CheckLimit records a call and returns true if the window has room. At the
// ceiling it returns false and records nothing.
func (w *RateWindow) CheckLimit() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.prune(now)
	if len(w.calls) >= w.maxRequests {
		return false
	}
	w.calls = append(w.calls, now)
	return true
}

// Status reports usage. ResetAt is when the oldest call leaves the window, nil
// when the window is empty.
func (w *RateWindow) Status() WindowStatus {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.prune(now)

	status := WindowStatus{
		Used:      len(w.calls),
		Remaining: w.maxRequests - len(w.calls),
		Max:       w.maxRequests,
		Window:    w.window,
	}
	if len(w.calls) > 0 {
		reset := w.calls[0].Add(w.window)
		status.ResetAt = &reset
	}
	return status
}
