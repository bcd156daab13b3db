package bridge

import (
	"sync"
	"time"
)

// DefaultResizeDebounce is the quiet period before a viewport change is
// propagated to the backend.
const DefaultResizeDebounce = 100 * time.Millisecond

// ResizeCoordinator coalesces viewport size changes (window resize,
// container resize) into one debounced backend resize. The target session id
// and the new dimensions are both read lazily when the debounce fires, never
// captured at schedule time: a resize racing a respawn must hit the session
// that is active at fire time, and must use the size of the last event.
type ResizeCoordinator struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration

	activeID func() string
	measure  func() (rows, cols int)
	resize   func(id string, rows, cols int)
}

// NewResizeCoordinator creates a coordinator. activeID returns the session
// to resize ("" suppresses the call), measure recomputes the surface's
// natural dimensions, and resize issues the backend call. A delay of zero
// uses DefaultResizeDebounce.
func NewResizeCoordinator(delay time.Duration, activeID func() string, measure func() (int, int), resize func(string, int, int)) *ResizeCoordinator {
	if delay <= 0 {
		delay = DefaultResizeDebounce
	}
	return &ResizeCoordinator{
		delay:    delay,
		activeID: activeID,
		measure:  measure,
		resize:   resize,
	}
}

// Trigger notes a viewport change. Repeated triggers within the quiet period
// collapse into a single resize.
func (c *ResizeCoordinator) Trigger() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.delay, c.fire)
}

func (c *ResizeCoordinator) fire() {
	id := c.activeID()
	if id == "" {
		return
	}
	rows, cols := c.measure()
	if rows <= 0 || cols <= 0 {
		return
	}
	c.resize(id, rows, cols)
}

// Cancel stops any pending debounced resize. Called at teardown so a
// disposed surface is never measured after the session is gone.
func (c *ResizeCoordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
