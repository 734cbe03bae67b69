// internal/whatsapp/debounce.go
package whatsapp

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Debouncer coalesces repeated extraction requests for the same chat into a
// single run, per spec §4.8 step 6: each new message resets a per-chat
// timer, and the extractor only fires once the chat has been quiet for the
// configured window. Grounded on the teacher's visitor-map-with-mutex shape
// (internal/middleware/rate_limit.go's original rate limiter), here backing
// *time.Timer instead of a token bucket.
type Debouncer struct {
	mtx     sync.Mutex
	timers  map[uuid.UUID]*time.Timer
	window  time.Duration
}

func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		timers: make(map[uuid.UUID]*time.Timer),
		window: window,
	}
}

// Schedule (re)arms the timer for chatID, replacing any pending one, so
// that a burst of messages produces exactly one extraction run after the
// chat goes quiet for the debounce window.
func (d *Debouncer) Schedule(chatID uuid.UUID, fn func()) {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	if existing, ok := d.timers[chatID]; ok {
		existing.Stop()
	}
	d.timers[chatID] = time.AfterFunc(d.window, func() {
		d.mtx.Lock()
		delete(d.timers, chatID)
		d.mtx.Unlock()
		fn()
	})
}

// Cancel stops any pending timer for chatID without running it.
func (d *Debouncer) Cancel(chatID uuid.UUID) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	if existing, ok := d.timers[chatID]; ok {
		existing.Stop()
		delete(d.timers, chatID)
	}
}

// Stop cancels every pending timer, for use during graceful shutdown.
func (d *Debouncer) Stop() {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	for id, t := range d.timers {
		t.Stop()
		delete(d.timers, id)
	}
}
