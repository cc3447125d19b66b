package shared

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Debouncer delays an action until calls have been quiet for the configured delay.
// Each Trigger replaces the pending action and restarts the delay.
type Debouncer struct {
	delay        time.Duration
	timer        *time.Timer
	mutex        sync.Mutex
	triggerCount int64
	firedCount   int64
}

// NewDebouncer creates a debouncer with the given quiet period
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn to run after the quiet period, cancelling any pending call
func (d *Debouncer) Trigger(fn func()) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.triggerCount++
	if d.timer != nil {
		d.timer.Stop()
	}

	logrus.WithFields(logrus.Fields{
		"component":     "Debouncer",
		"delay":         d.delay,
		"trigger_count": d.triggerCount,
	}).Debug("Debounced action scheduled")

	var timer *time.Timer
	timer = time.AfterFunc(d.delay, func() {
		d.mutex.Lock()
		if d.timer != timer {
			// superseded between firing and acquiring the lock
			d.mutex.Unlock()
			return
		}
		d.timer = nil
		d.firedCount++
		d.mutex.Unlock()
		fn()
	})
	d.timer = timer
}

// Cancel drops any pending action
func (d *Debouncer) Cancel() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// FiredCount returns how many actions actually ran
func (d *Debouncer) FiredCount() int64 {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.firedCount
}
