package link

import "time"

// Millis is a free running millisecond counter which wraps around
// after ~49.7 days. Comparisons must go through Since/After.
type Millis uint32

// Since returns the signed distance from t to m.
// It stays correct across wraparound as long as the distance is
// less than 2^31 ms.
func (m Millis) Since(t Millis) int32 {
	return int32(m - t)
}

// After reports whether m is strictly later than t.
func (m Millis) After(t Millis) bool {
	return m.Since(t) > 0
}

// Add returns m advanced by d milliseconds.
func (m Millis) Add(d uint32) Millis {
	return m + Millis(d)
}

// Clock provides the monotonic time for the device.
type Clock interface {
	NowMillis() Millis
}

// ClockFunc is func type of Clock.
type ClockFunc func() Millis

// NowMillis implements Clock.
func (f ClockFunc) NowMillis() Millis {
	return f()
}

// SystemClock counts milliseconds since it was created.
type SystemClock struct {
	start time.Time
}

// NewSystemClock creates a SystemClock starting at 0.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// NowMillis implements Clock.
func (c *SystemClock) NowMillis() Millis {
	return Millis(time.Since(c.start) / time.Millisecond)
}

// Deadline is a single shot timer slot.
// The zero value is stopped.
type Deadline struct {
	at    Millis
	armed bool
}

// Set arms the deadline to expire ms after now.
// Set(now, 0) expires on the very next millisecond.
func (d *Deadline) Set(now Millis, ms uint32) {
	d.at, d.armed = now.Add(ms), true
}

// Stop disarms the deadline.
func (d *Deadline) Stop() {
	d.armed = false
}

// Armed indicates the deadline is running.
func (d *Deadline) Armed() bool {
	return d.armed
}

// At returns the absolute expiry time, only meaningful when armed.
func (d *Deadline) At() Millis {
	return d.at
}

// Expired reports whether the deadline is armed and now is past it.
func (d *Deadline) Expired(now Millis) bool {
	return d.armed && now.After(d.at)
}

// Reset is used for periodic timers. When the deadline expired it is
// moved forward by period and true is returned. If the next deadline is
// already in the past (the caller stalled), it restarts from now instead
// of trying to catch up.
func (d *Deadline) Reset(now Millis, period uint32) bool {
	if !d.Expired(now) {
		return false
	}
	next := d.at.Add(period)
	if now.After(next) {
		next = now.Add(period)
	}
	d.at = next
	return true
}
