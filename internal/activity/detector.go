// Package activity tracks the time since the last user activity and decides
// whether the user is idle against a configurable timeout.
package activity

import (
	"sync"
	"time"
)

// Clock returns the current time. Tests inject a fake.
type Clock func() time.Time

// Detector holds a single last-activity timestamp and the idle threshold.
type Detector struct {
	mu           sync.Mutex
	now          Clock
	lastActivity time.Time
	idleTimeout  time.Duration
}

// NewDetector returns a Detector whose activity clock starts now.
// A zero timeout disables idle detection.
func NewDetector(timeout time.Duration, now Clock) *Detector {
	if now == nil {
		now = time.Now
	}
	return &Detector{
		now:          now,
		lastActivity: now(),
		idleTimeout:  timeout,
	}
}

// RecordActivity marks the current instant as the most recent activity.
func (d *Detector) RecordActivity() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastActivity = d.now()
}

// IsIdle reports whether more than timeout has passed since the last
// activity. A zero timeout never reports idle.
func (d *Detector) IsIdle(timeout time.Duration) bool {
	if timeout <= 0 {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.now().Sub(d.lastActivity) > timeout
}

// idle checks against the configured timeout, read fresh on every call.
func (d *Detector) idle() bool {
	return d.IsIdle(d.IdleTimeout())
}

// SetIdleTimeout changes the threshold for subsequent checks. It does not
// reset the activity clock.
func (d *Detector) SetIdleTimeout(timeout time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.idleTimeout = timeout
}

// IdleTimeout returns the configured threshold.
func (d *Detector) IdleTimeout() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.idleTimeout
}

// LastActivity returns the time of the most recent recorded activity.
func (d *Detector) LastActivity() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastActivity
}
