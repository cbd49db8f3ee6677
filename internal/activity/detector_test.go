package activity

import (
	"testing"
	"time"

	"pgregory.net/rapid"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestIdleBoundary(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	timeout := 5 * time.Minute
	d := NewDetector(timeout, clock.Now)

	clock.Advance(timeout - time.Second)
	if d.idle() {
		t.Fatal("expected not idle just before the timeout")
	}

	clock.Advance(2 * time.Second)
	if !d.idle() {
		t.Fatal("expected idle just after the timeout")
	}

	d.RecordActivity()
	if d.idle() {
		t.Fatal("recording activity should clear the idle state")
	}
}

func TestZeroTimeoutNeverIdle(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		clock := &fakeClock{t: time.Unix(0, 0)}
		d := NewDetector(0, clock.Now)
		away := time.Duration(rapid.Int64Range(0, int64(30*24*time.Hour)).Draw(t, "away"))
		clock.Advance(away)
		if d.idle() {
			t.Fatalf("zero timeout reported idle after %s", away)
		}
	})
}

func TestSetIdleTimeoutKeepsActivityClock(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	d := NewDetector(0, clock.Now)
	start := d.LastActivity()

	clock.Advance(10 * time.Minute)
	d.SetIdleTimeout(5 * time.Minute)

	if !d.LastActivity().Equal(start) {
		t.Errorf("SetIdleTimeout moved the activity clock: got %v, want %v", d.LastActivity(), start)
	}
	if !d.idle() {
		t.Error("new timeout should apply to the existing activity clock")
	}
}
