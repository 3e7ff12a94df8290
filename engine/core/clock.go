package core

import "time"

// TimeSource hands out the current time. Clocks and timers read it instead of
// the wall clock so frame timing can be driven deterministically.
type TimeSource interface {
	Now() time.Time
}

type realTime struct{}

func (realTime) Now() time.Time { return time.Now() }

// RealTime is the wall clock.
var RealTime TimeSource = realTime{}

type Clock struct {
	source    TimeSource
	startTime time.Time
	elapsed   time.Duration
}

func NewClock(source TimeSource) *Clock {
	if source == nil {
		source = RealTime
	}
	return &Clock{source: source}
}

// Updates the provided clock. Should be called just before checking elapsed time.
// Has no effect on non-started clocks.
func (c *Clock) Update() {
	if !c.startTime.IsZero() {
		c.elapsed = c.source.Now().Sub(c.startTime)
	}
}

// Starts the provided clock. Resets elapsed time.
func (c *Clock) Start() {
	c.startTime = c.source.Now()
	c.elapsed = 0
}

// Stops the provided clock. Does not reset elapsed time.
func (c *Clock) Stop() {
	c.startTime = time.Time{}
}

func (c *Clock) Elapsed() time.Duration {
	return c.elapsed
}

// Timer measures real time since its last reset against an optional limit.
type Timer struct {
	source  TimeSource
	started time.Time
	limit   time.Duration
}

func NewTimer(source TimeSource) *Timer {
	if source == nil {
		source = RealTime
	}
	return &Timer{source: source, started: source.Now()}
}

func (t *Timer) Reset() {
	t.started = t.source.Now()
}

func (t *Timer) ElapsedMS() int64 {
	return t.source.Now().Sub(t.started).Milliseconds()
}

// IsPastRealMS reports whether more than ms milliseconds passed since the
// last reset. A negative ms is always past.
func (t *Timer) IsPastRealMS(ms int64) bool {
	return t.ElapsedMS() > ms
}

func (t *Timer) SetRealTimeLimitMS(ms float64) {
	t.limit = time.Duration(ms * float64(time.Millisecond))
}

func (t *Timer) RealTimeLimitMS() float64 {
	return float64(t.limit) / float64(time.Millisecond)
}

// IsPastRealTimeLimit reports whether the limit set with SetRealTimeLimitMS
// has elapsed.
func (t *Timer) IsPastRealTimeLimit() bool {
	return t.source.Now().Sub(t.started) >= t.limit
}

// RealTimeLimitProgress returns the elapsed fraction of the limit in [0,1].
func (t *Timer) RealTimeLimitProgress() float64 {
	if t.limit <= 0 {
		return 1
	}
	p := float64(t.source.Now().Sub(t.started)) / float64(t.limit)
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}
