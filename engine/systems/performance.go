package systems

import (
	"time"

	"github.com/spaghettifunk/terra/engine/core"
)

// PerformanceSystem tracks how long frames take.
type PerformanceSystem struct {
	clock      *core.Clock
	frameTimer *core.Timer
	metrics    *core.Metrics
	lastTick   time.Duration
	frames     uint64
}

func NewPerformanceSystem(source core.TimeSource) *PerformanceSystem {
	clock := core.NewClock(source)
	clock.Start()
	return &PerformanceSystem{
		clock:      clock,
		frameTimer: core.NewTimer(source),
		metrics:    core.NewMetrics(),
	}
}

// Tick records one simulation step.
func (p *PerformanceSystem) Tick() {
	p.clock.Update()
	p.lastTick = p.clock.Elapsed()
}

// ResetFrameTimer closes the current frame and starts timing the next one.
func (p *PerformanceSystem) ResetFrameTimer() {
	frameTime := time.Duration(p.frameTimer.ElapsedMS()) * time.Millisecond
	p.metrics.Update(frameTime)
	p.frameTimer.Reset()
	p.frames++
}

func (p *PerformanceSystem) FramesPerSecond() float64 {
	return p.metrics.FramesPerSecond()
}

// FrameTime is the average frame time in milliseconds.
func (p *PerformanceSystem) FrameTime() float64 {
	return p.metrics.FrameTime()
}

func (p *PerformanceSystem) Frames() uint64 {
	return p.frames
}

// Uptime is the time since the system started, as of the last Tick.
func (p *PerformanceSystem) Uptime() time.Duration {
	return p.lastTick
}
