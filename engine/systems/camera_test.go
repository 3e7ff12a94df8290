package systems

import (
	"testing"

	"github.com/spaghettifunk/terra/engine/math"
	"github.com/spaghettifunk/terra/engine/renderer/components"
)

func TestCameraSystemAcquireRelease(t *testing.T) {
	if _, err := NewCameraSystem(&CameraSystemConfig{}); err == nil {
		t.Errorf("NewCameraSystem() with no capacity succeeded, expected an error")
	}
	cs, err := NewCameraSystem(&CameraSystemConfig{MaxCameraCount: 2})
	if err != nil {
		t.Fatalf("NewCameraSystem() error = %v", err)
	}

	first, _ := cs.Acquire("screen-0")
	again, _ := cs.Acquire("screen-0")
	if first != again {
		t.Errorf("Acquire() of the same name returned different cameras")
	}
	if _, err := cs.Acquire("screen-1"); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if _, err := cs.Acquire("screen-2"); err == nil {
		t.Errorf("Acquire() past the capacity succeeded, expected an error")
	}
	if def, _ := cs.Acquire(components.DEFAULT_CAMERA_NAME); def != cs.GetDefault() {
		t.Errorf("Acquire(%q) did not return the default camera", components.DEFAULT_CAMERA_NAME)
	}

	first.SetPosition(math.NewVector(3, 4))
	cs.Release("screen-0")
	if _, ok := cs.Lookup["screen-0"]; !ok {
		t.Errorf("camera dropped while still referenced")
	}
	cs.Release("screen-0")
	if _, ok := cs.Lookup["screen-0"]; ok {
		t.Errorf("camera kept after its last release")
	}
	if first.GetPosition() != (math.Vector{}) {
		t.Errorf("released camera was not reset")
	}
}

func TestCameraAdvance(t *testing.T) {
	c := components.NewCamera()
	c.SetTarget(math.NewVector(10, 0))
	c.Advance(0.5)
	if c.GetPosition() != math.NewVector(5, 0) || !c.IsDirty {
		t.Errorf("Advance(0.5) = %v, expected {5 0} and dirty", c.GetPosition())
	}
	c.SetPosition(math.NewVector(9.8, 0))
	c.SetTarget(math.NewVector(10, 0))
	c.Advance(0.1)
	if c.GetPosition() != math.NewVector(10, 0) {
		t.Errorf("Advance() within half a pixel = %v, expected the snap to {10 0}", c.GetPosition())
	}
	c.Advance(0.1)
	if c.IsDirty {
		t.Errorf("IsDirty = true once the camera settled")
	}
}

func TestAcquireForScreenFallsBack(t *testing.T) {
	cs, _ := NewCameraSystem(&CameraSystemConfig{MaxCameraCount: 1})
	first := cs.AcquireForScreen(0)
	if first == cs.GetDefault() {
		t.Errorf("AcquireForScreen(0) returned the default camera with a slot free")
	}
	if got := cs.AcquireForScreen(1); got != cs.GetDefault() {
		t.Errorf("AcquireForScreen(1) without a slot = %p, expected the default camera", got)
	}
	cs.ReleaseForScreen(0)
	if _, ok := cs.Lookup[ScreenCameraName(0)]; ok {
		t.Errorf("screen camera kept after ReleaseForScreen()")
	}
}
