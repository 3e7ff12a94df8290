package components

import (
	"github.com/spaghettifunk/terra/engine/math"
)

/**
 * @brief A 2D scroll camera. Position is the world coordinate shown at the
 * top-left corner of a player screen; Target is where the camera wants to
 * be. Ideally, these are created and managed by the camera system.
 */
type Camera struct {
	/**
	 * @brief The scroll position of this camera.
	 * NOTE: Do not set this directly, use SetPosition() instead.
	 */
	Position math.Vector
	/** @brief The position the camera eases toward on every Advance. */
	Target math.Vector
	/** @brief Set when the position changed since the last Advance. */
	IsDirty bool
}

type CameraLookup struct {
	ID             uint16
	ReferenceCount uint16
	Camera         *Camera
}

/** @brief The name of the default camera. */
const DEFAULT_CAMERA_NAME string = "default"

// Below half a pixel the camera snaps onto its target.
const snapDistance float32 = 0.5

func NewCamera() *Camera {
	camera := &Camera{}
	camera.Reset()
	return camera
}

func (c *Camera) Reset() {
	c.Position = math.Vector{}
	c.Target = math.Vector{}
	c.IsDirty = false
}

func (c *Camera) GetPosition() math.Vector {
	return c.Position
}

// SetPosition jumps to position and retargets there.
func (c *Camera) SetPosition(position math.Vector) {
	c.Position = position
	c.Target = position
	c.IsDirty = true
}

func (c *Camera) GetTarget() math.Vector {
	return c.Target
}

func (c *Camera) SetTarget(target math.Vector) {
	c.Target = target
}

// Advance moves the position toward the target by rate, a fraction in
// [0,1] of the remaining distance.
func (c *Camera) Advance(rate float32) {
	if c.Position == c.Target {
		c.IsDirty = false
		return
	}
	next := c.Position.Lerp(c.Target, rate)
	if math.Abs(c.Target.X-next.X) < snapDistance && math.Abs(c.Target.Y-next.Y) < snapDistance {
		next = c.Target
	}
	c.Position = next
	c.IsDirty = true
}

func (c *Camera) MoveLeft(amount float32) {
	c.Target.X -= amount
}

func (c *Camera) MoveRight(amount float32) {
	c.Target.X += amount
}

func (c *Camera) MoveUp(amount float32) {
	c.Target.Y -= amount
}

func (c *Camera) MoveDown(amount float32) {
	c.Target.Y += amount
}
