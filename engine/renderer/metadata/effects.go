package metadata

import (
	"image"

	"github.com/spaghettifunk/terra/engine/math"
)

// NoTeam marks effects visible to every team.
const NoTeam = -1

/**
 * @brief A screen-space visual overlay (glow, light bloom) produced by
 * gameplay and composited after the scene is drawn.
 */
type PostEffect struct {
	/** @brief Position of the effect centre, world space until collected. */
	Position math.Vector
	/** @brief Name of the glow sprite in the texture system. */
	Sprite string
	/** @brief Strength in [0,255], scales the sprite alpha. */
	Strength uint8
	/** @brief Rotation in radians. Kept for the network wire format. */
	Angle float32
	/** @brief Owning team or NoTeam. */
	Team int
}

/**
 * @brief An area of the screen where glowing terrain pixels are picked up
 * by the global post-process pass.
 */
type GlowArea struct {
	Box image.Rectangle
}

/**
 * @brief The effect list of one player screen, repositioned into
 * backbuffer space.
 */
type ScreenEffects struct {
	Screen    int
	Width     int
	Height    int
	Origin    math.Vector
	Effects   []PostEffect
	GlowAreas []GlowArea
}
