package metadata

/**
 * @brief How a device texture may be accessed.
 */
type TextureAccess uint8

const (
	/** @brief Uploaded once, never written by the CPU again. */
	TextureAccessStatic TextureAccess = iota
	/** @brief CPU writable through Lock/Unlock. */
	TextureAccessStreaming
	/** @brief Can be bound as a render target. Has no CPU backing store. */
	TextureAccessTarget
)

func (a TextureAccess) String() string {
	switch a {
	case TextureAccessStatic:
		return "static"
	case TextureAccessStreaming:
		return "streaming"
	case TextureAccessTarget:
		return "target"
	default:
		return "unknown"
	}
}

/**
 * @brief Blending applied when a texture or primitive is drawn onto a target.
 */
type BlendMode uint8

const (
	/** @brief Source replaces destination. */
	BlendNone BlendMode = iota
	/** @brief Source-over alpha blending. */
	BlendAlpha
	/** @brief Source colour scaled by alpha is added to destination. */
	BlendAdd
)

func (b BlendMode) String() string {
	switch b {
	case BlendNone:
		return "none"
	case BlendAlpha:
		return "alpha"
	case BlendAdd:
		return "add"
	default:
		return "unknown"
	}
}
