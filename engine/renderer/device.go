package renderer

import (
	"image"

	"github.com/google/uuid"
	"github.com/spaghettifunk/terra/engine/renderer/metadata"
)

// BackendType names a Device implementation.
type BackendType string

const (
	Software BackendType = "software"
	SDL      BackendType = "sdl"
)

// Device is the physical renderer. Texture handles are issued by the device;
// uuid.Nil always denotes the backbuffer.
type Device interface {
	Name() string
	// PixelFormat reports the backbuffer pixel layout.
	PixelFormat() string

	CreateTexture(width, height int, access metadata.TextureAccess) (uuid.UUID, error)
	DestroyTexture(id uuid.UUID) error
	// UploadTexture replaces the whole content of a static or streaming texture.
	UploadTexture(id uuid.UUID, pixels *image.RGBA) error
	// LockTexture returns the writable CPU mirror of a streaming texture.
	LockTexture(id uuid.UUID) (*image.RGBA, error)
	UnlockTexture(id uuid.UUID) error
	SetTextureBlendMode(id uuid.UUID, mode metadata.BlendMode) error

	// SetRenderTarget redirects every subsequent draw. uuid.Nil is the backbuffer.
	SetRenderTarget(id uuid.UUID) error
	Copy(id uuid.UUID, src, dst image.Rectangle) error
	FillRect(r image.Rectangle, color metadata.PackedColor, mode metadata.BlendMode) error
	DrawLine(x0, y0, x1, y1 int, color metadata.PackedColor) error
	// ReadPixels copies a rectangle of the current target into CPU memory.
	ReadPixels(r image.Rectangle) (*image.RGBA, error)

	SetDrawColor(color metadata.PackedColor)
	Clear() error
	Present() error

	SetIntegerScale(enabled bool) error
	SetLogicalSize(width, height int) error
	LogicalSize() (int, int)
	SetScale(multiplier int) error
	Scale() int

	Destroy() error
}

// Window is the platform window the device presents into.
type Window interface {
	SetSize(width, height int) error
	Size() (int, int)
	SetFullscreen(fullscreen bool) error
	// DisplayBounds returns the bounds of the display holding the window. When
	// usable is set the task bars and docks are excluded.
	DisplayBounds(usable bool) (image.Rectangle, error)
	ShouldClose() bool
	PumpMessages()
	Destroy() error
}

// Presenter shows a finished CPU frame.
type Presenter interface {
	Present(frame *image.RGBA, multiplier int) error
}
