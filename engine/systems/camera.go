package systems

import (
	"fmt"

	"github.com/spaghettifunk/terra/engine/core"
	"github.com/spaghettifunk/terra/engine/renderer/components"
)

// CameraSystem hands out named scroll cameras, one per player screen, with
// reference counting so a screen can be reacquired after a split change.
type CameraSystem struct {
	Config *CameraSystemConfig
	Lookup map[string]*components.CameraLookup
	nextID uint16

	// Shared by every screen that could not get a camera of its own.
	DefaultCamera *components.Camera
}

/** @brief The camera system configuration. */
type CameraSystemConfig struct {
	/** @brief Cameras alive at once, the default one excluded. */
	MaxCameraCount uint16
}

func NewCameraSystem(config *CameraSystemConfig) (*CameraSystem, error) {
	if config.MaxCameraCount == 0 {
		err := fmt.Errorf("func NewCameraSystem - config.MaxCameraCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}
	return &CameraSystem{
		Config:        config,
		Lookup:        make(map[string]*components.CameraLookup, config.MaxCameraCount),
		DefaultCamera: components.NewCamera(),
	}, nil
}

func (cs *CameraSystem) Shutdown() error {
	cs.Lookup = make(map[string]*components.CameraLookup)
	cs.DefaultCamera.Reset()
	return nil
}

// ScreenCameraName is the camera name of a player screen.
func ScreenCameraName(screen int) string {
	return fmt.Sprintf("screen-%d", screen)
}

/**
 * @brief Acquires the camera with the given name, creating it on first use.
 * The reference count is incremented.
 */
func (cs *CameraSystem) Acquire(name string) (*components.Camera, error) {
	if name == components.DEFAULT_CAMERA_NAME {
		return cs.DefaultCamera, nil
	}
	lookup, ok := cs.Lookup[name]
	if !ok {
		if len(cs.Lookup) >= int(cs.Config.MaxCameraCount) {
			err := fmt.Errorf("func Acquire - no camera slot left for '%s' (max %d)", name, cs.Config.MaxCameraCount)
			core.LogError(err.Error())
			return nil, err
		}
		core.LogDebug("camera '%s' created", name)
		lookup = &components.CameraLookup{
			ID:     cs.nextID,
			Camera: components.NewCamera(),
		}
		cs.nextID++
		cs.Lookup[name] = lookup
	}
	lookup.ReferenceCount++
	return lookup.Camera, nil
}

// AcquireForScreen falls back to the default camera when no slot is left.
func (cs *CameraSystem) AcquireForScreen(screen int) *components.Camera {
	camera, err := cs.Acquire(ScreenCameraName(screen))
	if err != nil {
		core.LogWarn("screen %d shares the default camera", screen)
		return cs.DefaultCamera
	}
	return camera
}

// Release drops a reference. The last one resets the camera and frees its
// slot.
func (cs *CameraSystem) Release(name string) {
	if name == components.DEFAULT_CAMERA_NAME {
		return
	}
	lookup, ok := cs.Lookup[name]
	if !ok {
		core.LogWarn("camera '%s' released but never acquired", name)
		return
	}
	lookup.ReferenceCount--
	if lookup.ReferenceCount < 1 {
		lookup.Camera.Reset()
		delete(cs.Lookup, name)
	}
}

func (cs *CameraSystem) ReleaseForScreen(screen int) {
	cs.Release(ScreenCameraName(screen))
}

func (cs *CameraSystem) GetDefault() *components.Camera {
	return cs.DefaultCamera
}
