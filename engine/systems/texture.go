package systems

import (
	"fmt"
	"image"
	"image/color"
	"path"
	"strings"
	"sync"

	"github.com/spaghettifunk/terra/engine/core"
	"github.com/spaghettifunk/terra/engine/renderer"
)

const DEFAULT_TEXTURE_NAME = "default"

type TextureSystemConfig struct {
	/** @brief The maximum number of textures that can be loaded at once. */
	MaxTextureCount uint32
}

type TextureReference struct {
	Texture        *renderer.Texture
	ReferenceCount uint64
	// Destroy the texture once nothing references it.
	AutoRelease bool
}

type reloadedTexture struct {
	name  string
	image image.Image
}

// TextureSystem hands out named textures loaded through the asset manager,
// counting references to them. Textures whose image changes on disk are
// decoded again on a job worker and swapped in on the next Update.
type TextureSystem struct {
	Config         *TextureSystemConfig
	DefaultTexture *renderer.Texture
	// Hashtable for texture lookups.
	RegisteredTextureTable map[string]*TextureReference

	renderer  *renderer.Renderer
	images    renderer.ImageSource
	jobSystem *JobSystem
	bus       *core.EventBus

	pendingMutex sync.Mutex
	pending      []reloadedTexture
}

func NewTextureSystem(config *TextureSystemConfig, js *JobSystem, images renderer.ImageSource, r *renderer.Renderer, bus *core.EventBus) (*TextureSystem, error) {
	if config.MaxTextureCount == 0 {
		err := fmt.Errorf("func NewTextureSystem - config.MaxTextureCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}
	return &TextureSystem{
		Config:                 config,
		RegisteredTextureTable: make(map[string]*TextureReference),
		renderer:               r,
		images:                 images,
		jobSystem:              js,
		bus:                    bus,
	}, nil
}

// Initialize creates the default texture and starts listening for asset
// changes.
func (ts *TextureSystem) Initialize() error {
	ts.DefaultTexture = ts.renderer.NewStaticTexture(checkerboard(16, 16))
	if ts.bus != nil {
		ts.bus.Register(core.EVENT_CODE_ASSET_CHANGED, ts, ts.onAssetChanged)
	}
	return nil
}

// checkerboard is the magenta and black pattern shown for missing textures.
func checkerboard(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	magenta := color.RGBA{R: 0xFF, B: 0xFF, A: 0xFF}
	black := color.RGBA{A: 0xFF}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x/4+y/4)%2 == 0 {
				img.SetRGBA(x, y, magenta)
			} else {
				img.SetRGBA(x, y, black)
			}
		}
	}
	return img
}

func (ts *TextureSystem) Shutdown() error {
	if ts.bus != nil {
		ts.bus.Unregister(core.EVENT_CODE_ASSET_CHANGED, ts)
	}
	for name, ref := range ts.RegisteredTextureTable {
		ref.Texture.Destroy()
		delete(ts.RegisteredTextureTable, name)
	}
	if ts.DefaultTexture != nil {
		ts.DefaultTexture.Destroy()
		ts.DefaultTexture = nil
	}
	return nil
}

func (ts *TextureSystem) GetDefaultTexture() *renderer.Texture {
	return ts.DefaultTexture
}

/**
 * @brief Acquires a texture by name, loading it on first use. The reference
 * count is incremented.
 *
 * @param name The asset name of the texture.
 * @param autoRelease Destroy the texture once its reference count drops to
 * zero. Only honoured on the first acquire.
 */
func (ts *TextureSystem) Acquire(name string, autoRelease bool) (*renderer.Texture, error) {
	if name == DEFAULT_TEXTURE_NAME {
		core.LogWarn("func texture system Acquire called for default texture. Use GetDefaultTexture for texture 'default'")
		return ts.DefaultTexture, nil
	}
	if ref, ok := ts.RegisteredTextureTable[name]; ok {
		ref.ReferenceCount++
		return ref.Texture, nil
	}
	if uint32(len(ts.RegisteredTextureTable)) >= ts.Config.MaxTextureCount {
		err := fmt.Errorf("texture system cannot hold anymore textures. Adjust configuration to allow more")
		core.LogError(err.Error())
		return nil, err
	}

	texture, err := ts.renderer.LoadTexture(name)
	if err != nil {
		core.LogError("failed to load texture '%s': %s", name, err)
		return nil, err
	}
	ts.RegisteredTextureTable[name] = &TextureReference{
		Texture:        texture,
		ReferenceCount: 1,
		AutoRelease:    autoRelease,
	}
	core.LogDebug("texture '%s' loaded (%dx%d)", name, texture.Width(), texture.Height())
	return texture, nil
}

// Get returns a loaded texture without touching its reference count. Callers
// that keep textures across frames should look them up again, since a
// reload replaces the texture.
func (ts *TextureSystem) Get(name string) (*renderer.Texture, bool) {
	ref, ok := ts.RegisteredTextureTable[name]
	if !ok {
		return nil, false
	}
	return ref.Texture, true
}

func (ts *TextureSystem) Release(name string) {
	// Ignore release requests for the default texture.
	if name == DEFAULT_TEXTURE_NAME {
		return
	}
	ref, ok := ts.RegisteredTextureTable[name]
	if !ok || ref.ReferenceCount == 0 {
		core.LogWarn("tried to release non-existent texture: '%s'", name)
		return
	}
	ref.ReferenceCount--
	if ref.ReferenceCount == 0 && ref.AutoRelease {
		ref.Texture.Destroy()
		delete(ts.RegisteredTextureTable, name)
		core.LogDebug("texture '%s' unloaded because reference count=0 and AutoRelease=true", name)
	}
}

// Textures are registered under either the asset path or the bare file
// name, so an asset change matches on both.
func (ts *TextureSystem) registeredName(assetPath string) (string, bool) {
	if _, ok := ts.RegisteredTextureTable[assetPath]; ok {
		return assetPath, true
	}
	base := path.Base(assetPath)
	bare := strings.TrimSuffix(base, path.Ext(base))
	if _, ok := ts.RegisteredTextureTable[bare]; ok {
		return bare, true
	}
	return "", false
}

func (ts *TextureSystem) onAssetChanged(context core.EventContext) bool {
	event, ok := context.Data.(*core.AssetEvent)
	if !ok || event.Removed {
		return false
	}
	name, ok := ts.registeredName(event.Path)
	if !ok {
		return false
	}
	ts.Reload(name)
	return false
}

// Reload decodes the named texture again. Decoding happens on a job
// worker when there is one, the upload on the next Update.
func (ts *TextureSystem) Reload(name string) {
	if ts.images == nil {
		return
	}
	task := JobTask{
		Name:        "texture-reload",
		InputParams: name,
		OnStart: func(params interface{}) (interface{}, error) {
			name := params.(string)
			img, err := ts.images.LoadImage(name)
			if err != nil {
				return nil, fmt.Errorf("reload texture %q: %w", name, err)
			}
			return reloadedTexture{name: name, image: img}, nil
		},
		OnComplete: func(result interface{}) {
			ts.pendingMutex.Lock()
			ts.pending = append(ts.pending, result.(reloadedTexture))
			ts.pendingMutex.Unlock()
		},
	}
	if ts.jobSystem != nil && ts.jobSystem.Submit(task) {
		return
	}
	runJob(task)
}

// Update uploads textures decoded since the last call. Must run on the
// render thread.
func (ts *TextureSystem) Update() {
	ts.pendingMutex.Lock()
	pending := ts.pending
	ts.pending = nil
	ts.pendingMutex.Unlock()

	for _, reloaded := range pending {
		ref, ok := ts.RegisteredTextureTable[reloaded.name]
		if !ok {
			continue
		}
		texture := ts.renderer.NewStaticTexture(reloaded.image)
		ref.Texture.Destroy()
		ref.Texture = texture
		core.LogInfo("texture '%s' reloaded", reloaded.name)
	}
}
