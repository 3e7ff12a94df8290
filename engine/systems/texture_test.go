package systems

import (
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/spaghettifunk/terra/engine/core"
	"github.com/spaghettifunk/terra/engine/renderer"
	"github.com/spaghettifunk/terra/engine/renderer/software"
)

type fakeImages struct {
	mutex  sync.Mutex
	images map[string]image.Image
}

func newFakeImages() *fakeImages {
	return &fakeImages{images: make(map[string]image.Image)}
}

func (f *fakeImages) set(name string, width, height int, c color.Color) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	f.mutex.Lock()
	f.images[name] = img
	f.mutex.Unlock()
}

func (f *fakeImages) LoadImage(name string) (image.Image, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	img, ok := f.images[name]
	if !ok {
		return nil, errors.New("no such image")
	}
	return img, nil
}

func newTextureSystem(t *testing.T, max uint32, js *JobSystem, images *fakeImages, bus *core.EventBus) *TextureSystem {
	t.Helper()
	r := renderer.New(software.New(32, 32, nil), images)
	ts, err := NewTextureSystem(&TextureSystemConfig{MaxTextureCount: max}, js, images, r, bus)
	if err != nil {
		t.Fatalf("NewTextureSystem() error = %v", err)
	}
	if err := ts.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	return ts
}

func TestNewTextureSystemRequiresCapacity(t *testing.T) {
	if _, err := NewTextureSystem(&TextureSystemConfig{}, nil, nil, nil, nil); err == nil {
		t.Errorf("NewTextureSystem() with no capacity succeeded, expected an error")
	}
}

func TestTextureReferenceCounting(t *testing.T) {
	images := newFakeImages()
	images.set("rock", 2, 2, color.White)
	images.set("sky", 2, 2, color.White)
	ts := newTextureSystem(t, 8, nil, images, nil)

	first, err := ts.Acquire("rock", true)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	second, _ := ts.Acquire("rock", true)
	if first != second {
		t.Errorf("Acquire() twice returned different textures")
	}
	if ref := ts.RegisteredTextureTable["rock"]; ref.ReferenceCount != 2 {
		t.Errorf("ReferenceCount = %d, expected 2", ref.ReferenceCount)
	}

	ts.Release("rock")
	if _, ok := ts.Get("rock"); !ok {
		t.Errorf("texture dropped while still referenced")
	}
	ts.Release("rock")
	if _, ok := ts.Get("rock"); ok {
		t.Errorf("auto release texture kept after its last release")
	}
	if first.Exists() {
		t.Errorf("auto release texture was not destroyed")
	}

	kept, _ := ts.Acquire("sky", false)
	ts.Release("sky")
	if _, ok := ts.Get("sky"); !ok || !kept.Exists() {
		t.Errorf("texture without auto release was dropped")
	}
}

func TestTextureAcquireFailures(t *testing.T) {
	images := newFakeImages()
	images.set("a", 1, 1, color.White)
	images.set("b", 1, 1, color.White)
	ts := newTextureSystem(t, 1, nil, images, nil)

	if _, err := ts.Acquire("missing", false); err == nil {
		t.Errorf("Acquire() of a missing image succeeded, expected an error")
	}
	if _, ok := ts.Get("missing"); ok {
		t.Errorf("missing texture was registered")
	}
	if _, err := ts.Acquire("a", false); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if _, err := ts.Acquire("b", false); err == nil {
		t.Errorf("Acquire() past the capacity succeeded, expected an error")
	}

	def, err := ts.Acquire(DEFAULT_TEXTURE_NAME, false)
	if err != nil || def != ts.GetDefaultTexture() {
		t.Errorf("Acquire(%q) = %v, %v, expected the default texture", DEFAULT_TEXTURE_NAME, def, err)
	}
	if def.Width() != 16 || def.Height() != 16 {
		t.Errorf("default texture = %dx%d, expected 16x16", def.Width(), def.Height())
	}
}

func TestTextureReloadOnAssetChange(t *testing.T) {
	images := newFakeImages()
	images.set("glow", 2, 2, color.White)
	bus := core.NewEventBus()
	ts := newTextureSystem(t, 8, nil, images, bus)
	old, _ := ts.Acquire("glow", false)

	images.set("glow", 4, 4, color.White)
	bus.Fire(core.EventContext{
		Type: core.EVENT_CODE_ASSET_CHANGED,
		Data: &core.AssetEvent{Path: "sprites/glow.png"},
	})
	if current, _ := ts.Get("glow"); current != old {
		t.Errorf("texture swapped before Update()")
	}

	ts.Update()
	current, _ := ts.Get("glow")
	if current == old || current.Width() != 4 {
		t.Errorf("texture not reloaded by Update()")
	}
	if old.Exists() {
		t.Errorf("replaced texture still exists")
	}
	if ref := ts.RegisteredTextureTable["glow"]; ref.ReferenceCount != 1 {
		t.Errorf("ReferenceCount = %d after reload, expected 1", ref.ReferenceCount)
	}

	bus.Fire(core.EventContext{
		Type: core.EVENT_CODE_ASSET_CHANGED,
		Data: &core.AssetEvent{Path: "sprites/other.png"},
	})
	ts.Update()
	if again, _ := ts.Get("glow"); again != current {
		t.Errorf("unrelated asset change reloaded the texture")
	}
	_ = ts.Shutdown()
}

func TestTextureReloadOnJobs(t *testing.T) {
	js, err := NewJobSystem(2, 4)
	if err != nil {
		t.Fatalf("NewJobSystem() error = %v", err)
	}
	images := newFakeImages()
	images.set("glow", 2, 2, color.White)
	ts := newTextureSystem(t, 8, js, images, nil)
	old, _ := ts.Acquire("glow", false)

	images.set("glow", 8, 8, color.White)
	ts.Reload("glow")
	_ = js.Shutdown()
	ts.Update()

	current, _ := ts.Get("glow")
	if current == old || current.Width() != 8 {
		t.Errorf("texture not reloaded through the job system")
	}
}
