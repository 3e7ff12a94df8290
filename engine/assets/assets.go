package assets

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/fzipp/bmfont"
	"golang.org/x/image/font"

	"github.com/spaghettifunk/terra/engine/assets/loaders"
	"github.com/spaghettifunk/terra/engine/core"
	"github.com/spaghettifunk/terra/engine/renderer/metadata"
)

var ErrAssetNotFound = errors.New("asset not found")

type AssetInfo struct {
	// Path relative to the asset root, with forward slashes.
	Name       string
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

// AssetManager indexes every known file under the asset root and keeps the
// index current while files change on disk. Changes observed by the watcher
// are queued and dispatched as EVENT_CODE_ASSET_CHANGED from Update, so
// listeners always run on the frame thread.
type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[metadata.ResourceType]Loader
	bus     *core.EventBus

	mutex sync.RWMutex

	pendingMutex sync.Mutex
	pending      []core.AssetEvent

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	started  bool
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[metadata.ResourceType]Loader),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

func (am *AssetManager) Initialize(assetsDir string, bus *core.EventBus) error {
	root, err := filepath.Abs(assetsDir)
	if err != nil {
		return err
	}
	am.root = root
	am.bus = bus

	// Register loaders
	am.registerLoader(metadata.ResourceTypeImage, &loaders.ImageLoader{})
	am.registerLoader(metadata.ResourceTypePalette, &loaders.PaletteLoader{})
	am.registerLoader(metadata.ResourceTypeBitmapFont, &loaders.BitmapFontLoader{})
	am.registerLoader(metadata.ResourceTypeSystemFont, &loaders.SystemFontLoader{})

	if err := am.addRecursive(root); err != nil {
		return err
	}

	am.started = true
	go am.start()

	core.LogInfo("asset index ready: %d files under %s", am.Len(), root)
	return nil
}

func (am *AssetManager) Shutdown() error {
	if am.isClosed {
		return nil
	}
	am.isClosed = true
	if !am.started {
		return am.fsnotify.Close()
	}
	close(am.done)
	<-am.stopped
	return nil
}

// AddRecursive starts watching the named directory and all sub-directories.
func (am *AssetManager) addRecursive(name string) error {
	if am.isClosed {
		return errors.New("asset watcher already closed")
	}
	return am.watchRecursive(name, false)
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType metadata.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

func (am *AssetManager) Len() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

// Lookup resolves a name to an indexed asset. The name is either the path
// relative to the asset root or, when that is unknown, the bare file name
// without extension.
func (am *AssetManager) Lookup(name string, resourceType metadata.ResourceType) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()

	key := filepath.ToSlash(filepath.Clean(name))
	if asset, ok := am.assets[key]; ok && compatible(asset.Type, resourceType) {
		return asset, true
	}
	for _, asset := range am.assets {
		if !compatible(asset.Type, resourceType) {
			continue
		}
		base := filepath.Base(asset.Name)
		if strings.TrimSuffix(base, filepath.Ext(base)) == name {
			return asset, true
		}
	}
	return AssetInfo{}, false
}

// Palettes are stored as regular indexed images.
func compatible(indexed, requested metadata.ResourceType) bool {
	return indexed == requested ||
		(indexed == metadata.ResourceTypeImage && requested == metadata.ResourceTypePalette)
}

// Load an asset using the appropriate loader
func (am *AssetManager) LoadAsset(name string, resourceType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	asset, exists := am.Lookup(name, resourceType)
	if !exists {
		return nil, fmt.Errorf("%s %q: %w", resourceType, name, ErrAssetNotFound)
	}

	loader, loaderExists := am.loaders[resourceType]
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %s", resourceType)
	}

	res, err := loader.Load(asset.Path, resourceType, params)
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	asset.LastLoaded = time.Now()
	am.assets[asset.Name] = asset
	am.mutex.Unlock()

	return res, nil
}

func (am *AssetManager) UnloadAsset(asset *metadata.Resource) error {
	loader, ok := am.loaders[asset.Type]
	if !ok {
		return fmt.Errorf("no loader registered for asset type: %s", asset.Type)
	}
	return loader.Unload(asset)
}

func (am *AssetManager) LoadImage(name string) (image.Image, error) {
	res, err := am.LoadAsset(name, metadata.ResourceTypeImage, nil)
	if err != nil {
		return nil, err
	}
	return res.Data.(image.Image), nil
}

func (am *AssetManager) LoadPalette(name string) (color.Palette, error) {
	res, err := am.LoadAsset(name, metadata.ResourceTypePalette, nil)
	if err != nil {
		return nil, err
	}
	return res.Data.(color.Palette), nil
}

func (am *AssetManager) LoadBitmapFont(name string) (*bmfont.BitmapFont, error) {
	res, err := am.LoadAsset(name, metadata.ResourceTypeBitmapFont, nil)
	if err != nil {
		return nil, err
	}
	return res.Data.(*bmfont.BitmapFont), nil
}

func (am *AssetManager) LoadSystemFont(name string, size float64) (font.Face, error) {
	res, err := am.LoadAsset(name, metadata.ResourceTypeSystemFont, &loaders.SystemFontParams{Size: size})
	if err != nil {
		return nil, err
	}
	return res.Data.(font.Face), nil
}

// Update dispatches the file changes seen since the last call.
func (am *AssetManager) Update() {
	am.pendingMutex.Lock()
	pending := am.pending
	am.pending = nil
	am.pendingMutex.Unlock()

	if am.bus == nil {
		return
	}
	for i := range pending {
		am.bus.Fire(core.EventContext{
			Type: core.EVENT_CODE_ASSET_CHANGED,
			Data: &pending[i],
		})
	}
}

func (am *AssetManager) queue(event core.AssetEvent) {
	am.pendingMutex.Lock()
	am.pending = append(am.pending, event)
	am.pendingMutex.Unlock()
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {

		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					am.watchRecursive(e.Name, false)
				}
				continue
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				if name, ok := am.handleFileEvent(e.Name); ok {
					am.queue(core.AssetEvent{Path: name})
				}
			}
			// Can't stat a deleted directory, so just pretend that it's always a
			// directory and try to remove it from the watch list.
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				if name, ok := am.removeAsset(e.Name); ok {
					am.queue(core.AssetEvent{Path: name, Removed: true})
				}
				am.fsnotify.Remove(e.Name)
			}

		case e, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", e)

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

// watchRecursive adds all directories under the given one to the watch list
// and indexes the files it finds.
func (am *AssetManager) watchRecursive(path string, unWatch bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if unWatch {
				return am.fsnotify.Remove(walkPath)
			}
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

func (am *AssetManager) relative(path string) (string, bool) {
	rel, err := filepath.Rel(am.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) (string, bool) {
	assetType := determineAssetType(path)
	if assetType == metadata.ResourceTypeNone {
		return "", false
	}
	name, ok := am.relative(path)
	if !ok {
		return "", false
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.assets[name] = AssetInfo{
		Name: name,
		Path: path,
		Type: assetType,
	}
	return name, true
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) (string, bool) {
	name, ok := am.relative(path)
	if !ok {
		return "", false
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	if _, exists := am.assets[name]; !exists {
		return "", false
	}
	delete(am.assets, name)
	return name, true
}

func determineAssetType(path string) metadata.ResourceType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".bmp":
		return metadata.ResourceTypeImage
	case ".fnt":
		return metadata.ResourceTypeBitmapFont
	case ".ttf", ".otf":
		return metadata.ResourceTypeSystemFont
	default:
		return metadata.ResourceTypeNone
	}
}
