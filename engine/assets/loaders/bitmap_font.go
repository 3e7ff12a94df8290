package loaders

import (
	"os"

	"github.com/fzipp/bmfont"

	"github.com/spaghettifunk/terra/engine/renderer/metadata"
)

// BitmapFontLoader loads AngelCode .fnt descriptors together with their page
// images, which must sit next to the descriptor.
type BitmapFontLoader struct{}

func (fl *BitmapFontLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	font, err := bmfont.Load(path)
	if err != nil {
		return nil, err
	}
	return &metadata.Resource{
		Name:     resourceName(path),
		FullPath: path,
		Type:     assetType,
		DataSize: uint64(info.Size()),
		Data:     font,
	}, nil
}

func (fl *BitmapFontLoader) Unload(resource *metadata.Resource) error {
	release(resource)
	return nil
}
