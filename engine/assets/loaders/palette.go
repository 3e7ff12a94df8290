package loaders

import (
	"fmt"
	"image"
	"image/color"

	"github.com/spaghettifunk/terra/engine/renderer/metadata"
)

// PaletteLoader reads the colour table of an indexed image. The pixels are
// ignored.
type PaletteLoader struct {
	images ImageLoader
}

func (pl *PaletteLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	res, err := pl.images.Load(path, assetType, params)
	if err != nil {
		return nil, err
	}
	paletted, ok := res.Data.(*image.Paletted)
	if !ok {
		return nil, fmt.Errorf("%s is not an indexed image", path)
	}
	colors := make(color.Palette, len(paletted.Palette))
	copy(colors, paletted.Palette)

	res.Data = colors
	res.DataSize = uint64(len(colors) * 4)
	return res, nil
}

func (pl *PaletteLoader) Unload(resource *metadata.Resource) error {
	release(resource)
	return nil
}
