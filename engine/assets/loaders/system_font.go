package loaders

import (
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"

	"github.com/spaghettifunk/terra/engine/renderer/metadata"
)

const defaultFontSize = 12

// SystemFontParams selects the rasterized size of a TrueType font.
type SystemFontParams struct {
	Size float64
}

// SystemFontLoader parses TrueType/OpenType files into a font.Face.
type SystemFontLoader struct{}

func (fl *SystemFontLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := opentype.Parse(fontBytes)
	if err != nil {
		return nil, err
	}

	size := float64(defaultFontSize)
	if p, ok := params.(*SystemFontParams); ok && p != nil && p.Size > 0 {
		size = p.Size
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}

	return &metadata.Resource{
		Name:     resourceName(path),
		FullPath: path,
		Type:     assetType,
		DataSize: uint64(len(fontBytes)),
		Data:     face,
	}, nil
}

func (fl *SystemFontLoader) Unload(resource *metadata.Resource) error {
	if resource != nil {
		if face, ok := resource.Data.(font.Face); ok {
			face.Close()
		}
	}
	release(resource)
	return nil
}
