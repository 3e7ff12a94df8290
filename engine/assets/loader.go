package assets

import "github.com/spaghettifunk/terra/engine/renderer/metadata"

// Loader decodes one resource type from disk. params carries per type
// options, such as the point size of a system font.
type Loader interface {
	Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error)
	Unload(resource *metadata.Resource) error
}
