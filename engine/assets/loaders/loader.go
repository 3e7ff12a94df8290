package loaders

import (
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/terra/engine/renderer/metadata"
)

// resourceName is the file name without directory and extension.
func resourceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func release(resource *metadata.Resource) {
	if resource == nil {
		return
	}
	resource.Data = nil
	resource.DataSize = 0
	resource.FullPath = ""
}
