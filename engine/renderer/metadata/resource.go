package metadata

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	/** @brief Unknown files are not indexed. */
	ResourceTypeNone ResourceType = iota
	/** @brief Image resource type (png, jpg). */
	ResourceTypeImage
	/** @brief Indexed image holding a 256 colour palette. */
	ResourceTypePalette
	/** @brief Bitmap font resource type (.fnt descriptor). */
	ResourceTypeBitmapFont
	/** @brief TrueType or OpenType font (.ttf, .otf). */
	ResourceTypeSystemFont
	/** @brief Settings resource type (.toml). */
	ResourceTypeSettings
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeImage:
		return "image"
	case ResourceTypePalette:
		return "palette"
	case ResourceTypeBitmapFont:
		return "bitmap-font"
	case ResourceTypeSystemFont:
		return "system-font"
	case ResourceTypeSettings:
		return "settings"
	default:
		return "none"
	}
}

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief The name of the resource. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The resource type. */
	Type ResourceType
	/** @brief The size of the resource data in bytes. */
	DataSize uint64
	/** @brief The resource data. */
	Data interface{}
}
