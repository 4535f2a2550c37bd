package config

const (
	// MaxSegmentLength is the maximum length of one category path segment.
	MaxSegmentLength = 100

	// MaxPathDepth bounds how deeply categories may nest.
	MaxPathDepth = 16

	// MaxFilenameLength is the maximum length of a sanitized document filename.
	MaxFilenameLength = 255

	// MaxUploadBytes limits a single uploaded source document (64 MiB).
	MaxUploadBytes = 64 << 20

	// MaxRenderDPI keeps a single rasterization from exhausting memory.
	MaxRenderDPI = 600

	// DefaultCategory receives documents registered without a category.
	DefaultCategory = "MISC"

	// HomeCategory holds the home-page quick references.
	HomeCategory = "--"
)
