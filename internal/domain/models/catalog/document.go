package catalog

// Orientation is advisory layout metadata derived from the first rendered page.
type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// RenderConfig controls how source pages become display images.
type RenderConfig struct {
	DPI      int `json:"dpi" yaml:"dpi"`
	MaxWidth int `json:"max_width" yaml:"max_width"`
	Quality  int `json:"quality" yaml:"quality"`
}

// OpenedDocument is everything a viewer needs to display one document.
type OpenedDocument struct {
	DocumentID  string      `json:"pdf"`
	Artifacts   []string    `json:"jpgs"`
	Orientation Orientation `json:"orientation"`
}

// Registration is the result of registering a document under a category.
type Registration struct {
	DocumentID string   `json:"document_id"`
	Path       []string `json:"path"`
	Artifacts  []string `json:"artifacts"`
	Added      bool     `json:"added"` // false when the document was already registered there
}

// CategoryListing describes one category node for display.
type CategoryListing struct {
	Path     []string `json:"path"`
	Files    []string `json:"files"`
	Children []string `json:"children"`
	// AutoOpen is set when the category holds exactly one file.
	AutoOpen string `json:"auto_open,omitempty"`
}

// ChecklistEntry is either a group of subcategories or a leaf list of items.
type ChecklistEntry struct {
	Path          []string `json:"path"`
	Subcategories []string `json:"subcategories,omitempty"`
	Items         []string `json:"items,omitempty"`
	IsList        bool     `json:"is_list"`
}
