package config

// PageSpec declares one page (or one page per record with Each) and what it needs.
type PageSpec struct {
	Name        string        `yaml:"name"`
	Path        string        `yaml:"path"`
	Template    string        `yaml:"template"`
	Title       string        `yaml:"title,omitempty"`
	Description string        `yaml:"description,omitempty"`
	Requires    []Requirement `yaml:"requires,omitempty"`
	Assets      []AssetSpec   `yaml:"assets,omitempty"`
	// Each expands the page into one page per record of this type; Path must then
	// contain the {name} placeholder.
	Each string `yaml:"each,omitempty"`
}

// Requirement pulls the records of one content type into a page.
type Requirement struct {
	Type     string `yaml:"type"`
	Optional bool   `yaml:"optional,omitempty"`
	Limit    int    `yaml:"limit,omitempty"`
	SortBy   string `yaml:"sort_by,omitempty"`
	Order    string `yaml:"order,omitempty"` // asc|desc
}

// AssetSpec names an image or file the page template refers to.
type AssetSpec struct {
	Name    string `yaml:"name"`
	Path    string `yaml:"path"`
	Width   int    `yaml:"width,omitempty"`
	Height  int    `yaml:"height,omitempty"`
	Quality int    `yaml:"quality,omitempty"`
	Fit     string `yaml:"fit,omitempty"`
}

// SchemaConfig declares the record shape of one content type.
type SchemaConfig struct {
	Key      string            `yaml:"key,omitempty"`
	Required []string          `yaml:"required,omitempty"`
	Fields   map[string]string `yaml:"fields,omitempty"`
	// References maps a field to the type whose key it must name.
	References map[string]string `yaml:"references,omitempty"`
	// Images lists fields holding asset paths that are resolved during the Resolving stage.
	Images []string `yaml:"images,omitempty"`
}
