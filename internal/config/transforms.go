package config

import "strings"

// Stage names a transform block may target.
const (
	TransformStageResolving    = "resolving"
	TransformStageTransforming = "transforming"
)

// TransformBlock overrides image options for one stage, or for every stage when Stage is empty.
// Blocks may repeat; they are applied in file order and the last non-zero value wins.
type TransformBlock struct {
	Stage    string `yaml:"stage,omitempty"`
	MaxWidth int    `yaml:"max_width,omitempty"`
	Quality  int    `yaml:"quality,omitempty"`
}

// ImageOptions is the effective resize policy for a stage.
type ImageOptions struct {
	MaxWidth int
	Quality  int
}

// ImageOptionsFor folds the images defaults, the markdown setting (transforming
// stage only) and all matching transform blocks in order.
func (c *Config) ImageOptionsFor(stage string) ImageOptions {
	opts := ImageOptions{MaxWidth: c.Images.MaxWidth, Quality: c.Images.Quality}
	if stage == TransformStageTransforming && c.Markdown.ImageMaxWidth > 0 {
		opts.MaxWidth = c.Markdown.ImageMaxWidth
	}
	for _, b := range c.Transforms {
		s := strings.ToLower(strings.TrimSpace(b.Stage))
		if s != "" && s != stage {
			continue
		}
		if b.MaxWidth > 0 {
			opts.MaxWidth = b.MaxWidth
		}
		if b.Quality > 0 {
			opts.Quality = b.Quality
		}
	}
	return opts
}
