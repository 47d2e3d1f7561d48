package config

import (
	"runtime"
	"strings"
)

const (
	defaultImageMaxWidth = 1920
	defaultImageQuality  = 85
	defaultLanguage      = "en_US"
)

func applyDefaults(cfg *Config) {
	if len(cfg.Paths.Content) == 0 {
		cfg.Paths.Content = []string{"content"}
	}
	if cfg.Paths.Assets == "" {
		cfg.Paths.Assets = "assets"
	}
	if cfg.Paths.Output == "" {
		cfg.Paths.Output = "public"
	}
	if cfg.Images.MaxWidth <= 0 {
		cfg.Images.MaxWidth = defaultImageMaxWidth
	}
	if cfg.Images.Quality <= 0 {
		cfg.Images.Quality = defaultImageQuality
	}
	if cfg.Build.Concurrency <= 0 {
		cfg.Build.Concurrency = runtime.GOMAXPROCS(0)
	}
	if cfg.Site.Language == "" {
		cfg.Site.Language = defaultLanguage
	}
	if cfg.Site.ShortTitle == "" {
		cfg.Site.ShortTitle = cfg.Site.Title
	}
	if cfg.Site.Manifest.Enabled {
		if cfg.Site.Manifest.StartURL == "" {
			cfg.Site.Manifest.StartURL = "/"
		}
		if cfg.Site.Manifest.Display == "" {
			cfg.Site.Manifest.Display = "minimal-ui"
		}
	}
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	cfg.Site.Fonts = mergeFonts(cfg.Site.Fonts)

	for i := range cfg.Pages {
		p := &cfg.Pages[i]
		if p.Template == "" {
			p.Template = p.Name
		}
		if p.Path == "" && p.Name == "home" {
			p.Path = "/"
		}
	}
}

// mergeFonts collapses repeated families keeping the first position and the last weights.
func mergeFonts(fonts []FontConfig) []FontConfig {
	if len(fonts) < 2 {
		return fonts
	}
	index := make(map[string]int, len(fonts))
	out := make([]FontConfig, 0, len(fonts))
	for _, f := range fonts {
		key := strings.ToLower(strings.TrimSpace(f.Family))
		if i, ok := index[key]; ok {
			out[i].Weights = f.Weights
			continue
		}
		index[key] = len(out)
		out = append(out, f)
	}
	return out
}
