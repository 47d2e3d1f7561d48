package config

// Example returns the configuration written by `sitebuilder init`.
func Example() *Config {
	cfg := &Config{
		Site: SiteMetadata{
			Title:        "My Portfolio",
			ShortTitle:   "Portfolio",
			Description:  "Personal site with blog, videos and gallery",
			Author:       "Jane Doe",
			URL:          "https://example.com",
			Language:     "en_US",
			Keywords:     []string{"portfolio", "blog"},
			FormEndpoint: "${SITEBUILDER_FORM_ENDPOINT}",
			Logo:         "images/logo.png",
			Manifest: WebManifestConfig{
				Enabled:         true,
				StartURL:        "/",
				BackgroundColor: "#ffffff",
				ThemeColor:      "#1d1d1d",
				Display:         "minimal-ui",
				Icon:            "images/logo.png",
			},
			Fonts: []FontConfig{
				{Family: "Montserrat", Weights: []string{"400", "700"}},
				{Family: "Mulish", Weights: []string{"400"}},
			},
		},
		Paths: PathsConfig{
			Content: []string{"content"},
			Assets:  "assets",
			Layouts: "layouts",
			Static:  "static",
			Output:  "public",
		},
		Images:   ImagesConfig{MaxWidth: 1920, Quality: 85},
		Markdown: MarkdownConfig{ImageMaxWidth: 1200, Typographer: true},
		Build:    BuildConfig{Concurrency: 4},
		Logging:  LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		Schemas: map[string]SchemaConfig{
			"author": {Required: []string{"name"}, Images: []string{"avatar"}},
			"social": {Required: []string{"name", "url"}, Fields: map[string]string{"url": "url"}},
			"menu":   {Key: "path", Required: []string{"title", "path"}},
			"video":  {Key: "embed", Required: []string{"title", "embed"}},
			"gallery": {
				Key:      "image",
				Required: []string{"image"},
				Fields:   map[string]string{"image": "image"},
				Images:   []string{"image"},
			},
			"blog": {
				Required:   []string{"title", "date"},
				Fields:     map[string]string{"date": "date", "cover": "image"},
				References: map[string]string{"author": "author.name"},
				Images:     []string{"cover"},
			},
		},
		Pages: []PageSpec{
			{
				Name:     "home",
				Path:     "/",
				Template: "home",
				Requires: []Requirement{
					{Type: "social"},
					{Type: "menu"},
					{Type: "blog", Optional: true, Limit: 3, SortBy: "date", Order: "desc"},
					{Type: "video", Optional: true},
					{Type: "gallery", Optional: true},
				},
				Assets: []AssetSpec{
					{Name: "logo", Path: "images/logo.png", Width: 35, Height: 35, Quality: 100},
					{Name: "banner", Path: "images/banner.jpg"},
				},
			},
			{
				Name:     "post",
				Path:     "/blog/{name}/",
				Template: "post",
				Each:     "blog",
				Requires: []Requirement{{Type: "social"}, {Type: "menu"}},
				Assets:   []AssetSpec{{Name: "logo", Path: "images/logo.png", Width: 35, Height: 35, Quality: 100}},
			},
		},
	}
	cfg.Transforms = []TransformBlock{{Stage: TransformStageTransforming, MaxWidth: 1200}}
	return cfg
}
