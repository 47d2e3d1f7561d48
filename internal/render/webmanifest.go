package render

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"git.home.luguber.info/inful/sitebuilder/internal/assets"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
)

// WebManifestFile is the web app manifest written at the site root.
const WebManifestFile = "manifest.webmanifest"

// WebManifestIconSizes are the square icon variants listed in the manifest.
var WebManifestIconSizes = []int{192, 512}

type webManifest struct {
	Name            string            `json:"name"`
	ShortName       string            `json:"short_name"`
	Description     string            `json:"description,omitempty"`
	Lang            string            `json:"lang,omitempty"`
	StartURL        string            `json:"start_url"`
	BackgroundColor string            `json:"background_color,omitempty"`
	ThemeColor      string            `json:"theme_color,omitempty"`
	Display         string            `json:"display"`
	Icons           []webManifestIcon `json:"icons,omitempty"`
}

type webManifestIcon struct {
	Src   string `json:"src"`
	Sizes string `json:"sizes"`
	Type  string `json:"type"`
}

// WriteWebManifest writes manifest.webmanifest for site using the resolved icon variants.
func (r *Renderer) WriteWebManifest(site config.SiteMetadata, icons []assets.Resolved) (Artifact, error) {
	m := webManifest{
		Name:            site.Title,
		ShortName:       site.ShortTitle,
		Description:     site.Description,
		Lang:            site.Language,
		StartURL:        site.Manifest.StartURL,
		BackgroundColor: site.Manifest.BackgroundColor,
		ThemeColor:      site.Manifest.ThemeColor,
		Display:         site.Manifest.Display,
	}
	for _, icon := range icons {
		m.Icons = append(m.Icons, webManifestIcon{
			Src:   icon.OutputPath,
			Sizes: fmt.Sprintf("%dx%d", icon.Width, icon.Height),
			Type:  mimeType(icon.Format),
		})
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return Artifact{}, &Error{Page: WebManifestFile, Op: "marshal", Err: err}
	}
	data = append(data, '\n')
	if err := writeFile(r.opts.OutputDir, WebManifestFile, data); err != nil {
		return Artifact{}, &Error{Page: WebManifestFile, Op: "write", Err: err}
	}
	sum := sha256.Sum256(data)
	return Artifact{Path: WebManifestFile, Bytes: int64(len(data)), Hash: hex.EncodeToString(sum[:])}, nil
}

func mimeType(format string) string {
	switch format {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "svg":
		return "image/svg+xml"
	case "":
		return "application/octet-stream"
	default:
		return "image/" + format
	}
}
