// Package manifest describes what a build consumed and produced.
package manifest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// File names written into the site output.
const (
	AssetManifestFile = "asset-manifest.json"
	BuildManifestFile = "build-manifest.json"
)

// BuildManifest records a build's inputs and outputs.
type BuildManifest struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Inputs    Inputs    `json:"inputs"`
	Outputs   Outputs   `json:"outputs"`
	Status    string    `json:"status"`
	Duration  int64     `json:"duration_ms"`
}

// Inputs captures all inputs to the build.
type Inputs struct {
	ConfigHash   string `json:"config_hash"`
	SourceCommit     string     `json:"source_commit,omitempty"`
	SourceBranch     string     `json:"source_branch,omitempty"`
	SourceCommitTime *time.Time `json:"source_commit_time,omitempty"`
	SourceDirty      bool       `json:"source_dirty,omitempty"`
	// Records maps type/name to the record fingerprint.
	Records map[string]string `json:"records"`
	// Assets maps asset reference keys to source content hashes.
	Assets map[string]string `json:"assets,omitempty"`
}

// Outputs captures all outputs from the build.
type Outputs struct {
	Pages          int               `json:"pages"`
	ArtifactHashes map[string]string `json:"artifact_hashes,omitempty"`
}

// ToJSON serializes the manifest to JSON.
func (m *BuildManifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*BuildManifest, error) {
	var m BuildManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Hash computes a deterministic hash of the manifest's inputs.
// Two builds with the same hash consumed identical content, assets and configuration.
func (m *BuildManifest) Hash() (string, error) {
	hashInput := struct {
		ConfigHash   string            `json:"config_hash"`
		SourceCommit string            `json:"source_commit"`
		Records      map[string]string `json:"records"`
		Assets       map[string]string `json:"assets"`
	}{
		ConfigHash:   m.Inputs.ConfigHash,
		SourceCommit: m.Inputs.SourceCommit,
		Records:      m.Inputs.Records,
		Assets:       m.Inputs.Assets,
	}
	// encoding/json sorts map keys, so the encoding is canonical.
	data, err := json.Marshal(hashInput)
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}
	return fmt.Sprintf("%x", sha256.Sum256(data)), nil
}

// AssetEntry is one resolved asset variant.
type AssetEntry struct {
	Key    string `json:"key"`
	Source string `json:"source"`
	Output string `json:"output"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Format string `json:"format"`
	Bytes  int64  `json:"bytes"`
	Hash   string `json:"hash"`
}

// AssetManifest lists every asset variant produced by a build.
type AssetManifest struct {
	Version int          `json:"version"`
	Assets  []AssetEntry `json:"assets"`
}

// NewAssetManifest sorts entries by key so output is reproducible.
func NewAssetManifest(entries []AssetEntry) *AssetManifest {
	sorted := append([]AssetEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	return &AssetManifest{Version: 1, Assets: sorted}
}

// Lookup returns the entry for key.
func (m *AssetManifest) Lookup(key string) (AssetEntry, bool) {
	i := sort.Search(len(m.Assets), func(i int) bool { return m.Assets[i].Key >= key })
	if i < len(m.Assets) && m.Assets[i].Key == key {
		return m.Assets[i], true
	}
	return AssetEntry{}, false
}

// WriteJSON writes v as indented JSON to dir/name via a temporary file and rename.
func WriteJSON(dir, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(dir, "."+name+"-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, name))
}
