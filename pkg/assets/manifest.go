package assets

import (
	"encoding/json"
	"os"
	"sort"
	"sync"
)

// ManifestPath is where the manifest is written inside the output tree.
const ManifestPath = "_app/manifest.json"

// ManifestAsset records where an asset was written and its integrity data.
type ManifestAsset struct {
	File   string `json:"file"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

// Manifest records what a build emitted: one file per route pathname, the
// copied assets and generated files. It is safe for concurrent use.
type Manifest struct {
	mu sync.RWMutex

	base      string
	mode      string
	routes    map[string]string
	assets    map[string]ManifestAsset
	generated map[string]string
}

type manifestJSON struct {
	Base      string                   `json:"base"`
	Mode      string                   `json:"mode"`
	Routes    map[string]string        `json:"routes"`
	Assets    map[string]ManifestAsset `json:"assets"`
	Generated map[string]string        `json:"generated,omitempty"`
}

// NewManifest creates an empty manifest for a build.
func NewManifest(base, mode string) *Manifest {
	return &Manifest{
		base:      base,
		mode:      mode,
		routes:    make(map[string]string),
		assets:    make(map[string]ManifestAsset),
		generated: make(map[string]string),
	}
}

// Load reads a manifest.json file and returns a Manifest.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a manifest from JSON.
func Parse(data []byte) (*Manifest, error) {
	var raw manifestJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	m := NewManifest(raw.Base, raw.Mode)
	for k, v := range raw.Routes {
		m.routes[k] = v
	}
	for k, v := range raw.Assets {
		m.assets[k] = v
	}
	for k, v := range raw.Generated {
		m.generated[k] = v
	}
	return m, nil
}

// Base returns the base path the build was made for.
func (m *Manifest) Base() string { return m.base }

// Mode returns the build mode.
func (m *Manifest) Mode() string { return m.mode }

// AddRoute records the file emitted for a pathname.
func (m *Manifest) AddRoute(pathname, file string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[pathname] = file
}

// AddAsset records a copied asset.
func (m *Manifest) AddAsset(a Asset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[a.Path] = ManifestAsset{File: a.File(), Size: a.Size, SHA256: a.SHA256}
}

// AddGenerated records a generated file served at urlPath.
func (m *Manifest) AddGenerated(urlPath, file string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generated[urlPath] = file
}

// RouteFile returns the file emitted for pathname.
func (m *Manifest) RouteFile(pathname string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.routes[pathname]
	return f, ok
}

// Resolve returns the output file for an asset or generated path. If not
// found, returns the source path unchanged.
func (m *Manifest) Resolve(source string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if a, ok := m.assets[source]; ok {
		return a.File
	}
	if f, ok := m.generated[source]; ok {
		return f
	}
	return source
}

// Has returns true if the manifest contains the given asset path.
func (m *Manifest) Has(source string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.assets[source]
	return ok
}

// Routes returns the recorded pathnames, sorted.
func (m *Manifest) Routes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedKeys(m.routes)
}

// Files returns every file the manifest accounts for (pages, assets and
// generated files), sorted and de-duplicated.
func (m *Manifest) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, f := range m.routes {
		seen[f] = struct{}{}
	}
	for _, a := range m.assets {
		seen[a.File] = struct{}{}
	}
	for _, f := range m.generated {
		seen[f] = struct{}{}
	}
	return sortedKeys(seen)
}

// Len returns the number of asset entries in the manifest.
func (m *Manifest) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.assets)
}

// All returns a copy of all asset entries.
func (m *Manifest) All() map[string]ManifestAsset {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]ManifestAsset, len(m.assets))
	for k, v := range m.assets {
		result[k] = v
	}
	return result
}

// MarshalJSON encodes the manifest. encoding/json sorts map keys, so the
// output is stable for identical builds.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return json.Marshal(manifestJSON{
		Base:      m.base,
		Mode:      m.mode,
		Routes:    m.routes,
		Assets:    m.assets,
		Generated: m.generated,
	})
}

// Encode returns the indented JSON form written to disk.
func (m *Manifest) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
