package assets

import (
	"github.com/vango-dev/vizsite/internal/errors"
	"github.com/vango-dev/vizsite/pkg/routepath"
)

// Resolver provides asset URL resolution for one deployment target.
type Resolver interface {
	// Asset resolves a source asset reference to its full URL path,
	// including the base path.
	//
	// Example:
	//   resolver.Asset("co2.csv") → "/CSCI5609GP/co2.csv"
	Asset(source string) (string, error)
}

// catalogResolver checks references against a Catalog.
type catalogResolver struct {
	catalog *Catalog
	base    string
}

// NewResolver creates a Resolver that only accepts catalog members and
// prefixes them with base.
//
// Example:
//
//	resolver := assets.NewResolver(catalog, "/CSCI5609GP")
//	resolver.Asset("co2.csv")     // "/CSCI5609GP/co2.csv", nil
//	resolver.Asset("missing.csv") // "", AssetNotFound
func NewResolver(c *Catalog, base string) Resolver {
	return &catalogResolver{
		catalog: c,
		base:    base,
	}
}

func (r *catalogResolver) Asset(source string) (string, error) {
	asset, err := r.catalog.Resolve(source)
	if err != nil {
		return "", err
	}
	return routepath.Resolve(r.base, asset.Path), nil
}

// manifestResolver resolves against a finished build's manifest.
type manifestResolver struct {
	manifest *Manifest
}

// NewManifestResolver creates a Resolver over a build manifest, using the
// base path the build was made for.
func NewManifestResolver(m *Manifest) Resolver {
	return &manifestResolver{manifest: m}
}

func (r *manifestResolver) Asset(source string) (string, error) {
	key, err := Normalize(source)
	if err != nil {
		return "", err
	}
	if !r.manifest.Has(key) {
		return "", errors.AssetNotFound(source)
	}
	return routepath.Resolve(r.manifest.Base(), r.manifest.Resolve(key)), nil
}
