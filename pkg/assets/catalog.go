// Package assets provides the closed catalog of static files a site may
// reference, and the build manifest that records where they were written.
//
// The catalog is built once per build by scanning the static directory:
//
//	catalog, err := assets.NewCatalog(os.DirFS("static"))
//	asset, err := catalog.Resolve("co2.csv")
//	// asset.Path == "/co2.csv"
//
// Membership is closed: Resolve fails with an AssetNotFound error for any
// path outside the scanned set, so a broken reference stops the build
// instead of shipping a broken link.
package assets

import (
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"io"
	"io/fs"
	"mime"
	"path"
	"sort"
	"strings"

	"github.com/vango-dev/vizsite/internal/errors"
	"github.com/vango-dev/vizsite/pkg/routepath"
)

// Asset is an immutable static file identified by its root-relative path.
type Asset struct {
	// Path is the root-relative path, always with a leading slash ("/co2.csv").
	Path string

	// Size is the file size in bytes.
	Size int64

	// SHA256 is the hex-encoded content hash.
	SHA256 string

	// ContentType is derived from the file extension.
	ContentType string
}

// File returns the slash-separated path relative to the static root.
func (a Asset) File() string {
	return strings.TrimPrefix(a.Path, "/")
}

// Catalog is the closed set of assets found under a static root.
// It is read-only after construction and safe for concurrent use.
type Catalog struct {
	fsys   fs.FS
	assets map[string]Asset
	order  []string
}

// NewCatalog scans fsys and returns the catalog of every regular file in it.
// Hidden files and directories (".DS_Store", ".git") are skipped.
func NewCatalog(fsys fs.FS) (*Catalog, error) {
	c := &Catalog{
		fsys:   fsys,
		assets: make(map[string]Asset),
	}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == "." && stderrors.Is(err, fs.ErrNotExist) {
				// A site without a static directory has no assets.
				return fs.SkipAll
			}
			return err
		}
		if p != "." && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		asset, err := scanAsset(fsys, p)
		if err != nil {
			return err
		}
		c.assets[asset.Path] = asset
		c.order = append(c.order, asset.Path)
		return nil
	})
	if err != nil {
		return nil, errors.New(errors.CodeAssetScan).Wrap(err)
	}

	sort.Strings(c.order)
	return c, nil
}

func scanAsset(fsys fs.FS, p string) (Asset, error) {
	f, err := fsys.Open(p)
	if err != nil {
		return Asset{}, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return Asset{}, err
	}

	return Asset{
		Path:        "/" + p,
		Size:        n,
		SHA256:      hex.EncodeToString(h.Sum(nil)),
		ContentType: ContentType(p),
	}, nil
}

// Normalize turns a reference ("co2.csv", "/data//co2.csv") into the
// catalog key form ("/co2.csv", "/data/co2.csv").
func Normalize(ref string) (string, error) {
	p := routepath.Split(ref).Path
	clean, err := routepath.CanonicalizePath(p)
	if err != nil {
		return "", errors.New(errors.CodeAssetInvalid).WithAsset(ref).Wrap(err)
	}
	return clean, nil
}

// Resolve returns the asset for ref. References outside the catalog fail
// with an AssetNotFound error naming ref.
func (c *Catalog) Resolve(ref string) (Asset, error) {
	key, err := Normalize(ref)
	if err != nil {
		return Asset{}, err
	}
	asset, ok := c.assets[key]
	if !ok {
		return Asset{}, errors.AssetNotFound(ref)
	}
	return asset, nil
}

// Has reports whether ref names an asset in the catalog.
func (c *Catalog) Has(ref string) bool {
	_, err := c.Resolve(ref)
	return err == nil
}

// Assets returns every asset sorted by path.
func (c *Catalog) Assets() []Asset {
	result := make([]Asset, 0, len(c.order))
	for _, p := range c.order {
		result = append(result, c.assets[p])
	}
	return result
}

// Len returns the number of assets in the catalog.
func (c *Catalog) Len() int {
	return len(c.order)
}

// Open opens the asset named by ref.
func (c *Catalog) Open(ref string) (fs.File, error) {
	asset, err := c.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return c.fsys.Open(asset.File())
}

// ReadFile returns the contents of the asset named by ref.
func (c *Catalog) ReadFile(ref string) ([]byte, error) {
	asset, err := c.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(c.fsys, asset.File())
}

// ContentType returns the MIME type for a file name, falling back to
// application/octet-stream. Types missing from some system tables are
// pinned so that output does not depend on the host.
func ContentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		return "text/csv; charset=utf-8"
	case ".avif":
		return "image/avif"
	case ".webp":
		return "image/webp"
	case ".html":
		return "text/html; charset=utf-8"
	case ".js":
		return "text/javascript; charset=utf-8"
	case ".json":
		return "application/json"
	case ".txt":
		return "text/plain; charset=utf-8"
	}
	if t := mime.TypeByExtension(path.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
