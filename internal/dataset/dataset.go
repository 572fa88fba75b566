// Package dataset loads CSV assets for charts and tables.
package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"sync"

	"github.com/vango-dev/vizsite/internal/errors"
	"github.com/vango-dev/vizsite/pkg/assets"
)

// Dataset is a parsed CSV file. The first record is the header.
type Dataset struct {
	// Path is the catalog path of the source asset.
	Path string

	Header []string
	Rows   [][]string

	index map[string]int
}

// Column returns the index of the named column.
func (d *Dataset) Column(name string) (int, bool) {
	i, ok := d.index[name]
	return i, ok
}

// HasColumn reports whether the header contains name.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Values returns every value of the named column.
func (d *Dataset) Values(name string) ([]string, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	out := make([]string, len(d.Rows))
	for r, row := range d.Rows {
		out[r] = row[i]
	}
	return out, true
}

// Parse decodes CSV data. Rows must have as many fields as the header.
func Parse(path string, data []byte) (*Dataset, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parse %s: no header row", path)
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	d := &Dataset{
		Path:   path,
		Header: header,
		Rows:   records[1:],
		index:  make(map[string]int, len(header)),
	}
	for i, name := range header {
		if _, dup := d.index[name]; dup {
			return nil, fmt.Errorf("parse %s: duplicate column %q", path, name)
		}
		d.index[name] = i
	}
	return d, nil
}

// Loader reads datasets from an asset catalog, parsing each file once.
// It is safe for concurrent use.
type Loader struct {
	catalog *assets.Catalog

	mu    sync.Mutex
	cache map[string]*Dataset
}

// NewLoader creates a loader over catalog.
func NewLoader(catalog *assets.Catalog) *Loader {
	return &Loader{
		catalog: catalog,
		cache:   make(map[string]*Dataset),
	}
}

// Load returns the dataset for ref. A ref outside the catalog fails with
// an AssetNotFound error.
func (l *Loader) Load(ref string) (*Dataset, error) {
	asset, err := l.catalog.Resolve(ref)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if d, ok := l.cache[asset.Path]; ok {
		return d, nil
	}

	data, err := l.catalog.ReadFile(asset.Path)
	if err != nil {
		return nil, err
	}
	d, err := Parse(asset.Path, data)
	if err != nil {
		return nil, errors.New(errors.CodeAssetInvalid).WithAsset(asset.Path).Wrap(err)
	}
	l.cache[asset.Path] = d
	return d, nil
}
