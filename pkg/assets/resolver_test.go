package assets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/vizsite/internal/errors"
)

func TestCatalogResolver(t *testing.T) {
	c, err := NewCatalog(siteFS())
	require.NoError(t, err)

	tests := []struct {
		base, ref, want string
	}{
		{"", "co2.csv", "/co2.csv"},
		{"/CSCI5609GP", "co2.csv", "/CSCI5609GP/co2.csv"},
		{"/CSCI5609GP", "/img/ship.jpg", "/CSCI5609GP/img/ship.jpg"},
	}

	for _, tt := range tests {
		got, err := NewResolver(c, tt.base).Asset(tt.ref)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err = NewResolver(c, "/CSCI5609GP").Asset("missing.csv")
	assert.True(t, errors.IsAssetNotFound(err))
}

func TestManifestResolver(t *testing.T) {
	r := NewManifestResolver(sampleManifest())

	got, err := r.Asset("co2.csv")
	require.NoError(t, err)
	assert.Equal(t, "/CSCI5609GP/co2.csv", got)

	_, err = r.Asset("missing.csv")
	assert.True(t, errors.IsAssetNotFound(err))
}
