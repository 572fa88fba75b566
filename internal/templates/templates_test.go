package templates

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/vizsite/internal/config"
	"github.com/vango-dev/vizsite/internal/errors"
	"github.com/vango-dev/vizsite/internal/export"
)

func TestGet(t *testing.T) {
	for _, name := range []string{"minimal", "site"} {
		tmpl, err := Get(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, tmpl.Name)
		assert.NotEmpty(t, tmpl.Description)
	}

	_, err := Get("nonexistent")
	se, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeTemplateNotFound, se.Code)
}

func TestList(t *testing.T) {
	assert.Equal(t, []string{"minimal", "site"}, List())
}

func TestCreate(t *testing.T) {
	dir := t.TempDir()
	tmpl, err := Get("site")
	require.NoError(t, err)

	require.NoError(t, tmpl.Create(dir, Config{
		ProjectName: "CSCI5609GP",
		Description: "Climate data stories.",
		Base:        "/CSCI5609GP",
	}))

	index, err := os.ReadFile(filepath.Join(dir, "src", "routes", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "title: CSCI5609GP")
	assert.Contains(t, string(index), "{{ .Title }}", "page actions pass through")

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "CSCI5609GP", cfg.Name)
	assert.Equal(t, "/CSCI5609GP", cfg.Base[config.ModeProduction])
}

func TestCreate_InvalidBase(t *testing.T) {
	tmpl, err := Get("minimal")
	require.NoError(t, err)

	err = tmpl.Create(t.TempDir(), Config{ProjectName: "x", Base: "CSCI5609GP/"})
	assert.True(t, errors.IsConfiguration(err))
}

// Every template must produce a project that exports cleanly.
func TestTemplatesBuild(t *testing.T) {
	for _, name := range List() {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			tmpl, err := Get(name)
			require.NoError(t, err)
			require.NoError(t, tmpl.Create(dir, Config{ProjectName: "demo", Description: "Demo.", Base: "/demo"}))

			cfg, err := config.Load(dir)
			require.NoError(t, err)
			opts, err := export.OptionsFromConfig(cfg, config.ModeProduction)
			require.NoError(t, err)

			b, err := export.New(opts)
			require.NoError(t, err)
			out, err := b.Render(context.Background())
			require.NoError(t, err)
			assert.NotEmpty(t, out.Pages)
		})
	}
}
