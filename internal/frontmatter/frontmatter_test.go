package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	src := []byte("---\ntitle: CO2 Emissions\nprerender: true\nentries:\n  - id: 3\n  - id: '4'\nstylesheets: [/page.css]\n---\n<h1>{{ .Title }}</h1>\n")

	page, err := Parse(src)
	require.NoError(t, err)

	assert.Equal(t, "CO2 Emissions", page.Meta.Title)
	assert.True(t, page.Meta.Prerenderable())
	assert.Equal(t, []string{"/page.css"}, page.Meta.Stylesheets)
	assert.Equal(t, []map[string]string{{"id": "3"}, {"id": "4"}}, page.Meta.StringEntries())
	assert.Equal(t, "<h1>{{ .Title }}</h1>\n", string(page.Body))
	assert.Equal(t, 9, page.BodyLine)
}

func TestParse_NoFrontMatter(t *testing.T) {
	src := []byte("<h1>Home</h1>\n---\n")

	page, err := Parse(src)
	require.NoError(t, err)
	assert.Equal(t, src, page.Body)
	assert.Equal(t, 1, page.BodyLine)
	assert.True(t, page.Meta.Prerenderable())
	assert.Nil(t, page.Meta.StringEntries())
}

func TestParse_PrerenderFalse(t *testing.T) {
	page, err := Parse([]byte("---\nprerender: false\n---\n"))
	require.NoError(t, err)
	assert.False(t, page.Meta.Prerenderable())
	assert.Empty(t, page.Body)
}

func TestParse_CRLF(t *testing.T) {
	page, err := Parse([]byte("---\r\ntitle: Home\r\n---\r\nbody"))
	require.NoError(t, err)
	assert.Equal(t, "Home", page.Meta.Title)
	assert.Equal(t, "body", string(page.Body))
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("---\ntitle: Home\n"))
	assert.ErrorContains(t, err, "missing closing")

	_, err = Parse([]byte("---\ntitle: [unclosed\n---\n"))
	assert.ErrorContains(t, err, "front matter")
}
