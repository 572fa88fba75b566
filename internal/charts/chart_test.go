package charts

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/vizsite/internal/dataset"
	"github.com/vango-dev/vizsite/internal/errors"
)

func co2(t *testing.T) *dataset.Dataset {
	t.Helper()
	d, err := dataset.Parse("/co2.csv", []byte("year,state,value,date\n2000,MN,1.5,2000-01-01\n2001,WI,2.5,2001-01-01\n"))
	require.NoError(t, err)
	return d
}

func TestKinds(t *testing.T) {
	assert.Equal(t, []string{
		"area", "bar", "comparison", "globe", "heatmap", "line", "pie", "ranked-line", "scatter",
	}, Kinds())

	assert.Len(t, Describe(), 9)
	assert.Contains(t, Describe(), "scatter: x, y [color, size]")
}

func TestNew_AllKinds(t *testing.T) {
	args := map[string][]string{
		KindBar:        {"x", "state", "y", "value"},
		KindLine:       {"x", "year", "y", "value", "color", "state"},
		KindScatter:    {"x", "year", "y", "value", "size", "value"},
		KindHeatmap:    {"x", "year", "y", "state", "value", "value"},
		KindGlobe:      {"region", "state", "value", "value"},
		KindPie:        {"theta", "value", "color", "state"},
		KindArea:       {"x", "date", "y", "value"},
		KindComparison: {"x", "year", "y", "value", "group", "state"},
		KindRankedLine: {"x", "year", "y", "value", "series", "state"},
	}
	require.Len(t, args, len(Kinds()))

	for kind, a := range args {
		t.Run(kind, func(t *testing.T) {
			c, err := New(kind, "co2.csv", co2(t), append(a, "title", "CO2")...)
			require.NoError(t, err)
			assert.Equal(t, Schema, c.Spec["$schema"])
			assert.Equal(t, "CO2", c.Spec["title"])

			_, err = json.Marshal(c.Spec)
			require.NoError(t, err)
		})
	}
}

func TestNew_FieldTypes(t *testing.T) {
	c, err := New(KindLine, "co2.csv", co2(t), "x", "date", "y", "value", "color", "year")
	require.NoError(t, err)

	enc := c.Spec["encoding"].(map[string]any)
	assert.Equal(t, map[string]any{"field": "date", "type": "temporal"}, enc["x"])
	assert.Equal(t, map[string]any{"field": "value", "type": "quantitative"}, enc["y"])
	assert.Equal(t, map[string]any{"field": "year", "type": "ordinal"}, enc["color"])
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		kind   string
		args   []string
		code   string
		detail string
	}{
		{"unknown kind", "radar", nil, errors.CodeRouteRender, "radar"},
		{"odd args", KindBar, []string{"x"}, errors.CodeMissingBinding, "pairs"},
		{"missing binding", KindBar, []string{"x", "year"}, errors.CodeMissingBinding, `missing data binding "y"`},
		{"unknown column", KindBar, []string{"x", "year", "y", "emissions"}, errors.CodeMissingBinding, `"emissions"`},
		{"unknown binding", KindPie, []string{"theta", "value", "color", "state", "x", "year"}, errors.CodeMissingBinding, `unknown binding "x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.kind, "co2.csv", co2(t), tt.args...)
			require.Error(t, err)
			se, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, se.Code)
			assert.Contains(t, se.Detail+se.Suggestion, tt.detail)
			assert.True(t, errors.IsRouteRender(err))
		})
	}
}

func TestNew_GlobeLookup(t *testing.T) {
	d, err := dataset.Parse("/emissions.csv", []byte("id,country,emissions\n840,United States,5000\n156,China,11000\n"))
	require.NoError(t, err)

	c, err := New(KindGlobe, "emissions.csv", d, "region", "id", "value", "emissions")
	require.NoError(t, err)

	countries := c.Spec["layer"].([]any)[1].(map[string]any)
	lookup := countries["transform"].([]any)[0].(map[string]any)
	from := lookup["from"].(map[string]any)

	assert.Equal(t, "id", lookup["lookup"])
	assert.Equal(t, "id", from["key"])
	assert.Equal(t, WorldAtlasURL, from["data"].(map[string]any)["url"])
}

func TestRender(t *testing.T) {
	c, err := New(KindBar, "co2.csv", co2(t), "x", "state", "y", "value", "title", "<CO2>")
	require.NoError(t, err)

	out, err := Render(c, "chart-1")
	require.NoError(t, err)
	s := string(out)

	assert.True(t, strings.HasPrefix(s, `<figure class="chart chart-bar" id="chart-1" data-chart="bar" data-src="/co2.csv">`))
	assert.Contains(t, s, `<figcaption>&lt;CO2&gt;</figcaption>`)
	assert.Contains(t, s, `<script type="application/json">`)
	assert.NotContains(t, s, `"<CO2>"`, "spec JSON must not contain raw angle brackets")

	spaced, err := New(KindBar, "my data.csv", co2(t), "x", "state", "y", "value")
	require.NoError(t, err)
	out2, err := Render(spaced, "chart-2")
	require.NoError(t, err)
	assert.Contains(t, string(out2), `data-src="/my%20data.csv"`)

	again, err := Render(c, "chart-1")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestRuntime(t *testing.T) {
	assert.Contains(t, string(Runtime), "vegaEmbed")
	assert.Equal(t, "/_app/charts.js", RuntimePath)
}
