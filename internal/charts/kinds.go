package charts

import "sort"

// Kind names.
const (
	KindBar        = "bar"
	KindLine       = "line"
	KindScatter    = "scatter"
	KindHeatmap    = "heatmap"
	KindGlobe      = "globe"
	KindPie        = "pie"
	KindArea       = "area"
	KindComparison = "comparison"
	KindRankedLine = "ranked-line"
)

// Options are bindings that are not dataset columns.
var Options = []string{"title", "width", "height"}

// WorldAtlasURL is the topology the globe component draws countries from.
const WorldAtlasURL = "https://cdn.jsdelivr.net/npm/vega-datasets@2/data/world-110m.json"

// WorldAtlasKey is the feature field the region column is joined on. The
// atlas countries carry only a numeric ISO 3166 id.
const WorldAtlasKey = "id"

// Kind describes a chart component: the column bindings it needs and how
// it turns them into a Vega-Lite specification.
type Kind struct {
	Name string

	// Required are the column bindings every use must supply.
	Required []string

	// Optional are column bindings that may be omitted.
	Optional []string

	build func(b binder) map[string]any
}

var registry = map[string]*Kind{}

func register(k *Kind) {
	registry[k.Name] = k
}

// Lookup returns the kind registered under name.
func Lookup(name string) (*Kind, bool) {
	k, ok := registry[name]
	return k, ok
}

// Kinds returns the registered kind names, sorted.
func Kinds() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	register(&Kind{
		Name:     KindBar,
		Required: []string{"x", "y"},
		Optional: []string{"color"},
		build: func(b binder) map[string]any {
			enc := map[string]any{
				"x": b.field("x", true),
				"y": b.field("y", false),
			}
			b.optional(enc, "color")
			return b.spec(map[string]any{"type": "bar", "tooltip": true}, enc)
		},
	})

	register(&Kind{
		Name:     KindLine,
		Required: []string{"x", "y"},
		Optional: []string{"color"},
		build: func(b binder) map[string]any {
			enc := map[string]any{
				"x": b.field("x", false),
				"y": b.field("y", false),
			}
			b.optional(enc, "color")
			return b.spec(map[string]any{"type": "line", "point": true, "tooltip": true}, enc)
		},
	})

	register(&Kind{
		Name:     KindScatter,
		Required: []string{"x", "y"},
		Optional: []string{"color", "size"},
		build: func(b binder) map[string]any {
			enc := map[string]any{
				"x": b.field("x", false),
				"y": b.field("y", false),
			}
			b.optional(enc, "color")
			b.optional(enc, "size")
			return b.spec(map[string]any{"type": "point", "filled": true, "tooltip": true}, enc)
		},
	})

	register(&Kind{
		Name:     KindHeatmap,
		Required: []string{"x", "y", "value"},
		build: func(b binder) map[string]any {
			color := b.field("value", false)
			color["scale"] = map[string]any{"scheme": "viridis"}
			enc := map[string]any{
				"x":     b.field("x", true),
				"y":     b.field("y", true),
				"color": color,
			}
			return b.spec(map[string]any{"type": "rect", "tooltip": true}, enc)
		},
	})

	register(&Kind{
		Name:     KindGlobe,
		Required: []string{"region", "value"},
		build: func(b binder) map[string]any {
			region := b.columns["region"]
			value := b.columns["value"]
			spec := b.base()
			spec["projection"] = map[string]any{"type": "orthographic"}
			spec["layer"] = []any{
				map[string]any{
					"data": map[string]any{"sphere": true},
					"mark": map[string]any{"type": "geoshape", "fill": "#e8f1fa"},
				},
				map[string]any{
					"mark": map[string]any{"type": "geoshape", "stroke": "white", "tooltip": true},
					"transform": []any{
						map[string]any{
							"lookup": region,
							"from": map[string]any{
								"data": map[string]any{
									"url":    WorldAtlasURL,
									"format": map[string]any{"type": "topojson", "feature": "countries"},
								},
								"key": WorldAtlasKey,
							},
							"as": "geo",
						},
					},
					"encoding": map[string]any{
						"shape": map[string]any{"field": "geo", "type": "geojson"},
						"color": map[string]any{
							"field": value,
							"type":  b.fieldType(value),
							"scale": map[string]any{"scheme": "reds"},
						},
					},
				},
			}
			return spec
		},
	})

	register(&Kind{
		Name:     KindPie,
		Required: []string{"theta", "color"},
		build: func(b binder) map[string]any {
			theta := b.field("theta", false)
			theta["stack"] = true
			enc := map[string]any{
				"theta": theta,
				"color": b.field("color", true),
			}
			return b.spec(map[string]any{"type": "arc", "tooltip": true}, enc)
		},
	})

	register(&Kind{
		Name:     KindArea,
		Required: []string{"x", "y"},
		Optional: []string{"color"},
		build: func(b binder) map[string]any {
			enc := map[string]any{
				"x": b.field("x", false),
				"y": b.field("y", false),
			}
			b.optional(enc, "color")
			return b.spec(map[string]any{"type": "area", "line": true, "tooltip": true}, enc)
		},
	})

	register(&Kind{
		Name:     KindComparison,
		Required: []string{"x", "y", "group"},
		build: func(b binder) map[string]any {
			enc := map[string]any{
				"x":       b.field("x", true),
				"y":       b.field("y", false),
				"xOffset": b.field("group", true),
				"color":   b.field("group", true),
			}
			return b.spec(map[string]any{"type": "bar", "tooltip": true}, enc)
		},
	})

	register(&Kind{
		Name:     KindRankedLine,
		Required: []string{"x", "y", "series"},
		build: func(b binder) map[string]any {
			y := b.field("y", false)
			y["scale"] = map[string]any{"reverse": true}
			y["title"] = "Rank"
			enc := map[string]any{
				"x":     b.field("x", true),
				"y":     y,
				"color": b.field("series", true),
			}
			return b.spec(map[string]any{"type": "line", "point": true, "tooltip": true}, enc)
		},
	})
}
