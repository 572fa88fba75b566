package charts

import _ "embed"

// RuntimePath is the URL path the runtime script is emitted at.
const RuntimePath = "/_app/charts.js"

// Runtime is the browser script that draws chart components.
//
//go:embed runtime.js
var Runtime []byte

// LibraryScripts are the charting library scripts every page loads before
// the runtime.
var LibraryScripts = []string{
	"https://cdn.jsdelivr.net/npm/vega@5",
	"https://cdn.jsdelivr.net/npm/vega-lite@5",
	"https://cdn.jsdelivr.net/npm/vega-embed@6",
}
