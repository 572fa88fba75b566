// Package charts builds the chart components pages are composed of.
//
// A chart binds a CSV asset and a set of column bindings to a Vega-Lite
// specification. Rendering happens in the browser: the component emits a
// <figure> carrying the specification and a data-src reference to the CSV
// file, and the runtime script (RuntimePath) hands both to vega-embed.
//
//	{{ chart "line" "co2.csv" "x" "year" "y" "value" "title" "CO2 by year" }}
//
// Bindings are checked against the dataset header when the page renders,
// so a misspelled column fails the build rather than an empty chart in the
// browser.
package charts
