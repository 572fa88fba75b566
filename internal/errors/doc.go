// Package errors provides structured, actionable build errors for vizsite.
//
// Every failure in the build is fatal, so an error must say exactly what to
// fix: which route failed to render, which asset path is missing, or which
// configuration value is wrong.
//
// # Error Categories
//
//   - config: invalid or missing vizsite.json values (ConfigurationError)
//   - route: a route could not be prerendered (RouteRenderError)
//   - asset: a reference outside the asset catalog (AssetNotFound)
//   - build: output could not be written
//   - deploy: upload to the hosting bucket failed
//   - cli: command-line usage and server errors
//
// # Usage
//
//	err := errors.AssetNotFound("/missing.csv").
//	    WithRoute("/").
//	    WithSuggestion("Add missing.csv to the static directory")
//
//	errors.Fprint(os.Stderr, err)
//	// error[E220]: Asset not found (route /, asset /missing.csv)
//	//
//	//   The referenced path is not in the static directory.
//	//   hint: Add missing.csv to the static directory
//	//   docs: https://vango.dev/docs/vizsite/errors/E220
//
// FprintJSON writes the same error as one JSON object for log pipelines.
package errors
