// Package deploy publishes an exported output tree to an S3-compatible
// bucket.
//
// The manifest written by the build is the source of truth: only files it
// lists are uploaded, and an output tree that does not match its manifest
// is refused before anything is sent. Uploads run in three phases: assets
// and generated files, then pages, then the manifest itself. A failing
// phase stops the deploy so pages never reference assets that were not
// uploaded.
package deploy
