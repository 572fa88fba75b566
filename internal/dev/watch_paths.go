package dev

import (
	"path/filepath"
	"sort"

	"github.com/vango-dev/vizsite/internal/config"
)

// CollectWatchPaths returns the deduplicated paths the dev server watches:
// the routes and static directories, dev.watch entries and the config file.
// The output directory is never watched.
func CollectWatchPaths(cfg *config.Config) []string {
	paths := append(cfg.WatchPaths(), cfg.Path())
	output := filepath.Clean(cfg.OutputPath())

	unique := make([]string, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		clean := filepath.Clean(p)
		if clean == output || isWithinDir(clean, output) {
			continue
		}
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		unique = append(unique, clean)
	}
	return unique
}

// needsFullReload reports whether a batch touches anything but stylesheets.
func needsFullReload(changes []Change) bool {
	for _, c := range changes {
		if c.Type != ChangeCSS {
			return true
		}
	}
	return false
}

func sortChanges(changes []Change) {
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
}
