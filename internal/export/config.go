package export

import (
	"os"

	"github.com/vango-dev/vizsite/internal/config"
	"github.com/vango-dev/vizsite/internal/routes"
	"github.com/vango-dev/vizsite/pkg/assets"
)

// OptionsFromConfig builds export options for a project and mode. The
// route table scans the routes directory and the catalog scans the static
// directory.
func OptionsFromConfig(cfg *config.Config, mode config.Mode) (Options, error) {
	base, err := cfg.BasePath(mode)
	if err != nil {
		return Options{}, err
	}

	catalog, err := assets.NewCatalog(os.DirFS(cfg.StaticPath()))
	if err != nil {
		return Options{}, err
	}

	pagesFS := os.DirFS(cfg.RoutesPath())
	return Options{
		Routes:        routes.NewScanner(pagesFS),
		Pages:         pagesFS,
		Catalog:       catalog,
		Base:          base,
		Mode:          string(mode),
		Output:        cfg.OutputPath(),
		TrailingSlash: cfg.Build.TrailingSlash,
		Concurrency:   cfg.Build.Concurrency,
		Precompress:   cfg.Build.Precompress,
		Site:          cfg.Name,
	}, nil
}
