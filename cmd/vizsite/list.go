package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vizsite/internal/config"
	"github.com/vango-dev/vizsite/internal/routes"
	"github.com/vango-dev/vizsite/pkg/assets"
	"github.com/vango-dev/vizsite/pkg/routepath"
)

func routesCmd(a *app) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List every prerendered pathname",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			base, err := cfg.BasePath(config.ModeFromEnv(mode))
			if err != nil {
				return err
			}

			pages, err := routes.Pages(routes.NewScanner(os.DirFS(cfg.RoutesPath())))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, p := range pages {
				href := routepath.Resolve(base, routes.Href(p.Pathname, cfg.Build.TrailingSlash))
				file := routes.OutputFile(p.Pathname, cfg.Build.TrailingSlash)
				fmt.Fprintf(out, "%-32s %-24s %-28s %s\n", href, p.Route.ID, file, p.Route.Source)
			}
			fmt.Fprintf(out, "\n%d pathnames\n", len(pages))
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Mode whose base path prefixes the listed URLs")
	return cmd
}

func assetsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "List the asset catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			catalog, err := assets.NewCatalog(os.DirFS(cfg.StaticPath()))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var total int64
			for _, asset := range catalog.Assets() {
				ctype, _, _ := strings.Cut(asset.ContentType, ";")
				fmt.Fprintf(out, "%-40s %10s  %-24s %s\n", asset.Path, formatBytes(asset.Size), ctype, asset.SHA256[:12])
				total += asset.Size
			}
			fmt.Fprintf(out, "\n%d assets, %s\n", catalog.Len(), formatBytes(total))
			return nil
		},
	}
	return cmd
}
