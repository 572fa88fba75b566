package main

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vizsite/internal/config"
	"github.com/vango-dev/vizsite/internal/dev"
	"github.com/vango-dev/vizsite/internal/errors"
	"github.com/vango-dev/vizsite/pkg/assets"
	"github.com/vango-dev/vizsite/pkg/routepath"
)

// DefaultPreviewPort is the preview server port when --port is not given.
const DefaultPreviewPort = 4173

func listen(host string, port int) (net.Listener, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, errors.New(errors.CodeServeFailed).Wrap(err)
	}
	return ln, nil
}

func previewCmd(a *app) *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Serve the built output under its base path",
		Long: `Serve the output directory exactly as a static host would, under the
base path recorded in its manifest. Run vizsite build first.

Examples:
  vizsite build --mode=production && vizsite preview`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if host == "" {
				host = cfg.Dev.Host
			}

			output := cfg.OutputPath()
			m, err := assets.Load(filepath.Join(output, filepath.FromSlash(assets.ManifestPath)))
			if err != nil {
				return errors.New(errors.CodeManifest).
					WithDetail(fmt.Sprintf("No build found in %s.", output)).
					WithSuggestion("Run vizsite build first.").
					Wrap(err)
			}

			ln, err := listen(host, port)
			if err != nil {
				return err
			}
			success("Previewing %s build at http://%s%s", m.Mode(), ln.Addr(), routepath.Resolve(m.Base(), "/"))

			handler := dev.NewSiteHandler(dev.SiteOptions{
				Root:   os.DirFS(output),
				Base:   m.Base(),
				Logger: a.logger,
			})
			return dev.Serve(cmd.Context(), ln, handler, a.logger)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", DefaultPreviewPort, "Port to listen on")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from vizsite.json)")
	return cmd
}

func devCmd(a *app) *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Build in development mode, serve and rebuild on change",
		Long: `Build the site with the development base path, serve it and watch the
routes and static directories. Browsers reload after every successful
rebuild and show an overlay when a build fails.

Examples:
  vizsite dev
  vizsite dev --port=8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Dev.Port = port
			}
			if host != "" {
				cfg.Dev.Host = host
			}
			if _, err := cfg.BasePath(config.ModeDevelopment); err != nil {
				return err
			}

			ln, err := listen(cfg.Dev.Host, cfg.Dev.Port)
			if err != nil {
				return err
			}
			success("Dev server at http://%s/", ln.Addr())

			server := dev.NewServer(dev.ServerOptions{
				Config: cfg,
				Logger: a.logger,
			})
			return server.Start(cmd.Context(), ln)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from vizsite.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from vizsite.json)")
	return cmd
}
