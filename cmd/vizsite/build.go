package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vizsite/internal/config"
	"github.com/vango-dev/vizsite/internal/export"
	"github.com/vango-dev/vizsite/internal/telemetry"
)

type buildFlags struct {
	mode        string
	output      string
	metricsFile string
	concurrency int
	precompress bool
}

func (f *buildFlags) register(cmd *cobra.Command, withOutput bool) {
	cmd.Flags().StringVarP(&f.mode, "mode", "m", "", "Build mode: development or production (default from VIZSITE_MODE or NODE_ENV)")
	cmd.Flags().IntVarP(&f.concurrency, "concurrency", "j", 0, "Pages rendered in parallel (default from vizsite.json)")
	if withOutput {
		cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output directory (default from vizsite.json)")
		cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "Write build metrics in Prometheus text format to this file")
		cmd.Flags().BoolVar(&f.precompress, "precompress", false, "Write .gz files next to compressible output")
	}
}

// exportOptions resolves the export options for the project and flags.
func (a *app) exportOptions(cmd *cobra.Command, f *buildFlags) (export.Options, config.Mode, error) {
	cfg, err := a.config()
	if err != nil {
		return export.Options{}, "", err
	}
	if f.output != "" {
		cfg.Build.Output = f.output
	}
	if f.concurrency > 0 {
		cfg.Build.Concurrency = f.concurrency
	}
	if cmd.Flags().Changed("precompress") {
		cfg.Build.Precompress = f.precompress
	}

	mode := config.ModeFromEnv(f.mode)
	opts, err := export.OptionsFromConfig(cfg, mode)
	if err != nil {
		return export.Options{}, "", err
	}
	opts.Logger = a.logger
	return opts, mode, nil
}

func buildCmd(a *app) *cobra.Command {
	f := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Prerender the site into the output directory",
		Long: `Prerender every route, copy the static assets and write the output tree.

The base path comes from the "base" map in vizsite.json for the selected
mode. The previous output is replaced only when the whole build succeeds.

Examples:
  vizsite build
  vizsite build --mode=production
  NODE_ENV=production vizsite build --precompress`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBuild(cmd.Context(), cmd, f)
		},
	}
	f.register(cmd, true)
	return cmd
}

func (a *app) runBuild(ctx context.Context, cmd *cobra.Command, f *buildFlags) error {
	opts, mode, err := a.exportOptions(cmd, f)
	if err != nil {
		return err
	}

	metrics := telemetry.NewMetrics()
	opts.Metrics = metrics
	opts.OnProgress = func(step string) { info(step) }

	b, err := export.New(opts)
	if err != nil {
		return err
	}

	fmt.Printf("  Building %s (base %q)...\n\n", mode, opts.Base)
	res, err := b.Build(ctx)

	if f.metricsFile != "" {
		if werr := metrics.WriteFile(f.metricsFile); werr != nil {
			warn("could not write metrics: %v", werr)
		}
	}
	if err != nil {
		return err
	}

	fmt.Println()
	success("Built %d pages and %d assets in %s", res.Pages, res.Assets, res.Duration.Round(time.Millisecond))
	info("Output: %s (%s)", res.Output, formatBytes(res.Bytes))
	return nil
}

func checkCmd(a *app) *cobra.Command {
	f := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Render every route in memory and verify all references",
		Long: `Run the whole export without writing anything: every route must
prerender and every internal link and asset reference must resolve.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, mode, err := a.exportOptions(cmd, f)
			if err != nil {
				return err
			}
			b, err := export.New(opts)
			if err != nil {
				return err
			}

			out, err := b.Render(cmd.Context())
			if err != nil {
				return err
			}

			refs := 0
			for _, p := range out.Pages {
				refs += len(p.References)
				if a.verbose {
					info("%-32s %s (%d references)", p.Pathname, p.File, len(p.References))
				}
			}
			success("%d pages, %d assets and %d references OK (%s, base %q)",
				len(out.Pages), len(out.Assets), refs, mode, opts.Base)
			return nil
		},
	}
	f.register(cmd, false)
	return cmd
}
