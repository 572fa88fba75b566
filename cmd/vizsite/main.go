// Command vizsite builds, previews and deploys the data-visualization site.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vango-dev/vizsite/internal/config"
	"github.com/vango-dev/vizsite/internal/errors"
	"github.com/vango-dev/vizsite/internal/logging"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app holds the state shared by every command.
type app struct {
	verbose  bool
	jsonLogs bool
	dir      string
	logger   *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	a := &app{}
	err := a.rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		a.printError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return (&app{}).rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vizsite",
		Short: "Static site builder for data-visualization sites",
		Long: `vizsite turns a directory of page sources and static datasets into a
fully prerendered site that can be hosted under a base path.

Every route is rendered ahead of time, every internal link and asset
reference is rewritten with the base path, and a build that references a
missing asset fails instead of shipping a broken page.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(logging.Options{Verbose: a.verbose, JSON: a.jsonLogs})
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&a.jsonLogs, "json-logs", false, "Log as JSON")
	rootCmd.PersistentFlags().StringVarP(&a.dir, "dir", "C", "", "Project directory (default: nearest directory with vizsite.json)")

	rootCmd.AddCommand(
		createCmd(),
		buildCmd(a),
		checkCmd(a),
		routesCmd(a),
		assetsCmd(a),
		previewCmd(a),
		devCmd(a),
		deployCmd(a),
		versionCmd(),
	)
	return rootCmd
}

// config loads the project configuration from --dir or the working
// directory upwards.
func (a *app) config() (*config.Config, error) {
	start := a.dir
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		start = wd
	}
	root, err := config.FindProjectRoot(start)
	if err != nil {
		return nil, err
	}
	return config.Load(root)
}

// printError reports a failed command: one JSON object with --json-logs,
// the coded terminal format otherwise.
func (a *app) printError(w io.Writer, err error) {
	if a.jsonLogs {
		errors.FprintJSON(w, err)
		return
	}
	errors.Fprint(w, err)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
