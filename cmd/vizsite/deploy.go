package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vizsite/internal/config"
	"github.com/vango-dev/vizsite/internal/deploy"
)

type deployFlags struct {
	bucket    string
	prefix    string
	region    string
	endpoint  string
	cleanURLs bool
	prune     bool
	dryRun    bool
	build     bool
}

func deployCmd(a *app) *cobra.Command {
	f := &deployFlags{}

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Upload the built output to an S3-compatible bucket",
		Long: `Upload every file listed in the build manifest to a bucket. Assets go
first, then pages, then the manifest. The output must be complete: a file
listed in the manifest but missing on disk aborts the deploy before any
upload.

Credentials are read from AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and
AWS_SESSION_TOKEN.

Examples:
  vizsite deploy --build --bucket=my-site --region=us-east-2
  vizsite deploy --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDeploy(cmd.Context(), cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.bucket, "bucket", "", "Bucket name (default from vizsite.json)")
	cmd.Flags().StringVar(&f.prefix, "prefix", "", `Key prefix (default from vizsite.json, else the base path; "/" for the bucket root)`)
	cmd.Flags().StringVar(&f.region, "region", "", "Bucket region (default from vizsite.json or AWS_REGION)")
	cmd.Flags().StringVar(&f.endpoint, "endpoint", "", "S3-compatible endpoint URL")
	cmd.Flags().BoolVar(&f.cleanURLs, "clean-urls", false, "Also upload pages without their .html extension")
	cmd.Flags().BoolVar(&f.prune, "prune", false, "Delete objects under the prefix that this deploy did not write")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Print the planned uploads without contacting the bucket")
	cmd.Flags().BoolVar(&f.build, "build", false, "Run a production build first")
	return cmd
}

func (a *app) runDeploy(ctx context.Context, cmd *cobra.Command, f *deployFlags) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}

	if f.build {
		bf := &buildFlags{mode: string(config.ModeProduction)}
		if err := a.runBuild(ctx, cmd, bf); err != nil {
			return err
		}
	}

	opts := deploy.Options{
		Output:      cfg.OutputPath(),
		Bucket:      firstNonEmpty(f.bucket, cfg.Deploy.Bucket),
		Prefix:      firstNonEmpty(f.prefix, cfg.Deploy.Prefix),
		Concurrency: cfg.Deploy.Concurrency,
		CleanURLs:   f.cleanURLs,
		Prune:       f.prune,
		DryRun:      f.dryRun,
		Logger:      a.logger,
	}

	var client deploy.Client
	if !f.dryRun {
		c, err := deploy.NewClient(deploy.ClientOptions{
			Region:   firstNonEmpty(f.region, cfg.Deploy.Region),
			Endpoint: firstNonEmpty(f.endpoint, cfg.Deploy.Endpoint),
		})
		if err != nil {
			return err
		}
		client = c
	}

	publisher, err := deploy.NewPublisher(client, opts)
	if err != nil {
		return err
	}
	res, err := publisher.Publish(ctx)
	if err != nil {
		return err
	}

	if f.dryRun {
		for _, o := range res.Plan.Objects {
			info("%-9s %s", o.Phase, o.Key)
		}
		success("Dry run: %d objects would be uploaded to s3://%s", len(res.Plan.Objects), opts.Bucket)
		return nil
	}
	success("Uploaded %d objects (%s) to s3://%s/%s", res.Uploaded, formatBytes(res.Bytes), opts.Bucket, res.Plan.Prefix)
	if res.Deleted > 0 {
		info("Pruned %d stale objects", res.Deleted)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
