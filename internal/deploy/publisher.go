package deploy

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/vizsite/internal/errors"
	"github.com/vango-dev/vizsite/internal/logging"
	"github.com/vango-dev/vizsite/internal/telemetry"
	"github.com/vango-dev/vizsite/pkg/assets"
)

// DefaultConcurrency is the number of parallel uploads when
// Options.Concurrency is not set.
const DefaultConcurrency = 8

// deleteBatch is the most keys a DeleteObjects call accepts.
const deleteBatch = 1000

// Cache-Control values. Pages and the manifest must be revalidated so a
// new deploy is visible at once.
const (
	CacheRevalidate = "no-cache"
	CacheAsset      = "public, max-age=3600"
)

// Phase orders uploads.
type Phase int

const (
	PhaseAssets Phase = iota
	PhasePages
	PhaseManifest
)

func (p Phase) String() string {
	switch p {
	case PhaseAssets:
		return "assets"
	case PhasePages:
		return "pages"
	default:
		return "manifest"
	}
}

// Options configures a publisher.
type Options struct {
	// Output is the exported output directory.
	Output string

	// Bucket is the destination bucket.
	Bucket string

	// Prefix is prepended to every key. Empty mirrors the build's base
	// path ("/CSCI5609GP" uploads under "CSCI5609GP/"); "/" uploads to the
	// bucket root.
	Prefix string

	// Concurrency bounds parallel uploads.
	Concurrency int

	// CleanURLs also uploads "movies.html" as "movies" so hosts without
	// extension fallback serve extensionless links.
	CleanURLs bool

	// Prune deletes objects under the prefix that the deploy did not write.
	Prune bool

	// DryRun plans the deploy without contacting the bucket.
	DryRun bool

	// Logger receives one line per upload.
	Logger *zap.Logger

	// Tracer traces the deploy. Defaults to the global tracer.
	Tracer trace.Tracer
}

// Object is one planned upload.
type Object struct {
	Key             string
	File            string
	Size            int64
	ContentType     string
	ContentEncoding string
	CacheControl    string
	Phase           Phase
}

// Plan is the ordered set of uploads for an output tree.
type Plan struct {
	Manifest *assets.Manifest
	Prefix   string
	Objects  []Object
}

// Keys returns every key the plan writes, sorted.
func (p *Plan) Keys() []string {
	keys := make([]string, len(p.Objects))
	for i, o := range p.Objects {
		keys[i] = o.Key
	}
	sort.Strings(keys)
	return keys
}

// Result describes a finished deploy.
type Result struct {
	Plan     *Plan
	Uploaded int
	Deleted  int
	Bytes    int64
}

// Publisher uploads an output tree to a bucket.
type Publisher struct {
	client  Client
	options Options
	logger  *zap.Logger
}

// NewPublisher creates a publisher. client may be nil for a dry run.
func NewPublisher(client Client, options Options) (*Publisher, error) {
	if options.Bucket == "" {
		return nil, errors.New(errors.CodeDeployConfig)
	}
	if options.Output == "" {
		return nil, errors.New(errors.CodeDeployConfig).WithDetail("No output directory to deploy.")
	}
	if client == nil && !options.DryRun {
		return nil, errors.New(errors.CodeDeployConfig).WithDetail("No S3 client configured.")
	}
	if options.Concurrency <= 0 {
		options.Concurrency = DefaultConcurrency
	}
	if options.Tracer == nil {
		options.Tracer = telemetry.Tracer()
	}
	return &Publisher{
		client:  client,
		options: options,
		logger:  logging.OrNop(options.Logger),
	}, nil
}

// Plan loads the manifest and checks every file it lists exists in the
// output directory.
func (p *Publisher) Plan() (*Plan, error) {
	manifestFile := filepath.Join(p.options.Output, filepath.FromSlash(assets.ManifestPath))
	m, err := assets.Load(manifestFile)
	if err != nil {
		return nil, errors.New(errors.CodeManifest).
			WithDetail(fmt.Sprintf("Cannot read %s. Run vizsite build first.", manifestFile)).
			Wrap(err)
	}

	prefix := p.options.Prefix
	if prefix == "" {
		prefix = m.Base()
	}
	prefix = strings.Trim(prefix, "/")

	pages := make(map[string]bool)
	for _, pathname := range m.Routes() {
		if f, ok := m.RouteFile(pathname); ok {
			pages[f] = true
		}
	}

	plan := &Plan{Manifest: m, Prefix: prefix}
	for _, f := range m.Files() {
		phase := PhaseAssets
		if pages[f] {
			phase = PhasePages
		}
		obj, err := p.object(prefix, f, phase)
		if err != nil {
			return nil, err
		}
		plan.Objects = append(plan.Objects, obj)

		if phase == PhasePages && p.options.CleanURLs && path.Base(f) != "index.html" {
			clean := obj
			clean.Key = key(prefix, strings.TrimSuffix(f, ".html"))
			plan.Objects = append(plan.Objects, clean)
		}
	}

	obj, err := p.object(prefix, assets.ManifestPath, PhaseManifest)
	if err != nil {
		return nil, err
	}
	plan.Objects = append(plan.Objects, obj)

	sort.SliceStable(plan.Objects, func(i, j int) bool {
		a, b := plan.Objects[i], plan.Objects[j]
		if a.Phase != b.Phase {
			return a.Phase < b.Phase
		}
		return a.Key < b.Key
	})
	return plan, nil
}

// object describes the upload of file, preferring a precompressed copy.
func (p *Publisher) object(prefix, file string, phase Phase) (Object, error) {
	local := filepath.Join(p.options.Output, filepath.FromSlash(file))
	info, err := os.Stat(local)
	if err != nil || info.IsDir() {
		return Object{}, errors.New(errors.CodeDeployFailed).
			WithAsset("/" + file).
			WithDetail(fmt.Sprintf("%s is listed in the manifest but missing from %s.", file, p.options.Output)).
			WithSuggestion("Rebuild before deploying.")
	}

	obj := Object{
		Key:          key(prefix, file),
		File:         file,
		Size:         info.Size(),
		ContentType:  assets.ContentType(file),
		CacheControl: CacheAsset,
		Phase:        phase,
	}
	if phase != PhaseAssets {
		obj.CacheControl = CacheRevalidate
	}
	if gz, err := os.Stat(local + ".gz"); err == nil && !gz.IsDir() {
		obj.File = file + ".gz"
		obj.Size = gz.Size()
		obj.ContentEncoding = "gzip"
	}
	return obj, nil
}

func key(prefix, file string) string {
	if prefix == "" {
		return file
	}
	return prefix + "/" + file
}

// Publish uploads the output tree phase by phase and prunes stale objects
// when asked. Nothing is pruned unless every upload succeeded.
func (p *Publisher) Publish(ctx context.Context) (res *Result, err error) {
	ctx, span := telemetry.StartDeploy(ctx, p.options.Tracer, p.options.Bucket, p.options.Prefix)
	defer func() { telemetry.End(span, err) }()

	plan, err := p.Plan()
	if err != nil {
		return nil, err
	}
	res = &Result{Plan: plan}
	if p.options.DryRun {
		for _, o := range plan.Objects {
			p.logger.Info("would upload", zap.String("key", o.Key), zap.String("file", o.File))
		}
		return res, nil
	}

	var uploaded, written atomic.Int64
	for _, phase := range []Phase{PhaseAssets, PhasePages, PhaseManifest} {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.options.Concurrency)
		for _, obj := range plan.Objects {
			if obj.Phase != phase {
				continue
			}
			g.Go(func() error {
				if err := p.upload(gctx, obj); err != nil {
					return err
				}
				uploaded.Add(1)
				written.Add(obj.Size)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			if ctx.Err() != nil {
				return nil, errors.New(errors.CodeDeployFailed).
					WithDetail(fmt.Sprintf("Deploy interrupted during the %s phase.", phase)).
					Wrap(ctx.Err())
			}
			return nil, err
		}
		p.logger.Debug("phase uploaded", zap.Stringer("phase", phase))
	}
	res.Uploaded = int(uploaded.Load())
	res.Bytes = written.Load()

	if p.options.Prune {
		deleted, err := p.prune(ctx, plan)
		if err != nil {
			return nil, err
		}
		res.Deleted = deleted
	}
	return res, nil
}

func (p *Publisher) upload(ctx context.Context, obj Object) error {
	data, err := os.ReadFile(filepath.Join(p.options.Output, filepath.FromSlash(obj.File)))
	if err != nil {
		return errors.New(errors.CodeDeployFailed).WithAsset("/" + obj.File).Wrap(err)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(p.options.Bucket),
		Key:           aws.String(obj.Key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(obj.ContentType),
		CacheControl:  aws.String(obj.CacheControl),
	}
	if obj.ContentEncoding != "" {
		input.ContentEncoding = aws.String(obj.ContentEncoding)
	}

	if _, err := p.client.PutObject(ctx, input); err != nil {
		return errors.New(errors.CodeDeployFailed).
			WithAsset("/" + obj.File).
			WithDetail(fmt.Sprintf("Uploading %s to s3://%s/%s failed.", obj.File, p.options.Bucket, obj.Key)).
			Wrap(err)
	}
	p.logger.Info("uploaded", zap.String("key", obj.Key), zap.Int("bytes", len(data)))
	return nil
}

// prune deletes keys under the plan's prefix that the plan did not write.
func (p *Publisher) prune(ctx context.Context, plan *Plan) (int, error) {
	keep := make(map[string]bool, len(plan.Objects))
	for _, o := range plan.Objects {
		keep[o.Key] = true
	}

	listPrefix := plan.Prefix
	if listPrefix != "" {
		listPrefix += "/"
	}
	pager := s3.NewListObjectsV2Paginator(p.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(p.options.Bucket),
		Prefix: aws.String(listPrefix),
	})

	var stale []string
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return 0, errors.New(errors.CodeDeployFailed).WithDetail("Listing the bucket failed.").Wrap(err)
		}
		for _, obj := range page.Contents {
			if k := aws.ToString(obj.Key); !keep[k] {
				stale = append(stale, k)
			}
		}
	}
	sort.Strings(stale)

	deleted := 0
	for start := 0; start < len(stale); start += deleteBatch {
		end := min(start+deleteBatch, len(stale))
		ids := make([]types.ObjectIdentifier, 0, end-start)
		for _, k := range stale[start:end] {
			ids = append(ids, types.ObjectIdentifier{Key: aws.String(k)})
		}
		out, err := p.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(p.options.Bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return deleted, errors.New(errors.CodeDeployFailed).WithDetail("Deleting stale objects failed.").Wrap(err)
		}
		if len(out.Errors) > 0 {
			e := out.Errors[0]
			return deleted, errors.New(errors.CodeDeployFailed).
				WithDetail(fmt.Sprintf("Deleting %s failed: %s", aws.ToString(e.Key), aws.ToString(e.Message)))
		}
		deleted += len(ids)
		p.logger.Info("pruned", zap.Int("objects", len(ids)))
	}
	return deleted, nil
}
