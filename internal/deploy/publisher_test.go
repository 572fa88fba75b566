package deploy

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vango-dev/vizsite/internal/errors"
	"github.com/vango-dev/vizsite/pkg/assets"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type putCall struct {
	Key             string
	Body            string
	ContentType     string
	ContentEncoding string
	CacheControl    string
}

// fakeClient is an in-memory bucket.
type fakeClient struct {
	mu       sync.Mutex
	puts     []putCall
	existing []string
	deleted  []string
	failKey  string
}

func (c *fakeClient) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	key := aws.ToString(in.Key)
	if key == c.failKey {
		return nil, stderrors.New("access denied")
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts = append(c.puts, putCall{
		Key:             key,
		Body:            string(body),
		ContentType:     aws.ToString(in.ContentType),
		ContentEncoding: aws.ToString(in.ContentEncoding),
		CacheControl:    aws.ToString(in.CacheControl),
	})
	return &s3.PutObjectOutput{}, nil
}

func (c *fakeClient) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range c.existing {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	for _, p := range c.puts {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(p.Key)})
	}
	return out, nil
}

func (c *fakeClient) DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range in.Delete.Objects {
		c.deleted = append(c.deleted, aws.ToString(id.Key))
	}
	return &s3.DeleteObjectsOutput{}, nil
}

func (c *fakeClient) keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, len(c.puts))
	for i, p := range c.puts {
		keys[i] = p.Key
	}
	sort.Strings(keys)
	return keys
}

func (c *fakeClient) put(key string) (putCall, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.puts {
		if p.Key == key {
			return p, true
		}
	}
	return putCall{}, false
}

// writeOutput writes a small exported tree with its manifest.
func writeOutput(t *testing.T, base string) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.html":     "<h1>Home</h1>",
		"movies.html":    "<h1>Movies</h1>",
		"co2.csv":        "year,ppm\n2000,369\n",
		"_app/charts.js": "console.log(1)",
	}
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}

	m := assets.NewManifest(base, "production")
	m.AddRoute("/", "index.html")
	m.AddRoute("/movies", "movies.html")
	m.AddAsset(assets.Asset{Path: "/co2.csv", Size: 18, SHA256: "abc"})
	m.AddGenerated("/_app/charts.js", "_app/charts.js")
	data, err := m.Encode()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, filepath.FromSlash(assets.ManifestPath)), data, 0644))
	return dir
}

func TestPlan(t *testing.T) {
	dir := writeOutput(t, "/CSCI5609GP")
	p, err := NewPublisher(nil, Options{Output: dir, Bucket: "site", DryRun: true})
	require.NoError(t, err)

	plan, err := p.Plan()
	require.NoError(t, err)
	assert.Equal(t, "CSCI5609GP", plan.Prefix)

	type entry struct {
		Key   string
		Phase Phase
		Cache string
	}
	var got []entry
	for _, o := range plan.Objects {
		got = append(got, entry{o.Key, o.Phase, o.CacheControl})
	}
	want := []entry{
		{"CSCI5609GP/_app/charts.js", PhaseAssets, CacheAsset},
		{"CSCI5609GP/co2.csv", PhaseAssets, CacheAsset},
		{"CSCI5609GP/index.html", PhasePages, CacheRevalidate},
		{"CSCI5609GP/movies.html", PhasePages, CacheRevalidate},
		{"CSCI5609GP/_app/manifest.json", PhaseManifest, CacheRevalidate},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_Prefix(t *testing.T) {
	dir := writeOutput(t, "/CSCI5609GP")

	tests := []struct {
		prefix string
		want   string
	}{
		{"", "CSCI5609GP/index.html"},
		{"/", "index.html"},
		{"sites/viz/", "sites/viz/index.html"},
	}
	for _, tt := range tests {
		p, err := NewPublisher(nil, Options{Output: dir, Bucket: "site", Prefix: tt.prefix, DryRun: true})
		require.NoError(t, err)
		plan, err := p.Plan()
		require.NoError(t, err)
		assert.Contains(t, plan.Keys(), tt.want, "prefix %q", tt.prefix)
	}
}

func TestPlan_CleanURLs(t *testing.T) {
	dir := writeOutput(t, "")
	p, err := NewPublisher(nil, Options{Output: dir, Bucket: "site", CleanURLs: true, DryRun: true})
	require.NoError(t, err)

	plan, err := p.Plan()
	require.NoError(t, err)
	keys := plan.Keys()
	assert.Contains(t, keys, "movies")
	assert.Contains(t, keys, "movies.html")
	assert.NotContains(t, keys, "index")
}

func TestPlan_MissingFile(t *testing.T) {
	dir := writeOutput(t, "")
	require.NoError(t, os.Remove(filepath.Join(dir, "co2.csv")))

	client := &fakeClient{}
	p, err := NewPublisher(client, Options{Output: dir, Bucket: "site"})
	require.NoError(t, err)

	_, err = p.Publish(context.Background())
	require.Error(t, err)
	se, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeDeployFailed, se.Code)
	assert.Equal(t, "/co2.csv", se.Asset)
	assert.Empty(t, client.keys(), "nothing may be uploaded from an incomplete tree")
}

func TestPlan_NoManifest(t *testing.T) {
	p, err := NewPublisher(nil, Options{Output: t.TempDir(), Bucket: "site", DryRun: true})
	require.NoError(t, err)

	_, err = p.Plan()
	se, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeManifest, se.Code)
}

func TestPublish(t *testing.T) {
	dir := writeOutput(t, "/CSCI5609GP")
	client := &fakeClient{}
	p, err := NewPublisher(client, Options{Output: dir, Bucket: "site", Concurrency: 2})
	require.NoError(t, err)

	res, err := p.Publish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, res.Uploaded)
	assert.Equal(t, res.Plan.Keys(), client.keys())

	csv, ok := client.put("CSCI5609GP/co2.csv")
	require.True(t, ok)
	assert.Equal(t, "year,ppm\n2000,369\n", csv.Body)
	assert.Equal(t, "text/csv; charset=utf-8", csv.ContentType)
	assert.Equal(t, CacheAsset, csv.CacheControl)

	page, ok := client.put("CSCI5609GP/index.html")
	require.True(t, ok)
	assert.Equal(t, "text/html; charset=utf-8", page.ContentType)
	assert.Equal(t, CacheRevalidate, page.CacheControl)

	// The manifest is the last object written.
	client.mu.Lock()
	last := client.puts[len(client.puts)-1].Key
	client.mu.Unlock()
	assert.Equal(t, "CSCI5609GP/_app/manifest.json", last)
}

func TestPublish_Precompressed(t *testing.T) {
	dir := writeOutput(t, "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "co2.csv.gz"), []byte("gzipped"), 0644))

	client := &fakeClient{}
	p, err := NewPublisher(client, Options{Output: dir, Bucket: "site"})
	require.NoError(t, err)
	_, err = p.Publish(context.Background())
	require.NoError(t, err)

	csv, ok := client.put("co2.csv")
	require.True(t, ok)
	assert.Equal(t, "gzipped", csv.Body)
	assert.Equal(t, "gzip", csv.ContentEncoding)
	assert.Equal(t, "text/csv; charset=utf-8", csv.ContentType)
	assert.NotContains(t, client.keys(), "co2.csv.gz")
}

func TestPublish_FailureStopsLaterPhases(t *testing.T) {
	dir := writeOutput(t, "")
	client := &fakeClient{failKey: "co2.csv"}
	p, err := NewPublisher(client, Options{Output: dir, Bucket: "site", Prune: true})
	require.NoError(t, err)

	_, err = p.Publish(context.Background())
	require.Error(t, err)
	se, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeDeployFailed, se.Code)
	assert.Equal(t, "/co2.csv", se.Asset)

	for _, k := range client.keys() {
		assert.NotEqual(t, "index.html", k)
		assert.NotEqual(t, assets.ManifestPath, k)
	}
	assert.Empty(t, client.deleted)
}

func TestPublish_Prune(t *testing.T) {
	dir := writeOutput(t, "/CSCI5609GP")
	client := &fakeClient{existing: []string{"CSCI5609GP/old.html", "CSCI5609GP/stale.csv"}}
	p, err := NewPublisher(client, Options{Output: dir, Bucket: "site", Prune: true})
	require.NoError(t, err)

	res, err := p.Publish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Deleted)
	assert.Equal(t, []string{"CSCI5609GP/old.html", "CSCI5609GP/stale.csv"}, client.deleted)
}

func TestPublish_DryRun(t *testing.T) {
	dir := writeOutput(t, "")
	p, err := NewPublisher(nil, Options{Output: dir, Bucket: "site", DryRun: true})
	require.NoError(t, err)

	res, err := p.Publish(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Uploaded)
	assert.Len(t, res.Plan.Objects, 5)
}

func TestNewPublisher_Validation(t *testing.T) {
	_, err := NewPublisher(&fakeClient{}, Options{Output: "build"})
	se, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeDeployConfig, se.Code)

	_, err = NewPublisher(nil, Options{Output: "build", Bucket: "site"})
	assert.Error(t, err)
}

func TestNewClient(t *testing.T) {
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_DEFAULT_REGION", "")
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")

	_, err := NewClient(ClientOptions{})
	se, _ := errors.As(err)
	require.NotNil(t, se)
	assert.Equal(t, errors.CodeDeployConfig, se.Code)

	_, err = NewClient(ClientOptions{Region: "us-east-2"})
	se, _ = errors.As(err)
	require.NotNil(t, se)
	assert.Contains(t, se.Detail, "AWS_ACCESS_KEY_ID")

	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDEXAMPLE")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	client, err := NewClient(ClientOptions{Region: "us-east-2", Endpoint: "http://localhost:9000"})
	require.NoError(t, err)
	assert.Equal(t, "us-east-2", client.Options().Region)
	assert.True(t, client.Options().UsePathStyle)
	assert.Equal(t, "http://localhost:9000", aws.ToString(client.Options().BaseEndpoint))

	creds, err := client.Options().Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIDEXAMPLE", creds.AccessKeyID)
}
