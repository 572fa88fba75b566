package telemetry

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics()

	m.RecordRender(10*time.Millisecond, nil)
	m.RecordRender(20*time.Millisecond, nil)
	m.RecordRender(5*time.Millisecond, stderrors.New("boom"))
	m.RecordAsset(100)
	m.RecordAsset(50)
	m.RecordOutput("page", 1000)
	m.RecordBuild(time.Second, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.routesTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.routesTotal.WithLabelValues("error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.assetsCopied))
	assert.Equal(t, 150.0, testutil.ToFloat64(m.outputBytes.WithLabelValues("asset")))
	assert.Equal(t, 1000.0, testutil.ToFloat64(m.outputBytes.WithLabelValues("page")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.buildDuration))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.buildsTotal.WithLabelValues("ok")))
}

func TestMetrics_PrivateRegistries(t *testing.T) {
	// Two builds in one process must not collide on registration.
	a := NewMetrics()
	b := NewMetrics(WithNamespace("other"))
	assert.NotSame(t, a.Registry(), b.Registry())
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRender(time.Millisecond, nil)
		m.RecordAsset(1)
		m.RecordOutput("page", 1)
		m.RecordBuild(time.Second, nil)
	})
}

func TestMetrics_WriteFile(t *testing.T) {
	m := NewMetrics()
	m.RecordRender(time.Millisecond, nil)

	path := filepath.Join(t.TempDir(), "build.prom")
	require.NoError(t, m.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `vizsite_routes_rendered_total{status="ok"} 1`)
	assert.Contains(t, string(data), "vizsite_route_render_seconds_bucket")
}

func TestSpans(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer(TracerName)

	ctx, build := StartBuild(context.Background(), tracer, "production", "/CSCI5609GP")
	_, route := StartRoute(ctx, tracer, "/", "/")
	_, deploy := StartDeploy(context.Background(), tracer, "site-bucket", "CSCI5609GP")

	assert.NotPanics(t, func() {
		End(route, stderrors.New("boom"))
		End(build, nil)
		End(deploy, nil)
	})
	assert.NotNil(t, Tracer())
}
