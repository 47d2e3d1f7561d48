package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Recorder = NoopRecorder{}
var _ Recorder = (*PrometheusRecorder)(nil)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("rendering", 150*time.Millisecond)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncStageResult("rendering", ResultSuccess)
	pr.IncBuildOutcome("success")
	pr.SetRecordCount("social", 2)
	pr.IncAssetResolved("resized")
	pr.IncPagesRendered(3)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	assert.True(t, names["sitebuilder_stage_duration_seconds"])
	assert.True(t, names["sitebuilder_content_records"])
	assert.True(t, names["sitebuilder_pages_rendered_total"])
}

func TestWriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncBuildOutcome("failed")

	path := filepath.Join(t.TempDir(), "sitebuilder.prom")
	require.NoError(t, pr.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `sitebuilder_build_outcomes_total{outcome="failed"} 1`)
}
