package campaign

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"fuzzrun/config"
)

func newTestCampaign(t *testing.T, cfg *config.AppConfig) *Campaign {
	t.Helper()
	return &Campaign{
		logger:    zaptest.NewLogger(t),
		appConfig: cfg,
		done:      make(chan struct{}),
	}
}

func TestLoadTargetsSingleTarget(t *testing.T) {
	c := newTestCampaign(t, &config.AppConfig{
		TargetBinary: "/build/out/fuzz_parser",
		FuzzDuration: 10 * time.Minute,
		ProjectName:  "libxml2",
		OutDir:       t.TempDir(),
	})

	targets, err := c.loadTargets()
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "fuzz_parser", targets[0].Name)
	assert.Equal(t, "libxml2", targets[0].Project)
	assert.Equal(t, 10*time.Minute, targets[0].Duration)
}

func TestLoadTargetsFromPlan(t *testing.T) {
	outDir := t.TempDir()
	planPath := filepath.Join(t.TempDir(), "plan.yaml")
	plan := `targets:
  - binary: /build/out/fuzz_a
    duration: 600
    project: proj-a
  - binary: /build/out/fuzz_b
    duration: 300
`
	require.NoError(t, os.WriteFile(planPath, []byte(plan), 0o644))

	c := newTestCampaign(t, &config.AppConfig{
		RunPlanPath: planPath,
		OutDir:      outDir,
	})

	targets, err := c.loadTargets()
	require.NoError(t, err)
	require.Len(t, targets, 2)

	assert.Equal(t, "fuzz_a", targets[0].Name)
	assert.Equal(t, 10*time.Minute, targets[0].Duration)
	assert.Equal(t, "proj-a", targets[0].Project)
	assert.Equal(t, filepath.Join(outDir, "fuzz_a"), targets[0].OutDir)

	assert.Equal(t, "fuzz_b", targets[1].Name)
	assert.Empty(t, targets[1].Project)
	assert.NotEqual(t, targets[0].OutDir, targets[1].OutDir,
		"plan targets must not share an output directory")
}

func TestLoadTargetsRejectsBrokenPlan(t *testing.T) {
	planPath := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(planPath, []byte("targets: []\n"), 0o644))

	c := newTestCampaign(t, &config.AppConfig{
		RunPlanPath: planPath,
		OutDir:      t.TempDir(),
	})

	_, err := c.loadTargets()
	assert.Error(t, err)
}
