package report

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"fuzzrun/internal/types"
)

func newTestReporter(t *testing.T) *crashReporter {
	t.Helper()
	return &crashReporter{
		logger:     zaptest.NewLogger(t),
		crashQueue: "crash_reports",
	}
}

func writeTestCase(t *testing.T, outDir string, content []byte) *types.CrashReport {
	t.Helper()
	testCase := filepath.Join(outDir, "crash-abc123")
	require.NoError(t, os.WriteFile(testCase, content, 0o644))
	return &types.CrashReport{
		RunID:    "run-1",
		Target:   "fuzz_a",
		TestCase: testCase,
		OutDir:   outDir,
	}
}

func TestStoreTestCaseContentAddressed(t *testing.T) {
	outDir := t.TempDir()
	content := []byte("crashing input bytes")
	report := writeTestCase(t, outDir, content)

	r := newTestReporter(t)
	hash, err := r.storeTestCase(report)
	require.NoError(t, err)

	sum := md5.Sum(content)
	assert.Equal(t, hex.EncodeToString(sum[:]), hash)

	stored, err := os.ReadFile(filepath.Join(outDir, "crashes", hash))
	require.NoError(t, err)
	assert.Equal(t, content, stored)
}

func TestStoreTestCaseAnchorsAtOutputDir(t *testing.T) {
	outDir := t.TempDir()
	nested := filepath.Join(outDir, "artifacts")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	testCase := filepath.Join(nested, "crash-nested")
	require.NoError(t, os.WriteFile(testCase, []byte("x"), 0o644))

	r := newTestReporter(t)
	hash, err := r.storeTestCase(&types.CrashReport{
		TestCase: testCase,
		OutDir:   outDir,
	})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(outDir, "crashes", hash),
		"the store lives under the output directory, not next to the artifact")
	assert.NoFileExists(t, filepath.Join(nested, "crashes", hash))
}

func TestReportWithoutSinksStillStoresTestCase(t *testing.T) {
	outDir := t.TempDir()
	content := []byte("kept locally")
	report := writeTestCase(t, outDir, content)

	r := newTestReporter(t)
	r.Report(context.Background(), report)

	sum := md5.Sum(content)
	assert.FileExists(t, filepath.Join(outDir, "crashes", hex.EncodeToString(sum[:])))
}

func TestReportUnreadableTestCase(t *testing.T) {
	outDir := t.TempDir()
	report := &types.CrashReport{
		RunID:    "run-1",
		Target:   "fuzz_a",
		TestCase: filepath.Join(outDir, "does-not-exist"),
		OutDir:   outDir,
	}

	r := newTestReporter(t)
	r.Report(context.Background(), report)

	_, err := os.Stat(filepath.Join(outDir, "crashes"))
	assert.True(t, os.IsNotExist(err), "nothing is stored for an unreadable test case")
}

func TestAlreadySeenWithoutRedis(t *testing.T) {
	r := newTestReporter(t)
	assert.False(t, r.alreadySeen(context.Background(), "deadbeef"),
		"without a dedupe store every crash is fresh")
}
