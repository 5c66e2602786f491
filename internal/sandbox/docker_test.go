package sandbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"fuzzrun/internal/types"
)

type fakeLookup struct {
	container string
}

func (f *fakeLookup) Current() string { return f.container }

func newTestRunner(t *testing.T, container string) *dockerRunner {
	t.Helper()
	return &dockerRunner{
		logger: zaptest.NewLogger(t),
		image:  "gcr.io/oss-fuzz-base/base-runner",
		lookup: &fakeLookup{container: container},
	}
}

func newTestTarget(t *testing.T) *types.FuzzTarget {
	t.Helper()
	target, err := types.NewFuzzTarget("/build/out/fuzz_parser", time.Minute, t.TempDir(), "zlib")
	require.NoError(t, err)
	return target
}

func TestFuzzArgsBindMount(t *testing.T) {
	target := newTestTarget(t)
	args := newTestRunner(t, "").fuzzArgs(target, "")

	assert.Equal(t, []string{
		"run", "--rm", "--privileged",
		"-v", target.OutDir + ":/out",
		"-e", "FUZZING_ENGINE=libfuzzer",
		"-e", "SANITIZER=address",
		"-e", "RUN_FUZZER_MODE=interactive",
		"gcr.io/oss-fuzz-base/base-runner",
		"bash", "-c",
		"run_fuzzer fuzz_parser -seed=1337 -len_control=0",
	}, args)
}

func TestFuzzArgsAmbientContainer(t *testing.T) {
	target := newTestTarget(t)
	args := newTestRunner(t, "ci-container").fuzzArgs(target, "")

	assert.Contains(t, args, "--volumes-from")
	assert.Contains(t, args, "ci-container")
	assert.Contains(t, args, "OUT="+target.OutDir)
	assert.NotContains(t, args, target.OutDir+":/out")
}

func TestFuzzArgsAppendCorpusDir(t *testing.T) {
	target := newTestTarget(t)
	args := newTestRunner(t, "").fuzzArgs(target, "/out/corpus/fuzz_parser")

	assert.Equal(t,
		"run_fuzzer fuzz_parser -seed=1337 -len_control=0 /out/corpus/fuzz_parser",
		args[len(args)-1])
}

func TestReproduceArgs(t *testing.T) {
	target := newTestTarget(t)
	args := newTestRunner(t, "").reproduceArgs(target, "/out/crash-abc123")

	assert.Equal(t, []string{
		"run", "--rm", "--privileged",
		"-v", "/build/out:/out",
		"-v", "/out/crash-abc123:/testcase",
		"-t", "gcr.io/oss-fuzz-base/base-runner",
		"reproduce", "fuzz_parser", "-runs=100",
	}, args)
}
