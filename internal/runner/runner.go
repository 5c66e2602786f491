package runner

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"fuzzrun/internal/corpus"
	"fuzzrun/internal/extract"
	"fuzzrun/internal/report"
	"fuzzrun/internal/sandbox"
	"fuzzrun/internal/types"
	"fuzzrun/pkg/telemetry"
	"fuzzrun/pkg/watchdog"
)

// reproduceAttempts bounds the confirmation loop. The first reproducing
// trial short-circuits; a candidate that never reproduces is discarded.
const reproduceAttempts = 10

// FuzzRunner drives one fuzz target through the run lifecycle: stage a seed
// corpus, execute bounded, extract a test case reference from the diagnostic
// output, and confirm the crash reproduces before surfacing it.
type FuzzRunner struct {
	logger        *zap.Logger
	sandbox       sandbox.Sandbox
	extractor     extract.Extractor
	fetcher       corpus.Fetcher
	reporter      report.Reporter
	watchdogFac   *watchdog.Factory
	tracerFactory *telemetry.TracerFactory
}

type FuzzRunnerParams struct {
	fx.In

	Logger        *zap.Logger
	Sandbox       sandbox.Sandbox
	Extractor     extract.Extractor
	Fetcher       corpus.Fetcher
	Reporter      report.Reporter
	WatchdogFac   *watchdog.Factory
	TracerFactory *telemetry.TracerFactory
}

func NewFuzzRunner(p FuzzRunnerParams) *FuzzRunner {
	return &FuzzRunner{
		logger:        p.Logger,
		sandbox:       p.Sandbox,
		extractor:     p.Extractor,
		fetcher:       p.Fetcher,
		reporter:      p.Reporter,
		watchdogFac:   p.WatchdogFac,
		tracerFactory: p.TracerFactory,
	}
}

// Fuzz runs one target for its configured budget. It returns a CrashReport
// only for a confirmed, reproducible crash; a timeout, an output without a
// test case reference, or an unreproducible candidate all return nil.
// Sandbox launch failures propagate as errors and are not retried.
func (r *FuzzRunner) Fuzz(ctx context.Context, target *types.FuzzTarget) (*types.CrashReport, error) {
	runID := uuid.New().String()
	logger := r.logger.With(
		zap.String("target", target.Name),
		zap.String("run_id", runID))

	tracer := r.tracerFactory.NewTracer(ctx, "fuzzing "+target.Name)
	tracer.Start()
	defer tracer.End()

	corpusDir := r.stageCorpus(ctx, logger, tracer, target)

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	r.watchArtifacts(watchCtx, logger, target.OutDir)

	logger.Info("fuzzer started", zap.Duration("budget", target.Duration))
	tracer.AddEvent("run_started", nil)

	result, err := r.sandbox.RunFuzzer(ctx, target, corpusDir)
	if err != nil {
		return nil, err
	}
	if result.TimedOut {
		// the expected common case: no crash within the budget
		logger.Info("fuzzer finished with timeout",
			zap.Stringer("outcome", types.TimedOut))
		tracer.AddEvent("run_timed_out", nil)
		return nil, nil
	}
	logger.Info("fuzzer ended before timeout")

	testCase, ok := r.extractor.TestCasePath(result.Diagnostic, target.OutDir)
	if !ok {
		logger.Error("no test case found in diagnostic output",
			zap.Stringer("outcome", types.NoCrashDetected))
		return nil, nil
	}
	tracer.AddEvent("test_case_found", map[string]string{
		"test_case": filepath.Base(testCase),
	})

	if !r.isReproducible(ctx, logger, tracer, target, testCase) {
		logger.Error("a crash was found but it was not reproducible",
			zap.String("test_case", testCase))
		return nil, nil
	}

	crash := &types.CrashReport{
		RunID:      runID,
		Target:     target.Name,
		Project:    target.Project,
		TestCase:   testCase,
		OutDir:     target.OutDir,
		Diagnostic: result.Diagnostic,
		DetectedAt: time.Now(),
	}
	logger.Info("confirmed reproducible crash",
		zap.Stringer("outcome", types.Crashed),
		zap.String("test_case", testCase))
	r.reporter.Report(ctx, crash)

	return crash, nil
}

// stageCorpus fetches the backup corpus when the target names a project.
// A missing corpus is a normal condition; the run proceeds without seeds.
func (r *FuzzRunner) stageCorpus(ctx context.Context, logger *zap.Logger, tracer telemetry.Tracer, target *types.FuzzTarget) string {
	corpusTracer := tracer.Spawn("staging corpus")
	corpusTracer.Start()
	defer corpusTracer.End()

	corpusDir, err := r.fetcher.Download(ctx, target)
	if err != nil {
		if errors.Is(err, corpus.ErrNoCorpus) {
			logger.Info("no seed corpus available, fuzzing without seeds")
		} else {
			logger.Warn("corpus staging failed, fuzzing without seeds", zap.Error(err))
		}
		return ""
	}
	return corpusDir
}

// isReproducible replays the suspect test case in the sandbox's reproduce
// mode, up to reproduceAttempts synchronous trials. Any trial observing a
// failure signal confirms the crash immediately. A trial that fails to
// launch counts as non-reproducing.
func (r *FuzzRunner) isReproducible(ctx context.Context, logger *zap.Logger, tracer telemetry.Tracer, target *types.FuzzTarget, testCase string) bool {
	confirmTracer := tracer.Spawn("confirming crash")
	confirmTracer.Start()
	defer confirmTracer.End()

	for attempt := 1; attempt <= reproduceAttempts; attempt++ {
		crashed, err := r.sandbox.Reproduce(ctx, target, testCase)
		if err != nil {
			logger.Warn("reproduce trial failed to launch",
				zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		if crashed {
			logger.Info("crash reproduced", zap.Int("attempt", attempt))
			confirmTracer.AddEvent("crash_reproduced", map[string]string{
				"attempt": strconv.Itoa(attempt),
			})
			return true
		}
	}
	confirmTracer.AddEvent("crash_not_reproduced", nil)
	return false
}

// watchArtifacts logs artifact files the sandboxed process writes into the
// output directory while it runs. Informational only; detection stays
// log-scrape based.
func (r *FuzzRunner) watchArtifacts(ctx context.Context, logger *zap.Logger, outDir string) {
	notifyChan, err := r.watchdogFac.Watch(ctx, outDir, isArtifactFile)
	if err != nil {
		logger.Warn("failed to watch output directory", zap.Error(err))
		return
	}
	go func() {
		for artifact := range notifyChan {
			logger.Info("artifact written", zap.String("file", artifact))
		}
	}()
}

// isArtifactFile matches the artifact prefixes libFuzzer uses for failing
// inputs.
func isArtifactFile(path string) bool {
	base := filepath.Base(path)
	for _, prefix := range []string{"crash-", "oom-", "leak-", "timeout-"} {
		if strings.HasPrefix(base, prefix) {
			return true
		}
	}
	return false
}
