package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"fuzzrun/config"
	"fuzzrun/internal/types"
)

// libFuzzerOptions are fixed run_fuzzer options: a stable seed and disabled
// length control keep runs comparable across invocations.
const libFuzzerOptions = "-seed=1337 -len_control=0"

// reproduceRuns is the internal repetition count handed to the reproduce
// command for each confirmation trial.
const reproduceRuns = 100

// dockerRunner invokes the OSS-Fuzz base-runner image through the docker
// CLI. It is the one Sandbox implementation; the run state machine never
// sees docker arguments.
type dockerRunner struct {
	logger *zap.Logger
	image  string
	lookup ContainerLookup
}

type DockerRunnerParams struct {
	fx.In

	Logger    *zap.Logger
	AppConfig *config.AppConfig
	Lookup    ContainerLookup
}

func NewDockerRunner(p DockerRunnerParams) Sandbox {
	return &dockerRunner{
		logger: p.Logger,
		image:  p.AppConfig.RunnerImage,
		lookup: p.Lookup,
	}
}

func (d *dockerRunner) RunFuzzer(ctx context.Context, target *types.FuzzTarget, corpusDir string) (*RunResult, error) {
	args := d.fuzzArgs(target, corpusDir)

	diagnostic, timedOut, err := runWithDeadline(ctx, d.logger, target.Duration, "docker", args...)
	if err != nil {
		return nil, fmt.Errorf("run fuzzer %s: %w", target.Name, err)
	}
	return &RunResult{Diagnostic: diagnostic, TimedOut: timedOut}, nil
}

// fuzzArgs builds the docker invocation for one bounded run. When an ambient
// container is detected its volumes are reused so the sandbox sees the same
// output directory; otherwise the directory is bind-mounted as /out.
func (d *dockerRunner) fuzzArgs(target *types.FuzzTarget, corpusDir string) []string {
	args := []string{"run", "--rm", "--privileged"}

	if container := d.lookup.Current(); container != "" {
		args = append(args, "--volumes-from", container, "-e", "OUT="+target.OutDir)
	} else {
		args = append(args, "-v", fmt.Sprintf("%s:%s", target.OutDir, "/out"))
	}

	args = append(args,
		"-e", "FUZZING_ENGINE=libfuzzer",
		"-e", "SANITIZER=address",
		"-e", "RUN_FUZZER_MODE=interactive",
		d.image,
		"bash", "-c",
	)

	runCommand := fmt.Sprintf("run_fuzzer %s %s", target.Name, libFuzzerOptions)
	if corpusDir != "" {
		runCommand += " " + corpusDir
	}
	return append(args, runCommand)
}

func (d *dockerRunner) Reproduce(ctx context.Context, target *types.FuzzTarget, testCase string) (bool, error) {
	cmd := exec.CommandContext(ctx, "docker", d.reproduceArgs(target, testCase)...)
	d.logger.Debug("running reproduce trial", zap.String("command", cmd.String()))

	err := cmd.Run()
	if err == nil {
		return false, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// nonzero exit is the reproduction signal
		return true, nil
	}
	return false, fmt.Errorf("launch reproduce trial: %w", err)
}

// reproduceArgs builds the docker invocation for one confirmation trial: the
// target's containing directory is mounted as /out and the suspect test case
// as /testcase, then the runner's reproduce mode replays it.
func (d *dockerRunner) reproduceArgs(target *types.FuzzTarget, testCase string) []string {
	return []string{
		"run", "--rm", "--privileged",
		"-v", fmt.Sprintf("%s:/out", filepath.Dir(target.Binary)),
		"-v", fmt.Sprintf("%s:/testcase", testCase),
		"-t", d.image,
		"reproduce", target.Name, fmt.Sprintf("-runs=%d", reproduceRuns),
	}
}
