package sandbox

import (
	"context"

	"fuzzrun/internal/types"
)

// RunResult carries what one bounded execution produced. When the deadline
// killed the run there is no diagnostic output to inspect.
type RunResult struct {
	Diagnostic string
	TimedOut   bool
}

// Sandbox runs a fuzz target inside an isolated execution environment. The
// environment itself (runner image, engine tooling) is supplied externally;
// implementations only control how it is invoked and interpreted.
type Sandbox interface {
	// RunFuzzer executes the target for at most target.Duration, sharing
	// target.OutDir with the sandbox. corpusDir, when non-empty, is passed
	// through as the seed corpus. A launch failure is returned as an error;
	// hitting the deadline is not.
	RunFuzzer(ctx context.Context, target *types.FuzzTarget, corpusDir string) (*RunResult, error)

	// Reproduce replays a single test case in the sandbox's reproduce mode
	// and reports whether the process signalled a failure (nonzero exit).
	Reproduce(ctx context.Context, target *types.FuzzTarget, testCase string) (bool, error)
}
