package types

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FuzzTarget identifies one fuzz-testable binary and where its run output
// goes. It is immutable after construction; temporary artifacts (the staged
// corpus directory, crash files) stay in OutDir for caller inspection.
type FuzzTarget struct {
	Name     string        // basename of BinaryPath, unique within OutDir
	Binary   string        // path to the fuzz target binary
	Duration time.Duration // wall-clock budget for one bounded run
	OutDir   string        // shared with the sandbox, holds artifacts
	Project  string        // optional, used only for corpus lookup
}

// NewFuzzTarget builds a FuzzTarget from a binary path and run budget.
// The output directory is created if it does not exist yet.
func NewFuzzTarget(binaryPath string, duration time.Duration, outDir, project string) (*FuzzTarget, error) {
	if binaryPath == "" {
		return nil, fmt.Errorf("fuzz target binary path is empty")
	}
	if duration <= 0 {
		return nil, fmt.Errorf("fuzz duration must be positive, got %s", duration)
	}
	if outDir == "" {
		return nil, fmt.Errorf("output directory is empty")
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	return &FuzzTarget{
		Name:     filepath.Base(binaryPath),
		Binary:   binaryPath,
		Duration: duration,
		OutDir:   outDir,
		Project:  project,
	}, nil
}
