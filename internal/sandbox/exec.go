package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// runWithDeadline launches a command and blocks until it exits on its own,
// the wall-clock budget elapses, or the context is cancelled:
//
//  1. Exit before the deadline returns the combined stdout+stderr output.
//  2. Hitting the deadline kills the process and reports timedOut; whatever
//     output was buffered is discarded since a killed run has no usable
//     diagnostic.
//  3. Context cancellation kills the process via CommandContext.
//
// The process is never left running once this function returns.
func runWithDeadline(ctx context.Context, logger *zap.Logger, budget time.Duration, name string, args ...string) (output string, timedOut bool, err error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined

	logger.Info("running sandbox command", zap.String("command", cmd.String()))
	if err := cmd.Start(); err != nil {
		return "", false, fmt.Errorf("launch sandbox command: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	timer := time.NewTimer(budget)
	defer timer.Stop()

	select {
	case <-done:
		// process exited on its own; a nonzero exit here is the crash
		// signal carried in the output, not a launch failure
		return combined.String(), false, nil

	case <-timer.C:
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		<-done
		return "", true, nil

	case <-ctx.Done():
		<-done
		return "", false, ctx.Err()
	}
}
