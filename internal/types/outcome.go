package types

import "time"

// RunOutcome classifies the result of one bounded execution.
type RunOutcome int

const (
	// TimedOut means the target was still running at the deadline and was
	// killed. No diagnostic output is available.
	TimedOut RunOutcome = iota
	// Crashed means the target exited early and its output referenced a
	// written test case.
	Crashed
	// NoCrashDetected means the target exited early but no test case
	// reference was found in its output.
	NoCrashDetected
)

func (o RunOutcome) String() string {
	switch o {
	case TimedOut:
		return "timed_out"
	case Crashed:
		return "crashed"
	case NoCrashDetected:
		return "no_crash_detected"
	}
	return "unknown"
}

// CrashReport is the confirmed finding handed back to the caller and to the
// reporting sinks. Unconfirmed candidates never become a CrashReport.
type CrashReport struct {
	RunID      string    `json:"run_id"`
	Target     string    `json:"target"`
	Project    string    `json:"project,omitempty"`
	TestCase   string    `json:"test_case"` // path under the output directory
	OutDir     string    `json:"-"`         // local detail, not part of the wire payload
	Diagnostic string    `json:"diagnostic"`
	DetectedAt time.Time `json:"detected_at"`
}
