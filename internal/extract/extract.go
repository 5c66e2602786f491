package extract

import (
	"path/filepath"
	"regexp"
)

// Extractor locates a written test case in raw fuzzer diagnostic output.
// Each implementation is coupled to one sandbox runner's log format; the
// run state machine only sees this interface.
type Extractor interface {
	// TestCasePath returns the test case path resolved against outDir and
	// true, or "" and false when the output carries no test case reference.
	TestCasePath(diagnostic, outDir string) (string, bool)
}

// libFuzzer writes the crashing input next to the binary and logs the
// relative path after this marker. The match is case-sensitive and ends at
// the next whitespace.
var libFuzzerTestCaseRe = regexp.MustCompile(`\bTest unit written to \./([^\s]+)`)

// libFuzzerExtractor scrapes the OSS-Fuzz base-runner libFuzzer log format.
type libFuzzerExtractor struct{}

func NewLibFuzzerExtractor() Extractor {
	return &libFuzzerExtractor{}
}

func (e *libFuzzerExtractor) TestCasePath(diagnostic, outDir string) (string, bool) {
	match := libFuzzerTestCaseRe.FindStringSubmatch(diagnostic)
	if match == nil {
		return "", false
	}
	// first match wins; later occurrences are not considered
	return filepath.Join(outDir, match[1]), true
}
