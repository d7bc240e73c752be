package rmapi

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
)

// ProcessError describes a failed pipeline stage.
type ProcessError struct {
	// Stage is the failed command line.
	Stage string

	// ExitCode is the process exit code, or -1 if it never ran.
	ExitCode int

	// Stderr holds the stage's stderr lines that were not noise.
	Stderr []string

	// Err is the underlying exec error.
	Err error
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Stage, e.Err)
	if len(e.Stderr) > 0 {
		msg += ": " + strings.Join(e.Stderr, "; ")
	}
	return msg
}

// Unwrap lets errors.Is match both domain.ErrProcessFailure and the
// underlying exec error.
func (e *ProcessError) Unwrap() []error {
	return []error{domain.ErrProcessFailure, e.Err}
}
