package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// NoEmailFlag is always passed so a manual pipeline run never triggers the
// scraper's own digest emails.
const NoEmailFlag = "--no-email"

// Error is a run-fatal scraper failure: non-zero exit or timeout.
type Error struct {
	Stderr  string
	Timeout bool
	Err     error
}

func (e *Error) Error() string {
	if e.Timeout {
		return fmt.Sprintf("scraper timed out: %v", e.Err)
	}
	return fmt.Sprintf("scraper failed: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Runner invokes the external scraper as a child process. Its only side
// effect is whatever the scraper writes into the staging snapshot; the
// runner itself never touches the document store.
type Runner struct {
	Command string
	Args    []string
	Dir     string
	Timeout time.Duration
}

// Run executes the scraper and waits for exit or deadline. Stdout and stderr
// are captured; stderr rides along on failure so the trigger caller sees why
// the run aborted.
func (r Runner) Run(ctx context.Context) (stdout, stderr string, err error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append(append([]string{}, r.Args...), NoEmailFlag)
	cmd := exec.CommandContext(ctx, r.Command, args...)
	cmd.Dir = r.Dir

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()
	stdout = outBuf.String()
	stderr = errBuf.String()

	if runErr == nil {
		return stdout, stderr, nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return stdout, stderr, &Error{Stderr: stderr, Timeout: true, Err: ctx.Err()}
	}
	return stdout, stderr, &Error{Stderr: stderr, Err: runErr}
}
