/*
Package toolchain runs the external tools of an LLVM checkout: CMake and Ninja
to build it, and the resulting clang and llc binaries to compile test programs.

Every tool runs through a Runner with an explicit working directory. A tool
exiting non-zero is reported in the Result, not as an error.
*/
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

var execCommandContext = exec.CommandContext

// Command is one invocation of an external tool.
type Command struct {
	// Name of the executable, looked up on PATH when it has no separators.
	Name string
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env entries added to the inherited environment.
	Env []string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Result is the outcome of a command that was started.
type Result struct {
	Command  string
	OK       bool
	ExitCode int
	Stderr   []byte
	Duration time.Duration
}

// Runner runs external commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner runs commands as child processes. Stdout and Stderr, when set,
// receive the child's output live; stderr is captured into the Result either way.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

var _ Runner = (*ExecRunner)(nil)

// Run starts cmd and waits for it. The error is non-nil only when the process
// could not be started or ctx ended before it finished.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	res := Result{Command: cmd.String()}

	c := execCommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(c.Environ(), cmd.Env...)
	}

	var stderr bytes.Buffer
	c.Stdout = r.Stdout
	if r.Stderr != nil {
		c.Stderr = io.MultiWriter(&stderr, r.Stderr)
	} else {
		c.Stderr = &stderr
	}

	log.Debug("Running command", "cmd", res.Command, "dir", cmd.Dir)

	start := time.Now()
	err := c.Run()
	res.Duration = time.Since(start)
	res.Stderr = stderr.Bytes()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("%s: %w", cmd.Name, ctxErr)
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.OK = true
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		return res, fmt.Errorf("failed to run %s: %w", cmd.Name, err)
	}

	return res, nil
}

// Check turns a failed Result into an error carrying the tool's stderr.
func Check(res Result) error {
	if res.OK {
		return nil
	}
	msg := strings.TrimSpace(string(res.Stderr))
	if msg == "" {
		return fmt.Errorf("%s exited with code %d", res.Command, res.ExitCode)
	}
	return fmt.Errorf("%s exited with code %d\nOutput: %s", res.Command, res.ExitCode, msg)
}
