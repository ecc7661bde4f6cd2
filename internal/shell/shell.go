// Package shell provides the subprocess capability used by install and
// update commands. The dispatcher only sees the Runner interface, so a
// dry run can substitute a recorder for the real interpreter.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Runner executes one shell command line and reports its exit status
// and combined output.
type Runner interface {
	Run(ctx context.Context, command string) (exitCode int, output string, err error)
}

// ExitError reports a command that ran but exited non-zero. The
// captured output travels with it for diagnostics.
type ExitError struct {
	Command  string
	ExitCode int
	Output   string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command exited with status %d: %s", e.ExitCode, e.Command)
}

// Interp runs commands with an embedded POSIX shell interpreter, so no
// /bin/sh is required on the host.
type Interp struct {
	// Dir is the working directory for commands; empty means the
	// process working directory.
	Dir string
	// Env extends the process environment, "KEY=VALUE" entries.
	Env []string
}

var _ Runner = (*Interp)(nil)

// Run parses and executes command, capturing stdout and stderr
// interleaved. A non-zero exit is returned both as the exit code and
// as an ExitError.
func (s *Interp) Run(ctx context.Context, command string) (int, string, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(command), "command")
	if err != nil {
		return 1, "", fmt.Errorf("parse command: %w", err)
	}

	var combined bytes.Buffer
	runner, err := interp.New(
		interp.Dir(s.Dir),
		interp.Env(expand.ListEnviron(append(os.Environ(), s.Env...)...)),
		interp.StdIO(nil, &combined, &combined),
	)
	if err != nil {
		return 1, "", fmt.Errorf("create interpreter: %w", err)
	}

	log.Debug("running command", "command", command, "dir", s.Dir)
	err = runner.Run(ctx, prog)
	output := combined.String()
	if err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			return int(status), output, &ExitError{Command: command, ExitCode: int(status), Output: output}
		}
		return 1, output, fmt.Errorf("run command: %w", err)
	}
	return 0, output, nil
}

// Recorder satisfies Runner without executing anything; every command
// is recorded and reported as successful. Used in tests that assert on
// the commands a caller issues.
type Recorder struct {
	Commands []string
}

var _ Runner = (*Recorder)(nil)

func (r *Recorder) Run(_ context.Context, command string) (int, string, error) {
	r.Commands = append(r.Commands, command)
	return 0, "", nil
}
