// Package shell runs the external build tools (cmake, make, emcmake, emmake)
// that relkit drives but never replaces.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"git.home.luguber.info/inful/relkit/internal/logfields"
)

// ErrToolNotFound is returned when the requested program is not on PATH.
var ErrToolNotFound = errors.New("build tool not found on PATH")

// Command is one subprocess invocation.
type Command struct {
	Dir  string
	Name string
	Args []string
}

// String renders the command the way a user would type it.
func (c Command) String() string {
	parts := append([]string{c.Name}, c.Args...)
	return strings.Join(parts, " ")
}

// Runner abstracts subprocess execution so generate steps can be exercised
// without a toolchain installed.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// New builds a Command from a raw argument list. Empty arguments are dropped
// so optional prefixes (such as a missing wrapper) can be passed unconditionally.
// The first remaining argument is the program name.
func New(dir string, args ...string) (Command, error) {
	filtered := Filter(args)
	if len(filtered) == 0 {
		return Command{}, fmt.Errorf("empty command in %s", dir)
	}
	return Command{Dir: dir, Name: filtered[0], Args: filtered[1:]}, nil
}

// Filter returns args without blank entries.
func Filter(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if strings.TrimSpace(a) != "" {
			out = append(out, a)
		}
	}
	return out
}

// ExecRunner executes commands with os/exec, streaming their output.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner streams subprocess output to the process's own stdout/stderr.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run executes cmd in cmd.Dir and waits for it. Cancelling ctx kills the process.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) error {
	if _, err := exec.LookPath(cmd.Name); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrToolNotFound, cmd.Name, err)
	}

	// #nosec G204 -- program and arguments come from the project configuration
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdout = r.Stdout
	c.Stderr = r.Stderr

	slog.Info("Running build tool", logfields.Command(cmd.String()), logfields.Dir(cmd.Dir))
	if err := c.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%s exited with code %d: %w", cmd.Name, exitErr.ExitCode(), err)
		}
		return fmt.Errorf("%s failed: %w", cmd.Name, err)
	}
	return nil
}

// RecordingRunner records commands instead of executing them.
type RecordingRunner struct {
	Commands []Command
	// FailOn makes Run return an error for the first command whose name matches.
	FailOn string
	// OnRun is called for every recorded command, e.g. to create build outputs.
	OnRun func(Command) error
}

func (r *RecordingRunner) Run(ctx context.Context, cmd Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.Commands = append(r.Commands, cmd)
	if r.FailOn != "" && cmd.Name == r.FailOn {
		return fmt.Errorf("%s exited with code 1", cmd.Name)
	}
	if r.OnRun != nil {
		return r.OnRun(cmd)
	}
	return nil
}
