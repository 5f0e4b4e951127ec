package worker

import (
	"errors"
	"fmt"
	"io"
	"mvdan.cc/sh/v3/shell"
	"os"
	"os/exec"
	"strings"
)

var ErrEmptyCommand = errors.New("worker command is empty")

// Dispatcher runs the configured worker with the modified paths.
//
// By default the command line is split into words the way a POSIX shell
// would (quotes and $VARS are honoured, nothing else is interpreted) and
// every path is passed as its own argument. In shell mode the paths are
// joined with spaces and the whole line is handed to sh -c, which breaks
// paths containing whitespace.
type Dispatcher struct {
	command string
	shell   bool
	stdout  io.Writer
	stderr  io.Writer
}

type Option func(*Dispatcher)

func WithShell(enabled bool) Option {
	return func(d *Dispatcher) {
		d.shell = enabled
	}
}

func WithOutput(stdout, stderr io.Writer) Option {
	return func(d *Dispatcher) {
		d.stdout = stdout
		d.stderr = stderr
	}
}

func New(command string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		command: command,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Cmd(paths []string) (*exec.Cmd, error) {
	if strings.TrimSpace(d.command) == "" {
		return nil, ErrEmptyCommand
	}

	var cmd *exec.Cmd
	if d.shell {
		cmd = exec.Command("sh", "-c", d.command+" "+strings.Join(paths, " "))
	} else {
		args, err := shell.Fields(d.command, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to parse worker command: %w", err)
		}
		if len(args) == 0 {
			return nil, ErrEmptyCommand
		}
		cmd = exec.Command(args[0], append(args[1:], paths...)...)
	}

	cmd.Stdout = d.stdout
	cmd.Stderr = d.stderr

	return cmd, nil
}

// Dispatch runs the worker and waits for it. A non-zero exit code is not an
// error; the error is set only when the worker could not be run at all, in
// which case the exit code is -1.
func (d *Dispatcher) Dispatch(paths []string) (int, error) {
	cmd, err := d.Cmd(paths)
	if err != nil {
		return -1, err
	}

	err = cmd.Run()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, fmt.Errorf("failed to run worker: %w", err)
	}

	return 0, nil
}
