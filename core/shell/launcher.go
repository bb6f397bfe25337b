//go:build unix

package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/josephlewis42/mysh/core/logger"
	"golang.org/x/sync/errgroup"
)

// EventRecorder receives events about what the shell runs.
type EventRecorder interface {
	Record(event logger.LogType) error
}

// EventRecorderFunc adapts a function to an EventRecorder.
type EventRecorderFunc func(event logger.LogType) error

func (f EventRecorderFunc) Record(event logger.LogType) error {
	return f(event)
}

// Launcher starts external programs with the descriptors of an FDSet.
type Launcher struct {
	FDs      *FDSet
	Resolver *Resolver
	// Stderr receives diagnostics and is inherited by children.
	Stderr io.Writer
	// RedirectMode is the permission for files created by output redirection.
	RedirectMode os.FileMode
	// Events is optional. Only the first failure to record is reported.
	Events EventRecorder

	eventsFailed bool
}

func (l *Launcher) stderr() io.Writer {
	if l.Stderr == nil {
		return os.Stderr
	}
	return l.Stderr
}

func (l *Launcher) redirectMode() os.FileMode {
	if l.RedirectMode == 0 {
		return DefaultRedirectMode
	}
	return l.RedirectMode
}

func (l *Launcher) report(err error) {
	fmt.Fprintf(l.stderr(), "mysh: %v\n", err)
}

func (l *Launcher) record(event logger.LogType) {
	if l.Events == nil {
		return
	}
	if err := l.Events.Record(event); err != nil && !l.eventsFailed {
		l.eventsFailed = true
		fmt.Fprintf(l.stderr(), "mysh: event log: %v\n", err)
	}
}

// WithRedirects saves the descriptor set, redirects it to the given files and
// calls fn. The set is restored before returning no matter how fn or the
// redirection went.
func (l *Launcher) WithRedirects(inFile, outFile string, fn func() Status) Status {
	saved, err := l.FDs.Save()
	if err != nil {
		l.report(err)
		return Failure
	}
	defer func() {
		if err := saved.Restore(); err != nil {
			l.report(err)
		}
	}()

	if err := l.FDs.Apply(inFile, outFile, l.redirectMode()); err != nil {
		l.report(err)
		return Failure
	}

	return fn()
}

// RunStage runs a single external command and waits for it to exit.
func (l *Launcher) RunStage(ctx context.Context, stage Stage) Status {
	return l.WithRedirects(stage.InFile, stage.OutFile, func() Status {
		cmd, err := l.command(ctx, stage)
		if err != nil {
			return Failure
		}
		cmd.Stdin = l.FDs.Stdin
		cmd.Stdout = l.FDs.Stdout

		if err := cmd.Start(); err != nil {
			l.report(fmt.Errorf("%w: %s: %v", ErrFork, stage.Name(), err))
			return Failure
		}

		status := l.wait(cmd)
		l.recordRun(cmd)
		return status
	})
}

// RunPipeline runs first with its stdout connected to the stdin of second.
// Both are always waited for before returning, the status is that of second.
func (l *Launcher) RunPipeline(ctx context.Context, first, second Stage) Status {
	return l.WithRedirects(first.InFile, second.OutFile, func() Status {
		// Resolve everything up front so nothing is started for a bad line.
		writer, err := l.command(ctx, first)
		if err != nil {
			return Failure
		}
		reader, err := l.command(ctx, second)
		if err != nil {
			return Failure
		}

		pr, pw, err := os.Pipe()
		if err != nil {
			l.report(fmt.Errorf("%w: pipe: %v", ErrRedirection, err))
			return Failure
		}

		writer.Stdin = l.FDs.Stdin
		writer.Stdout = pw
		reader.Stdin = pr
		reader.Stdout = l.FDs.Stdout

		if err := writer.Start(); err != nil {
			pr.Close()
			pw.Close()
			l.report(fmt.Errorf("%w: %s: %v", ErrFork, first.Name(), err))
			return Failure
		}
		if err := reader.Start(); err != nil {
			pr.Close()
			pw.Close()
			_ = writer.Process.Kill()
			_ = writer.Wait()
			l.report(fmt.Errorf("%w: %s: %v", ErrFork, second.Name(), err))
			return Failure
		}

		// The parent must drop its ends or the reader never sees EOF.
		pr.Close()
		pw.Close()

		var statuses [2]Status
		var group errgroup.Group
		for i, cmd := range []*exec.Cmd{writer, reader} {
			i, cmd := i, cmd
			group.Go(func() error {
				statuses[i] = l.wait(cmd)
				return nil
			})
		}
		_ = group.Wait()

		l.recordRun(writer)
		l.recordRun(reader)
		return statuses[1]
	})
}

// command resolves the stage's program and builds the command for it. The
// argument vector is passed through unchanged, so argv[0] is the name the user
// typed rather than the resolved path.
func (l *Launcher) command(ctx context.Context, stage Stage) (*exec.Cmd, error) {
	path, err := l.Resolver.Resolve(stage.Name())
	if err != nil {
		fmt.Fprintf(l.stderr(), "%s: command not found\n", stage.Name())
		l.record(&logger.UnknownCommand{Command: stage.Args})
		return nil, err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	cmd := exec.CommandContext(ctx, path, stage.Args[1:]...)
	cmd.Args = append([]string(nil), stage.Args...)
	cmd.Stderr = l.stderr()
	return cmd, nil
}

// wait blocks until the command exits. Exit code 0 is a success, any other
// exit or a termination by signal is a failure.
func (l *Launcher) wait(cmd *exec.Cmd) Status {
	err := cmd.Wait()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return Success
	case errors.As(err, &exitErr):
		return Failure
	default:
		l.report(fmt.Errorf("%s: %v", cmd.Args[0], err))
		return Failure
	}
}

func (l *Launcher) recordRun(cmd *exec.Cmd) {
	code := -1
	if cmd.ProcessState != nil {
		code = cmd.ProcessState.ExitCode()
	}
	l.record(&logger.RunCommand{
		Command:      cmd.Args,
		ResolvedPath: cmd.Path,
		ExitCode:     code,
	})
}
