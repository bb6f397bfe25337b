//go:build unix

package shell

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/josephlewis42/mysh/core/logger"
	"github.com/spf13/afero"
)

// Shell executes command lines one at a time. It isn't safe to execute lines
// from multiple goroutines because commands share the process's descriptors
// and working directory.
type Shell struct {
	// FDs are the descriptors builtins write to and children inherit.
	FDs *FDSet
	// Stderr receives diagnostics.
	Stderr   io.Writer
	Resolver *Resolver
	Expander *Expander
	// Events records what the shell runs, it may be nil.
	Events EventRecorder

	// RedirectMode is the permission for files created by output redirection.
	RedirectMode os.FileMode
	// BuiltinsSetStatus makes builtins update the status like programs do.
	BuiltinsSetStatus bool
	// Exit terminates the shell, os.Exit if nil.
	Exit func(code int)

	mu           sync.Mutex
	eventsFailed bool
}

// NewShell creates a shell over the process's descriptors, filesystem and
// environment.
func NewShell() *Shell {
	return &Shell{
		FDs:      NewOSFDSet(),
		Stderr:   os.Stderr,
		Resolver: NewOSResolver(),
		Expander: &Expander{
			Fs:        afero.NewOsFs(),
			MaxTokens: DefaultMaxTokens,
		},
		RedirectMode: DefaultRedirectMode,
	}
}

func (s *Shell) exit(code int) {
	if s.Exit != nil {
		s.Exit(code)
		return
	}
	os.Exit(code)
}

// record stores an event. Failures are reported once on Stderr rather than
// returned.
func (s *Shell) record(event logger.LogType) error {
	if s.Events == nil {
		return nil
	}
	if err := s.Events.Record(event); err != nil && !s.eventsFailed {
		s.eventsFailed = true
		fmt.Fprintf(s.Stderr, "mysh: event log: %v\n", err)
	}
	return nil
}

func (s *Shell) launcher() *Launcher {
	return &Launcher{
		FDs:          s.FDs,
		Resolver:     s.Resolver,
		Stderr:       s.Stderr,
		RedirectMode: s.RedirectMode,
		Events:       EventRecorderFunc(s.record),
	}
}

// fail reports an error that stopped a line from running.
func (s *Shell) fail(line string, err error, status *Status) {
	fmt.Fprintf(s.Stderr, "mysh: %v\n", err)
	s.record(&logger.InvalidInvocation{Line: line, Error: err.Error()})
	*status = Failure
}

// Execute runs a single command line. status holds the outcome of the
// previous line on entry and is updated with the outcome of this one. The
// descriptors in FDs are the same on return as they were on entry.
func (s *Shell) Execute(ctx context.Context, line string, status *Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}

	halves := SplitPipeline(line)
	words := make([][]string, 0, len(halves))
	for _, half := range halves {
		tokens, err := s.Expander.Words(half)
		if err != nil {
			s.fail(line, err, status)
			return
		}
		words = append(words, tokens)
	}

	if len(words) == 1 && len(words[0]) == 0 {
		return
	}

	rest, run := Gate(words[0], *status)
	if !run {
		fmt.Fprintln(s.Stderr, DeniedMessage)
		s.record(&logger.SkippedCommand{Command: rest, Gate: words[0][0]})
		return
	}
	words[0] = rest
	if len(words) == 1 && len(rest) == 0 {
		return
	}

	plan, err := NewPlan(words)
	if err != nil {
		s.fail(line, err, status)
		return
	}

	s.run(ctx, line, plan, status)
}

func (s *Shell) run(ctx context.Context, line string, plan *Plan, status *Status) {
	l := s.launcher()

	if plan.IsPipeline() {
		for _, stage := range plan.Stages {
			if _, ok := AllBuiltins[stage.Name()]; ok {
				s.fail(line, fmt.Errorf("%w: %s: builtin cannot be used in a pipeline", ErrSyntax, stage.Name()), status)
				return
			}
		}
		*status = l.RunPipeline(ctx, plan.Stages[0], plan.Stages[1])
		return
	}

	stage := plan.Stages[0]
	builtin, ok := AllBuiltins[stage.Name()]
	if !ok {
		*status = l.RunStage(ctx, stage)
		return
	}

	ran := false
	result := l.WithRedirects(stage.InFile, stage.OutFile, func() Status {
		ran = true
		code := builtin.Main(s, stage.Args)
		s.record(&logger.RunCommand{Command: stage.Args, Builtin: true, ExitCode: code})
		return StatusFromExitCode(code)
	})

	switch {
	case !ran:
		*status = Failure
	case s.BuiltinsSetStatus:
		*status = result
	}
}
