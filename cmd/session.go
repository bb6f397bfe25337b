package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/mysh/core/config"
	"github.com/josephlewis42/mysh/core/logger"
	"github.com/josephlewis42/mysh/core/shell"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// newShell creates a shell over the process's descriptors configured by
// configuration. The returned function closes the event log.
func newShell(cmd *cobra.Command, configuration *config.Configuration) (*shell.Shell, func(), error) {
	sh := shell.NewShell()
	sh.Stderr = cmd.ErrOrStderr()
	sh.Expander.MaxTokens = configuration.MaxTokens
	sh.RedirectMode = configuration.FileMode()
	sh.BuiltinsSetStatus = configuration.BuiltinsSetStatus

	if !configuration.EventLog {
		sh.Events = logger.NewNopLogger().NewSession()
		return sh, func() {}, nil
	}

	fd, err := configuration.OpenAppLog()
	if err != nil {
		return nil, nil, err
	}
	sh.Events = logger.NewJsonLinesLogRecorder(fd).NewSession()
	return sh, func() { fd.Close() }, nil
}

// runLine executes a single line. An interrupt while it runs stops the
// line's programs but not the shell.
func runLine(ctx context.Context, sh *shell.Shell, line string, status *shell.Status) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	sh.Execute(ctx, line, status)
}

func isTerminal(file *os.File) bool {
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// interactive reads lines from the user until input ends or the exit
// builtin is run.
func interactive(cmd *cobra.Command, sh *shell.Shell, configuration *config.Configuration) error {
	if !isTerminal(sh.FDs.Stdin) {
		_, err := runScript(cmd.Context(), sh, sh.FDs.Stdin)
		return err
	}

	prompt := &Prompt{
		Template: configuration.Prompt,
		Color:    colorEnabled(configuration.Color, sh.FDs.Stdout),
	}

	cfg := &readline.Config{
		Prompt:          prompt.Render(),
		HistoryFile:     configuration.HistoryPath(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          sh.FDs.Stdout,
		Stderr:          sh.Stderr,
	}
	if err := cfg.Init(); err != nil {
		return err
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		return err
	}
	defer rl.Close()

	sh.Exit = func(code int) {
		rl.Close()
		os.Exit(code)
	}

	status := shell.Success
	for {
		rl.SetPrompt(prompt.Render())
		line, err := rl.Readline()

		switch {
		case errors.Is(err, io.EOF):
			return nil // Input closed, quit.

		case errors.Is(err, readline.ErrInterrupt):
			continue

		case err != nil:
			return fmt.Errorf("readline: %w", err)
		}

		runLine(cmd.Context(), sh, line, &status)
	}
}

// runScript executes every line of r in order and returns the final status.
func runScript(ctx context.Context, sh *shell.Shell, r io.Reader) (shell.Status, error) {
	status := shell.Success
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		runLine(ctx, sh, scanner.Text(), &status)
	}
	return status, scanner.Err()
}
