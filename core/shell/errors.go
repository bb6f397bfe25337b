package shell

import (
	"errors"
	"os/exec"
)

var (
	// ErrNotFound is the error resulting if a path search failed to find an
	// executable file.
	ErrNotFound = exec.ErrNotFound

	// ErrResourceExhausted is returned when a line has more tokens than the
	// shell allows.
	ErrResourceExhausted = errors.New("too many arguments")

	// ErrSyntax is returned for lines that can't be turned into a plan.
	ErrSyntax = errors.New("syntax error")

	// ErrRedirection is returned when a redirection target can't be opened or
	// a descriptor can't be duplicated.
	ErrRedirection = errors.New("redirection failed")

	// ErrFork is returned when a child process couldn't be started.
	ErrFork = errors.New("fork failed")
)
