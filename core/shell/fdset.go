//go:build unix

package shell

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// DefaultRedirectMode is the permission given to files created by >.
const DefaultRedirectMode os.FileMode = 0640

// FDSet is a handle over the standard input and output descriptors that
// builtins write to and child processes inherit. Redirections are applied by
// duplicating over the descriptors, so they must always be undone through a
// SavedFDs taken beforehand.
type FDSet struct {
	Stdin  *os.File
	Stdout *os.File
}

// NewFDSet creates a descriptor set over the given files.
func NewFDSet(stdin, stdout *os.File) *FDSet {
	return &FDSet{
		Stdin:  stdin,
		Stdout: stdout,
	}
}

// NewOSFDSet creates a descriptor set over the process's stdin and stdout.
func NewOSFDSet() *FDSet {
	return NewFDSet(os.Stdin, os.Stdout)
}

// SavedFDs holds copies of the descriptors in a set at the time Save was
// called.
type SavedFDs struct {
	set    *FDSet
	stdin  int
	stdout int
}

// Save duplicates both descriptors so they can be put back with Restore.
func (f *FDSet) Save() (*SavedFDs, error) {
	stdin, err := dupCloexec(f.Stdin)
	if err != nil {
		return nil, fmt.Errorf("%w: saving stdin: %v", ErrRedirection, err)
	}
	stdout, err := dupCloexec(f.Stdout)
	if err != nil {
		unix.Close(stdin)
		return nil, fmt.Errorf("%w: saving stdout: %v", ErrRedirection, err)
	}

	return &SavedFDs{set: f, stdin: stdin, stdout: stdout}, nil
}

// Restore points the descriptors back at what they referred to when they were
// saved and releases the copies. Calling it again is a no-op.
func (s *SavedFDs) Restore() error {
	if s == nil || s.stdin < 0 {
		return nil
	}

	var firstErr error
	for _, pair := range []struct {
		saved int
		file  *os.File
	}{
		{s.stdin, s.set.Stdin},
		{s.stdout, s.set.Stdout},
	} {
		if err := unix.Dup2(pair.saved, int(pair.file.Fd())); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%w: restoring %s: %v", ErrRedirection, pair.file.Name(), err)
		}
		unix.Close(pair.saved)
	}
	s.stdin, s.stdout = -1, -1

	return firstErr
}

// RedirectInput makes stdin read from the file at path.
func (f *FDSet) RedirectInput(path string) error {
	fd, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedirection, err)
	}
	defer fd.Close()

	return replace(fd, f.Stdin)
}

// RedirectOutput makes stdout write to the file at path, truncating it or
// creating it with perm.
func (f *FDSet) RedirectOutput(path string, perm os.FileMode) error {
	fd, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedirection, err)
	}
	defer fd.Close()

	return replace(fd, f.Stdout)
}

// Apply redirects output then input for the non-empty paths.
func (f *FDSet) Apply(inFile, outFile string, perm os.FileMode) error {
	if outFile != "" {
		if err := f.RedirectOutput(outFile, perm); err != nil {
			return err
		}
	}
	if inFile != "" {
		if err := f.RedirectInput(inFile); err != nil {
			return err
		}
	}
	return nil
}

func replace(src, dst *os.File) error {
	if err := unix.Dup2(int(src.Fd()), int(dst.Fd())); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRedirection, src.Name(), err)
	}
	return nil
}

// dupCloexec duplicates the file's descriptor without letting children
// inherit the copy.
func dupCloexec(file *os.File) (int, error) {
	return unix.FcntlInt(file.Fd(), unix.F_DUPFD_CLOEXEC, 0)
}
