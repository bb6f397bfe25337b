//go:build unix

package shell

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

// EnvPath is the environment variable holding the command search path.
const EnvPath = "PATH"

// Resolver locates executables for bare command names.
type Resolver struct {
	Fs     afero.Fs
	Getenv func(string) string
}

// NewOSResolver creates a resolver over the real filesystem and environment.
func NewOSResolver() *Resolver {
	return &Resolver{
		Fs:     afero.NewOsFs(),
		Getenv: os.Getenv,
	}
}

func (r *Resolver) findExecutable(file string) error {
	d, err := r.Fs.Stat(file)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case err != nil:
		return err
	}
	if m := d.Mode(); m.IsDir() || m&0111 == 0 {
		return fs.ErrPermission
	}
	// Mode bits ignore ownership, so real files are checked by the kernel.
	if _, ok := r.Fs.(*afero.OsFs); ok {
		return accessExecutable(file)
	}
	return nil
}

// accessExecutable checks that the current user may execute path.
var accessExecutable = func(path string) error {
	if err := unix.Access(path, unix.X_OK); err != nil {
		return fs.ErrPermission
	}
	return nil
}

// Resolve returns the path the shell would execute for name. A name that
// refers to an executable relative to the working directory is used as-is,
// otherwise the search path is consulted.
func (r *Resolver) Resolve(name string) (string, error) {
	if name == "" {
		return "", ErrNotFound
	}
	if err := r.findExecutable(name); err == nil {
		return explicitPath(name), nil
	}
	return r.Search(name)
}

// Search looks for name in each directory of the search path in order and
// returns the first executable match. Empty elements are skipped, so it never
// checks name on its own.
func (r *Resolver) Search(name string) (string, error) {
	if name == "" {
		return "", ErrNotFound
	}

	path := r.Getenv(EnvPath)
	if path == "" {
		return "", ErrNotFound
	}
	for _, dir := range strings.Split(path, ":") {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		if err := r.findExecutable(candidate); err == nil {
			return explicitPath(candidate), nil
		}
	}
	return "", ErrNotFound
}

// explicitPath makes sure a path contains a separator so it's never searched
// for again when executed.
func explicitPath(path string) string {
	if strings.ContainsRune(path, filepath.Separator) {
		return path
	}
	return "." + string(filepath.Separator) + path
}
