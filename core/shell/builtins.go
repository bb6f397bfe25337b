//go:build unix

package shell

import (
	"fmt"
	"os"
	"sort"

	"github.com/pborman/getopt/v2"
)

// AllBuiltins holds a list of all registered shell builtins
var AllBuiltins = make(map[string]ShellBuiltin)

type ShellBuiltin interface {
	Main(s *Shell, args []string) int
}

type ShellBuiltinFunc func(s *Shell, args []string) int

func (f ShellBuiltinFunc) Main(s *Shell, args []string) int {
	return f(s, args)
}

var _ ShellBuiltin = (ShellBuiltinFunc)(nil)

// IsBuiltin returns true if name is reserved by the shell.
func IsBuiltin(name string) bool {
	_, ok := AllBuiltins[name]
	return ok || IsGate(name)
}

// BuiltinNames returns the sorted names reserved by the shell, including the
// conditional gates.
func BuiltinNames() []string {
	names := []string{GateThen, GateElse}
	for name := range AllBuiltins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// parseBuiltinArgs handles the common --help flag for builtins. It returns
// the positional arguments and ok set to false if the builtin should return
// code right away.
func parseBuiltinArgs(s *Shell, args []string, usage string) (positional []string, code int, ok bool) {
	opts := getopt.New()
	opts.SetProgram(args[0])
	opts.SetParameters(usage)
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	if err := opts.Getopt(args, nil); err != nil {
		fmt.Fprintf(s.Stderr, "%s: %v\n", args[0], err)
		return nil, 1, false
	}
	if *helpOpt {
		opts.PrintUsage(s.FDs.Stdout)
		return nil, 0, false
	}
	return opts.Args(), 0, true
}

// Cd is the cd shell builtin
func Cd(s *Shell, args []string) int {
	positional, code, ok := parseBuiltinArgs(s, args, "DIR")
	if !ok {
		return code
	}

	switch len(positional) {
	case 0:
		fmt.Fprintf(s.Stderr, "%s: missing argument\n", args[0])
		return 1
	case 1:
		if err := os.Chdir(positional[0]); err != nil {
			fmt.Fprintf(s.Stderr, "%s: %v\n", args[0], err)
			return 1
		}
		return 0
	default:
		fmt.Fprintf(s.Stderr, "%s: too many arguments\n", args[0])
		return 1
	}
}

// Pwd prints the working directory.
func Pwd(s *Shell, args []string) int {
	if _, code, ok := parseBuiltinArgs(s, args, ""); !ok {
		return code
	}

	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(s.Stderr, "%s: %v\n", args[0], err)
		return 1
	}
	fmt.Fprintln(s.FDs.Stdout, wd)
	return 0
}

// Which prints the path the search path resolves a program to. Unlike
// executing a program, the working directory is never checked.
func Which(s *Shell, args []string) int {
	positional, code, ok := parseBuiltinArgs(s, args, "NAME")
	if !ok {
		return code
	}

	switch len(positional) {
	case 0:
		fmt.Fprintf(s.Stderr, "%s: missing argument\n", args[0])
		return 1
	case 1:
		// handled below
	default:
		fmt.Fprintf(s.Stderr, "%s: too many arguments\n", args[0])
		return 1
	}

	path, err := s.Resolver.Search(positional[0])
	if err != nil {
		fmt.Fprintf(s.FDs.Stdout, "%s: %s not found\n", args[0], positional[0])
		return 1
	}
	fmt.Fprintln(s.FDs.Stdout, path)
	return 0
}

// Exit quits the shell
func Exit(s *Shell, args []string) int {
	fmt.Fprintln(s.FDs.Stdout, "Exiting my shell.")
	s.exit(0)
	return 0
}

func init() {
	AllBuiltins["cd"] = ShellBuiltinFunc(Cd)
	AllBuiltins["pwd"] = ShellBuiltinFunc(Pwd)
	AllBuiltins["which"] = ShellBuiltinFunc(Which)
	AllBuiltins["exit"] = ShellBuiltinFunc(Exit)
}
