//go:build unix

package shell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/josephlewis42/mysh/core/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lockedBuffer is shared by sibling pipeline children writing diagnostics.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testShell struct {
	*Shell

	stderr    *lockedBuffer
	exitCodes []int
}

// newTestShell creates a shell whose stdout is a temporary file and whose
// working directory is a fresh temporary directory.
func newTestShell(t *testing.T) *testShell {
	t.Helper()

	chdir(t, t.TempDir())

	stdin, err := os.Open(os.DevNull)
	require.NoError(t, err)
	t.Cleanup(func() { stdin.Close() })

	stdout, err := os.Create(filepath.Join(t.TempDir(), "stdout"))
	require.NoError(t, err)
	t.Cleanup(func() { stdout.Close() })

	ts := &testShell{
		Shell:  NewShell(),
		stderr: &lockedBuffer{},
	}
	ts.FDs = NewFDSet(stdin, stdout)
	ts.Stderr = ts.stderr
	ts.Exit = func(code int) {
		ts.exitCodes = append(ts.exitCodes, code)
	}
	return ts
}

// run executes each line in order, threading the status through, and returns
// the final status.
func (ts *testShell) run(lines ...string) Status {
	status := Success
	for _, line := range lines {
		ts.Execute(context.Background(), line, &status)
	}
	return status
}

func (ts *testShell) stdout(t *testing.T) string {
	t.Helper()

	out, err := os.ReadFile(ts.FDs.Stdout.Name())
	require.NoError(t, err)
	return string(out)
}

func readFile(t *testing.T, name string) string {
	t.Helper()

	out, err := os.ReadFile(name)
	require.NoError(t, err)
	return string(out)
}

func TestExecute(t *testing.T) {
	cases := map[string]struct {
		lines      []string
		wantStatus Status
		wantStdout string
		wantStderr string
	}{
		"empty line": {
			lines:      []string{"", "   \t"},
			wantStatus: Success,
		},
		"program": {
			lines:      []string{"echo hello world"},
			wantStatus: Success,
			wantStdout: "hello world\n",
		},
		"failing program": {
			lines:      []string{"false"},
			wantStatus: Failure,
		},
		"pipeline": {
			lines:      []string{"echo hello | tr a-z A-Z"},
			wantStatus: Success,
			wantStdout: "HELLO\n",
		},
		"pipeline status is last stage": {
			lines:      []string{"false | true"},
			wantStatus: Success,
		},
		"pipeline last stage fails": {
			lines:      []string{"true | false"},
			wantStatus: Failure,
		},
		"then after success": {
			lines:      []string{"true", "then echo hi"},
			wantStatus: Success,
			wantStdout: "hi\n",
		},
		"then after failure": {
			lines:      []string{"false", "then echo hi"},
			wantStatus: Failure,
			wantStderr: DeniedMessage + "\n",
		},
		"else after failure": {
			lines:      []string{"false", "else echo hi"},
			wantStatus: Success,
			wantStdout: "hi\n",
		},
		"else after success": {
			lines:      []string{"true", "else echo hi"},
			wantStatus: Success,
			wantStderr: DeniedMessage + "\n",
		},
		"bare gate": {
			lines:      []string{"false", "else"},
			wantStatus: Failure,
		},
		"gated pipeline": {
			lines:      []string{"then echo piped | tr a-z A-Z"},
			wantStatus: Success,
			wantStdout: "PIPED\n",
		},
		"command not found": {
			lines:      []string{"nonexistent_cmd_xyz --flag"},
			wantStatus: Failure,
			wantStderr: "nonexistent_cmd_xyz: command not found\n",
		},
		"pipeline command not found": {
			lines:      []string{"echo hi | nonexistent_cmd_xyz"},
			wantStatus: Failure,
			wantStderr: "nonexistent_cmd_xyz: command not found\n",
		},
		"missing redirection target": {
			lines:      []string{"ls >"},
			wantStatus: Failure,
			wantStderr: "mysh: syntax error: > requires a file path\n",
		},
		"missing input file": {
			lines:      []string{"cat < nonexistent_file_xyz"},
			wantStatus: Failure,
		},
		"builtin in pipeline": {
			lines:      []string{"pwd | cat"},
			wantStatus: Failure,
			wantStderr: "mysh: syntax error: pwd: builtin cannot be used in a pipeline\n",
		},
		"which not found": {
			lines:      []string{"false", "which nonexistent_cmd_xyz"},
			wantStatus: Failure,
			wantStdout: "which: nonexistent_cmd_xyz not found\n",
		},
		"which missing argument": {
			lines:      []string{"which"},
			wantStatus: Success,
			wantStderr: "which: missing argument\n",
		},
		"which too many arguments": {
			lines:      []string{"which ls cat"},
			wantStatus: Success,
			wantStderr: "which: too many arguments\n",
		},
		"cd missing argument": {
			lines:      []string{"cd"},
			wantStatus: Success,
			wantStderr: "cd: missing argument\n",
		},
		"cd too many arguments": {
			lines:      []string{"cd a b"},
			wantStatus: Success,
			wantStderr: "cd: too many arguments\n",
		},
		"builtins keep status": {
			lines:      []string{"false", "cd /"},
			wantStatus: Failure,
		},
		"exit": {
			lines:      []string{"exit"},
			wantStatus: Success,
			wantStdout: "Exiting my shell.\n",
		},
		"unmatched wildcard dropped": {
			lines:      []string{"echo start *.nothing end"},
			wantStatus: Success,
			wantStdout: "start end\n",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			ts := newTestShell(t)

			status := ts.run(tc.lines...)

			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantStdout, ts.stdout(t))
			if tc.wantStderr != "" || tc.wantStatus == Success {
				assert.Equal(t, tc.wantStderr, ts.stderr.String())
			}
		})
	}
}

func TestExecuteLeavesDescriptors(t *testing.T) {
	ts := newTestShell(t)
	stdinBefore := identity(t, ts.FDs.Stdin)
	stdoutBefore := identity(t, ts.FDs.Stdout)

	require.NoError(t, os.WriteFile("in.txt", []byte("b\na\n"), 0644))
	lines := []string{
		"echo one > out.txt",
		"sort < in.txt",
		"pwd > pwd.txt",
		"cat < in.txt | sort > sorted.txt",
		"cat < nonexistent_file_xyz",
		"nonexistent_cmd_xyz > never.txt",
		"echo two",
	}
	for _, line := range lines {
		status := Success
		ts.Execute(context.Background(), line, &status)

		assert.Equal(t, stdinBefore, identity(t, ts.FDs.Stdin), line)
		assert.Equal(t, stdoutBefore, identity(t, ts.FDs.Stdout), line)
	}

	wd, err := os.Getwd()
	require.NoError(t, err)

	assert.Equal(t, "a\nb\ntwo\n", ts.stdout(t))
	assert.Equal(t, "one\n", readFile(t, "out.txt"))
	assert.Equal(t, wd+"\n", readFile(t, "pwd.txt"))
	assert.Equal(t, "a\nb\n", readFile(t, "sorted.txt"))
}

func TestRedirection(t *testing.T) {
	ts := newTestShell(t)

	assert.Equal(t, Success, ts.run("echo hello > out.txt"))
	assert.Equal(t, "hello\n", readFile(t, "out.txt"))
	assert.Empty(t, ts.stdout(t))

	info, err := os.Stat("out.txt")
	require.NoError(t, err)
	assert.Equal(t, DefaultRedirectMode, info.Mode().Perm())

	// Truncated on the next redirection.
	assert.Equal(t, Success, ts.run("echo hi > out.txt"))
	assert.Equal(t, "hi\n", readFile(t, "out.txt"))

	assert.Equal(t, Success, ts.run("tr a-z A-Z < out.txt"))
	assert.Equal(t, "HI\n", ts.stdout(t))

	assert.Equal(t, Success, ts.run("tr a-z A-Z < out.txt > upper.txt"))
	assert.Equal(t, "HI\n", readFile(t, "upper.txt"))
}

func TestRedirectionMode(t *testing.T) {
	ts := newTestShell(t)
	ts.RedirectMode = 0600

	assert.Equal(t, Success, ts.run("echo secret > secret.txt"))
	info, err := os.Stat("secret.txt")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestCdPwd(t *testing.T) {
	ts := newTestShell(t)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Mkdir("sub", 0755))

	ts.run("cd sub", "pwd")
	assert.Equal(t, filepath.Join(wd, "sub")+"\n", ts.stdout(t))
	assert.Empty(t, ts.stderr.String())

	now, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "sub"), now)

	ts.run("cd nonexistent_dir_xyz")
	assert.True(t, strings.HasPrefix(ts.stderr.String(), "cd: "), ts.stderr.String())
}

func TestWhich(t *testing.T) {
	ts := newTestShell(t)
	ts.run("which ls")

	out := ts.stdout(t)
	assert.True(t, strings.HasSuffix(out, "/ls\n"), out)
	assert.Empty(t, ts.stderr.String())
}

func TestWhichIgnoresWorkingDirectory(t *testing.T) {
	ts := newTestShell(t)
	require.NoError(t, os.WriteFile("local-only-tool", []byte("#!/bin/sh\necho local\n"), 0755))

	assert.Equal(t, Success, ts.run("local-only-tool"))
	assert.Equal(t, "local\n", ts.stdout(t))

	ts.run("which local-only-tool")
	assert.Equal(t, "local\nwhich: local-only-tool not found\n", ts.stdout(t))
}

func TestBuiltinHelp(t *testing.T) {
	ts := newTestShell(t)
	ts.run("cd --help")

	assert.Contains(t, ts.stdout(t), "--help")
	assert.Empty(t, ts.stderr.String())
}

func TestBuiltinsSetStatus(t *testing.T) {
	ts := newTestShell(t)
	ts.BuiltinsSetStatus = true

	assert.Equal(t, Failure, ts.run("cd nonexistent_dir_xyz"))
	assert.Equal(t, Success, ts.run("false", "pwd"))
}

func TestExit(t *testing.T) {
	ts := newTestShell(t)
	ts.run("exit now")

	assert.Equal(t, []int{0}, ts.exitCodes)
	assert.Equal(t, "Exiting my shell.\n", ts.stdout(t))
}

func TestWildcards(t *testing.T) {
	ts := newTestShell(t)
	for _, name := range []string{"b.txt", "a.txt", "c.md"} {
		require.NoError(t, os.WriteFile(name, []byte(name+"\n"), 0644))
	}

	assert.Equal(t, Success, ts.run("cat *.txt"))
	assert.Equal(t, "a.txt\nb.txt\n", ts.stdout(t))
}

func TestWildcardsSkipHidden(t *testing.T) {
	ts := newTestShell(t)
	for _, name := range []string{".hidden", "a.txt"} {
		require.NoError(t, os.WriteFile(name, nil, 0644))
	}

	assert.Equal(t, Success, ts.run("echo *"))
	assert.Equal(t, Success, ts.run("echo .*"))
	assert.Equal(t, "a.txt\n.hidden\n", ts.stdout(t))
}

func TestTooManyTokens(t *testing.T) {
	ts := newTestShell(t)
	ts.Expander.MaxTokens = 3
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		require.NoError(t, os.WriteFile(name, nil, 0644))
	}

	assert.Equal(t, Failure, ts.run("echo a b c"))
	assert.Equal(t, Failure, ts.run("echo *.txt"))
	assert.Equal(t, Success, ts.run("echo a b"))
	assert.Equal(t, "a b\n", ts.stdout(t))
	assert.Contains(t, ts.stderr.String(), "mysh: too many arguments")
}

func TestExecuteEvents(t *testing.T) {
	ts := newTestShell(t)
	buf := &bytes.Buffer{}
	ts.Events = logger.NewJsonLinesLogRecorder(buf).NewSession()

	ts.run("true", "pwd", "echo a | cat", "nonexistent_cmd_xyz", "ls >")
	status := Failure
	ts.Execute(context.Background(), "then true", &status)

	var report logger.Report
	require.NoError(t, logger.ReadJSONLinesLog(buf, report.Update))

	assert.Equal(t, 4, report.RunCommand.CommandNames.Get("true")+
		report.RunCommand.CommandNames.Get("pwd")+
		report.RunCommand.CommandNames.Get("echo")+
		report.RunCommand.CommandNames.Get("cat"))
	assert.Equal(t, 1, report.UnknownCommand.CommandNames.Get("nonexistent_cmd_xyz"))
	assert.Equal(t, 1, report.SkippedCommand.Gates.Get("then"))
	assert.Equal(t, 7, report.LogEntries)
}

func TestExecuteEventLogFailure(t *testing.T) {
	ts := newTestShell(t)
	ts.Events = EventRecorderFunc(func(logger.LogType) error {
		return errors.New("disk full")
	})

	wd, err := os.Getwd()
	require.NoError(t, err)

	status := ts.run("true", "pwd", "echo a | cat", "nonexistent_cmd_xyz")
	assert.Equal(t, Failure, status)
	assert.Equal(t, wd+"\na\n", ts.stdout(t))
	assert.Equal(t, 1, strings.Count(ts.stderr.String(), "mysh: event log: disk full\n"), ts.stderr.String())
	assert.Contains(t, ts.stderr.String(), "nonexistent_cmd_xyz: command not found\n")
}

func TestLauncherEventLogFailure(t *testing.T) {
	ts := newTestShell(t)
	stderr := &lockedBuffer{}
	launcher := &Launcher{
		FDs:      ts.FDs,
		Resolver: ts.Resolver,
		Stderr:   stderr,
		Events: EventRecorderFunc(func(logger.LogType) error {
			return errors.New("read-only file system")
		}),
	}

	assert.Equal(t, Success, launcher.RunStage(context.Background(), Stage{Args: []string{"true"}}))
	assert.Equal(t, Success, launcher.RunPipeline(context.Background(), Stage{Args: []string{"true"}}, Stage{Args: []string{"true"}}))
	assert.Equal(t, "mysh: event log: read-only file system\n", stderr.String())
}
