package logger

// LogEntry is a single event in the log. Exactly one of the event fields is
// set.
type LogEntry struct {
	TimestampMicros int64  `json:"timestamp_micros"`
	SessionID       string `json:"session_id,omitempty"`

	RunCommand        *RunCommand        `json:"run_command,omitempty"`
	UnknownCommand    *UnknownCommand    `json:"unknown_command,omitempty"`
	InvalidInvocation *InvalidInvocation `json:"invalid_invocation,omitempty"`
	SkippedCommand    *SkippedCommand    `json:"skipped_command,omitempty"`
}

// LogType is implemented by every event that can be stored in a LogEntry.
type LogType interface {
	setOn(le *LogEntry)
}

// GetLogType returns the event held by the entry or nil if there is none.
func (le *LogEntry) GetLogType() LogType {
	switch {
	case le.RunCommand != nil:
		return le.RunCommand
	case le.UnknownCommand != nil:
		return le.UnknownCommand
	case le.InvalidInvocation != nil:
		return le.InvalidInvocation
	case le.SkippedCommand != nil:
		return le.SkippedCommand
	default:
		return nil
	}
}

// RunCommand is logged for every program or builtin the shell runs.
type RunCommand struct {
	Command      []string `json:"command"`
	ResolvedPath string   `json:"resolved_path,omitempty"`
	Builtin      bool     `json:"builtin,omitempty"`
	ExitCode     int      `json:"exit_code"`
}

func (e *RunCommand) setOn(le *LogEntry) { le.RunCommand = e }

// UnknownCommand is logged when a program couldn't be found on the search
// path.
type UnknownCommand struct {
	Command []string `json:"command"`
}

func (e *UnknownCommand) setOn(le *LogEntry) { le.UnknownCommand = e }

// InvalidInvocation is logged when a line can't be parsed or executed.
type InvalidInvocation struct {
	Line  string `json:"line"`
	Error string `json:"error"`
}

func (e *InvalidInvocation) setOn(le *LogEntry) { le.InvalidInvocation = e }

// SkippedCommand is logged when the conditional gate refuses to run a line.
type SkippedCommand struct {
	Command []string `json:"command"`
	Gate    string   `json:"gate"`
}

func (e *SkippedCommand) setOn(le *LogEntry) { le.SkippedCommand = e }
