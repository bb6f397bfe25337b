package shell

// Status is the outcome of the previous command line, used by the then/else
// gate.
type Status int

const (
	// Success means the previous command exited with code 0.
	Success Status = iota
	// Failure means the previous command failed in any way.
	Failure
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// StatusFromExitCode converts a process exit code to a Status.
func StatusFromExitCode(code int) Status {
	if code == 0 {
		return Success
	}
	return Failure
}

// ExitCode converts the status back to a conventional process exit code.
func (s Status) ExitCode() int {
	if s == Success {
		return 0
	}
	return 1
}
