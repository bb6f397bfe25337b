package shell

// Conditional gate tokens.
const (
	GateThen = "then"
	GateElse = "else"
)

// DeniedMessage is printed when the gate skips a command.
const DeniedMessage = "Cannot execute because previous statement failed"

// Gate applies the then/else conditional to a token sequence. If the first
// token is a gate that permits execution under status, it's stripped and the
// remainder is returned with run set. If the gate denies execution, run is
// false. Sequences without a leading gate are returned unchanged.
func Gate(tokens []string, status Status) (rest []string, run bool) {
	if len(tokens) == 0 {
		return tokens, true
	}

	switch tokens[0] {
	case GateThen:
		return tokens[1:], status == Success
	case GateElse:
		return tokens[1:], status == Failure
	default:
		return tokens, true
	}
}

// IsGate returns true if name is one of the conditional gate tokens.
func IsGate(name string) bool {
	return name == GateThen || name == GateElse
}
