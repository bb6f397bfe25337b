package shell

import (
	"fmt"
	"strings"
)

// Operators recognized by the plan builder.
const (
	OpPipe        = "|"
	OpRedirectIn  = "<"
	OpRedirectOut = ">"
)

// Stage is a single command in a plan.
type Stage struct {
	// Args holds the program name followed by its arguments with redirection
	// operators and their targets removed.
	Args []string
	// InFile is the path stdin is read from, empty if none.
	InFile string
	// OutFile is the path stdout is written to, empty if none.
	OutFile string
}

// Name returns the program name of the stage.
func (s Stage) Name() string {
	if len(s.Args) == 0 {
		return ""
	}
	return s.Args[0]
}

func (s Stage) String() string {
	return fmt.Sprintf("argv=%q in=%q out=%q", s.Args, s.InFile, s.OutFile)
}

// Plan is a parsed command line of one or two stages.
type Plan struct {
	Stages []Stage
}

// IsPipeline returns true if the plan connects two stages with a pipe.
func (p *Plan) IsPipeline() bool {
	return len(p.Stages) == 2
}

func (p *Plan) String() string {
	var sb strings.Builder
	for i, stage := range p.Stages {
		fmt.Fprintf(&sb, "stage %d: %s\n", i, stage)
	}
	return sb.String()
}

// SplitPipeline splits a raw line on the first pipe operator. Any later pipe
// characters are left in the second half. Each half is trimmed.
func SplitPipeline(line string) []string {
	first, second, found := strings.Cut(line, OpPipe)
	if !found {
		return []string{strings.TrimSpace(line)}
	}
	return []string{strings.TrimSpace(first), strings.TrimSpace(second)}
}

// ParseStage extracts the redirections from an expanded token sequence. The
// first occurrence of each operator wins, later ones are removed along with
// their target but otherwise ignored.
func ParseStage(tokens []string) (Stage, error) {
	var stage Stage
	stage.Args = make([]string, 0, len(tokens))

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok != OpRedirectIn && tok != OpRedirectOut {
			stage.Args = append(stage.Args, tok)
			continue
		}

		if i+1 >= len(tokens) {
			return Stage{}, fmt.Errorf("%w: %s requires a file path", ErrSyntax, tok)
		}
		i++
		target := tokens[i]

		switch {
		case tok == OpRedirectIn && stage.InFile == "":
			stage.InFile = target
		case tok == OpRedirectOut && stage.OutFile == "":
			stage.OutFile = target
		}
	}

	return stage, nil
}

// NewPlan builds a plan from the expanded tokens of each pipeline half.
func NewPlan(halves [][]string) (*Plan, error) {
	if len(halves) == 0 || len(halves) > 2 {
		return nil, fmt.Errorf("%w: expected 1 or 2 stages, got %d", ErrSyntax, len(halves))
	}

	plan := &Plan{}
	for _, tokens := range halves {
		stage, err := ParseStage(tokens)
		if err != nil {
			return nil, err
		}
		if len(stage.Args) == 0 {
			if len(halves) > 1 {
				return nil, fmt.Errorf("%w: empty command in pipeline", ErrSyntax)
			}
			return nil, fmt.Errorf("%w: missing command", ErrSyntax)
		}
		plan.Stages = append(plan.Stages, stage)
	}

	if plan.IsPipeline() {
		if plan.Stages[0].OutFile != "" {
			return nil, fmt.Errorf("%w: %s conflicts with %s on the first stage", ErrSyntax, OpRedirectOut, OpPipe)
		}
		if plan.Stages[1].InFile != "" {
			return nil, fmt.Errorf("%w: %s conflicts with %s on the second stage", ErrSyntax, OpRedirectIn, OpPipe)
		}
	}

	return plan, nil
}
