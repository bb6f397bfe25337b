package shell

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// GlobChar is the only character that triggers wildcard expansion.
const GlobChar = "*"

// Expander replaces wildcard tokens with the paths they match.
type Expander struct {
	// Fs is searched for matches, relative patterns resolve against the
	// working directory when it's an OS filesystem.
	Fs afero.Fs
	// MaxTokens bounds the expanded sequence, zero means unlimited.
	MaxTokens int
}

// Expand returns a new token sequence where every token containing GlobChar is
// replaced by its matches in lexical order. Patterns that match nothing are
// dropped rather than passed through literally. Entries whose name starts
// with a dot only match a pattern segment that starts with a dot too.
func (e *Expander) Expand(tokens []string) ([]string, error) {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if !strings.Contains(tok, GlobChar) {
			out = append(out, tok)
		} else {
			// A malformed pattern is treated the same as one with no matches.
			matches, _ := afero.Glob(e.Fs, tok)
			for _, match := range matches {
				if !revealsHidden(tok, match) {
					out = append(out, match)
				}
			}
		}

		if err := checkLimit(len(out), e.MaxTokens); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// revealsHidden returns true if a wildcard segment of pattern matched a dot
// entry in match. Segments are compared from the end because the glob cleans
// the directory part of the pattern.
func revealsHidden(pattern, match string) bool {
	patternSegs := strings.Split(pattern, string(filepath.Separator))
	matchSegs := strings.Split(match, string(filepath.Separator))

	for i, j := len(patternSegs)-1, len(matchSegs)-1; i >= 0 && j >= 0; i, j = i-1, j-1 {
		seg := patternSegs[i]
		if !strings.ContainsAny(seg, "*?[") || strings.HasPrefix(seg, ".") {
			continue
		}
		if strings.HasPrefix(matchSegs[j], ".") {
			return true
		}
	}
	return false
}

// Words tokenizes a line and expands its wildcards.
func (e *Expander) Words(line string) ([]string, error) {
	tokens, err := Tokenize(line, e.MaxTokens)
	if err != nil {
		return nil, err
	}
	return e.Expand(tokens)
}
