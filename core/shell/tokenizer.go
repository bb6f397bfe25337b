package shell

import (
	"fmt"
	"strings"
)

// DefaultMaxTokens is the number of tokens a single command may expand to.
const DefaultMaxTokens = 63

func isSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// Tokenize splits line on runs of whitespace. No quoting or escaping is
// recognized. If max is positive and the line holds more than max tokens,
// ErrResourceExhausted is returned.
func Tokenize(line string, max int) ([]string, error) {
	tokens := strings.FieldsFunc(line, isSeparator)
	if tokens == nil {
		tokens = []string{}
	}
	if err := checkLimit(len(tokens), max); err != nil {
		return nil, err
	}
	return tokens, nil
}

func checkLimit(count, max int) error {
	if max > 0 && count > max {
		return fmt.Errorf("%w: %d tokens, limit is %d", ErrResourceExhausted, count, max)
	}
	return nil
}
