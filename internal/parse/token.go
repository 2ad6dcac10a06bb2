package parse

import (
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

type tokenKind uint8

const (
	positionalToken tokenKind = iota
	optionalToken
	endOfOptionsToken
)

// token is one classified argument. A positional token keeps its raw bytes;
// an optional token keeps only the flag name with its leading dashes
// stripped.
type token struct {
	kind  tokenKind
	value []byte
}

// args yields raw argument bytes with a single token of pushback. Pushback
// is needed because option scanning must hand a non-option token back to the
// enclosing context, and because a short flag can be revisited as a value.
type args struct {
	remaining  [][]byte
	revisit    []byte
	hasRevisit bool

	// consumed records whether any token was ever taken, distinguishing an
	// empty invocation from one whose arguments ran out mid-parse.
	consumed bool
}

func newArgs(arguments []string) *args {
	remaining := make([][]byte, len(arguments))
	for i, argument := range arguments {
		remaining[i] = []byte(argument)
	}
	return &args{remaining: remaining}
}

func (a *args) push(value []byte) {
	a.revisit = value
	a.hasRevisit = true
}

func (a *args) next() ([]byte, bool) {
	if a.hasRevisit {
		a.hasRevisit = false
		value := a.revisit
		a.revisit = nil
		a.consumed = true
		return value, true
	}
	if len(a.remaining) == 0 {
		return nil, false
	}
	value := a.remaining[0]
	a.remaining = a.remaining[1:]
	a.consumed = true
	return value, true
}

// nextToken classifies the next argument. A lone "-" is an optional token
// with an empty name, "--" ends the option window, and "--name" is a long
// flag. A short "-x" is only a flag when x is a single grapheme cluster of
// at most four bytes; anything longer (like a negative number) is
// positional.
func (a *args) nextToken() (token, bool) {
	value, ok := a.next()
	if !ok {
		return token{}, false
	}
	if len(value) == 0 || value[0] != '-' {
		return token{kind: positionalToken, value: value}, true
	}
	short := value[1:]
	if len(short) == 0 {
		return token{kind: optionalToken, value: []byte{}}, true
	}
	if short[0] == '-' {
		long := short[1:]
		if len(long) == 0 {
			return token{kind: endOfOptionsToken}, true
		}
		return token{kind: optionalToken, value: long}, true
	}
	if len(short) <= 4 && utf8.Valid(short) && uniseg.GraphemeClusterCount(string(short)) == 1 {
		return token{kind: optionalToken, value: short}, true
	}
	return token{kind: positionalToken, value: value}, true
}

// nextPositional takes the next argument raw, ignoring flag syntax.
func (a *args) nextPositional() ([]byte, bool) {
	return a.next()
}

// nextOptional takes the next token only if it is a flag; a positional token
// is pushed back, and end-of-options swallows the token and yields nothing.
func (a *args) nextOptional() ([]byte, bool) {
	t, ok := a.nextToken()
	if !ok {
		return nil, false
	}
	switch t.kind {
	case optionalToken:
		return t.value, true
	case positionalToken:
		a.push(t.value)
		return nil, false
	default:
		return nil, false
	}
}
