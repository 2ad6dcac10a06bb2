package parse

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/rivo/uniseg"
)

// ErrHelp reports that an override help flag was matched. It is not a
// failure; callers render usage instead.
var ErrHelp = errors.New("help requested")

// ErrVersion reports that the override version flag was matched.
var ErrVersion = errors.New("version requested")

// MissingArgumentsError reports required positional arguments that were
// absent from the input.
type MissingArgumentsError struct {
	Arguments []string
}

func (e *MissingArgumentsError) Error() string {
	if len(e.Arguments) == 1 {
		return fmt.Sprintf("missing required positional argument: <%s>", e.Arguments[0])
	}
	var b strings.Builder
	b.WriteString("missing required positional arguments:")
	for _, argument := range e.Arguments {
		fmt.Fprintf(&b, " <%s>", argument)
	}
	return b.String()
}

// UnexpectedArgumentError reports a positional argument left over after the
// whole shape was satisfied.
type UnexpectedArgumentError struct {
	Argument []byte
}

func (e *UnexpectedArgumentError) Error() string {
	return fmt.Sprintf("unexpected positional argument: %s", lossy(e.Argument))
}

// UnrecognizedOptionError reports a flag that matched nothing in scope.
// Expecting lists every flag spelling that was valid at that point, used to
// offer a nearest-match tip.
type UnrecognizedOptionError struct {
	Name      string
	Expecting []string
}

func (e *UnrecognizedOptionError) Error() string {
	message := fmt.Sprintf("unrecognized optional flag: %s", dashed(e.Name))
	if hint, ok := closest(e.Name, e.Expecting); ok {
		message += fmt.Sprintf("\n\n  tip: a similar option exists: %s", dashed(hint))
	}
	return message
}

// UnrecognizedVariantError reports a command name that matched no variant.
type UnrecognizedVariantError struct {
	Name      string
	Expecting []string
}

func (e *UnrecognizedVariantError) Error() string {
	message := fmt.Sprintf("unrecognized command: %s", e.Name)
	if hint, ok := closest(e.Name, e.Expecting); ok {
		message += fmt.Sprintf("\n\n  tip: a similar command exists: %s", hint)
	}
	return message
}

// closest picks the candidate nearest to name, provided it is near enough to
// plausibly be a typo.
func closest(name string, candidates []string) (string, bool) {
	const maxDistance = 5
	interner := make(map[string]rune)
	interned := internClusters(name, interner)
	best, bestDistance := "", maxDistance
	for _, candidate := range candidates {
		distance := levenshtein.ComputeDistance(interned, internClusters(candidate, interner))
		if distance < bestDistance {
			best, bestDistance = candidate, distance
		}
	}
	return best, bestDistance < maxDistance
}

// internClusters maps each grapheme cluster of s to a stable private-use rune
// so edit distance counts clusters, not the runes composing them.
func internClusters(s string, interner map[string]rune) string {
	var b strings.Builder
	state := -1
	for len(s) > 0 {
		var cluster string
		cluster, s, _, state = uniseg.FirstGraphemeClusterInString(s, state)
		r, ok := interner[cluster]
		if !ok {
			r = rune(0xE000 + len(interner))
			interner[cluster] = r
		}
		b.WriteRune(r)
	}
	return b.String()
}

func dashed(name string) string {
	if utf8.RuneCountInString(name) == 1 {
		return "-" + name
	}
	return "--" + name
}

func lossy(value []byte) string {
	if utf8.Valid(value) {
		return string(value)
	}
	return strings.ToValidUTF8(string(value), "�")
}
