package visit

import (
	"fmt"
	"strings"
)

// DevelopmentError marks a protocol misuse: the target type's decode logic is
// incompatible with the argument format. It is a programming mistake, never a
// user-facing usage problem.
type DevelopmentError struct {
	msg string
}

func (e *DevelopmentError) Error() string { return e.msg }

// Development creates a DevelopmentError describing a binding mistake.
func Development(format string, args ...any) *DevelopmentError {
	return &DevelopmentError{msg: fmt.Sprintf(format, args...)}
}

var (
	// ErrNotSelfDescribing is returned for Any and Ignored requests. The
	// argument format cannot decode without knowing the target structure.
	ErrNotSelfDescribing = &DevelopmentError{
		msg: "cannot deserialize as self-describing; use of Deserializer.Any or Deserializer.Ignored is not allowed",
	}

	// ErrMixedAccess is returned when one type requests both Struct and Enum
	// decoding across separate trace restarts.
	ErrMixedAccess = &DevelopmentError{
		msg: "cannot deserialize using both Deserializer.Struct and Deserializer.Enum on the same type",
	}

	// ErrIdentifier is returned when a key seed decodes through anything but
	// Deserializer.Identifier.
	ErrIdentifier = &DevelopmentError{
		msg: "identifiers must be deserialized with Deserializer.Identifier",
	}

	// ErrUnsupported is returned for sequence, tuple and map structures,
	// which the argument format does not represent.
	ErrUnsupported = &DevelopmentError{
		msg: "sequences, tuples and maps cannot be represented as command line arguments",
	}
)

// InvalidTypeError reports a token of the wrong type, e.g. text where a
// number was required.
type InvalidTypeError struct {
	Unexpected string
	Expected   string
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("invalid type: expected %s, found %s", e.Expected, e.Unexpected)
}

// InvalidValueError reports a token of the right type but an unrepresentable
// value, e.g. an integer out of range.
type InvalidValueError struct {
	Unexpected string
	Expected   string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value: expected %s, found %s", e.Expected, e.Unexpected)
}

// UnknownFieldError reports a named argument that is not a field of the
// struct being decoded.
type UnknownFieldError struct {
	Field    string
	Expected []string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unexpected argument --%s, expected one of %s", e.Field, flagList(e.Expected))
}

// UnknownVariantError reports a command name that is not a variant of the
// union being decoded.
type UnknownVariantError struct {
	Variant  string
	Expected []string
}

func (e *UnknownVariantError) Error() string {
	return fmt.Sprintf("unknown command %s, expected one of %s", e.Variant, strings.Join(e.Expected, ", "))
}

// MissingFieldError reports a required field with no parsed value.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing argument <%s>", e.Field)
}

// DuplicateFieldError reports a named argument supplied more than once.
type DuplicateFieldError struct {
	Field string
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("the argument --%s cannot be used multiple times", e.Field)
}

func flagList(names []string) string {
	flags := make([]string, len(names))
	for i, name := range names {
		if len([]rune(name)) == 1 {
			flags[i] = "-" + name
		} else {
			flags[i] = "--" + name
		}
	}
	return strings.Join(flags, ", ")
}
