// Package argot turns a struct definition into a command line interface.
//
// The struct is the single source of truth: its fields become positional
// arguments and flags, pointer fields become optional, bool fields become
// presence flags, and pointer fields tagged with `cmd` become subcommands.
// Parsing a command line is decoding it into the struct, and help and error
// output are generated from the same definition.
//
//	type Args struct {
//		Path    string `help:"File to inspect."`
//		Count   *int   `help:"Line limit." alias:"c"`
//		Verbose bool   `help:"Print extra detail."`
//	}
//
//	args, err := argot.FromArgs[Args]()
//
// Errors returned by this package are *Error values carrying rendered help
// or usage text; a program usually prints the error and exits.
package argot

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/argot-go/argot/internal/decode"
	"github.com/argot-go/argot/internal/parse"
	"github.com/argot-go/argot/internal/shape"
	"github.com/argot-go/argot/internal/trace"
	"github.com/argot-go/argot/internal/usage"
	"github.com/argot-go/argot/visit"
)

// Option adjusts how an invocation is parsed and rendered.
type Option func(*config)

type config struct {
	program     string
	description string
	version     string
}

// WithProgram overrides the program name shown in usage text. The default is
// the base name of the running executable.
func WithProgram(name string) Option {
	return func(c *config) { c.program = name }
}

// WithDescription sets the program description shown at the top of help
// output, replacing the generated one.
func WithDescription(description string) Option {
	return func(c *config) { c.description = description }
}

// WithVersion declares a version string. Declaring one reserves a --version
// override flag that reports it.
func WithVersion(version string) Option {
	return func(c *config) { c.version = version }
}

func newConfig(opts []Option) config {
	c := config{program: programName()}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func programName() string {
	if len(os.Args) == 0 || os.Args[0] == "" {
		return "program"
	}
	return filepath.Base(os.Args[0])
}

// FromArgs parses the process arguments into a value of type T.
func FromArgs[T any](opts ...Option) (T, error) {
	var arguments []string
	if len(os.Args) > 1 {
		arguments = os.Args[1:]
	}
	return Parse[T](arguments, opts...)
}

// Parse parses the given arguments (excluding the program name) into a value
// of type T. T must be a type this package can bind: a struct, a supported
// primitive, or a pointer making either optional.
func Parse[T any](arguments []string, opts ...Option) (T, error) {
	var zero T
	t := reflect.TypeOf(&zero).Elem()
	value, err := parseSeed(arguments, typeSeed{t: t}, tracedShape(t), newConfig(opts))
	if err != nil {
		return zero, err
	}
	return value.(T), nil
}

// ParseSeed parses the given arguments through a hand-written seed instead
// of a reflected type. The seed must be reusable: shape discovery invokes it
// repeatedly.
func ParseSeed(arguments []string, seed visit.Seed, opts ...Option) (any, error) {
	return parseSeed(arguments, seed, func() (*shape.Shape, error) {
		return trace.Trace(seed)
	}, newConfig(opts))
}

func parseSeed(arguments []string, seed visit.Seed, traced func() (*shape.Shape, error), cfg config) (any, error) {
	s, err := traced()
	if err != nil {
		return nil, &Error{kind: developmentKind, program: cfg.program, cause: err}
	}
	s = s.Clone()
	if cfg.description != "" {
		s.Description = cfg.description
	}
	if cfg.version != "" {
		s.Version = cfg.version
	}

	context, err := parse.Parse(arguments, s)
	if err != nil {
		switch err {
		case parse.ErrHelp:
			return nil, &Error{kind: helpKind, program: cfg.program, shape: s}
		case parse.ErrVersion:
			return nil, &Error{kind: versionKind, program: cfg.program, shape: s}
		}
		return nil, &Error{kind: usageKind, program: cfg.program, shape: s, cause: err}
	}

	value, err := seed.Deserialize(decode.New(context))
	if err != nil {
		var development *visit.DevelopmentError
		if errors.As(err, &development) {
			return nil, &Error{kind: developmentKind, program: cfg.program, cause: err}
		}
		return nil, &Error{kind: usageKind, program: cfg.program, shape: s, cause: err}
	}
	return value, nil
}

// shapes memoizes traced shapes per bound type. Tracing restarts the whole
// decode once per field, so it is worth doing once per type per process.
var shapes sync.Map // reflect.Type -> *shape.Shape

func tracedShape(t reflect.Type) func() (*shape.Shape, error) {
	return func() (*shape.Shape, error) {
		if cached, ok := shapes.Load(t); ok {
			return cached.(*shape.Shape), nil
		}
		s, err := trace.Trace(typeSeed{t: t})
		if err != nil {
			return nil, err
		}
		shapes.Store(t, s)
		return s, nil
	}
}

type errorKind uint8

const (
	developmentKind errorKind = iota
	usageKind
	helpKind
	versionKind
)

// Error is the error type returned by this package. Help and version
// requests are reported as errors so that every non-running outcome takes
// the same path; IsHelp and IsVersion distinguish them from failures.
type Error struct {
	kind    errorKind
	program string
	shape   *shape.Shape
	cause   error
}

// IsHelp reports whether the error is a help request rather than a failure.
func (e *Error) IsHelp() bool { return e.kind == helpKind }

// IsVersion reports whether the error is a version request.
func (e *Error) IsVersion() bool { return e.kind == versionKind }

// IsUsage reports whether the error was caused by the command line rather
// than by the program's own definition.
func (e *Error) IsUsage() bool { return e.kind == usageKind }

func (e *Error) Unwrap() error { return e.cause }

// Error renders the full message without color.
func (e *Error) Error() string { return e.render(false) }

// ColorString renders the full message with ANSI color.
func (e *Error) ColorString() string { return e.render(true) }

func (e *Error) render(color bool) string {
	r := usage.Renderer{Program: e.program, Color: color}
	switch e.kind {
	case helpKind:
		return r.Help(e.shape)
	case versionKind:
		return r.Version(e.shape)
	case usageKind:
		return r.Error(e.cause.Error(), e.shape)
	default:
		return "tracing error: " + e.cause.Error()
	}
}
