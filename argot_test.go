package argot

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/argot-go/argot/visit"
)

func ptr[T any](v T) *T { return &v }

type fileArgs struct {
	Path    string `help:"File to inspect."`
	Limit   *uint  `help:"Stop after this many lines." alias:"l"`
	Verbose bool   `help:"Print extra detail."`
}

func TestParseStruct(t *testing.T) {
	tests := []struct {
		name      string
		arguments []string
		want      fileArgs
	}{
		{
			name:      "positional only",
			arguments: []string{"file.txt"},
			want:      fileArgs{Path: "file.txt"},
		},
		{
			name:      "long option",
			arguments: []string{"file.txt", "--limit", "3"},
			want:      fileArgs{Path: "file.txt", Limit: ptr(uint(3))},
		},
		{
			name:      "alias and flag",
			arguments: []string{"file.txt", "--verbose", "-l", "3"},
			want:      fileArgs{Path: "file.txt", Limit: ptr(uint(3)), Verbose: true},
		},
		{
			name:      "options before positional",
			arguments: []string{"--verbose", "file.txt"},
			want:      fileArgs{Path: "file.txt", Verbose: true},
		},
		{
			name:      "end of options",
			arguments: []string{"--", "--verbose"},
			want:      fileArgs{Path: "--verbose"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse[fileArgs](tt.arguments, WithProgram("demo"))
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParsePrimitiveRoot(t *testing.T) {
	got, err := Parse[uint64]([]string{"7"}, WithProgram("demo"))
	if err != nil {
		t.Fatal(err)
	}
	if got != 7 {
		t.Errorf("Parse = %d, want 7", got)
	}
}

type printCmd struct {
	Path   string `help:"File to print."`
	Number bool   `help:"Number the lines."`
}

type countCmd struct {
	Path string `help:"File to count."`
}

type fileCmd struct {
	Print *printCmd `cmd:"print" help:"Print a file."`
	Count *countCmd `cmd:"count" alias:"c" help:"Count lines."`
}

func TestParseSubcommand(t *testing.T) {
	tests := []struct {
		name      string
		arguments []string
		want      fileCmd
	}{
		{
			name:      "subcommand with flag",
			arguments: []string{"print", "file.txt", "--number"},
			want:      fileCmd{Print: &printCmd{Path: "file.txt", Number: true}},
		},
		{
			name:      "subcommand alias",
			arguments: []string{"c", "file.txt"},
			want:      fileCmd{Count: &countCmd{Path: "file.txt"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse[fileCmd](tt.arguments, WithProgram("demo"))
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseHelp(t *testing.T) {
	tests := []struct {
		name      string
		arguments []string
	}{
		{"long flag", []string{"--help"}},
		{"short flag", []string{"-h"}},
		{"bare invocation", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse[fileArgs](tt.arguments, WithProgram("demo"))
			var perr *Error
			if !errors.As(err, &perr) || !perr.IsHelp() {
				t.Fatalf("Parse error = %v, want help request", err)
			}
			text := perr.Error()
			for _, fragment := range []string{
				"USAGE: demo [options] <path>",
				"File to inspect.",
				"--limit <uint>",
				"-h --help  Display this message.",
			} {
				if !strings.Contains(text, fragment) {
					t.Errorf("help output missing %q:\n%s", fragment, text)
				}
			}
		})
	}
}

func TestParseVersion(t *testing.T) {
	_, err := Parse[fileArgs]([]string{"--version"}, WithProgram("demo"), WithVersion("demo 1.2.3"))
	var perr *Error
	if !errors.As(err, &perr) || !perr.IsVersion() {
		t.Fatalf("Parse error = %v, want version request", err)
	}
	if got, want := perr.Error(), "demo 1.2.3"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestWithDescription(t *testing.T) {
	_, err := Parse[fileArgs]([]string{"--help"}, WithProgram("demo"), WithDescription("Inspect files."))
	var perr *Error
	if !errors.As(err, &perr) || !perr.IsHelp() {
		t.Fatalf("Parse error = %v, want help request", err)
	}
	if text := perr.Error(); !strings.HasPrefix(text, "Inspect files.\n") {
		t.Errorf("help output does not start with the description:\n%s", text)
	}
}

func TestParseUsageErrors(t *testing.T) {
	tests := []struct {
		name      string
		arguments []string
		fragment  string
	}{
		{
			name:      "unexpected argument",
			arguments: []string{"file.txt", "extra"},
			fragment:  "unexpected positional argument: extra",
		},
		{
			name:      "unrecognized option with hint",
			arguments: []string{"file.txt", "--limt", "3"},
			fragment:  "tip: a similar option exists: --limit",
		},
		{
			// A lone "-1" is a short flag, not a negative value.
			name:      "negative short token",
			arguments: []string{"file.txt", "-l", "-1"},
			fragment:  "unrecognized optional flag: -1",
		},
		{
			name:      "invalid numeric text",
			arguments: []string{"file.txt", "-l", "many"},
			fragment:  "invalid type: expected uint, found many",
		},
		{
			name:      "duplicate flag",
			arguments: []string{"file.txt", "--verbose", "--verbose"},
			fragment:  "the argument --verbose cannot be used multiple times",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse[fileArgs](tt.arguments, WithProgram("demo"))
			var perr *Error
			if !errors.As(err, &perr) || !perr.IsUsage() {
				t.Fatalf("Parse error = %v, want usage error", err)
			}
			text := perr.Error()
			if !strings.Contains(text, tt.fragment) {
				t.Errorf("error output missing %q:\n%s", tt.fragment, text)
			}
			if !strings.Contains(text, "USAGE: demo") {
				t.Errorf("error output missing usage line:\n%s", text)
			}
			if !strings.Contains(text, "For more information, use --help.") {
				t.Errorf("error output missing help pointer:\n%s", text)
			}
		})
	}
}

type rangeArgs struct {
	N uint8 `help:"A small number."`
}

func TestParseOutOfRange(t *testing.T) {
	_, err := Parse[rangeArgs]([]string{"256"}, WithProgram("demo"))
	var perr *Error
	if !errors.As(err, &perr) || !perr.IsUsage() {
		t.Fatalf("Parse error = %v, want usage error", err)
	}
	if !strings.Contains(perr.Error(), "invalid value: expected uint8, found 256") {
		t.Errorf("error output = %q", perr.Error())
	}
}

// exhaustedMap is a map access with no pairs left.
type exhaustedMap struct{}

func (exhaustedMap) NextKey(visit.Seed) (any, bool, error) { return nil, false, nil }
func (exhaustedMap) NextValue(visit.Seed) (any, error)     { return nil, errors.New("no value") }

func TestVisitMapMissingField(t *testing.T) {
	b, err := bindingFor(reflect.TypeOf(fileArgs{}))
	if err != nil {
		t.Fatalf("bindingFor() error = %v", err)
	}
	_, err = structVisitor{baseVisitor{"struct fileArgs"}, b}.VisitMap(exhaustedMap{})
	var missing *visit.MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("VisitMap error = %v, want MissingFieldError", err)
	}
	if missing.Field != "path" {
		t.Errorf("missing field = %q, want %q", missing.Field, "path")
	}
}

type offsetArgs struct {
	Offset int `help:"Byte offset."`
}

func TestParseSignedPositional(t *testing.T) {
	got, err := Parse[offsetArgs]([]string{"-42"}, WithProgram("demo"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got.Offset != -42 {
		t.Errorf("Offset = %d, want -42", got.Offset)
	}
}

func TestParseSignedInvalidType(t *testing.T) {
	_, err := Parse[offsetArgs]([]string{"abc"}, WithProgram("demo"))
	var perr *Error
	if !errors.As(err, &perr) || !perr.IsUsage() {
		t.Fatalf("Parse error = %v, want usage error", err)
	}
	if !strings.Contains(perr.Error(), "invalid type: expected int, found abc") {
		t.Errorf("error output = %q", perr.Error())
	}
}

func TestParseUnknownSubcommand(t *testing.T) {
	_, err := Parse[fileCmd]([]string{"coun"}, WithProgram("demo"))
	var perr *Error
	if !errors.As(err, &perr) || !perr.IsUsage() {
		t.Fatalf("Parse error = %v, want usage error", err)
	}
	if !strings.Contains(perr.Error(), "tip: a similar command exists: count") {
		t.Errorf("error output = %q", perr.Error())
	}
}

type sliceArgs struct {
	Values []int
}

type mixedArgs struct {
	Print *printCmd `cmd:"print"`
	Path  string
}

func TestParseDevelopmentErrors(t *testing.T) {
	t.Run("unsupported slice", func(t *testing.T) {
		_, err := Parse[sliceArgs](nil, WithProgram("demo"))
		var perr *Error
		if !errors.As(err, &perr) {
			t.Fatalf("Parse error = %v, want *Error", err)
		}
		if perr.IsHelp() || perr.IsVersion() || perr.IsUsage() {
			t.Fatalf("error is not a development error: %v", perr)
		}
		if !errors.Is(err, visit.ErrUnsupported) {
			t.Errorf("Unwrap chain does not reach ErrUnsupported: %v", err)
		}
	})

	t.Run("mixed command and argument fields", func(t *testing.T) {
		_, err := Parse[mixedArgs](nil, WithProgram("demo"))
		var perr *Error
		if !errors.As(err, &perr) {
			t.Fatalf("Parse error = %v, want *Error", err)
		}
		if !strings.Contains(perr.Error(), "mixes command fields with argument fields") {
			t.Errorf("error output = %q", perr.Error())
		}
	})
}

func TestParseSeed(t *testing.T) {
	got, err := ParseSeed([]string{"7"}, typeSeed{t: reflect.TypeOf(uint64(0))}, WithProgram("demo"))
	if err != nil {
		t.Fatal(err)
	}
	if got != uint64(7) {
		t.Errorf("ParseSeed = %v, want 7", got)
	}
}

func TestKebab(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Path", "path"},
		{"MaxCount", "max-count"},
		{"HTTPPort", "httpport"},
		{"A", "a"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := kebab(tt.in); got != tt.want {
				t.Errorf("kebab(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
