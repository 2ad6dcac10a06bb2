package parse

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/argot-go/argot/internal/shape"
)

func primitiveShape(name string) *shape.Shape {
	return &shape.Shape{Kind: shape.Primitive, Name: name}
}

func structShape(name string, required, optional []shape.Field) *shape.Shape {
	return &shape.Shape{Kind: shape.Struct, Name: name, Required: required, Optional: optional}
}

func ctx(segments ...Segment) *Context {
	return &Context{Segments: segments}
}

func TestParsePrimitive(t *testing.T) {
	got, err := Parse([]string{"5"}, primitiveShape("value"))
	if err != nil {
		t.Fatal(err)
	}
	want := ctx(value([]byte("5")))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("context mismatch (-want +got):\n%s", diff)
	}
}

func TestParseStructRequired(t *testing.T) {
	s := structShape("args", []shape.Field{
		{Name: "foo", Shape: primitiveShape("a")},
		{Name: "bar", Shape: primitiveShape("b")},
	}, nil)
	got, err := Parse([]string{"one", "two"}, s)
	if err != nil {
		t.Fatal(err)
	}
	want := ctx(
		child(ctx(identifier("foo"), value([]byte("one")))),
		child(ctx(identifier("bar"), value([]byte("two")))),
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("context mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFlag(t *testing.T) {
	s := structShape("args", nil, []shape.Field{
		{Name: "verbose", Shape: &shape.Shape{Kind: shape.Empty}},
	})
	got, err := Parse([]string{"--verbose"}, s)
	if err != nil {
		t.Fatal(err)
	}
	want := ctx(child(ctx(identifier("verbose"))))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("context mismatch (-want +got):\n%s", diff)
	}
}

func TestParseOptionValue(t *testing.T) {
	s := structShape("args", nil, []shape.Field{
		{Name: "limit", Shape: primitiveShape("n")},
	})
	got, err := Parse([]string{"--limit", "3"}, s)
	if err != nil {
		t.Fatal(err)
	}
	want := ctx(child(ctx(identifier("limit"), value([]byte("3")))))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("context mismatch (-want +got):\n%s", diff)
	}
}

func TestParseOptionAlias(t *testing.T) {
	s := structShape("args", nil, []shape.Field{
		{Name: "limit", Aliases: []string{"l"}, Shape: primitiveShape("n")},
	})
	got, err := Parse([]string{"-l", "3"}, s)
	if err != nil {
		t.Fatal(err)
	}
	// The spelling that matched is recorded, not the canonical name.
	want := ctx(child(ctx(identifier("l"), value([]byte("3")))))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("context mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRepeatedOption(t *testing.T) {
	s := structShape("args", nil, []shape.Field{
		{Name: "limit", Shape: primitiveShape("n")},
	})
	got, err := Parse([]string{"--limit", "1", "--limit", "2"}, s)
	if err != nil {
		t.Fatal(err)
	}
	want := ctx(
		child(ctx(identifier("limit"), value([]byte("1")))),
		child(ctx(identifier("limit"), value([]byte("2")))),
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("context mismatch (-want +got):\n%s", diff)
	}
}

func TestParseOptionBeforePositional(t *testing.T) {
	s := structShape("args", []shape.Field{
		{Name: "path", Shape: primitiveShape("p")},
	}, []shape.Field{
		{Name: "limit", Shape: primitiveShape("n")},
	})
	got, err := Parse([]string{"--limit", "3", "file.txt"}, s)
	if err != nil {
		t.Fatal(err)
	}
	want := ctx(
		child(ctx(identifier("limit"), value([]byte("3")))),
		child(ctx(identifier("path"), value([]byte("file.txt")))),
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("context mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEndOfOptions(t *testing.T) {
	s := structShape("args", []shape.Field{
		{Name: "n", Shape: primitiveShape("n")},
	}, nil)
	got, err := Parse([]string{"--", "-42"}, s)
	if err != nil {
		t.Fatal(err)
	}
	want := ctx(child(ctx(identifier("n"), value([]byte("-42")))))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("context mismatch (-want +got):\n%s", diff)
	}
}

func TestParseNegativeNumberIsPositional(t *testing.T) {
	got, err := Parse([]string{"-42"}, primitiveShape("n"))
	if err != nil {
		t.Fatal(err)
	}
	want := ctx(value([]byte("-42")))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("context mismatch (-want +got):\n%s", diff)
	}
}

func TestParseHelp(t *testing.T) {
	tests := []struct {
		name      string
		arguments []string
	}{
		{"long", []string{"--help"}},
		{"short", []string{"-h"}},
		{"after positional", []string{"file.txt", "--help"}},
		{"bare invocation", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := structShape("args", []shape.Field{
				{Name: "path", Shape: primitiveShape("p")},
			}, nil)
			_, err := Parse(tt.arguments, s)
			if !errors.Is(err, ErrHelp) {
				t.Fatalf("Parse(%q) error = %v, want ErrHelp", tt.arguments, err)
			}
		})
	}
}

func TestParseVersion(t *testing.T) {
	s := structShape("args", nil, nil)
	s.Version = "demo 1.0.0"
	_, err := Parse([]string{"--version"}, s)
	if !errors.Is(err, ErrVersion) {
		t.Fatalf("Parse error = %v, want ErrVersion", err)
	}
}

func TestParseVersionUnavailable(t *testing.T) {
	_, err := Parse([]string{"--version"}, structShape("args", nil, nil))
	var unrecognized *UnrecognizedOptionError
	if !errors.As(err, &unrecognized) {
		t.Fatalf("Parse error = %v, want UnrecognizedOptionError", err)
	}
	if unrecognized.Name != "version" {
		t.Errorf("Name = %q, want version", unrecognized.Name)
	}
}

func TestParseMissingArguments(t *testing.T) {
	tests := []struct {
		name      string
		arguments []string
		want      string
	}{
		{
			name:      "one missing",
			arguments: []string{"one", "two"},
			want:      "missing required positional argument: <baz>",
		},
		{
			name:      "several missing",
			arguments: []string{"one"},
			want:      "missing required positional arguments: <bar> <baz>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := structShape("args", []shape.Field{
				{Name: "foo", Shape: primitiveShape("a")},
				{Name: "bar", Shape: primitiveShape("b")},
				{Name: "baz", Shape: primitiveShape("c")},
			}, nil)
			_, err := Parse(tt.arguments, s)
			var missing *MissingArgumentsError
			if !errors.As(err, &missing) {
				t.Fatalf("Parse error = %v, want MissingArgumentsError", err)
			}
			if got := missing.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseUnexpectedArgument(t *testing.T) {
	_, err := Parse([]string{"5", "extra"}, primitiveShape("n"))
	var unexpected *UnexpectedArgumentError
	if !errors.As(err, &unexpected) {
		t.Fatalf("Parse error = %v, want UnexpectedArgumentError", err)
	}
	if got, want := unexpected.Error(), "unexpected positional argument: extra"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestParseUnrecognizedOptionHint(t *testing.T) {
	s := structShape("args", nil, []shape.Field{
		{Name: "verbose", Shape: &shape.Shape{Kind: shape.Empty}},
	})
	_, err := Parse([]string{"--verbos"}, s)
	var unrecognized *UnrecognizedOptionError
	if !errors.As(err, &unrecognized) {
		t.Fatalf("Parse error = %v, want UnrecognizedOptionError", err)
	}
	want := "unrecognized optional flag: --verbos\n\n  tip: a similar option exists: --verbose"
	if got := unrecognized.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func enumShape() *shape.Shape {
	return &shape.Shape{
		Kind: shape.Enum,
		Name: "command",
		Variants: []shape.Variant{
			{Name: "print", Shape: &shape.Shape{
				Kind: shape.Struct,
				Name: "print",
				Required: []shape.Field{
					{Name: "path", Shape: primitiveShape("p")},
				},
			}},
			{Name: "count", Aliases: []string{"c"}, Shape: &shape.Shape{Kind: shape.Empty}},
		},
	}
}

func TestParseEnum(t *testing.T) {
	s := enumShape()
	got, err := Parse([]string{"print", "file.txt"}, s)
	if err != nil {
		t.Fatal(err)
	}
	want := ctx(
		identifier("print"),
		child(ctx(identifier("path"), value([]byte("file.txt")))),
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("context mismatch (-want +got):\n%s", diff)
	}
	// The shape narrows in place so usage rendering reflects the command.
	if s.Kind != shape.Narrowed {
		t.Errorf("shape kind = %d, want Narrowed", s.Kind)
	}
	if s.Name != "print" {
		t.Errorf("shape name = %q, want print", s.Name)
	}
}

func TestParseEnumAlias(t *testing.T) {
	got, err := Parse([]string{"c"}, enumShape())
	if err != nil {
		t.Fatal(err)
	}
	want := ctx(identifier("c"))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("context mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEnumUnrecognized(t *testing.T) {
	_, err := Parse([]string{"coun"}, enumShape())
	var unrecognized *UnrecognizedVariantError
	if !errors.As(err, &unrecognized) {
		t.Fatalf("Parse error = %v, want UnrecognizedVariantError", err)
	}
	want := "unrecognized command: coun\n\n  tip: a similar command exists: count"
	if got := unrecognized.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestParseEnumAfterEndOfOptions(t *testing.T) {
	got, err := Parse([]string{"--", "count"}, enumShape())
	if err != nil {
		t.Fatal(err)
	}
	want := ctx(identifier("count"))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("context mismatch (-want +got):\n%s", diff)
	}
}

func TestParseOptionalPositional(t *testing.T) {
	optional := func() *shape.Shape {
		return &shape.Shape{
			Kind:  shape.Optional,
			Inner: &shape.Shape{Kind: shape.Empty},
		}
	}

	t.Run("present", func(t *testing.T) {
		s := structShape("args", []shape.Field{{Name: "opt", Shape: optional()}}, nil)
		got, err := Parse([]string{"-"}, s)
		if err != nil {
			t.Fatal(err)
		}
		want := ctx(child(ctx(identifier("opt"), child(ctx()))))
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("context mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("absent", func(t *testing.T) {
		s := structShape("args", []shape.Field{{Name: "opt", Shape: optional()}}, nil)
		got, err := Parse(nil, s)
		if err != nil {
			t.Fatal(err)
		}
		want := ctx(child(ctx(identifier("opt"))))
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("context mismatch (-want +got):\n%s", diff)
		}
	})
}
