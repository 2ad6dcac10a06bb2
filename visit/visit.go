// Package visit defines the decode protocol that connects a Go type to the
// argument format.
//
// The protocol is a visitor-style callback interface: a type (or a seed
// driving it) asks a Deserializer for a value of a particular kind, and the
// Deserializer answers by invoking the matching Visit method with the decoded
// data. The same protocol is driven twice per invocation: once by the shape
// tracer, which never supplies real data, and once by the context decoder,
// which supplies the parsed arguments.
//
// Most callers never implement this package's interfaces by hand; the argot
// package derives an implementation from a struct definition via reflection.
package visit

// Kind identifies a primitive request made through Deserializer.Primitive.
type Kind uint8

const (
	Int Kind = iota
	Int8
	Int16
	Int32
	Int64
	Uint
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	String
	Bytes
	Rune
)

var kindNames = [...]string{
	Int:     "int",
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Uint:    "uint",
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
	String:  "string",
	Bytes:   "bytes",
	Rune:    "rune",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Numeric reports whether the kind parses from a numeric token.
func (k Kind) Numeric() bool {
	return k <= Float64
}

// Deserializer is one side of the decode protocol. Each method corresponds to
// a request for a value of the given structure; the Deserializer answers by
// calling back into the Visitor.
//
// Any and Ignored exist only so that self-describing requests can be rejected:
// the argument format is not self-describing, and every Deserializer in this
// module fails both with ErrNotSelfDescribing.
type Deserializer interface {
	Bool(v Visitor) (any, error)
	Primitive(k Kind, v Visitor) (any, error)
	Unit(v Visitor) (any, error)
	Option(v Visitor) (any, error)
	Struct(name string, fields []string, v Visitor) (any, error)
	Enum(name string, variants []string, v Visitor) (any, error)
	Identifier(v Visitor) (any, error)
	Any(v Visitor) (any, error)
	Ignored(v Visitor) (any, error)
}

// Visitor receives decoded data. Expecting returns a short description of the
// value the visitor produces; it doubles as the container description shown in
// help output.
type Visitor interface {
	Expecting() string

	VisitBool(b bool) (any, error)
	VisitInt(n int64) (any, error)
	VisitUint(n uint64) (any, error)
	VisitFloat(f float64) (any, error)
	VisitString(s string) (any, error)
	VisitBytes(b []byte) (any, error)
	VisitNone() (any, error)
	VisitSome(d Deserializer) (any, error)
	VisitUnit() (any, error)
	VisitMap(m MapAccess) (any, error)
	VisitEnum(e EnumAccess) (any, error)
}

// Seed deserializes a value through a Deserializer. Seeds must be reusable:
// the tracer invokes the same seed many times while discovering a shape.
type Seed interface {
	Deserialize(d Deserializer) (any, error)
}

// SeedFunc adapts a function to the Seed interface.
type SeedFunc func(d Deserializer) (any, error)

func (f SeedFunc) Deserialize(d Deserializer) (any, error) { return f(d) }

// MapAccess feeds struct fields to a Visitor one key/value pair at a time.
// NextKey returns false when no pair remains.
type MapAccess interface {
	NextKey(seed Seed) (key any, ok bool, err error)
	NextValue(seed Seed) (any, error)
}

// EnumAccess resolves which variant of a tagged union is present.
type EnumAccess interface {
	Variant(seed Seed) (key any, va VariantAccess, err error)
}

// VariantAccess decodes the content of the variant selected by EnumAccess.
type VariantAccess interface {
	Unit() error
	Newtype(seed Seed) (any, error)
	Struct(fields []string, v Visitor) (any, error)
}

// Discriminant is an optional extension for decoded keys. It reports a stable
// identity for the logical field or variant the key names, independent of
// which alias string was used. The tracer merges key spellings whose
// discriminants are equal into aliases of one logical field.
type Discriminant interface {
	Discriminant() uint64
}

// IndexDescriber is an optional extension on Visitors supplying help text for
// the field or variant at declaration index i. Absence of the interface (or a
// false return) means no help text is available for that element.
type IndexDescriber interface {
	DescribeIndex(i int) (string, bool)
}

// Versioner is an optional extension on Visitors supplying a version string.
// When present, the parser reserves a --version override flag.
type Versioner interface {
	Version() (string, bool)
}

// Describer is an optional extension on Visitors supplying a description
// distinct from the Expecting string, used in generated usage text.
type Describer interface {
	Describe() (string, bool)
}
