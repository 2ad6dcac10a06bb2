// Package decode drives the decode protocol from a parsed context tree. By
// the time decoding runs, all grammar has been resolved; what remains is
// converting raw value bytes into the requested primitive kinds and walking
// the tree in step with the requesting type.
package decode

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/argot-go/argot/internal/parse"
	"github.com/argot-go/argot/visit"
)

// New returns a Deserializer that reads from context.
func New(context *parse.Context) visit.Deserializer {
	return &deserializer{segments: context.Segments}
}

type deserializer struct {
	segments []parse.Segment
}

func (d *deserializer) value() ([]byte, error) {
	if len(d.segments) == 0 || d.segments[0].Kind != parse.ValueSegment {
		return nil, errors.New("decode: no value segment present")
	}
	v := d.segments[0].Value
	d.segments = d.segments[1:]
	return v, nil
}

func (d *deserializer) Bool(v visit.Visitor) (any, error) {
	// A flag's presence is its value: the parser records a present flag as a
	// bare identifier with nothing after it.
	if len(d.segments) == 0 {
		return v.VisitBool(true)
	}
	raw, err := d.value()
	if err != nil {
		return nil, err
	}
	switch string(raw) {
	case "true":
		return v.VisitBool(true)
	case "false":
		return v.VisitBool(false)
	default:
		return nil, &visit.InvalidTypeError{Unexpected: lossy(raw), Expected: v.Expecting()}
	}
}

func (d *deserializer) Primitive(k visit.Kind, v visit.Visitor) (any, error) {
	raw, err := d.value()
	if err != nil {
		return nil, err
	}
	text := string(raw)
	switch k {
	case visit.Int, visit.Int8, visit.Int16, visit.Int32, visit.Int64:
		n, err := strconv.ParseInt(text, 10, bitSize(k))
		if err != nil {
			return nil, numericError(err, raw, v)
		}
		return v.VisitInt(n)
	case visit.Uint, visit.Uint8, visit.Uint16, visit.Uint32, visit.Uint64:
		n, err := strconv.ParseUint(text, 10, bitSize(k))
		if err != nil {
			return nil, numericError(err, raw, v)
		}
		return v.VisitUint(n)
	case visit.Float32, visit.Float64:
		f, err := strconv.ParseFloat(text, bitSize(k))
		if err != nil {
			return nil, numericError(err, raw, v)
		}
		return v.VisitFloat(f)
	case visit.String:
		return v.VisitString(text)
	case visit.Bytes:
		return v.VisitBytes(raw)
	case visit.Rune:
		r, size := utf8.DecodeRuneInString(text)
		if r == utf8.RuneError || size != len(text) {
			return nil, &visit.InvalidTypeError{Unexpected: lossy(raw), Expected: v.Expecting()}
		}
		return v.VisitInt(int64(r))
	default:
		return nil, fmt.Errorf("decode: unsupported primitive kind %s", k)
	}
}

func (d *deserializer) Unit(v visit.Visitor) (any, error) {
	return v.VisitUnit()
}

func (d *deserializer) Option(v visit.Visitor) (any, error) {
	if len(d.segments) == 0 {
		return v.VisitNone()
	}
	if d.segments[0].Kind == parse.ChildSegment {
		child := d.segments[0].Child
		d.segments = d.segments[1:]
		return v.VisitSome(New(child))
	}
	return v.VisitSome(d)
}

func (d *deserializer) Struct(name string, fields []string, v visit.Visitor) (any, error) {
	return v.VisitMap(&mapAccess{segments: d.segments})
}

func (d *deserializer) Enum(name string, variants []string, v visit.Visitor) (any, error) {
	return v.VisitEnum(&enumAccess{segments: d.segments})
}

func (d *deserializer) Identifier(v visit.Visitor) (any, error) {
	if len(d.segments) == 0 || d.segments[0].Kind != parse.IdentifierSegment {
		return nil, visit.ErrIdentifier
	}
	name := d.segments[0].Identifier
	d.segments = d.segments[1:]
	return v.VisitString(name)
}

func (d *deserializer) Any(v visit.Visitor) (any, error) {
	return nil, visit.ErrNotSelfDescribing
}

func (d *deserializer) Ignored(v visit.Visitor) (any, error) {
	return nil, visit.ErrNotSelfDescribing
}

// mapAccess walks a struct's children. Each child holds the field identifier
// followed by the field's own segments.
type mapAccess struct {
	segments []parse.Segment
	current  []parse.Segment
}

func (m *mapAccess) NextKey(seed visit.Seed) (any, bool, error) {
	if len(m.segments) == 0 {
		return nil, false, nil
	}
	seg := m.segments[0]
	if seg.Kind != parse.ChildSegment {
		return nil, false, errors.New("decode: malformed field context")
	}
	m.segments = m.segments[1:]
	inner := seg.Child.Segments
	if len(inner) == 0 || inner[0].Kind != parse.IdentifierSegment {
		return nil, false, errors.New("decode: field context without identifier")
	}
	m.current = inner[1:]
	key, err := seed.Deserialize(identifierDeserializer{name: inner[0].Identifier})
	if err != nil {
		return nil, false, err
	}
	return key, true, nil
}

func (m *mapAccess) NextValue(seed visit.Seed) (any, error) {
	current := m.current
	m.current = nil
	return seed.Deserialize(&deserializer{segments: current})
}

type enumAccess struct {
	segments []parse.Segment
}

func (e *enumAccess) Variant(seed visit.Seed) (any, visit.VariantAccess, error) {
	if len(e.segments) == 0 || e.segments[0].Kind != parse.IdentifierSegment {
		return nil, nil, errors.New("decode: variant context without identifier")
	}
	key, err := seed.Deserialize(identifierDeserializer{name: e.segments[0].Identifier})
	if err != nil {
		return nil, nil, err
	}
	return key, &variantAccess{segments: e.segments[1:]}, nil
}

type variantAccess struct {
	segments []parse.Segment
}

func (a *variantAccess) Unit() error {
	return nil
}

func (a *variantAccess) Newtype(seed visit.Seed) (any, error) {
	return seed.Deserialize(&deserializer{segments: a.segments})
}

func (a *variantAccess) Struct(fields []string, v visit.Visitor) (any, error) {
	return v.VisitMap(&mapAccess{segments: a.segments})
}

// identifierDeserializer resolves key seeds against a single known name.
type identifierDeserializer struct {
	name string
}

func (i identifierDeserializer) Identifier(v visit.Visitor) (any, error) {
	return v.VisitString(i.name)
}

func (i identifierDeserializer) Bool(visit.Visitor) (any, error) { return nil, visit.ErrIdentifier }
func (i identifierDeserializer) Primitive(visit.Kind, visit.Visitor) (any, error) {
	return nil, visit.ErrIdentifier
}
func (i identifierDeserializer) Unit(visit.Visitor) (any, error)   { return nil, visit.ErrIdentifier }
func (i identifierDeserializer) Option(visit.Visitor) (any, error) { return nil, visit.ErrIdentifier }
func (i identifierDeserializer) Struct(string, []string, visit.Visitor) (any, error) {
	return nil, visit.ErrIdentifier
}
func (i identifierDeserializer) Enum(string, []string, visit.Visitor) (any, error) {
	return nil, visit.ErrIdentifier
}
func (i identifierDeserializer) Any(visit.Visitor) (any, error)     { return nil, visit.ErrIdentifier }
func (i identifierDeserializer) Ignored(visit.Visitor) (any, error) { return nil, visit.ErrIdentifier }

func bitSize(k visit.Kind) int {
	switch k {
	case visit.Int8:
		return 8
	case visit.Int16, visit.Uint16:
		return 16
	case visit.Int32, visit.Uint32, visit.Float32, visit.Rune:
		return 32
	case visit.Uint8:
		return 8
	default:
		return 64
	}
}

// numericError distinguishes text that is not a number at all from a number
// outside the representable range.
func numericError(err error, raw []byte, v visit.Visitor) error {
	var ne *strconv.NumError
	if errors.As(err, &ne) && errors.Is(ne.Err, strconv.ErrRange) {
		return &visit.InvalidValueError{Unexpected: lossy(raw), Expected: v.Expecting()}
	}
	return &visit.InvalidTypeError{Unexpected: lossy(raw), Expected: v.Expecting()}
}

func lossy(value []byte) string {
	if utf8.Valid(value) {
		return string(value)
	}
	return strings.ToValidUTF8(string(value), "�")
}
