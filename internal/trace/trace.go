// Package trace discovers the Shape of a type by probing its decode
// protocol. The probing Deserializer never supplies real data: every
// callback fails immediately with an error carrying the shape fragment the
// request implies, and the identity of the invoked callback is the shape
// information.
//
// Compound types cannot be paused mid-decode, so structs and enums are
// traced through restarts: the whole decode is re-invoked from scratch once
// per declared field or variant label, each restart discovering exactly one
// member. Alias spellings that resolve to the same logical key are merged by
// comparing discriminants of the decoded key values, never by comparing the
// spellings themselves.
package trace

import (
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/argot-go/argot/internal/shape"
	"github.com/argot-go/argot/visit"
)

// Trace discovers the shape of the value produced by seed. The seed is
// invoked repeatedly; it must be reusable and side-effect free. Supported
// shapes trace infallibly; a non-nil error is always a development error.
func Trace(seed visit.Seed) (*shape.Shape, error) {
	d := &deserializer{}
	for {
		_, err := seed.Deserialize(d)
		if err == nil {
			return nil, errors.New("tracing unexpectedly completed a deserialization")
		}
		var t *traced
		if errors.As(err, &t) {
			return t.shape, nil
		}
		if errors.Is(err, errContinue) {
			continue
		}
		return nil, err
	}
}

// traced carries a completed shape out of a probing callback as an error
// payload.
type traced struct {
	shape *shape.Shape
}

func (t *traced) Error() string {
	return fmt.Sprintf("traced shape: %s", t.shape.Usage())
}

// errContinue signals that a restart made progress and another is needed.
var errContinue = errors.New("continue tracing")

type deserializer struct {
	keys      keys
	recursive *deserializer
}

func (d *deserializer) recursiveDeserializer() *deserializer {
	if d.recursive == nil {
		d.recursive = &deserializer{}
	}
	return d.recursive
}

func describe(v visit.Visitor) (description string) {
	description = v.Expecting()
	if desc, ok := v.(visit.Describer); ok {
		if s, ok := desc.Describe(); ok {
			description = s
		}
	}
	return description
}

func versionOf(v visit.Visitor) string {
	if ver, ok := v.(visit.Versioner); ok {
		if s, ok := ver.Version(); ok {
			return s
		}
	}
	return ""
}

func describeIndex(v visit.Visitor, i int) string {
	if desc, ok := v.(visit.IndexDescriber); ok {
		if s, ok := desc.DescribeIndex(i); ok {
			return s
		}
	}
	return ""
}

func (d *deserializer) Bool(v visit.Visitor) (any, error) {
	return nil, &traced{shape: &shape.Shape{
		Kind:        shape.Primitive,
		Name:        v.Expecting(),
		Description: describe(v),
		Version:     versionOf(v),
		Flag:        true,
	}}
}

func (d *deserializer) Primitive(k visit.Kind, v visit.Visitor) (any, error) {
	return nil, &traced{shape: &shape.Shape{
		Kind:        shape.Primitive,
		Name:        v.Expecting(),
		Description: describe(v),
		Version:     versionOf(v),
	}}
}

func (d *deserializer) Unit(v visit.Visitor) (any, error) {
	return nil, &traced{shape: &shape.Shape{
		Kind:        shape.Empty,
		Description: describe(v),
		Version:     versionOf(v),
	}}
}

func (d *deserializer) Identifier(v visit.Visitor) (any, error) {
	return d.Primitive(visit.String, v)
}

func (d *deserializer) Any(v visit.Visitor) (any, error) {
	return nil, visit.ErrNotSelfDescribing
}

func (d *deserializer) Ignored(v visit.Visitor) (any, error) {
	return nil, visit.ErrNotSelfDescribing
}

func (d *deserializer) Option(v visit.Visitor) (any, error) {
	value, err := v.VisitSome(d)
	if err == nil {
		return value, nil
	}
	var t *traced
	if errors.As(err, &t) {
		return nil, &traced{shape: &shape.Shape{Kind: shape.Optional, Inner: t.shape}}
	}
	return nil, err
}

func (d *deserializer) Struct(name string, fields []string, v visit.Visitor) (any, error) {
	fs, err := d.keys.fieldsOrInsert(name, describe(v), versionOf(v), fields)
	if err != nil {
		return nil, err
	}
	field, ok := fs.next()
	if !ok {
		s := fs.toShape()
		d.keys = keys{}
		return nil, &traced{shape: s}
	}

	description := describeIndex(v, len(fs.required)+len(fs.optional))
	if description == fs.description {
		description = ""
	}

	access := &structAccess{field: field, owner: d}
	value, err := v.VisitMap(access)
	if err == nil {
		return value, nil
	}
	var t *traced
	switch {
	case errors.As(err, &t):
		fs.record(t.shape, access.discriminant, field, description)
		d.recursive = nil
		return nil, errContinue
	case errors.Is(err, errContinue):
		fs.revisit = field
		return nil, errContinue
	default:
		return nil, err
	}
}

func (d *deserializer) Enum(name string, variants []string, v visit.Visitor) (any, error) {
	vs, err := d.keys.variantsOrInsert(name, describe(v), versionOf(v), variants)
	if err != nil {
		return nil, err
	}
	variant, ok := vs.next()
	if !ok {
		s := vs.toShape()
		d.keys = keys{}
		return nil, &traced{shape: s}
	}

	description := describeIndex(v, len(vs.found))
	if description == vs.description {
		description = ""
	}

	access := &enumAccess{variant: variant, owner: d}
	value, err := v.VisitEnum(access)
	if err == nil {
		return value, nil
	}
	var t *traced
	switch {
	case errors.As(err, &t):
		vs.record(t.shape, access.discriminant, variant, description)
		d.recursive = nil
		return nil, errContinue
	case errors.Is(err, errContinue):
		vs.revisit = variant
		return nil, errContinue
	default:
		return nil, err
	}
}

// structAccess hands the restart's candidate field label back as the sole
// key of the map, then traces the value through a fresh recursive
// deserializer.
type structAccess struct {
	field        string
	discriminant uint64
	owner        *deserializer
	done         bool
}

func (a *structAccess) NextKey(seed visit.Seed) (any, bool, error) {
	if a.done {
		return nil, false, nil
	}
	a.done = true
	key, err := seed.Deserialize(keyDeserializer{key: a.field})
	if err != nil {
		return nil, false, err
	}
	a.discriminant = discriminantOf(key)
	return key, true, nil
}

func (a *structAccess) NextValue(seed visit.Seed) (any, error) {
	// Seeds are not guaranteed to be reusable mid-restart, so each value is
	// traced through the recursive deserializer.
	return seed.Deserialize(a.owner.recursiveDeserializer())
}

type enumAccess struct {
	variant      string
	discriminant uint64
	owner        *deserializer
}

func (a *enumAccess) Variant(seed visit.Seed) (any, visit.VariantAccess, error) {
	key, err := seed.Deserialize(keyDeserializer{key: a.variant})
	if err != nil {
		return nil, nil, err
	}
	a.discriminant = discriminantOf(key)
	return key, &variantAccess{name: a.variant, owner: a.owner}, nil
}

type variantAccess struct {
	name  string
	owner *deserializer
}

func (a *variantAccess) Unit() error {
	return &traced{shape: &shape.Shape{Kind: shape.Empty}}
}

func (a *variantAccess) Newtype(seed visit.Seed) (any, error) {
	return seed.Deserialize(a.owner.recursiveDeserializer())
}

func (a *variantAccess) Struct(fields []string, v visit.Visitor) (any, error) {
	return a.owner.recursiveDeserializer().Struct(a.name, fields, v)
}

// keyDeserializer resolves a key seed: identifiers decode to the candidate
// label, and every other request is a protocol misuse.
type keyDeserializer struct {
	key string
}

func (k keyDeserializer) Identifier(v visit.Visitor) (any, error) { return v.VisitString(k.key) }

func (k keyDeserializer) Bool(visit.Visitor) (any, error) { return nil, visit.ErrIdentifier }
func (k keyDeserializer) Primitive(visit.Kind, visit.Visitor) (any, error) {
	return nil, visit.ErrIdentifier
}
func (k keyDeserializer) Unit(visit.Visitor) (any, error)   { return nil, visit.ErrIdentifier }
func (k keyDeserializer) Option(visit.Visitor) (any, error) { return nil, visit.ErrIdentifier }
func (k keyDeserializer) Struct(string, []string, visit.Visitor) (any, error) {
	return nil, visit.ErrIdentifier
}
func (k keyDeserializer) Enum(string, []string, visit.Visitor) (any, error) {
	return nil, visit.ErrIdentifier
}
func (k keyDeserializer) Any(visit.Visitor) (any, error)     { return nil, visit.ErrIdentifier }
func (k keyDeserializer) Ignored(visit.Visitor) (any, error) { return nil, visit.ErrIdentifier }

// discriminantOf derives a stable identity for a decoded key. Keys should
// implement visit.Discriminant; integer keys fall back to their value, and
// anything else hashes its formatted form.
func discriminantOf(key any) uint64 {
	switch k := key.(type) {
	case visit.Discriminant:
		return k.Discriminant()
	case int:
		return uint64(k)
	case int64:
		return uint64(k)
	case uint64:
		return k
	case uint32:
		return uint64(k)
	case int32:
		return uint64(k)
	default:
		h := fnv.New64a()
		fmt.Fprintf(h, "%v", key)
		return h.Sum64()
	}
}
