package trace

import (
	"github.com/argot-go/argot/internal/shape"
	"github.com/argot-go/argot/visit"
)

// keys accumulates members across restarts. One deserializer traces one
// compound container; interleaving struct and enum requests is a protocol
// misuse.
type keys struct {
	fields   *fieldsState
	variants *variantsState
}

func (k *keys) fieldsOrInsert(name, description, version string, declared []string) (*fieldsState, error) {
	if k.variants != nil {
		return nil, visit.ErrMixedAccess
	}
	if k.fields == nil {
		pending := make([]string, len(declared))
		copy(pending, declared)
		k.fields = &fieldsState{
			name:        name,
			description: description,
			version:     version,
			pending:     pending,
		}
	}
	return k.fields, nil
}

func (k *keys) variantsOrInsert(name, description, version string, declared []string) (*variantsState, error) {
	if k.fields != nil {
		return nil, visit.ErrMixedAccess
	}
	if k.variants == nil {
		pending := make([]string, len(declared))
		copy(pending, declared)
		k.variants = &variantsState{
			name:        name,
			description: description,
			version:     version,
			pending:     pending,
		}
	}
	return k.variants, nil
}

// member is one discovered field or variant together with every spelling
// that resolved to it.
type member struct {
	discriminant uint64
	names        []string
	description  string
	shape        *shape.Shape
	index        int
}

type fieldsState struct {
	name        string
	description string
	version     string

	pending []string
	revisit string

	required []member
	optional []member
}

// next yields the label for the upcoming restart: a revisited label first,
// then the next declared one.
func (f *fieldsState) next() (string, bool) {
	if f.revisit != "" {
		field := f.revisit
		f.revisit = ""
		return field, true
	}
	if len(f.pending) == 0 {
		return "", false
	}
	field := f.pending[0]
	f.pending = f.pending[1:]
	return field, true
}

// record files a traced field shape under its discriminant. A repeat
// discriminant marks an alias of an already discovered field; a fresh one
// appends a new member. Optional fields are stored unwrapped, and flag
// primitives are folded into the optional group with an Empty shape.
func (f *fieldsState) record(s *shape.Shape, discriminant uint64, name, description string) {
	switch {
	case s.Kind == shape.Optional:
		f.optional = merge(f.optional, member{
			discriminant: discriminant,
			names:        []string{name},
			description:  description,
			shape:        s.Inner,
			index:        f.count(),
		})
	case s.Kind == shape.Primitive && s.Flag:
		f.optional = merge(f.optional, member{
			discriminant: discriminant,
			names:        []string{name},
			description:  description,
			shape: &shape.Shape{
				Kind:        shape.Empty,
				Description: s.Description,
				Version:     s.Version,
			},
			index: f.count(),
		})
	default:
		f.required = merge(f.required, member{
			discriminant: discriminant,
			names:        []string{name},
			description:  description,
			shape:        s,
			index:        f.count(),
		})
	}
}

func (f *fieldsState) count() int {
	return len(f.required) + len(f.optional)
}

func (f *fieldsState) toShape() *shape.Shape {
	return &shape.Shape{
		Kind:        shape.Struct,
		Name:        f.name,
		Description: f.description,
		Version:     f.version,
		Required:    fieldsOf(f.required),
		Optional:    fieldsOf(f.optional),
	}
}

type variantsState struct {
	name        string
	description string
	version     string

	pending []string
	revisit string

	found []member
}

func (v *variantsState) next() (string, bool) {
	if v.revisit != "" {
		variant := v.revisit
		v.revisit = ""
		return variant, true
	}
	if len(v.pending) == 0 {
		return "", false
	}
	variant := v.pending[0]
	v.pending = v.pending[1:]
	return variant, true
}

func (v *variantsState) record(s *shape.Shape, discriminant uint64, name, description string) {
	v.found = merge(v.found, member{
		discriminant: discriminant,
		names:        []string{name},
		description:  description,
		shape:        s,
		index:        len(v.found),
	})
}

func (v *variantsState) toShape() *shape.Shape {
	var variants []shape.Variant
	for _, m := range v.found {
		variants = append(variants, shape.Variant{
			Name:        m.names[0],
			Aliases:     aliasesOf(m.names),
			Description: m.description,
			Shape:       m.shape,
		})
	}
	return &shape.Shape{
		Kind:        shape.Enum,
		Name:        v.name,
		Description: v.description,
		Version:     v.version,
		Variants:    variants,
	}
}

func merge(members []member, m member) []member {
	for i := range members {
		if members[i].discriminant == m.discriminant {
			members[i].names = append(members[i].names, m.names...)
			return members
		}
	}
	return append(members, m)
}

func fieldsOf(members []member) []shape.Field {
	var fields []shape.Field
	for _, m := range members {
		fields = append(fields, shape.Field{
			Name:        m.names[0],
			Aliases:     aliasesOf(m.names),
			Description: m.description,
			Shape:       m.shape,
			Index:       m.index,
		})
	}
	return fields
}

// aliasesOf strips the canonical name, keeping nil when no aliases exist so
// shape comparisons do not distinguish empty slices from absent ones.
func aliasesOf(names []string) []string {
	if len(names) <= 1 {
		return nil
	}
	return names[1:]
}
