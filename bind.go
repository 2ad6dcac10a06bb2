package argot

import (
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/argot-go/argot/visit"
)

// typeSeed drives the decode protocol from a reflected type. The same seed
// serves both shape discovery and decoding; only the Deserializer behind it
// differs.
type typeSeed struct {
	t reflect.Type
}

func (s typeSeed) Deserialize(d visit.Deserializer) (any, error) {
	return deserializeType(s.t, d)
}

func deserializeType(t reflect.Type, d visit.Deserializer) (any, error) {
	switch t.Kind() {
	case reflect.Bool:
		return d.Bool(primitiveVisitor{baseVisitor{expectingName(t)}, t})
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String:
		return d.Primitive(kindOf(t), primitiveVisitor{baseVisitor{expectingName(t)}, t})
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return d.Primitive(visit.Bytes, primitiveVisitor{baseVisitor{expectingName(t)}, t})
		}
		return nil, visit.ErrUnsupported
	case reflect.Pointer:
		return d.Option(optionVisitor{baseVisitor{expectingName(t.Elem())}, t.Elem()})
	case reflect.Struct:
		b, err := bindingFor(t)
		if err != nil {
			return nil, err
		}
		if b.union {
			return d.Enum(b.name, b.labels, unionVisitor{baseVisitor{expectingName(t)}, b})
		}
		return d.Struct(b.name, b.labels, structVisitor{baseVisitor{expectingName(t)}, b})
	default:
		return nil, visit.ErrUnsupported
	}
}

func kindOf(t reflect.Type) visit.Kind {
	switch t.Kind() {
	case reflect.Int:
		return visit.Int
	case reflect.Int8:
		return visit.Int8
	case reflect.Int16:
		return visit.Int16
	case reflect.Int32:
		return visit.Int32
	case reflect.Int64:
		return visit.Int64
	case reflect.Uint:
		return visit.Uint
	case reflect.Uint8:
		return visit.Uint8
	case reflect.Uint16:
		return visit.Uint16
	case reflect.Uint32:
		return visit.Uint32
	case reflect.Uint64:
		return visit.Uint64
	case reflect.Float32:
		return visit.Float32
	case reflect.Float64:
		return visit.Float64
	default:
		return visit.String
	}
}

// expectingName is the phrase used in help fragments and type errors:
// "expected a string", "<uint16>", and so on.
func expectingName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Bool:
		return "a boolean"
	case reflect.String:
		return "a string"
	case reflect.Slice:
		return "raw bytes"
	case reflect.Pointer:
		return expectingName(t.Elem())
	case reflect.Struct:
		if name := t.Name(); name != "" {
			return "struct " + name
		}
		return "a struct"
	default:
		return t.Kind().String()
	}
}

// baseVisitor rejects every callback with a type mismatch; concrete visitors
// embed it and override the callbacks they accept.
type baseVisitor struct {
	expecting string
}

func (v baseVisitor) Expecting() string { return v.expecting }

func (v baseVisitor) mismatch(found string) error {
	return &visit.InvalidTypeError{Unexpected: found, Expected: v.expecting}
}

func (v baseVisitor) VisitBool(bool) (any, error)     { return nil, v.mismatch("a boolean") }
func (v baseVisitor) VisitInt(int64) (any, error)     { return nil, v.mismatch("an integer") }
func (v baseVisitor) VisitUint(uint64) (any, error)   { return nil, v.mismatch("an unsigned integer") }
func (v baseVisitor) VisitFloat(float64) (any, error) { return nil, v.mismatch("a floating point") }
func (v baseVisitor) VisitString(string) (any, error) { return nil, v.mismatch("a string") }
func (v baseVisitor) VisitBytes([]byte) (any, error)  { return nil, v.mismatch("raw bytes") }
func (v baseVisitor) VisitNone() (any, error)         { return nil, v.mismatch("an optional value") }
func (v baseVisitor) VisitSome(visit.Deserializer) (any, error) {
	return nil, v.mismatch("an optional value")
}
func (v baseVisitor) VisitUnit() (any, error)                { return nil, v.mismatch("nothing") }
func (v baseVisitor) VisitMap(visit.MapAccess) (any, error)  { return nil, v.mismatch("a struct") }
func (v baseVisitor) VisitEnum(visit.EnumAccess) (any, error) {
	return nil, v.mismatch("a command")
}

// primitiveVisitor accepts the scalar callbacks and converts to the bound
// type.
type primitiveVisitor struct {
	baseVisitor
	t reflect.Type
}

func (v primitiveVisitor) VisitBool(b bool) (any, error) {
	out := reflect.New(v.t).Elem()
	out.SetBool(b)
	return out.Interface(), nil
}

func (v primitiveVisitor) VisitInt(n int64) (any, error) {
	out := reflect.New(v.t).Elem()
	if out.OverflowInt(n) {
		return nil, &visit.InvalidValueError{Unexpected: "an out of range integer", Expected: v.expecting}
	}
	out.SetInt(n)
	return out.Interface(), nil
}

func (v primitiveVisitor) VisitUint(n uint64) (any, error) {
	out := reflect.New(v.t).Elem()
	if out.OverflowUint(n) {
		return nil, &visit.InvalidValueError{Unexpected: "an out of range integer", Expected: v.expecting}
	}
	out.SetUint(n)
	return out.Interface(), nil
}

func (v primitiveVisitor) VisitFloat(f float64) (any, error) {
	out := reflect.New(v.t).Elem()
	out.SetFloat(f)
	return out.Interface(), nil
}

func (v primitiveVisitor) VisitString(s string) (any, error) {
	out := reflect.New(v.t).Elem()
	out.SetString(s)
	return out.Interface(), nil
}

func (v primitiveVisitor) VisitBytes(b []byte) (any, error) {
	out := reflect.New(v.t).Elem()
	out.SetBytes(append([]byte(nil), b...))
	return out.Interface(), nil
}

// optionVisitor binds pointer fields: absence is a nil pointer.
type optionVisitor struct {
	baseVisitor
	elem reflect.Type
}

func (v optionVisitor) VisitNone() (any, error) {
	return reflect.Zero(reflect.PointerTo(v.elem)).Interface(), nil
}

func (v optionVisitor) VisitSome(d visit.Deserializer) (any, error) {
	inner, err := deserializeType(v.elem, d)
	if err != nil {
		return nil, err
	}
	ptr := reflect.New(v.elem)
	ptr.Elem().Set(reflect.ValueOf(inner))
	return ptr.Interface(), nil
}

// structBinding is the precomputed view of a struct type: every argument
// spelling, in declared order, mapped back to its field.
type structBinding struct {
	t      reflect.Type
	name   string
	labels []string
	fields []boundField
	lookup map[string]int
	union  bool
}

type boundField struct {
	name       string
	aliases    []string
	help       string
	fieldIndex int
	typ        reflect.Type
}

func (f *boundField) spellings() []string {
	return append([]string{f.name}, f.aliases...)
}

var bindings sync.Map // reflect.Type -> *structBinding

func bindingFor(t reflect.Type) (*structBinding, error) {
	if cached, ok := bindings.Load(t); ok {
		return cached.(*structBinding), nil
	}
	b, err := newBinding(t)
	if err != nil {
		return nil, err
	}
	bindings.Store(t, b)
	return b, nil
}

func newBinding(t reflect.Type) (*structBinding, error) {
	b := &structBinding{
		t:      t,
		name:   t.Name(),
		lookup: make(map[string]int),
	}
	plain, commands := 0, 0
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		if field.Tag.Get("argot") == "-" {
			continue
		}
		_, isCommand := field.Tag.Lookup("cmd")
		if isCommand {
			commands++
		} else {
			plain++
		}

		name := field.Tag.Get("argot")
		if name == "" {
			name = field.Tag.Get("cmd")
		}
		if name == "" {
			name = kebab(field.Name)
		}
		var aliases []string
		if tag := field.Tag.Get("alias"); tag != "" {
			aliases = strings.Split(tag, ",")
		}

		if isCommand {
			if field.Type.Kind() != reflect.Pointer {
				return nil, visit.Development("command field %s.%s must be a pointer", t.Name(), field.Name)
			}
		}

		bound := boundField{
			name:       name,
			aliases:    aliases,
			help:       field.Tag.Get("help"),
			fieldIndex: i,
			typ:        field.Type,
		}
		index := len(b.fields)
		b.fields = append(b.fields, bound)
		for _, spelling := range bound.spellings() {
			if _, exists := b.lookup[spelling]; exists {
				return nil, visit.Development("duplicate argument name %q in struct %s", spelling, t.Name())
			}
			b.lookup[spelling] = index
			b.labels = append(b.labels, spelling)
		}
	}
	if commands > 0 && plain > 0 {
		return nil, visit.Development("struct %s mixes command fields with argument fields", t.Name())
	}
	b.union = commands > 0
	return b, nil
}

// fieldKey is a decoded identifier tied back to its logical field. Alias
// spellings of one field share a discriminant, which is what lets shape
// discovery fold them together.
type fieldKey struct {
	index    int
	spelling string
}

func (k fieldKey) Discriminant() uint64 { return uint64(k.index) }

type keySeed struct {
	b *structBinding
}

func (s keySeed) Deserialize(d visit.Deserializer) (any, error) {
	return d.Identifier(keyVisitor{baseVisitor{"an argument name"}, s.b})
}

type keyVisitor struct {
	baseVisitor
	b *structBinding
}

func (v keyVisitor) VisitString(name string) (any, error) {
	index, ok := v.b.lookup[name]
	if !ok {
		if v.b.union {
			return nil, &visit.UnknownVariantError{Variant: name, Expected: v.b.labels}
		}
		return nil, &visit.UnknownFieldError{Field: name, Expected: v.b.labels}
	}
	return fieldKey{index: index, spelling: name}, nil
}

type structVisitor struct {
	baseVisitor
	b *structBinding
}

func (v structVisitor) DescribeIndex(i int) (string, bool) {
	if i < len(v.b.fields) && v.b.fields[i].help != "" {
		return v.b.fields[i].help, true
	}
	return "", false
}

func (v structVisitor) VisitMap(m visit.MapAccess) (any, error) {
	out := reflect.New(v.b.t).Elem()
	seen := make([]bool, len(v.b.fields))
	for {
		key, ok, err := m.NextKey(keySeed{v.b})
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		fk := key.(fieldKey)
		field := &v.b.fields[fk.index]
		if seen[fk.index] {
			return nil, &visit.DuplicateFieldError{Field: field.name}
		}
		seen[fk.index] = true
		value, err := m.NextValue(typeSeed{t: field.typ})
		if err != nil {
			return nil, err
		}
		out.Field(field.fieldIndex).Set(reflect.ValueOf(value))
	}
	for i := range v.b.fields {
		if seen[i] {
			continue
		}
		field := &v.b.fields[i]
		// Absent pointers stay nil and absent booleans stay false.
		switch field.typ.Kind() {
		case reflect.Pointer, reflect.Bool:
			continue
		}
		return nil, &visit.MissingFieldError{Field: field.name}
	}
	return out.Interface(), nil
}

type unionVisitor struct {
	baseVisitor
	b *structBinding
}

func (v unionVisitor) DescribeIndex(i int) (string, bool) {
	if i < len(v.b.fields) && v.b.fields[i].help != "" {
		return v.b.fields[i].help, true
	}
	return "", false
}

func (v unionVisitor) VisitEnum(e visit.EnumAccess) (any, error) {
	key, va, err := e.Variant(keySeed{v.b})
	if err != nil {
		return nil, err
	}
	fk := key.(fieldKey)
	field := &v.b.fields[fk.index]
	elem := field.typ.Elem()

	var inner any
	switch {
	case elem.Kind() == reflect.Struct:
		eb, err := bindingFor(elem)
		if err != nil {
			return nil, err
		}
		switch {
		case eb.union:
			inner, err = va.Newtype(typeSeed{t: elem})
		case len(eb.fields) == 0:
			if err = va.Unit(); err == nil {
				inner = reflect.New(elem).Elem().Interface()
			}
		default:
			inner, err = va.Struct(eb.labels, structVisitor{baseVisitor{expectingName(elem)}, eb})
		}
		if err != nil {
			return nil, err
		}
	default:
		inner, err = va.Newtype(typeSeed{t: elem})
		if err != nil {
			return nil, err
		}
	}

	out := reflect.New(v.b.t).Elem()
	ptr := reflect.New(elem)
	ptr.Elem().Set(reflect.ValueOf(inner))
	out.Field(field.fieldIndex).Set(ptr)
	return out.Interface(), nil
}

// kebab converts a Go field name to its argument spelling: MaxCount becomes
// max-count.
func kebab(name string) string {
	var b strings.Builder
	prevUpper := false
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 && !prevUpper {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			prevUpper = true
		} else {
			b.WriteRune(r)
			prevUpper = false
		}
	}
	return b.String()
}
