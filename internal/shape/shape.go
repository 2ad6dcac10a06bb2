// Package shape models the discovered grammar of a type: its decomposition
// into primitives, optionals, structs and tagged unions. A Shape is produced
// once by the tracer, narrowed in place by the parser (Enum to Narrowed as a
// command name is matched), and read by the usage renderer.
package shape

import "strings"

// Kind discriminates the Shape variants.
type Kind uint8

const (
	// Empty is the unit shape. It consumes no tokens. An optional field
	// whose shape is Empty is a boolean flag: presence means true.
	Empty Kind = iota
	// Primitive consumes exactly one positional token.
	Primitive
	// Optional wraps an inner shape that may be absent. As a positional
	// (non-field) shape it opens an isolated context introduced by "-".
	Optional
	// Struct holds ordered required fields and unordered optional fields.
	Struct
	// Enum is an unresolved tagged union: a command whose variant has not
	// yet been named on the command line.
	Enum
	// Narrowed is the resolved form of an Enum after a command name matched.
	Narrowed
)

// Shape is a mutable tagged node. Exactly one invocation owns a Shape tree;
// the parser narrows Enum nodes to Narrowed nodes in place so that later
// rendering shows the selected command's grammar.
type Shape struct {
	Kind        Kind
	Name        string
	Description string
	Version     string // empty means no version is available

	// Flag marks a Primitive produced by a Bool request. Struct tracing
	// classifies flag fields as optional with an Empty shape; anywhere
	// else a flag parses as an ordinary one-token primitive.
	Flag bool

	Inner    *Shape    // Optional and Narrowed
	Required []Field   // Struct
	Optional []Field   // Struct: named flags, including booleans
	Variants []Variant // Enum; for Narrowed, the sibling list
	EnumName string    // Narrowed: the name of the resolved Enum
}

// Field is one logical struct member. Optional fields store the unwrapped
// inner shape; an Empty shape marks a boolean flag.
type Field struct {
	Name        string
	Description string
	Aliases     []string
	Shape       *Shape
	Index       int
}

// Variant is one declared case of a tagged union.
type Variant struct {
	Name        string
	Description string
	Aliases     []string
	Shape       *Shape
}

// Names returns the field's canonical name followed by its aliases.
func (f *Field) Names() []string {
	return append([]string{f.Name}, f.Aliases...)
}

// Matches reports whether name is the field's name or one of its aliases,
// returning the canonical spelling that matched.
func (f *Field) Matches(name string) (string, bool) {
	for _, candidate := range f.Names() {
		if candidate == name {
			return candidate, true
		}
	}
	return "", false
}

// Names returns the variant's canonical name followed by its aliases.
func (v *Variant) Names() []string {
	return append([]string{v.Name}, v.Aliases...)
}

// Matches reports whether name selects this variant.
func (v *Variant) Matches(name string) (string, bool) {
	for _, candidate := range v.Names() {
		if candidate == name {
			return candidate, true
		}
	}
	return "", false
}

// Clone deep-copies the shape. Parsing narrows enum shapes in place, so
// shared shapes must be cloned before each parse.
func (s *Shape) Clone() *Shape {
	if s == nil {
		return nil
	}
	clone := *s
	clone.Inner = s.Inner.Clone()
	clone.Required = cloneFields(s.Required)
	clone.Optional = cloneFields(s.Optional)
	if s.Variants != nil {
		clone.Variants = make([]Variant, len(s.Variants))
		for i, v := range s.Variants {
			clone.Variants[i] = v
			clone.Variants[i].Shape = v.Shape.Clone()
		}
	}
	return &clone
}

func cloneFields(fields []Field) []Field {
	if fields == nil {
		return nil
	}
	cloned := make([]Field, len(fields))
	for i, f := range fields {
		cloned[i] = f
		cloned[i].Shape = f.Shape.Clone()
	}
	return cloned
}

// Description returns the innermost description, recursing through Optional.
func (s *Shape) Describe() string {
	if s.Kind == Optional {
		return s.Inner.Describe()
	}
	return s.Description
}

// Usage renders the shape's usage fragment: "<name>" for primitives and
// enums, "[options] a b" for structs, "[--inner]" for optionals.
func (s *Shape) Usage() string {
	return s.usage(false)
}

// GroupedUsage is the alternate rendering used inside variant fragments; it
// names the option group ("[Name options]") instead of the bare "[options]".
func (s *Shape) GroupedUsage() string {
	return s.usage(true)
}

func (s *Shape) usage(grouped bool) string {
	switch s.Kind {
	case Empty:
		return ""
	case Primitive:
		return "<" + s.Name + ">"
	case Optional:
		if s.Inner.Kind == Optional {
			return "[-- " + s.Inner.usage(grouped) + "]"
		}
		return "[--" + s.Inner.usage(grouped) + "]"
	case Struct:
		var b strings.Builder
		if len(s.Optional) > 0 {
			if grouped {
				b.WriteString("[" + s.Name + " options]")
			} else {
				b.WriteString("[options]")
			}
		}
		first := true
		for i := range s.Required {
			field := &s.Required[i]
			if !first && field.Shape.Kind == Empty {
				continue
			}
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(field.usage())
			first = false
		}
		return b.String()
	case Enum:
		return "<" + s.Name + ">"
	case Narrowed:
		inner := s.Inner.usage(true)
		if inner == "" {
			return s.Name
		}
		return s.Name + " " + inner
	}
	return ""
}

func (f *Field) usage() string {
	switch f.Shape.Kind {
	case Empty:
		return ""
	case Primitive, Enum:
		return "<" + f.Name + ">"
	case Optional:
		if f.Shape.Inner.Kind == Empty {
			return "[--" + f.Name + "]"
		}
		return "[--" + f.Name + " " + f.Shape.Inner.Usage() + "]"
	default:
		return f.Shape.GroupedUsage()
	}
}

// FlagUsage renders an optional field the way the options block shows it:
// nothing after the name for a boolean, the value fragment otherwise.
func (f *Field) FlagUsage() string {
	return f.Shape.Usage()
}

// Argument is a name/description pair for the Required Arguments block.
type Argument struct {
	Name        string
	Description string
}

// RequiredArguments walks the tree collecting every required positional
// argument in parse order. Field names replace primitive type names so the
// help text shows the declared name.
func (s *Shape) RequiredArguments() []Argument {
	var out []Argument
	switch s.Kind {
	case Empty, Optional:
	case Primitive, Enum:
		out = append(out, Argument{Name: s.Name, Description: s.Description})
	case Narrowed:
		out = append(out, s.Inner.RequiredArguments()...)
	case Struct:
		for i := range s.Required {
			field := &s.Required[i]
			args := field.Shape.RequiredArguments()
			switch field.Shape.Kind {
			case Empty, Primitive, Enum:
				for j := range args {
					args[j].Name = field.Name
					args[j].Description = field.Description
				}
			}
			out = append(out, args...)
		}
	}
	return out
}

// OptionGroup is a named set of optional fields for one struct scope.
type OptionGroup struct {
	Name   string
	Fields []*Field
}

// OptionalGroups collects the optional fields of every struct scope along the
// required-argument spine, outermost first.
func (s *Shape) OptionalGroups() []OptionGroup {
	var out []OptionGroup
	switch s.Kind {
	case Empty, Primitive, Enum:
	case Optional:
		out = append(out, s.Inner.OptionalGroups()...)
	case Narrowed:
		out = append(out, s.Inner.OptionalGroups()...)
	case Struct:
		if len(s.Optional) > 0 {
			group := OptionGroup{Name: s.Name}
			for i := range s.Optional {
				group.Fields = append(group.Fields, &s.Optional[i])
			}
			out = append(out, group)
		}
		for i := range s.Required {
			out = append(out, s.Required[i].Shape.OptionalGroups()...)
		}
	}
	return out
}

// VariantGroup is a named set of variants for one enum in the tree.
type VariantGroup struct {
	Name     string
	Variants []*Variant
}

// VariantGroups collects every unresolved enum in the tree.
func (s *Shape) VariantGroups() []VariantGroup {
	var out []VariantGroup
	switch s.Kind {
	case Empty, Primitive:
	case Optional, Narrowed:
		out = append(out, s.Inner.VariantGroups()...)
	case Struct:
		for i := range s.Required {
			out = append(out, s.Required[i].Shape.VariantGroups()...)
		}
		for i := range s.Optional {
			out = append(out, s.Optional[i].Shape.VariantGroups()...)
		}
	case Enum:
		group := VariantGroup{Name: s.Name}
		for i := range s.Variants {
			group.Variants = append(group.Variants, &s.Variants[i])
		}
		out = append(out, group)
	}
	return out
}

// TrailingOptions returns the optional fields still in scope after all
// required arguments have been consumed: the current struct's own options
// plus those of the last required field, recursively.
func (s *Shape) TrailingOptions() []*Field {
	switch s.Kind {
	case Narrowed:
		return s.Inner.TrailingOptions()
	case Struct:
		var out []*Field
		for i := range s.Optional {
			out = append(out, &s.Optional[i])
		}
		if len(s.Required) > 0 {
			out = append(out, s.Required[len(s.Required)-1].Shape.TrailingOptions()...)
		}
		return out
	default:
		return nil
	}
}

// VersionString returns the innermost version, recursing through Optional.
func (s *Shape) VersionString() string {
	if s.Kind == Optional {
		return s.Inner.VersionString()
	}
	return s.Version
}
