// Package parse turns argv into a Context tree under the direction of a
// Shape. Grammar is derived entirely from the shape: a flag is only a flag
// while some field in scope declares it, an option window closes at `--`,
// and enum shapes narrow to the chosen variant in place as parsing proceeds.
package parse

import (
	"errors"
	"unicode/utf8"

	"github.com/argot-go/argot/internal/shape"
)

// Parse consumes every argument against s, returning the context tree that
// mirrors the shape. s is narrowed in place when it contains enums; callers
// sharing a shape must pass a clone. ErrHelp and ErrVersion are returned
// when the matching override flag is present, and also when required
// arguments are missing from an invocation that supplied no tokens at all.
func Parse(arguments []string, s *shape.Shape) (*Context, error) {
	p := &parser{args: newArgs(arguments)}

	overrides := []shape.Field{{
		Name:        "help",
		Description: "Display this message.",
		Aliases:     []string{"h"},
		Shape:       &shape.Shape{Kind: shape.Empty},
	}}
	hasVersion := s.VersionString() != ""
	if hasVersion {
		overrides = append(overrides, shape.Field{
			Name:        "version",
			Description: "Display version information.",
			Shape:       &shape.Shape{Kind: shape.Empty},
		})
	}
	overrideNames := expecting(overrides)

	root := p.parseContext(s, &overrides, &Context{})

	// Options trailing the positional arguments still need a scan, unless a
	// closing `--` already ended the option window for good.
	options := root.options
	if !root.closingEndOfOptions {
		trailing := p.parseContext(&shape.Shape{Kind: shape.Empty}, &overrides, &Context{})
		if trailing.err != nil {
			return nil, trailing.err
		}
		options = append(options, trailing.options...)
	}

	for _, option := range options {
		switch option.name {
		case "help", "h":
			return nil, ErrHelp
		case "version":
			return nil, ErrVersion
		default:
			return nil, &UnrecognizedOptionError{Name: option.name, Expecting: overrideNames}
		}
	}

	if root.err != nil {
		var missing *MissingArgumentsError
		if errors.As(root.err, &missing) && !p.args.consumed {
			// Bare invocation of a program that requires arguments.
			return nil, ErrHelp
		}
		return nil, root.err
	}

	// Anything left over is an error.
	endOfOptions := root.closingEndOfOptions
	for {
		if endOfOptions {
			if v, ok := p.args.nextPositional(); ok {
				return nil, &UnexpectedArgumentError{Argument: v}
			}
			break
		}
		t, ok := p.args.nextToken()
		if !ok {
			break
		}
		switch t.kind {
		case positionalToken:
			return nil, &UnexpectedArgumentError{Argument: t.value}
		case optionalToken:
			names := overrideNames
			for _, field := range s.TrailingOptions() {
				names = append(names, field.Names()...)
			}
			return nil, &UnrecognizedOptionError{Name: lossy(t.value), Expecting: names}
		case endOfOptionsToken:
			endOfOptions = true
		}
	}

	return root.context, nil
}

type parser struct {
	args *args
}

// parsedOption is an override or inherited option matched during a nested
// parse, handed upward until some enclosing struct claims it.
type parsedOption struct {
	name    string
	context *Context
}

type parsedContext struct {
	context *Context
	err     error
	options []parsedOption

	// closingEndOfOptions reports a `--` that terminated this context's
	// option scan; it closes the enclosing contexts' option windows too.
	closingEndOfOptions bool
}

func (p *parser) parseContext(s *shape.Shape, options *[]shape.Field, context *Context) parsedContext {
	state := &contextState{}
	ctx, err := p.parseShape(s, options, context, state)
	return parsedContext{
		context:             ctx,
		err:                 err,
		options:             state.parsed,
		closingEndOfOptions: state.closing,
	}
}

type contextState struct {
	parsed  []parsedOption
	closing bool
}

func (p *parser) parseShape(s *shape.Shape, options *[]shape.Field, context *Context, state *contextState) (*Context, error) {
	switch s.Kind {
	case shape.Empty:
		for {
			t, ok := p.args.nextToken()
			if !ok {
				return context, nil
			}
			switch t.kind {
			case positionalToken:
				p.args.push(t.value)
				return context, nil
			case optionalToken:
				identifier, err := optionIdentifier(t.value, *options)
				if err != nil {
					return context, err
				}
				found, err := p.matchOption(identifier, options, state)
				if err != nil {
					return context, err
				}
				if !found {
					// The flag may belong to a neighboring context; hand the
					// token back with its dashes restored.
					p.args.push(redash(t.value))
					return context, nil
				}
			case endOfOptionsToken:
				state.closing = true
			}
			if state.closing {
				return context, nil
			}
		}

	case shape.Primitive:
		for {
			t, ok := p.args.nextToken()
			if !ok {
				return context, &MissingArgumentsError{Arguments: []string{s.Name}}
			}
			switch t.kind {
			case positionalToken:
				context.Segments = append(context.Segments, value(t.value))
				return context, nil
			case optionalToken:
				identifier, err := optionIdentifier(t.value, *options)
				if err != nil {
					return context, err
				}
				found, err := p.matchOption(identifier, options, state)
				if err != nil {
					return context, err
				}
				if !found {
					return context, &UnrecognizedOptionError{Name: identifier, Expecting: expecting(*options)}
				}
			case endOfOptionsToken:
				state.closing = true
			}
			if state.closing {
				return p.parseContextNoOptions(s, context)
			}
		}

	case shape.Optional:
		// A positional optional is an isolated context; the enclosing
		// options never reach inside it.
		return p.parseContextNoOptions(s, context)

	case shape.Struct:
		combined := append(append([]shape.Field{}, *options...), s.Optional...)
		endOfOptions := false
		for i := range s.Required {
			field := &s.Required[i]
			inner := &Context{Segments: []Segment{identifier(field.Name)}}
			if endOfOptions {
				parsed, err := p.parseContextNoOptions(field.Shape, inner)
				if err != nil {
					return context, rewriteMissing(err, field, s.Required[i+1:])
				}
				context.Segments = append(context.Segments, child(parsed))
				continue
			}
			sub := p.parseContext(field.Shape, &combined, inner)
			endOfOptions = sub.closingEndOfOptions
			for _, option := range sub.options {
				if !claimOption(option, s, context) {
					state.parsed = append(state.parsed, option)
				}
			}
			if sub.err != nil {
				return context, rewriteMissing(sub.err, field, s.Required[i+1:])
			}
			context.Segments = append(context.Segments, child(sub.context))
		}
		if !endOfOptions {
			sub := p.parseContext(&shape.Shape{Kind: shape.Empty}, &combined, context)
			if sub.err != nil {
				return context, sub.err
			}
			for _, option := range sub.options {
				if !claimOption(option, s, context) {
					state.parsed = append(state.parsed, option)
				}
			}
			if sub.closingEndOfOptions {
				state.closing = true
			}
		}
		return context, nil

	case shape.Enum:
		for {
			t, ok := p.args.nextToken()
			if !ok {
				return context, &MissingArgumentsError{Arguments: []string{s.Name}}
			}
			switch t.kind {
			case positionalToken:
				matched, variant, err := findVariant(t.value, s.Variants)
				if err != nil {
					return context, err
				}
				narrow(s, matched, variant)
				context.Segments = append(context.Segments, identifier(matched))
				sub := p.parseContext(s.Inner, options, context)
				state.parsed = append(state.parsed, sub.options...)
				if sub.closingEndOfOptions {
					state.closing = true
				}
				return sub.context, sub.err
			case optionalToken:
				identifier, err := optionIdentifier(t.value, *options)
				if err != nil {
					return context, err
				}
				found, err := p.matchOption(identifier, options, state)
				if err != nil {
					return context, err
				}
				if !found {
					return context, &UnrecognizedOptionError{Name: identifier, Expecting: expecting(*options)}
				}
			case endOfOptionsToken:
				name, ok := p.args.nextPositional()
				if !ok {
					return context, &MissingArgumentsError{Arguments: []string{s.Name}}
				}
				matched, variant, err := findVariant(name, s.Variants)
				if err != nil {
					return context, err
				}
				narrow(s, matched, variant)
				context.Segments = append(context.Segments, identifier(matched))
				return p.parseContextNoOptions(s.Inner, context)
			}
		}

	case shape.Narrowed:
		for {
			t, ok := p.args.nextToken()
			if !ok {
				return context, &MissingArgumentsError{Arguments: []string{s.EnumName}}
			}
			switch t.kind {
			case positionalToken:
				matched, variant, err := findVariant(t.value, s.Variants)
				if err != nil {
					return context, err
				}
				context.Segments = append(context.Segments, identifier(matched))
				sub := p.parseContext(variant.Shape.Clone(), options, context)
				state.parsed = append(state.parsed, sub.options...)
				if sub.closingEndOfOptions {
					state.closing = true
				}
				return sub.context, sub.err
			case optionalToken:
				identifier, err := optionIdentifier(t.value, *options)
				if err != nil {
					return context, err
				}
				found, err := p.matchOption(identifier, options, state)
				if err != nil {
					return context, err
				}
				if !found {
					return context, &UnrecognizedOptionError{Name: identifier, Expecting: expecting(*options)}
				}
			case endOfOptionsToken:
				name, ok := p.args.nextPositional()
				if !ok {
					return context, &MissingArgumentsError{Arguments: []string{s.EnumName}}
				}
				matched, variant, err := findVariant(name, s.Variants)
				if err != nil {
					return context, err
				}
				context.Segments = append(context.Segments, identifier(matched))
				return p.parseContextNoOptions(variant.Shape, context)
			}
		}
	}
	return context, nil
}

func (p *parser) parseContextNoOptions(s *shape.Shape, context *Context) (*Context, error) {
	switch s.Kind {
	case shape.Empty:
		return context, nil

	case shape.Primitive:
		v, ok := p.args.nextPositional()
		if !ok {
			return context, &MissingArgumentsError{Arguments: []string{s.Name}}
		}
		context.Segments = append(context.Segments, value(v))
		return context, nil

	case shape.Optional:
		inner := s.Inner
		switch inner.Kind {
		case shape.Empty, shape.Optional:
			if next, ok := p.args.nextPositional(); ok {
				switch {
				case string(next) == "-":
					parsed, err := p.parseContextNoOptions(inner, &Context{})
					if err != nil {
						return context, err
					}
					context.Segments = append(context.Segments, child(parsed))
				case string(next) == "--":
					// Closes only this isolated context.
				default:
					p.args.push(next)
				}
			}
		case shape.Struct:
			if name, ok := p.args.nextOptional(); ok {
				// An empty flag introduces the nested struct; it is only
				// revisited as input when some required field needs a value.
				if len(name) != 0 || anyRequiredValue(inner) {
					p.args.push(name)
				}
				parsed, err := p.parseContextNoOptions(inner, &Context{})
				if err != nil {
					return context, err
				}
				context.Segments = append(context.Segments, child(parsed))
			}
		default:
			if name, ok := p.args.nextOptional(); ok {
				p.args.push(name)
				parsed, err := p.parseContextNoOptions(inner, &Context{})
				if err != nil {
					return context, err
				}
				context.Segments = append(context.Segments, child(parsed))
			}
		}
		return context, nil

	case shape.Struct:
		// The surrounding option window is closed, but the struct still
		// scans its own options in its nested context.
		endOfOptions := false
		for i := range s.Required {
			field := &s.Required[i]
			inner := &Context{Segments: []Segment{identifier(field.Name)}}
			if endOfOptions {
				parsed, err := p.parseContextNoOptions(field.Shape, inner)
				if err != nil {
					return context, rewriteMissing(err, field, s.Required[i+1:])
				}
				context.Segments = append(context.Segments, child(parsed))
				continue
			}
			own := append([]shape.Field{}, s.Optional...)
			sub := p.parseContext(field.Shape, &own, inner)
			endOfOptions = sub.closingEndOfOptions
			for _, option := range sub.options {
				if !claimOption(option, s, context) {
					return context, &UnrecognizedOptionError{Name: option.name, Expecting: expecting(s.Optional)}
				}
			}
			if sub.err != nil {
				return context, rewriteMissing(sub.err, field, s.Required[i+1:])
			}
			context.Segments = append(context.Segments, child(sub.context))
		}
		if !endOfOptions {
			own := append([]shape.Field{}, s.Optional...)
			sub := p.parseContext(&shape.Shape{Kind: shape.Empty}, &own, context)
			if sub.err != nil {
				return context, sub.err
			}
			for _, option := range sub.options {
				if !claimOption(option, s, context) {
					return context, &UnrecognizedOptionError{Name: option.name, Expecting: expecting(s.Optional)}
				}
			}
		}
		return context, nil

	case shape.Enum:
		name, ok := p.args.nextPositional()
		if !ok {
			return context, &MissingArgumentsError{Arguments: []string{s.Name}}
		}
		matched, variant, err := findVariant(name, s.Variants)
		if err != nil {
			return context, err
		}
		narrow(s, matched, variant)
		context.Segments = append(context.Segments, identifier(matched))
		return p.parseContextNoOptions(s.Inner, context)

	case shape.Narrowed:
		name, ok := p.args.nextPositional()
		if !ok {
			return context, &MissingArgumentsError{Arguments: []string{s.EnumName}}
		}
		matched, variant, err := findVariant(name, s.Variants)
		if err != nil {
			return context, err
		}
		context.Segments = append(context.Segments, identifier(matched))
		return p.parseContextNoOptions(variant.Shape, context)
	}
	return context, nil
}

// matchOption resolves identifier against the live option set. The matched
// field is removed from scope while its own value is parsed, so an option
// cannot consume itself, then restored at its original position.
func (p *parser) matchOption(name string, options *[]shape.Field, state *contextState) (bool, error) {
	opts := *options
	for index := range opts {
		matched, ok := opts[index].Matches(name)
		if !ok {
			continue
		}
		field := opts[index]
		*options = append(opts[:index:index], opts[index+1:]...)

		optionContext := &Context{Segments: []Segment{identifier(matched)}}
		sub := p.parseContext(field.Shape, options, optionContext)
		state.parsed = append(state.parsed, sub.options...)
		if sub.closingEndOfOptions {
			state.closing = true
		}

		restored := append([]shape.Field{}, (*options)[:index]...)
		restored = append(restored, field)
		restored = append(restored, (*options)[index:]...)
		*options = restored

		if sub.err != nil {
			return true, sub.err
		}
		state.parsed = append(state.parsed, parsedOption{name: matched, context: sub.context})
		return true, nil
	}
	return false, nil
}

// claimOption files a parsed option into the struct that declares it.
func claimOption(option parsedOption, s *shape.Shape, context *Context) bool {
	for i := range s.Optional {
		if _, ok := s.Optional[i].Matches(option.name); ok {
			context.Segments = append(context.Segments, child(option.context))
			return true
		}
	}
	return false
}

func findVariant(name []byte, variants []shape.Variant) (string, *shape.Variant, error) {
	if !utf8.Valid(name) {
		return "", nil, &UnrecognizedVariantError{Name: lossy(name), Expecting: expectingVariants(variants)}
	}
	for i := range variants {
		if matched, ok := variants[i].Matches(string(name)); ok {
			return matched, &variants[i], nil
		}
	}
	return "", nil, &UnrecognizedVariantError{Name: string(name), Expecting: expectingVariants(variants)}
}

// narrow replaces an enum shape with the chosen variant in place, keeping
// the sibling list for usage rendering.
func narrow(s *shape.Shape, matched string, variant *shape.Variant) {
	narrowed := shape.Shape{
		Kind:        shape.Narrowed,
		Name:        matched,
		Description: variant.Description,
		Version:     s.Version,
		Inner:       variant.Shape.Clone(),
		Variants:    s.Variants,
		EnumName:    s.Name,
	}
	*s = narrowed
}

// rewriteMissing restates a missing-argument error in terms of the field
// being parsed and appends the required fields that were never reached.
func rewriteMissing(err error, field *shape.Field, rest []shape.Field) error {
	var missing *MissingArgumentsError
	if !errors.As(err, &missing) {
		return err
	}
	arguments := missing.Arguments
	if len(arguments) == 1 && (field.Shape.Kind == shape.Primitive || field.Shape.Kind == shape.Enum) {
		arguments[len(arguments)-1] = field.Name
	}
	for i := range rest {
		if rest[i].Shape.Kind != shape.Empty {
			arguments = append(arguments, rest[i].Name)
		}
	}
	return &MissingArgumentsError{Arguments: arguments}
}

func optionIdentifier(name []byte, options []shape.Field) (string, error) {
	if !utf8.Valid(name) {
		return "", &UnrecognizedOptionError{Name: lossy(name), Expecting: expecting(options)}
	}
	return string(name), nil
}

// redash restores the dashes stripped by tokenization.
func redash(name []byte) []byte {
	prefix := []byte("--")
	if utf8.RuneCount(name) <= 1 {
		prefix = []byte("-")
	}
	return append(prefix, name...)
}

func anyRequiredValue(s *shape.Shape) bool {
	for i := range s.Required {
		if s.Required[i].Shape.Kind != shape.Empty {
			return true
		}
	}
	return false
}

func expecting(fields []shape.Field) []string {
	var names []string
	for i := range fields {
		names = append(names, fields[i].Names()...)
	}
	return names
}

func expectingVariants(variants []shape.Variant) []string {
	var names []string
	for i := range variants {
		names = append(names, variants[i].Names()...)
	}
	return names
}
