package parse

// SegmentKind discriminates the three segment forms.
type SegmentKind uint8

const (
	// IdentifierSegment names a field, flag, or variant.
	IdentifierSegment SegmentKind = iota
	// ValueSegment holds the raw bytes of one argument value.
	ValueSegment
	// ChildSegment nests the context of a compound member.
	ChildSegment
)

// Segment is one element of a parsed context.
type Segment struct {
	Kind       SegmentKind
	Identifier string
	Value      []byte
	Child      *Context
}

func identifier(name string) Segment {
	return Segment{Kind: IdentifierSegment, Identifier: name}
}

func value(v []byte) Segment {
	return Segment{Kind: ValueSegment, Value: v}
}

func child(c *Context) Segment {
	return Segment{Kind: ChildSegment, Child: c}
}

// Context is the intermediate form between argv and decoding: a tree of
// segments whose nesting mirrors the shape that directed the parse. Decoding
// walks it without ever consulting argv again.
type Context struct {
	Segments []Segment
}
