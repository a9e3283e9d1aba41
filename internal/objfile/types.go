// Package objfile implements the line-oriented textual object format: the
// parser that reads it into an in-memory ObjectModule, and the printer that
// serializes one back out. The shape of ObjectModule/Segment/SymbolTableEntry
// /Relocation mirrors yld's WOFHeader/WOFSymbol/WOFReloc (types.go in the
// teacher), reworked from a fixed binary layout to the spec's variable-width
// hex-ASCII records.
package objfile

import "fmt"

// SegmentName is one of the fixed segment names. .got is output-only; the
// parser never accepts it on an input object.
type SegmentName string

const (
	SegText SegmentName = ".text"
	SegGOT  SegmentName = ".got"
	SegData SegmentName = ".data"
	SegBSS  SegmentName = ".bss"
)

// SegmentFlags is the R/W/P descriptor bit set.
type SegmentFlags struct {
	Read    bool
	Write   bool
	Present bool
}

// String renders flags back in the canonical R,W,P letter order.
func (f SegmentFlags) String() string {
	s := ""
	if f.Read {
		s += "R"
	}
	if f.Write {
		s += "W"
	}
	if f.Present {
		s += "P"
	}
	return s
}

// ParseSegmentFlags parses a descriptor string made of the letters R, W, P in
// any combination (each at most once), in any order.
func ParseSegmentFlags(s string) (SegmentFlags, error) {
	var f SegmentFlags
	for _, c := range s {
		switch c {
		case 'R':
			if f.Read {
				return f, fmt.Errorf("%w: duplicate R in %q", ErrInvalidSegmentDescr, s)
			}
			f.Read = true
		case 'W':
			if f.Write {
				return f, fmt.Errorf("%w: duplicate W in %q", ErrInvalidSegmentDescr, s)
			}
			f.Write = true
		case 'P':
			if f.Present {
				return f, fmt.Errorf("%w: duplicate P in %q", ErrInvalidSegmentDescr, s)
			}
			f.Present = true
		default:
			return f, fmt.Errorf("%w: unknown flag %q in %q", ErrInvalidSegmentDescr, string(c), s)
		}
	}
	return f, nil
}

// Segment describes one named region of a module or output image.
type Segment struct {
	Name  SegmentName
	Start int32
	Len   int32
	Flags SegmentFlags
}

// SymbolKind distinguishes defined from undefined symbol-table entries.
type SymbolKind int

const (
	Undefined SymbolKind = iota
	Defined
)

// SymbolName is Plain(name) or Wrapped(name); wrapping is performed by the
// linker (Phase 0), never by the parser.
type SymbolName struct {
	name    string
	wrapped bool
}

// Plain constructs an unwrapped symbol name.
func Plain(name string) SymbolName { return SymbolName{name: name} }

// Wrapped constructs a wrapped symbol name.
func Wrapped(name string) SymbolName { return SymbolName{name: name, wrapped: true} }

// IsWrapped reports whether this is the Wrapped variant.
func (s SymbolName) IsWrapped() bool { return s.wrapped }

// Base returns the underlying name, without the wrap_ prefix.
func (s SymbolName) Base() string { return s.name }

// Key returns the identity used for maps/sets: Plain("x") and Wrapped("x")
// never collide (Wrapped keys are prefixed) since they're distinct global
// symbols.
func (s SymbolName) Key() string {
	if s.wrapped {
		return "wrap$" + s.name
	}
	return s.name
}

// String renders the name in its on-disk/printed form for a *reference* or
// plain position. Definitions of wrapped names print differently (real_X);
// that distinction is handled by the printer, which knows defined-vs-undefined,
// not by SymbolName itself.
func (s SymbolName) String() string {
	if s.wrapped {
		return "wrap_" + s.name
	}
	return s.name
}

// DefinedString renders the defined-occurrence form: real_X for a wrapped
// name, the plain name otherwise.
func (s SymbolName) DefinedString() string {
	if s.wrapped {
		return "real_" + s.name
	}
	return s.name
}

// SymbolTableEntry is one row of a module's symbol table.
type SymbolTableEntry struct {
	Name         SymbolName
	Value        int32
	SegmentIndex int32 // 0 = absolute/undefined; else 1-based segment number
	Kind         SymbolKind
}

// IsDefined reports whether this entry is a definition.
func (e SymbolTableEntry) IsDefined() bool { return e.Kind == Defined }

// IsCommon reports whether this is a common-block request: undefined with a
// non-zero requested size.
func (e SymbolTableEntry) IsCommon() bool { return e.Kind == Undefined && e.Value != 0 }

// RelocTarget is the tagged target of a relocation.
type RelocTargetKind int

const (
	TargetNone RelocTargetKind = iota
	TargetSegment
	TargetSymbol
)

type RelocTarget struct {
	Kind  RelocTargetKind
	Index int32 // 1-based index into the containing module's segments or symbols
}

func SegmentRef(idx int32) RelocTarget { return RelocTarget{Kind: TargetSegment, Index: idx} }
func SymbolRef(idx int32) RelocTarget  { return RelocTarget{Kind: TargetSymbol, Index: idx} }
func NoRef() RelocTarget               { return RelocTarget{Kind: TargetNone} }

// RelocKind enumerates the ten relocation kinds spec.md §4.6 describes.
type RelocKind string

const (
	RelA4  RelocKind = "A4"
	RelR4  RelocKind = "R4"
	RelAS4 RelocKind = "AS4"
	RelRS4 RelocKind = "RS4"
	RelU2  RelocKind = "U2"
	RelL2  RelocKind = "L2"
	RelGA4 RelocKind = "GA4"
	RelGP4 RelocKind = "GP4"
	RelGR4 RelocKind = "GR4"
	RelER4 RelocKind = "ER4"
)

// TargetKindFor returns the RelocTargetKind a given RelocKind requires.
func TargetKindFor(k RelocKind) (RelocTargetKind, error) {
	switch k {
	case RelA4, RelR4, RelGR4:
		return TargetSegment, nil
	case RelAS4, RelRS4, RelU2, RelL2, RelGP4:
		return TargetSymbol, nil
	case RelGA4, RelER4:
		return TargetNone, nil
	default:
		return TargetNone, fmt.Errorf("%w: %q", ErrInvalidRelType, string(k))
	}
}

// Relocation is one recorded patch to apply to segment data at link time.
type Relocation struct {
	Loc               int32
	ContainingSegment SegmentName
	Target            RelocTarget
	Kind              RelocKind
}

// ObjectModule is an immutable parsed module: header counts plus four
// parallel, order-matched collections.
type ObjectModule struct {
	Segments    []Segment
	Symbols     []SymbolTableEntry
	Relocations []Relocation
	Data        [][]byte // one buffer per segment, same order/length as Segments
}

// NSegs, NSyms, NRels expose the header counts (always equal to the backing
// slice lengths for a successfully parsed/constructed module).
func (m *ObjectModule) NSegs() int { return len(m.Segments) }
func (m *ObjectModule) NSyms() int { return len(m.Symbols) }
func (m *ObjectModule) NRels() int { return len(m.Relocations) }
