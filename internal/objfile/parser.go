package objfile

import (
	"fmt"
	"strconv"
	"strings"
)

// Magic is the mandatory first line of every object text file.
const Magic = "LINK"

// Parse reads the textual object form described in spec §4.1 into an
// ObjectModule. Grounded on yld/reader.go's "read declared counts, then
// fixed records, then data" shape, translated from a binary layout to the
// line-oriented ASCII one the original Rust parser (types/object.rs) used.
func Parse(contents string) (*ObjectModule, error) {
	lines := splitLines(contents)
	pos := 0

	next := func() (string, bool) {
		if pos >= len(lines) {
			return "", false
		}
		l := lines[pos]
		pos++
		return l, true
	}
	peek := func() (string, bool) {
		if pos >= len(lines) {
			return "", false
		}
		return lines[pos], true
	}

	magic, ok := next()
	if !ok {
		return nil, ErrMissingMagicNumber
	}
	if magic != Magic {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidMagicNumber, magic)
	}

	header, ok := next()
	if !ok {
		return nil, ErrMissingNSegsNSymsNRels
	}
	nsegs, nsyms, nrels, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	segments := make([]Segment, 0, nsegs)
	for i := int32(0); i < nsegs; i++ {
		line, ok := next()
		if !ok {
			return nil, ErrInvalidNumOfSegments
		}
		seg, err := parseSegmentLine(line)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	if l, ok := peek(); ok {
		if _, err := parseSegmentLine(l); err == nil {
			return nil, fmt.Errorf("%w: overcount", ErrInvalidNumOfSegments)
		}
	}

	symbols := make([]SymbolTableEntry, 0, nsyms)
	for i := int32(0); i < nsyms; i++ {
		line, ok := next()
		if !ok {
			return nil, ErrInvalidNumOfSymbols
		}
		ste, err := parseSTELine(nsegs, line)
		if err != nil {
			return nil, err
		}
		symbols = append(symbols, ste)
	}
	if l, ok := peek(); ok {
		if _, err := parseSTELine(nsegs, l); err == nil {
			return nil, fmt.Errorf("%w: overcount", ErrInvalidNumOfSymbols)
		}
	}

	relocations := make([]Relocation, 0, nrels)
	for i := int32(0); i < nrels; i++ {
		line, ok := next()
		if !ok {
			return nil, ErrInvalidNumOfRelocations
		}
		rel, err := parseRelLine(segments, nsyms, line)
		if err != nil {
			return nil, err
		}
		relocations = append(relocations, rel)
	}
	if l, ok := peek(); ok {
		if _, err := parseRelLine(segments, nsyms, l); err == nil {
			return nil, fmt.Errorf("%w: overcount", ErrInvalidNumOfRelocations)
		}
	}

	data := make([][]byte, 0, nsegs)
	for i := int32(0); i < nsegs; i++ {
		line, ok := next()
		if !ok {
			return nil, ErrInvalidObjectData
		}
		seglen := int(segments[i].Len)
		bs, err := parseSegmentDataLine(seglen, line)
		if err != nil {
			return nil, err
		}
		data = append(data, bs)
	}
	if _, ok := next(); ok {
		return nil, ErrSegmentDataOutOfBounds
	}

	return &ObjectModule{
		Segments:    segments,
		Symbols:     symbols,
		Relocations: relocations,
		Data:        data,
	}, nil
}

// splitLines splits on "\n" without producing a trailing empty element for a
// final newline, matching Rust's str::lines() semantics that the original
// parser relies on.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return []string{""}
	}
	return strings.Split(s, "\n")
}

func parseHeader(line string) (nsegs, nsyms, nrels int32, err error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: expected 3 fields, got %d", ErrMissingNSegsNSymsNRels, len(fields))
	}
	n1, err1 := strconv.ParseInt(fields[0], 16, 32)
	if err1 != nil {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidNSegsValue, fields[0])
	}
	n2, err2 := strconv.ParseInt(fields[1], 16, 32)
	if err2 != nil {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidNSymsValue, fields[1])
	}
	n3, err3 := strconv.ParseInt(fields[2], 16, 32)
	if err3 != nil {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidNRelsValue, fields[2])
	}
	return int32(n1), int32(n2), int32(n3), nil
}

func parseSegmentLine(line string) (Segment, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return Segment{}, fmt.Errorf("%w: expected 4 fields, got %d", ErrInvalidSegmentName, len(fields))
	}
	name := SegmentName(fields[0])
	switch name {
	case SegText, SegData, SegBSS:
	default:
		return Segment{}, fmt.Errorf("%w: %q", ErrInvalidSegmentName, fields[0])
	}
	start, err := strconv.ParseInt(fields[1], 16, 32)
	if err != nil {
		return Segment{}, fmt.Errorf("%w: %q", ErrInvalidSegmentStart, fields[1])
	}
	length, err := strconv.ParseInt(fields[2], 16, 32)
	if err != nil {
		return Segment{}, fmt.Errorf("%w: %q", ErrInvalidSegmentLen, fields[2])
	}
	flags, err := ParseSegmentFlags(fields[3])
	if err != nil {
		return Segment{}, err
	}
	return Segment{Name: name, Start: int32(start), Len: int32(length), Flags: flags}, nil
}

func parseSTELine(nsegs int32, line string) (SymbolTableEntry, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return SymbolTableEntry{}, fmt.Errorf("%w: expected 4 fields, got %d", ErrInvalidSTEValue, len(fields))
	}
	name := fields[0]
	value, err := strconv.ParseInt(fields[1], 16, 32)
	if err != nil {
		return SymbolTableEntry{}, fmt.Errorf("%w: %q", ErrInvalidSTEValue, fields[1])
	}
	seg, err := strconv.ParseInt(fields[2], 16, 32)
	if err != nil {
		return SymbolTableEntry{}, fmt.Errorf("%w: %q", ErrInvalidSTESegment, fields[2])
	}
	if int32(seg) > nsegs {
		return SymbolTableEntry{}, fmt.Errorf("%w: segment %X > nsegs %X", ErrSTESegmentRefOutOfRange, seg, nsegs)
	}
	var kind SymbolKind
	switch fields[3] {
	case "D":
		kind = Defined
	case "U":
		kind = Undefined
	default:
		return SymbolTableEntry{}, fmt.Errorf("%w: %q", ErrInvalidSTEType, fields[3])
	}
	if kind == Undefined && seg != 0 {
		return SymbolTableEntry{}, fmt.Errorf("%w: %q", ErrNonZeroSegmentForUndefinedSTE, name)
	}
	return SymbolTableEntry{
		Name:         Plain(name),
		Value:        int32(value),
		SegmentIndex: int32(seg),
		Kind:         kind,
	}, nil
}

func parseRelLine(segments []Segment, nsyms int32, line string) (Relocation, error) {
	nsegs := int32(len(segments))
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return Relocation{}, fmt.Errorf("%w: expected 4 fields, got %d", ErrInvalidRelRef, len(fields))
	}
	loc, err := strconv.ParseInt(fields[0], 16, 32)
	if err != nil {
		return Relocation{}, fmt.Errorf("%w: %q", ErrInvalidRelRef, fields[0])
	}
	segIdx, err := strconv.ParseInt(fields[1], 16, 32)
	if err != nil {
		return Relocation{}, fmt.Errorf("%w: %q", ErrInvalidRelSegment, fields[1])
	}
	if segIdx < 1 || int32(segIdx) > nsegs {
		return Relocation{}, fmt.Errorf("%w: containing segment %X", ErrRelSegmentOutOfRange, segIdx)
	}
	containingSegment := segments[segIdx-1].Name
	refRaw, err := strconv.ParseInt(fields[2], 16, 32)
	if err != nil {
		return Relocation{}, fmt.Errorf("%w: %q", ErrInvalidRelRef, fields[2])
	}
	kind := RelocKind(fields[3])
	targetKind, err := TargetKindFor(kind)
	if err != nil {
		return Relocation{}, err
	}

	var target RelocTarget
	switch targetKind {
	case TargetSegment:
		if refRaw < 1 || int32(refRaw) > nsegs {
			return Relocation{}, fmt.Errorf("%w: segment ref %X", ErrRelSegmentOutOfRange, refRaw)
		}
		target = SegmentRef(int32(refRaw))
	case TargetSymbol:
		if refRaw < 1 || int32(refRaw) > nsyms {
			return Relocation{}, fmt.Errorf("%w: symbol ref %X", ErrRelSymbolOutOfRange, refRaw)
		}
		target = SymbolRef(int32(refRaw))
	case TargetNone:
		target = NoRef()
	}

	return Relocation{
		Loc:               int32(loc),
		ContainingSegment: containingSegment,
		Target:            target,
		Kind:              kind,
	}, nil
}

func parseSegmentDataLine(seglen int, line string) ([]byte, error) {
	if seglen == 0 {
		if strings.TrimSpace(line) != "" {
			return nil, fmt.Errorf("%w: expected empty data line for zero-length segment", ErrSegmentDataLengthMismatch)
		}
		return []byte{}, nil
	}
	fields := strings.Fields(line)
	if len(fields) != seglen {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrSegmentDataLengthMismatch, seglen, len(fields))
	}
	bs := make([]byte, seglen)
	for i, f := range fields {
		if len(f) != 2 {
			return nil, fmt.Errorf("%w: %q is not a two-digit hex byte", ErrInvalidObjectData, f)
		}
		v, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidObjectData, f)
		}
		bs[i] = byte(v)
	}
	return bs, nil
}
