package objfile

import (
	"fmt"
	"strings"
)

// Print renders m back to its canonical textual form. Grounded on
// yld/output.go's header-then-sections writer, adapted to ASCII text and to
// round-trip through Parse. Wrapped symbol names print per spec §4.6: a
// defined Wrapped(X) prints as real_X, an undefined Wrapped(X) as wrap_X.
func Print(m *ObjectModule) string {
	var b strings.Builder
	b.WriteString(Magic)
	b.WriteString("\n")
	fmt.Fprintf(&b, "%X %X %X\n", m.NSegs(), m.NSyms(), m.NRels())

	segIndex := make(map[SegmentName]int, len(m.Segments))
	for i, seg := range m.Segments {
		segIndex[seg.Name] = i + 1
		fmt.Fprintf(&b, "%s %X %X %s\n", seg.Name, seg.Start, seg.Len, seg.Flags.String())
	}

	for _, ste := range m.Symbols {
		name := ste.Name.String()
		if ste.IsDefined() {
			name = ste.Name.DefinedString()
		}
		typ := "U"
		if ste.IsDefined() {
			typ = "D"
		}
		fmt.Fprintf(&b, "%s %X %X %s\n", name, ste.Value, ste.SegmentIndex, typ)
	}

	for _, rel := range m.Relocations {
		segNum := segIndex[rel.ContainingSegment]
		var refNum int32
		switch rel.Target.Kind {
		case TargetSegment, TargetSymbol:
			refNum = rel.Target.Index
		case TargetNone:
			refNum = 0
		}
		fmt.Fprintf(&b, "%X %X %X %s\n", rel.Loc, segNum, refNum, rel.Kind)
	}

	for _, bs := range m.Data {
		parts := make([]string, len(bs))
		for i, by := range bs {
			parts[i] = fmt.Sprintf("%02X", by)
		}
		b.WriteString(strings.Join(parts, " "))
		b.WriteString("\n")
	}

	return b.String()
}

// PrintNoMagic renders m without the leading LINK line, as the FileLib
// writer needs (library file bodies omit the magic and the parser
// re-prepends it when reading a member back out, per spec §4.4).
func PrintNoMagic(m *ObjectModule) string {
	full := Print(m)
	return strings.TrimPrefix(full, Magic+"\n")
}
