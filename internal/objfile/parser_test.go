package objfile

import (
	"errors"
	"strings"
	"testing"
)

func TestParse_Minimal(t *testing.T) {
	src := "LINK\n0 0 0\n"
	m, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.NSegs() != 0 || m.NSyms() != 0 || m.NRels() != 0 {
		t.Fatalf("expected all-zero counts, got %d/%d/%d", m.NSegs(), m.NSyms(), m.NRels())
	}
}

func TestParse_MissingMagicNumber(t *testing.T) {
	_, err := Parse("")
	if !errors.Is(err, ErrMissingMagicNumber) {
		t.Fatalf("expected ErrMissingMagicNumber, got %v", err)
	}
}

func TestParse_InvalidMagicNumber(t *testing.T) {
	_, err := Parse("NOPE\n0 0 0\n")
	if !errors.Is(err, ErrInvalidMagicNumber) {
		t.Fatalf("expected ErrInvalidMagicNumber, got %v", err)
	}
}

func TestParse_OneSegmentOneSymbolRoundTrip(t *testing.T) {
	src := strings.Join([]string{
		"LINK",
		"1 1 0",
		".text 0 4 RP",
		"foo 0 1 D",
		"DE AD BE EF",
		"",
	}, "\n")
	m, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Segments) != 1 || m.Segments[0].Name != SegText {
		t.Fatalf("bad segments: %+v", m.Segments)
	}
	if len(m.Symbols) != 1 || m.Symbols[0].Name.Base() != "foo" || !m.Symbols[0].IsDefined() {
		t.Fatalf("bad symbols: %+v", m.Symbols)
	}
	if len(m.Data) != 1 || len(m.Data[0]) != 4 {
		t.Fatalf("bad data: %+v", m.Data)
	}
	out := Print(m)
	m2, err := Parse(out)
	if err != nil {
		t.Fatalf("round-trip parse failed: %v\n%s", err, out)
	}
	if Print(m2) != out {
		t.Fatalf("round-trip mismatch:\n%s\n---\n%s", out, Print(m2))
	}
}

func TestParse_SegmentOvercount(t *testing.T) {
	src := strings.Join([]string{
		"LINK",
		"1 0 0",
		".text 0 0 RP",
		".data 0 0 RWP",
		"",
		"",
	}, "\n")
	_, err := Parse(src)
	if !errors.Is(err, ErrInvalidNumOfSegments) {
		t.Fatalf("expected overcount error, got %v", err)
	}
}

func TestParse_SegmentDataLengthMismatch(t *testing.T) {
	src := strings.Join([]string{
		"LINK",
		"1 0 0",
		".text 0 4 RP",
		"DE AD BE",
		"",
	}, "\n")
	_, err := Parse(src)
	if !errors.Is(err, ErrSegmentDataLengthMismatch) {
		t.Fatalf("expected ErrSegmentDataLengthMismatch, got %v", err)
	}
}

func TestParse_TrailingContentIsOvercount(t *testing.T) {
	src := strings.Join([]string{
		"LINK",
		"1 0 0",
		".text 0 0 RP",
		"",
		"garbage",
		"",
	}, "\n")
	_, err := Parse(src)
	if !errors.Is(err, ErrSegmentDataOutOfBounds) {
		t.Fatalf("expected ErrSegmentDataOutOfBounds, got %v", err)
	}
}

func TestParse_STESegmentRefOutOfRange(t *testing.T) {
	src := strings.Join([]string{
		"LINK",
		"1 1 0",
		".text 0 0 RP",
		"foo 0 2 D",
		"",
	}, "\n")
	_, err := Parse(src)
	if !errors.Is(err, ErrSTESegmentRefOutOfRange) {
		t.Fatalf("expected ErrSTESegmentRefOutOfRange, got %v", err)
	}
}

func TestParse_RelocationSegmentRef(t *testing.T) {
	src := strings.Join([]string{
		"LINK",
		"1 1 1",
		".text 0 8 RP",
		"foo 0 1 D",
		"4 1 1 A4",
		"00 00 00 00 00 00 00 00",
		"",
	}, "\n")
	m, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Relocations) != 1 {
		t.Fatalf("expected 1 relocation, got %d", len(m.Relocations))
	}
	rel := m.Relocations[0]
	if rel.Kind != RelA4 || rel.Target.Kind != TargetSegment || rel.Target.Index != 1 {
		t.Fatalf("bad relocation: %+v", rel)
	}
	if rel.ContainingSegment != SegText {
		t.Fatalf("bad containing segment: %v", rel.ContainingSegment)
	}
}

func TestParse_RelSymbolOutOfRange(t *testing.T) {
	src := strings.Join([]string{
		"LINK",
		"1 0 1",
		".text 0 8 RP",
		"4 1 1 AS4",
		"00 00 00 00 00 00 00 00",
		"",
	}, "\n")
	_, err := Parse(src)
	if !errors.Is(err, ErrRelSymbolOutOfRange) {
		t.Fatalf("expected ErrRelSymbolOutOfRange, got %v", err)
	}
}

func TestParse_CommonBlock(t *testing.T) {
	src := strings.Join([]string{
		"LINK",
		"0 1 0",
		"name 4 0 U",
		"",
	}, "\n")
	m, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Symbols[0].IsCommon() {
		t.Fatalf("expected common block symbol")
	}
}
