package objfile

import "testing"

func TestPrint_WrappedSymbolForms(t *testing.T) {
	m := &ObjectModule{
		Segments: []Segment{{Name: SegText, Start: 0, Len: 0, Flags: SegmentFlags{Read: true, Present: true}}},
		Symbols: []SymbolTableEntry{
			{Name: Wrapped("foo"), Value: 0, SegmentIndex: 1, Kind: Defined},
			{Name: Wrapped("bar"), Value: 0, SegmentIndex: 0, Kind: Undefined},
		},
		Relocations: nil,
		Data:        [][]byte{{}},
	}
	out := Print(m)
	if !contains(out, "real_foo") {
		t.Errorf("expected real_foo in output:\n%s", out)
	}
	if !contains(out, "wrap_bar") {
		t.Errorf("expected wrap_bar in output:\n%s", out)
	}
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
