package hexcodec

import (
	"math"
	"testing"
)

func TestMkI4RoundTrip(t *testing.T) {
	cases := []int32{0, 1, -1, math.MinInt32, math.MaxInt32, 12345, -12345}
	for _, c := range cases {
		b := MkI4(c)
		got := XToI4(b[:])
		if got != c {
			t.Errorf("round trip failed for %d: got %d", c, got)
		}
	}
}

func TestMkAddr4Bounds(t *testing.T) {
	if _, err := MkAddr4(0); err != nil {
		t.Errorf("0 should be valid: %v", err)
	}
	if _, err := MkAddr4(0xFFFFFFFF); err != nil {
		t.Errorf("0xFFFFFFFF should be valid: %v", err)
	}
	if _, err := MkAddr4(0x100000000); err == nil {
		t.Errorf("expected overflow error for 0x100000000")
	}
	if _, err := MkAddr4(-1); err == nil {
		t.Errorf("expected error for negative value")
	}
}

func TestXToI2SignExtends(t *testing.T) {
	if got := XToI2([]byte{0x00, 0x01}); got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
	if got := XToI2([]byte{0xFF, 0xFF}); got != -1 {
		t.Errorf("expected -1, got %d", got)
	}
}

func TestMkAddr4Value(t *testing.T) {
	b, err := MkAddr4(0x14B)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [4]byte{0x00, 0x00, 0x01, 0x4B}
	if b != want {
		t.Errorf("got %v, want %v", b, want)
	}
}
