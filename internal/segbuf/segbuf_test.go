package segbuf

import "testing"

func TestNewIsZeroFilled(t *testing.T) {
	b := New(4)
	if b.Len() != 4 {
		t.Fatalf("expected len 4, got %d", b.Len())
	}
	for _, by := range b.Bytes() {
		if by != 0 {
			t.Fatalf("expected zero-filled buffer, got %v", b.Bytes())
		}
	}
}

func TestConcat(t *testing.T) {
	a := FromBytes([]byte{1, 2})
	b := FromBytes([]byte{3, 4})
	c := a.Concat(b)
	want := []byte{1, 2, 3, 4}
	if string(c.Bytes()) != string(want) {
		t.Fatalf("got %v, want %v", c.Bytes(), want)
	}
}

func TestUpdate(t *testing.T) {
	b := New(4)
	b.Update(1, 2, []byte{0xAA, 0xBB})
	want := []byte{0, 0xAA, 0xBB, 0}
	if string(b.Bytes()) != string(want) {
		t.Fatalf("got %v, want %v", b.Bytes(), want)
	}
}

func TestUpdatePanicsOnLengthMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic on length mismatch")
		}
	}()
	b := New(4)
	b.Update(0, 2, []byte{1})
}

func TestGetOutOfRange(t *testing.T) {
	b := New(2)
	if _, err := b.Get(1, 5); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestGet(t *testing.T) {
	b := FromBytes([]byte{1, 2, 3, 4})
	got, err := b.Get(1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{2, 3}
	if string(got) != string(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
