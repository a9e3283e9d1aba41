package library

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileLib_WriteThenParseRoundTrip(t *testing.T) {
	base := t.TempDir()
	writeFile(t, base, "a.o", "LINK\n1 1 0\n.text 0 2 RWP\nfoo 0 1 D\n00 00\n")
	writeFile(t, base, "b.o", "LINK\n1 1 0\n.text 0 2 RWP\nbar 0 1 D\n00 00\n")

	if err := WriteFileLib(base, "packed.lib", []string{
		filepath.Join(base, "a.o"),
		filepath.Join(base, "b.o"),
	}); err != nil {
		t.Fatalf("WriteFileLib: %v", err)
	}

	lib, err := ParseFileLib(filepath.Join(base, "packed.lib"))
	if err != nil {
		t.Fatalf("ParseFileLib: %v", err)
	}
	if len(lib.Modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(lib.Modules))
	}
	if _, ok := lib.Symbols["foo"]; !ok {
		t.Error("expected foo in symbol directory")
	}
	if _, ok := lib.Symbols["bar"]; !ok {
		t.Error("expected bar in symbol directory")
	}
	if idx := lib.Symbols["foo"]; lib.Modules[idx].Symbols[0].Name.Key() != "foo" {
		t.Errorf("foo should resolve to the module defining it, got %+v", lib.Modules[idx])
	}
}

func TestParseFileLib_BadHeader(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "bad.lib")
	if err := os.WriteFile(path, []byte("NOTALIB 1 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseFileLib(path); err == nil {
		t.Fatal("expected an error for a bad magic header")
	}
}

func TestParseFileLib_DirOffsetOutOfRange(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "bad.lib")
	if err := os.WriteFile(path, []byte("LIBRARY 1 FF\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseFileLib(path); err == nil {
		t.Fatal("expected an error for an out-of-range dir_offset")
	}
}
