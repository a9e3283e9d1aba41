package library

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseStubLib(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, libraryNameFile, "libshared\nlibother\n")
	writeFile(t, dir, mapFileName, "m sym\n")
	writeFile(t, dir, "m", "STUB\nsym 4000\nother_sym libother\n")

	lib, err := ParseStubLib(dir)
	if err != nil {
		t.Fatalf("ParseStubLib: %v", err)
	}
	if lib.Name != "libshared" {
		t.Errorf("name: got %q, want libshared", lib.Name)
	}
	if len(lib.Deps) != 1 || lib.Deps[0] != "libother" {
		t.Errorf("deps: got %v", lib.Deps)
	}
	member := lib.Members["m"]
	sym, ok := member["sym"]
	if !ok || !sym.HasAddr || sym.Addr != 0x4000 {
		t.Errorf("sym: got %+v", sym)
	}
	other, ok := member["other_sym"]
	if !ok || other.HasAddr || other.OtherLib != "libother" {
		t.Errorf("other_sym: got %+v", other)
	}
	exports := lib.Exports["m"]
	if len(exports) != 2 {
		t.Fatalf("expected 2 exports, got %d", len(exports))
	}
}

func TestParseStubLib_MissingMagic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, libraryNameFile, "libshared\n")
	writeFile(t, dir, mapFileName, "m sym\n")
	writeFile(t, dir, "m", "sym 4000\n")

	if _, err := ParseStubLib(dir); err == nil {
		t.Fatal("expected an error for a missing STUB magic")
	}
}

func TestParseStubLib_MissingLibraryName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, mapFileName, "m sym\n")
	writeFile(t, dir, "m", "STUB\nsym 4000\n")

	if _, err := ParseStubLib(dir); err == nil {
		t.Fatal("expected an error for a missing LIBRARY_NAME file")
	}
}

func TestSplitNonEmptyLines(t *testing.T) {
	got := splitNonEmptyLines("a\n\nb\n\n\nc\n")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseStubLib_UnrelatedDirEntryIgnored(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, libraryNameFile, "libshared\n")
	writeFile(t, dir, mapFileName, "m sym\n")
	writeFile(t, dir, "m", "STUB\nsym 4000\n")
	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	lib, err := ParseStubLib(dir)
	if err != nil {
		t.Fatalf("ParseStubLib: %v", err)
	}
	if _, ok := lib.Members["nested"]; ok {
		t.Error("subdirectories must not be treated as stub members")
	}
}
