package library

import "github.com/gmofishsauce/ylink/internal/objfile"

// Kind tags which of the three on-disk variants a Library holds. Per spec
// §9, the three shapes share one operation ("look up a symbol, pull its
// defining module/record") with a single dispatch point in the linker's
// Phase 2 — a tagged union, not an interface hierarchy.
type Kind int

const (
	KindDir Kind = iota
	KindFile
	KindStub
)

// Library is the tagged union of DirLib, FileLib, and StubLib.
type Library struct {
	Kind Kind
	Dir  *DirLib
	File *FileLib
	Stub *StubLib
}

func (l *Library) Name() string {
	switch l.Kind {
	case KindDir:
		return l.Dir.Name
	case KindFile:
		return l.File.Name
	case KindStub:
		return l.Stub.Name
	default:
		return ""
	}
}

// DirLib is a directory of one object-text file per module plus a MAP file
// listing each module's defined symbols.
type DirLib struct {
	Name    string
	Map     map[string][]objfile.SymbolName // libObjName -> exported symbol names
	Objects map[string]*objfile.ObjectModule // libObjName -> parsed module
	// order preserves MAP file order for deterministic scanning.
	Order []string
}

// FileLib is a single packed file: concatenated object bodies plus a symbol
// directory.
type FileLib struct {
	Name    string
	Symbols map[string]int // symbol key -> index into Modules
	Modules []*objfile.ObjectModule
}

// StubMember describes one exported symbol of a shared-library stub member:
// either the absolute address the symbol is defined at in this shared
// library's image, or the name of another library that actually defines it.
type StubMember struct {
	HasAddr   bool
	Addr      uint32
	OtherLib  string
}

// StubLib is an on-disk description of a shared library's exports, without
// the shared library's code.
type StubLib struct {
	Name    string
	Members map[string]map[string]StubMember // memberName -> symbol -> StubMember
	Exports map[string][]objfile.SymbolName  // memberName -> ordered exported names
	Deps    []string                          // dependency library names, in LIBRARY NAME order
}
