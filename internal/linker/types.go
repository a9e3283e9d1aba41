package linker

import (
	"github.com/gmofishsauce/ylink/internal/objfile"
	"github.com/gmofishsauce/ylink/internal/segbuf"
)

// LinkMode distinguishes the two entry points the original exposed as
// separate functions (link / link_lib): building an executable versus
// building a shared library. They share every phase; SharedLib only changes
// whether the global symbol table is emitted in the output.
type LinkMode int

const (
	Executable LinkMode = iota
	SharedLib
)

func (m LinkMode) String() string {
	if m == SharedLib {
		return "shared-lib"
	}
	return "executable"
}

// Options mirrors spec.md §6's options record consumed by the linker.
type Options struct {
	TextStart         int32
	DataStartBoundary int32
	BSSStartBoundary  int32
	Silent            bool
	WrapRoutines      []string
	StaticLibs        []string
	LinkObjectType    LinkMode
}

// Provenance records where a Defn's address came from.
type Provenance struct {
	FromSharedLib bool
	LibName       string
}

// Defn is a definition record: the module and symbol-table slot that defines
// a global name, or (for shared-lib provenance) just the resolved address.
type Defn struct {
	ModuleID        string
	SymbolIndex     int32
	HasSymbolIndex  bool
	FinalAddress    int32
	HasFinalAddress bool
	Provenance      Provenance
}

// GlobalSymbolEntry is one row of the global symbol table: an optional
// definition plus every module that references the name.
type GlobalSymbolEntry struct {
	Name       objfile.SymbolName
	Defn       *Defn
	References map[string]int32 // module id -> symbol index in that module
}

// LinkerInfo is the per-session bookkeeping returned alongside the linked
// output: final per-module-per-segment offsets, common-block sizes, a
// snapshot of each ingested module's symbol table, and the global table.
type LinkerInfo struct {
	Offsets      map[string]map[objfile.SegmentName]int32
	CommonBlocks map[string]int32
	Snapshots    map[string][]objfile.SymbolTableEntry
	Globals      map[string]*GlobalSymbolEntry
}

// OutputRelocation is a relocation pushed into the output for PIC fixup by a
// later consumer of the linked artifact.
type OutputRelocation struct {
	Loc     int32
	Segment objfile.SegmentName
	Kind    objfile.RelocKind
}

// ObjectOut is the linked output: segment table, per-segment data, the
// global symbol table (only populated for SharedLib mode), and any output
// relocations produced while patching.
type ObjectOut struct {
	Segments    []objfile.Segment
	Data        map[objfile.SegmentName]*segbuf.Buffer
	Globals     map[string]*Defn
	GlobalNames map[string]objfile.SymbolName
	Relocations []OutputRelocation
}
