package linker

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gmofishsauce/ylink/internal/hexcodec"
	"github.com/gmofishsauce/ylink/internal/library"
	"github.com/gmofishsauce/ylink/internal/logging"
	"github.com/gmofishsauce/ylink/internal/objfile"
	"github.com/gmofishsauce/ylink/internal/segbuf"
)

// Linker is one link session. It owns every ingested module (initial inputs
// plus anything pulled from a library) keyed by id, and is discarded after
// Link returns, per spec.md §3's ownership-lifecycle rule.
type Linker struct {
	opts   Options
	logger logging.Logger

	order       []string // ids of the initial AddModule-supplied modules, insertion order
	ingestOrder []string // every ingested id (initial + library-pulled), ingestion order

	modules map[string]*objfile.ObjectModule

	segOffsets map[string]map[objfile.SegmentName]int32 // id -> segment -> module-local offset
	outBuffers map[objfile.SegmentName]*segbuf.Buffer
	segPresent map[objfile.SegmentName]bool
	segStarts  map[objfile.SegmentName]int32

	globals      map[string]*GlobalSymbolEntry
	commonBlocks map[string]int32
	snapshots    map[string][]objfile.SymbolTableEntry

	gotSize   int32
	gotCursor int32

	outputRelocs []OutputRelocation
}

// New creates an empty link session.
func New(opts Options, logger logging.Logger) *Linker {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Linker{
		opts:         opts,
		logger:       logger,
		modules:      make(map[string]*objfile.ObjectModule),
		segOffsets:   make(map[string]map[objfile.SegmentName]int32),
		outBuffers:   make(map[objfile.SegmentName]*segbuf.Buffer),
		segPresent:   make(map[objfile.SegmentName]bool),
		segStarts:    make(map[objfile.SegmentName]int32),
		globals:      make(map[string]*GlobalSymbolEntry),
		commonBlocks: make(map[string]int32),
		snapshots:    make(map[string][]objfile.SymbolTableEntry),
	}
}

func cloneModule(mod *objfile.ObjectModule) *objfile.ObjectModule {
	syms := make([]objfile.SymbolTableEntry, len(mod.Symbols))
	copy(syms, mod.Symbols)
	return &objfile.ObjectModule{
		Segments:    mod.Segments,
		Symbols:     syms,
		Relocations: mod.Relocations,
		Data:        mod.Data,
	}
}

// AddModule registers an initial input module under id. Library-pulled
// modules are added internally during Phase 2, not through this method.
func (l *Linker) AddModule(id string, mod *objfile.ObjectModule) error {
	if _, exists := l.modules[id]; exists {
		return &DuplicateObjectError{ID: id}
	}
	l.modules[id] = cloneModule(mod)
	l.order = append(l.order, id)
	return nil
}

func (l *Linker) globalEntry(key string, name objfile.SymbolName) *GlobalSymbolEntry {
	e, ok := l.globals[key]
	if !ok {
		e = &GlobalSymbolEntry{Name: name, References: make(map[string]int32)}
		l.globals[key] = e
	}
	return e
}

// Link runs the full Phase 0 - Phase 8 pipeline against libs (scanned in
// order for Phase 2 satisfaction) and returns the linked output plus session
// bookkeeping.
func (l *Linker) Link(libs []*library.Library) (*ObjectOut, *LinkerInfo, error) {
	if err := l.wrapModules(); err != nil {
		return nil, nil, err
	}
	for _, id := range l.order {
		if err := l.ingestModule(id, l.modules[id]); err != nil {
			return nil, nil, err
		}
	}
	if err := l.satisfyLibraries(libs); err != nil {
		return nil, nil, err
	}
	l.layoutSegments()
	l.coalesceCommonBlocks()
	if err := l.checkUndefined(); err != nil {
		return nil, nil, err
	}
	if err := l.resolveAddresses(); err != nil {
		return nil, nil, err
	}
	if err := l.applyRelocations(); err != nil {
		return nil, nil, err
	}
	out := l.emit()
	info := l.buildInfo()
	return out, info, nil
}

// ---- Phase 0: wrapping --------------------------------------------------

func (l *Linker) wrapModules() error {
	if len(l.opts.WrapRoutines) == 0 {
		return nil
	}
	requested := make(map[string]bool, len(l.opts.WrapRoutines))
	for _, name := range l.opts.WrapRoutines {
		if requested[name] {
			return &WrappedSymbolNameAlreadyExistsError{Name: name}
		}
		requested[name] = true
	}

	for _, id := range l.order {
		mod := l.modules[id]
		for _, ste := range mod.Symbols {
			base := ste.Name.Base()
			if rest, ok := strings.CutPrefix(base, "wrap_"); ok && requested[rest] {
				return &WrappedSymbolNameAlreadyExistsError{Name: base}
			}
			if rest, ok := strings.CutPrefix(base, "real_"); ok && requested[rest] {
				return &WrappedSymbolNameAlreadyExistsError{Name: base}
			}
		}
	}

	for _, id := range l.order {
		mod := l.modules[id]
		for i, ste := range mod.Symbols {
			if ste.Name.IsWrapped() {
				continue
			}
			if requested[ste.Name.Base()] {
				mod.Symbols[i].Name = objfile.Wrapped(ste.Name.Base())
			}
		}
	}
	return nil
}

// ---- Phase 1: module ingestion ------------------------------------------

func (l *Linker) ingestModule(id string, mod *objfile.ObjectModule) error {
	l.modules[id] = mod
	l.ingestOrder = append(l.ingestOrder, id)
	offsets := make(map[objfile.SegmentName]int32, len(mod.Segments))
	for i, seg := range mod.Segments {
		buf, ok := l.outBuffers[seg.Name]
		if !ok {
			buf = segbuf.New(0)
			l.segPresent[seg.Name] = true
		}
		offsets[seg.Name] = int32(buf.Len())
		l.outBuffers[seg.Name] = buf.Concat(segbuf.FromBytes(mod.Data[i]))
	}
	l.segOffsets[id] = offsets

	for i, ste := range mod.Symbols {
		key := ste.Name.Key()
		if ste.IsCommon() {
			if cur, ok := l.commonBlocks[key]; !ok || ste.Value > cur {
				l.commonBlocks[key] = ste.Value
			}
			continue
		}
		entry := l.globalEntry(key, ste.Name)
		if ste.IsDefined() {
			if entry.Defn != nil {
				return &MultipleSymbolDefinitionsError{Name: ste.Name.String()}
			}
			entry.Defn = &Defn{ModuleID: id, SymbolIndex: int32(i), HasSymbolIndex: true}
		} else {
			entry.References[id] = int32(i)
		}
	}

	for _, r := range mod.Relocations {
		if r.Kind == objfile.RelGP4 {
			l.gotSize += 4
		}
	}

	l.snapshots[id] = mod.Symbols
	return nil
}

func (l *Linker) newUndefinedIn(id string) []string {
	mod := l.modules[id]
	var keys []string
	for _, ste := range mod.Symbols {
		if !ste.IsDefined() && !ste.IsCommon() {
			keys = append(keys, ste.Name.Key())
		}
	}
	return keys
}

// ---- Phase 2: library satisfaction --------------------------------------

func (l *Linker) undefinedKeys() []string {
	keys := make([]string, 0, len(l.globals))
	for k, e := range l.globals {
		if e.Defn == nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (l *Linker) satisfyLibraries(libs []*library.Library) error {
	pulled := make(map[string]bool)
	worklist := l.undefinedKeys()
	for len(worklist) > 0 {
		key := worklist[0]
		worklist = worklist[1:]
		entry := l.globals[key]
		if entry == nil || entry.Defn != nil {
			continue
		}
		for _, lib := range libs {
			ok, newKeys, err := l.tryPull(lib, key, pulled, libs)
			if err != nil {
				return err
			}
			if ok {
				worklist = append(worklist, newKeys...)
				break
			}
		}
	}
	return nil
}

func (l *Linker) tryPull(lib *library.Library, key string, pulled map[string]bool, libs []*library.Library) (bool, []string, error) {
	switch lib.Kind {
	case library.KindDir:
		modname, ok := dirLibExports(lib.Dir, key)
		if !ok {
			return false, nil, nil
		}
		synID := lib.Name() + "#" + modname
		if pulled[synID] {
			return true, nil, nil
		}
		pulled[synID] = true
		if err := l.ingestModule(synID, cloneModule(lib.Dir.Objects[modname])); err != nil {
			return false, nil, err
		}
		return true, l.newUndefinedIn(synID), nil

	case library.KindFile:
		idx, ok := lib.File.Symbols[key]
		if !ok {
			return false, nil, nil
		}
		synID := fmt.Sprintf("%s_mod_%d", lib.Name(), idx)
		if pulled[synID] {
			return true, nil, nil
		}
		pulled[synID] = true
		if err := l.ingestModule(synID, cloneModule(lib.File.Modules[idx])); err != nil {
			return false, nil, err
		}
		return true, l.newUndefinedIn(synID), nil

	case library.KindStub:
		memberName, member, ok := stubLibExports(lib.Stub, key)
		if !ok {
			return false, nil, nil
		}
		synID := lib.Name() + "#" + memberName
		if pulled[synID] {
			return true, nil, nil
		}
		pulled[synID] = true
		addr, err := l.resolveStubAddress([]string{lib.Name()}, key, member, libs)
		if err != nil {
			return false, nil, err
		}
		entry := l.globalEntry(key, objfile.Plain(key))
		entry.Defn = &Defn{
			Provenance:      Provenance{FromSharedLib: true, LibName: lib.Name()},
			FinalAddress:    addr,
			HasFinalAddress: true,
		}
		return true, nil, nil
	}
	return false, nil, nil
}

func dirLibExports(dir *library.DirLib, key string) (string, bool) {
	for _, modname := range dir.Order {
		for _, sym := range dir.Map[modname] {
			if sym.Key() == key {
				return modname, true
			}
		}
	}
	return "", false
}

func sortedStubMembers(stub *library.StubLib) []string {
	names := make([]string, 0, len(stub.Exports))
	for m := range stub.Exports {
		names = append(names, m)
	}
	sort.Strings(names)
	return names
}

func stubLibExports(stub *library.StubLib, key string) (string, library.StubMember, bool) {
	for _, m := range sortedStubMembers(stub) {
		for _, sym := range stub.Exports[m] {
			if sym.Key() == key {
				return m, stub.Members[m][sym.Base()], true
			}
		}
	}
	return "", library.StubMember{}, false
}

func stubLibExportsByBase(stub *library.StubLib, base string) (string, library.StubMember, bool) {
	for _, m := range sortedStubMembers(stub) {
		for _, sym := range stub.Exports[m] {
			if sym.Base() == base {
				return m, stub.Members[m][base], true
			}
		}
	}
	return "", library.StubMember{}, false
}

func findLibraryByName(libs []*library.Library, name string) *library.Library {
	for _, lib := range libs {
		if lib.Name() == name {
			return lib
		}
	}
	return nil
}

func contains(path []string, name string) bool {
	for _, p := range path {
		if p == name {
			return true
		}
	}
	return false
}

// resolveStubAddress chases a StubMember's OtherLib chain to an absolute
// address, detecting cycles via the visited-path slice (a DFS with a
// recursion-stack set, per spec.md §9's resolved Open Question).
func (l *Linker) resolveStubAddress(path []string, symBase string, member library.StubMember, libs []*library.Library) (int32, error) {
	if member.HasAddr {
		return int32(member.Addr), nil
	}
	if contains(path, member.OtherLib) {
		return 0, &SharedLibsReferenceCycleError{Cycle: append(append([]string{}, path...), member.OtherLib)}
	}
	other := findLibraryByName(libs, member.OtherLib)
	if other == nil || other.Kind != library.KindStub {
		return 0, &SharedLibRefDefnNotFoundError{Symbol: symBase, Library: member.OtherLib}
	}
	_, nextMember, ok := stubLibExportsByBase(other.Stub, symBase)
	if !ok {
		return 0, &SharedLibRefDefnNotFoundError{Symbol: symBase, Library: member.OtherLib}
	}
	return l.resolveStubAddress(append(path, member.OtherLib), symBase, nextMember, libs)
}

// ---- Phase 3: segment layout ---------------------------------------------

func alignUp(x, n int32) int32 {
	if n == 0 || x%n == 0 {
		return x
	}
	return x + (n - x%n)
}

func bufLen(b *segbuf.Buffer) int32 {
	if b == nil {
		return 0
	}
	return int32(b.Len())
}

func (l *Linker) layoutSegments() {
	cursor := l.opts.TextStart
	l.segStarts[objfile.SegText] = cursor
	cursor += bufLen(l.outBuffers[objfile.SegText])

	if l.gotSize > 0 {
		l.segPresent[objfile.SegGOT] = true
		l.segStarts[objfile.SegGOT] = cursor
		l.outBuffers[objfile.SegGOT] = segbuf.New(int(l.gotSize))
		cursor += l.gotSize
	}

	dataStart := alignUp(cursor, l.opts.DataStartBoundary)
	l.segStarts[objfile.SegData] = dataStart
	cursor = dataStart + bufLen(l.outBuffers[objfile.SegData])

	bssStart := alignUp(cursor, l.opts.BSSStartBoundary)
	l.segStarts[objfile.SegBSS] = bssStart
}

func (l *Linker) moduleSegmentStart(id string, seg objfile.SegmentName) int32 {
	return l.segStarts[seg] + l.segOffsets[id][seg]
}

// ---- Phase 4: common blocks ------------------------------------------

func (l *Linker) coalesceCommonBlocks() {
	var total int32
	for _, size := range l.commonBlocks {
		total += size
	}
	if total == 0 {
		return
	}
	l.segPresent[objfile.SegBSS] = true
	existing, ok := l.outBuffers[objfile.SegBSS]
	if !ok {
		existing = segbuf.New(0)
	}
	l.outBuffers[objfile.SegBSS] = existing.Concat(segbuf.New(int(total)))
}

// ---- Phase 5: undefined check --------------------------------------------

func (l *Linker) checkUndefined() error {
	remaining := l.undefinedKeys()
	if len(remaining) > 0 {
		return &UndefinedSymbolError{Names: remaining}
	}
	return nil
}

// ---- Phase 6: symbol address resolution ----------------------------------

func (l *Linker) resolveAddresses() error {
	for _, entry := range l.globals {
		if entry.Defn == nil || entry.Defn.Provenance.FromSharedLib || !entry.Defn.HasSymbolIndex {
			continue
		}
		mod := l.modules[entry.Defn.ModuleID]
		ste := mod.Symbols[entry.Defn.SymbolIndex]
		if ste.SegmentIndex == 0 {
			entry.Defn.FinalAddress = ste.Value
		} else {
			segName := mod.Segments[ste.SegmentIndex-1].Name
			entry.Defn.FinalAddress = l.moduleSegmentStart(entry.Defn.ModuleID, segName) + ste.Value
		}
		entry.Defn.HasFinalAddress = true
	}
	return nil
}

func (l *Linker) resolveSymbolRef(id string, idx int32) (*Defn, error) {
	mod := l.modules[id]
	ste := mod.Symbols[idx-1]
	key := ste.Name.Key()
	entry := l.globals[key]
	if entry == nil || entry.Defn == nil {
		return nil, &UnexpectedLinkError{Detail: fmt.Sprintf("unresolved symbol ref %q in %s survived phase 5", key, id)}
	}
	return entry.Defn, nil
}

// ---- Phase 7: relocation application -------------------------------------

func (l *Linker) overflow(v int64) error {
	return &AddressOverflowError{Value: v}
}

func (l *Linker) applyRelocations() error {
	for _, id := range l.ingestOrder {
		mod := l.modules[id]
		for _, r := range mod.Relocations {
			if err := l.applyOne(id, mod, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *Linker) applyOne(id string, mod *objfile.ObjectModule, r objfile.Relocation) error {
	locOff := int(l.segOffsets[id][r.ContainingSegment]) + int(r.Loc)
	buf := l.outBuffers[r.ContainingSegment]
	absContaining := l.moduleSegmentStart(id, r.ContainingSegment)

	switch r.Kind {
	case objfile.RelA4:
		targetSeg := mod.Segments[r.Target.Index-1].Name
		targetAbs := l.moduleSegmentStart(id, targetSeg)
		addr4, err := hexcodec.MkAddr4(int64(targetAbs))
		if err != nil {
			return l.overflow(int64(targetAbs))
		}
		buf.Update(locOff, 4, addr4[:])
		l.outputRelocs = append(l.outputRelocs, OutputRelocation{Loc: int32(locOff), Segment: r.ContainingSegment, Kind: objfile.RelER4})

	case objfile.RelR4:
		targetSeg := mod.Segments[r.Target.Index-1].Name
		targetAbs := l.moduleSegmentStart(id, targetSeg)
		raw, err := buf.Get(locOff, 4)
		if err != nil {
			return &UnexpectedLinkError{Detail: err.Error()}
		}
		addend := hexcodec.XToI4(raw)
		next := absContaining + r.Loc + 4
		result := next - targetAbs + addend
		buf.Update(locOff, 4, sliceOf(hexcodec.MkI4(result)))

	case objfile.RelAS4:
		defn, err := l.resolveSymbolRef(id, r.Target.Index)
		if err != nil {
			return err
		}
		raw, err := buf.Get(locOff, 4)
		if err != nil {
			return &UnexpectedLinkError{Detail: err.Error()}
		}
		addend := hexcodec.XToI4(raw)
		v := int64(defn.FinalAddress) + int64(addend)
		addr4, err := hexcodec.MkAddr4(v)
		if err != nil {
			return l.overflow(v)
		}
		buf.Update(locOff, 4, addr4[:])
		l.outputRelocs = append(l.outputRelocs, OutputRelocation{Loc: int32(locOff), Segment: r.ContainingSegment, Kind: objfile.RelER4})

	case objfile.RelRS4:
		defn, err := l.resolveSymbolRef(id, r.Target.Index)
		if err != nil {
			return err
		}
		raw, err := buf.Get(locOff, 4)
		if err != nil {
			return &UnexpectedLinkError{Detail: err.Error()}
		}
		addend := hexcodec.XToI4(raw)
		locAddr := absContaining + r.Loc
		result := locAddr + 4 - defn.FinalAddress + addend
		buf.Update(locOff, 4, sliceOf(hexcodec.MkI4(result)))

	case objfile.RelU2:
		defn, err := l.resolveSymbolRef(id, r.Target.Index)
		if err != nil {
			return err
		}
		v, err := hexcodec.MkAddr4(int64(defn.FinalAddress))
		if err != nil {
			return l.overflow(int64(defn.FinalAddress))
		}
		buf.Update(locOff, 2, v[0:2])

	case objfile.RelL2:
		defn, err := l.resolveSymbolRef(id, r.Target.Index)
		if err != nil {
			return err
		}
		v, err := hexcodec.MkAddr4(int64(defn.FinalAddress))
		if err != nil {
			return l.overflow(int64(defn.FinalAddress))
		}
		buf.Update(locOff, 2, v[2:4])

	case objfile.RelGA4:
		got := l.segStarts[objfile.SegGOT]
		diff := int64(got) - int64(absContaining+r.Loc)
		addr4, err := hexcodec.MkAddr4(diff)
		if err != nil {
			return l.overflow(diff)
		}
		buf.Update(locOff, 4, addr4[:])

	case objfile.RelGP4:
		defn, err := l.resolveSymbolRef(id, r.Target.Index)
		if err != nil {
			return err
		}
		slotAddr4, err := hexcodec.MkAddr4(int64(defn.FinalAddress))
		if err != nil {
			return l.overflow(int64(defn.FinalAddress))
		}
		gotBuf := l.outBuffers[objfile.SegGOT]
		gotBuf.Update(int(l.gotCursor), 4, slotAddr4[:])
		cursorAddr4, err := hexcodec.MkAddr4(int64(l.gotCursor))
		if err != nil {
			return l.overflow(int64(l.gotCursor))
		}
		buf.Update(locOff, 4, cursorAddr4[:])
		l.gotCursor += 4

	case objfile.RelGR4:
		targetSeg := mod.Segments[r.Target.Index-1].Name
		segAbs := l.moduleSegmentStart(id, targetSeg)
		raw, err := buf.Get(locOff, 4)
		if err != nil {
			return &UnexpectedLinkError{Detail: err.Error()}
		}
		addend := hexcodec.XToI4(raw)
		got := l.segStarts[objfile.SegGOT]
		result := segAbs + addend - got
		buf.Update(locOff, 4, sliceOf(hexcodec.MkI4(result)))

	case objfile.RelER4:
		raw, err := buf.Get(locOff, 4)
		if err != nil {
			return &UnexpectedLinkError{Detail: err.Error()}
		}
		addr := hexcodec.XToI4(raw)
		v := int64(addr) + int64(l.opts.TextStart)
		addr4, err := hexcodec.MkAddr4(v)
		if err != nil {
			return l.overflow(v)
		}
		buf.Update(locOff, 4, addr4[:])

	default:
		return &UnexpectedLinkError{Detail: fmt.Sprintf("unknown relocation kind %q", r.Kind)}
	}
	return nil
}

func sliceOf(b [4]byte) []byte { return b[:] }

// ---- Phase 8: emit --------------------------------------------------------

var segmentOrder = []objfile.SegmentName{objfile.SegText, objfile.SegGOT, objfile.SegData, objfile.SegBSS}

func (l *Linker) emit() *ObjectOut {
	out := &ObjectOut{
		Data: make(map[objfile.SegmentName]*segbuf.Buffer),
	}
	for _, name := range segmentOrder {
		if !l.segPresent[name] {
			continue
		}
		buf := l.outBuffers[name]
		out.Segments = append(out.Segments, objfile.Segment{
			Name:  name,
			Start: l.segStarts[name],
			Len:   bufLen(buf),
			Flags: defaultFlagsFor(name),
		})
		out.Data[name] = buf
	}
	out.Relocations = l.outputRelocs

	if l.opts.LinkObjectType == SharedLib {
		out.Globals = make(map[string]*Defn)
		out.GlobalNames = make(map[string]objfile.SymbolName)
		for key, entry := range l.globals {
			if entry.Defn == nil {
				continue
			}
			out.Globals[key] = entry.Defn
			out.GlobalNames[key] = entry.Name
		}
	}
	return out
}

func defaultFlagsFor(name objfile.SegmentName) objfile.SegmentFlags {
	switch name {
	case objfile.SegText:
		return objfile.SegmentFlags{Read: true, Present: true}
	case objfile.SegGOT:
		return objfile.SegmentFlags{Read: true, Write: true, Present: true}
	case objfile.SegData:
		return objfile.SegmentFlags{Read: true, Write: true, Present: true}
	case objfile.SegBSS:
		return objfile.SegmentFlags{Read: true, Write: true}
	default:
		return objfile.SegmentFlags{}
	}
}

func (l *Linker) buildInfo() *LinkerInfo {
	offsets := make(map[string]map[objfile.SegmentName]int32, len(l.segOffsets))
	for id, segs := range l.segOffsets {
		final := make(map[objfile.SegmentName]int32, len(segs))
		for seg, off := range segs {
			final[seg] = off + l.segStarts[seg]
		}
		offsets[id] = final
	}
	return &LinkerInfo{
		Offsets:      offsets,
		CommonBlocks: l.commonBlocks,
		Snapshots:    l.snapshots,
		Globals:      l.globals,
	}
}
