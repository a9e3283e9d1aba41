package library

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gmofishsauce/ylink/internal/objfile"
)

const mapFileName = "MAP"

// ParseDirLib reads a DirLib from disk. The library name is the directory
// basename. Every regular file other than MAP must be a valid object.
func ParseDirLib(dirPath string) (*DirLib, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading directory %s: %v", ErrIO, dirPath, err)
	}

	mapPath := filepath.Join(dirPath, mapFileName)
	mapContents, err := os.ReadFile(mapPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading MAP file %s: %v", ErrIO, mapPath, err)
	}

	lib := &DirLib{
		Name:    filepath.Base(dirPath),
		Map:     make(map[string][]objfile.SymbolName),
		Objects: make(map[string]*objfile.ObjectModule),
	}

	for _, line := range strings.Split(strings.TrimRight(string(mapContents), "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		modname := fields[0]
		syms := make([]objfile.SymbolName, 0, len(fields)-1)
		for _, s := range fields[1:] {
			syms = append(syms, objfile.Plain(s))
		}
		lib.Map[modname] = syms
		lib.Order = append(lib.Order, modname)
	}

	for _, e := range entries {
		if e.IsDir() || e.Name() == mapFileName {
			continue
		}
		path := filepath.Join(dirPath, e.Name())
		contents, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrIO, path, err)
		}
		mod, err := objfile.Parse(string(contents))
		if err != nil {
			return nil, &ObjectParseError{Member: e.Name(), Err: err}
		}
		lib.Objects[e.Name()] = mod
	}

	return lib, nil
}

// WriteDirLib creates basepath/libname, copies every object file in verbatim,
// and writes a MAP file listing each module's defined symbols. Modules are
// written in lexicographic order of filename for determinism, per spec §4.4.
func WriteDirLib(basepath, libname string, objectPaths []string) error {
	dir := filepath.Join(basepath, libname)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrIO, dir, err)
	}

	sorted := append([]string(nil), objectPaths...)
	sort.Strings(sorted)

	var mapLines []string
	for _, p := range sorted {
		contents, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("%w: reading %s: %v", ErrIO, p, err)
		}
		mod, err := objfile.Parse(string(contents))
		if err != nil {
			return &ObjectParseError{Member: p, Err: err}
		}
		base := filepath.Base(p)
		dst := filepath.Join(dir, base)
		if err := os.WriteFile(dst, contents, 0o644); err != nil {
			return fmt.Errorf("%w: writing %s: %v", ErrIO, dst, err)
		}
		mapLines = append(mapLines, mapLine(base, mod))
	}

	mapPath := filepath.Join(dir, mapFileName)
	if err := os.WriteFile(mapPath, []byte(strings.Join(mapLines, "\n")+"\n"), 0o644); err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrIO, mapPath, err)
	}
	return nil
}

func mapLine(modname string, mod *objfile.ObjectModule) string {
	parts := []string{modname}
	for _, ste := range mod.Symbols {
		if ste.IsDefined() {
			parts = append(parts, ste.Name.DefinedString())
		}
	}
	return strings.Join(parts, " ")
}
