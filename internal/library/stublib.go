package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gmofishsauce/ylink/internal/objfile"
)

const stubMemberMagic = "STUB"
const libraryNameFile = "LIBRARY_NAME"

// ParseStubLib reads a StubLib directory containing MAP, LIBRARY_NAME, and
// one per-member stub file. Grounded on DirLib's directory-of-files shape,
// adapted to stub member records (name + either an address or another
// library name) per spec §4.4.
func ParseStubLib(dirPath string) (*StubLib, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading directory %s: %v", ErrIO, dirPath, err)
	}

	libNamePath := filepath.Join(dirPath, libraryNameFile)
	libNameContents, err := os.ReadFile(libNamePath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrIO, libNamePath, err)
	}
	nameLines := splitNonEmptyLines(string(libNameContents))
	if len(nameLines) < 1 {
		return nil, fmt.Errorf("%w: %s is empty", ErrParseLib, libNamePath)
	}

	mapPath := filepath.Join(dirPath, mapFileName)
	mapContents, err := os.ReadFile(mapPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrIO, mapPath, err)
	}
	memberSyms := make(map[string][]string)
	for _, line := range splitNonEmptyLines(string(mapContents)) {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		memberSyms[fields[0]] = fields[1:]
	}

	lib := &StubLib{
		Name:    nameLines[0],
		Deps:    append([]string(nil), nameLines[1:]...),
		Members: make(map[string]map[string]StubMember),
		Exports: make(map[string][]objfile.SymbolName),
	}

	for _, e := range entries {
		if e.IsDir() || e.Name() == mapFileName || e.Name() == libraryNameFile {
			continue
		}
		path := filepath.Join(dirPath, e.Name())
		contents, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrIO, path, err)
		}
		lines := splitNonEmptyLines(string(contents))
		if len(lines) < 1 || lines[0] != stubMemberMagic {
			return nil, &StubMemberParseError{Member: e.Name(), Err: fmt.Errorf("missing %s magic", stubMemberMagic)}
		}
		members := make(map[string]StubMember)
		var exports []objfile.SymbolName
		for _, line := range lines[1:] {
			fields := strings.Fields(line)
			if len(fields) != 2 {
				return nil, &StubMemberParseError{Member: e.Name(), Err: fmt.Errorf("malformed stub line %q", line)}
			}
			name, value := fields[0], fields[1]
			if addr, err := strconv.ParseUint(value, 16, 32); err == nil {
				members[name] = StubMember{HasAddr: true, Addr: uint32(addr)}
			} else {
				members[name] = StubMember{HasAddr: false, OtherLib: value}
			}
			exports = append(exports, objfile.Plain(name))
		}
		lib.Members[e.Name()] = members
		lib.Exports[e.Name()] = exports
		if _, ok := memberSyms[e.Name()]; !ok {
			// MAP omission isn't fatal: a stub directory's MAP is
			// informational for the linker's library-pulling scan order,
			// but the per-member file is authoritative for what it exports.
			continue
		}
	}

	return lib, nil
}

func splitNonEmptyLines(s string) []string {
	var out []string
	for _, l := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}
