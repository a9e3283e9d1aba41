package library

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gmofishsauce/ylink/internal/objfile"
)

const fileLibMagic = "LIBRARY"

// ParseFileLib reads a FileLib from a single packed file. Per spec §4.4 and
// §9's Open Question, every offset field (the header's dir_offset and each
// directory entry's off) is a 1-based line number counting the header line
// itself as line 1; the parser subtracts 1 to get a 0-based line index.
func ParseFileLib(path string) (*FileLib, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrIO, path, err)
	}
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: empty file %s", ErrParseLib, path)
	}

	header := strings.Fields(lines[0])
	if len(header) != 3 || header[0] != fileLibMagic {
		return nil, fmt.Errorf("%w: bad header line %q", ErrParseLib, lines[0])
	}
	nmods, err := strconv.ParseInt(header[1], 16, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: bad nmods %q", ErrParseLib, header[1])
	}
	dirOffset, err := strconv.ParseInt(header[2], 16, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: bad dir_offset %q", ErrParseLib, header[2])
	}

	dirStart := int(dirOffset) - 1
	if dirStart < 0 || dirStart > len(lines) {
		return nil, fmt.Errorf("%w: dir_offset %d out of range", ErrParseLib, dirOffset)
	}

	lib := &FileLib{
		Name:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Symbols: make(map[string]int),
	}

	for i := 0; i < int(nmods); i++ {
		if dirStart+i >= len(lines) {
			return nil, fmt.Errorf("%w: directory entry %d missing", ErrParseLib, i)
		}
		entry := strings.Fields(lines[dirStart+i])
		if len(entry) < 2 {
			return nil, fmt.Errorf("%w: malformed directory entry %q", ErrParseLib, lines[dirStart+i])
		}
		off, err := strconv.ParseInt(entry[0], 16, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: bad off %q", ErrParseLib, entry[0])
		}
		length, err := strconv.ParseInt(entry[1], 16, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: bad len %q", ErrParseLib, entry[1])
		}
		bodyStart := int(off) - 1
		bodyEnd := bodyStart + int(length)
		if bodyStart < 0 || bodyEnd > len(lines) {
			return nil, fmt.Errorf("%w: module body [%d,%d) out of range", ErrParseLib, bodyStart, bodyEnd)
		}
		body := fileLibMagicLine + "\n" + strings.Join(lines[bodyStart:bodyEnd], "\n") + "\n"
		mod, err := objfile.Parse(body)
		if err != nil {
			return nil, &ObjectParseError{Member: fmt.Sprintf("mod[%d]", i), Err: err}
		}
		lib.Modules = append(lib.Modules, mod)
		for _, sym := range entry[2:] {
			lib.Symbols[sym] = i
		}
	}

	return lib, nil
}

const fileLibMagicLine = objfile.Magic

// WriteFileLib creates basepath/libname as a single packed file: header,
// module bodies (printed without the magic line, in lexicographic order of
// input filename), then the directory. Grounded on spec §4.4 and the
// 1-based offset convention resolved in DESIGN.md's Open Question 1.
func WriteFileLib(basepath, libname string, objectPaths []string) error {
	sorted := append([]string(nil), objectPaths...)
	sort.Strings(sorted)

	type entry struct {
		off, length int
		syms        []string
	}

	var bodyLines []string
	var entries []entry
	lineCursor := 2 // line 1 is the header; bodies start at line 2

	for _, p := range sorted {
		contents, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("%w: reading %s: %v", ErrIO, p, err)
		}
		mod, err := objfile.Parse(string(contents))
		if err != nil {
			return &ObjectParseError{Member: p, Err: err}
		}
		printed := objfile.PrintNoMagic(mod)
		printed = strings.TrimSuffix(printed, "\n")
		modLines := strings.Split(printed, "\n")
		var syms []string
		for _, ste := range mod.Symbols {
			if ste.IsDefined() {
				syms = append(syms, ste.Name.DefinedString())
			}
		}
		entries = append(entries, entry{off: lineCursor, length: len(modLines), syms: syms})
		bodyLines = append(bodyLines, modLines...)
		lineCursor += len(modLines)
	}

	dirOffset := lineCursor
	var out strings.Builder
	fmt.Fprintf(&out, "%s %X %X\n", fileLibMagic, len(entries), dirOffset)
	for _, l := range bodyLines {
		out.WriteString(l)
		out.WriteString("\n")
	}
	for _, e := range entries {
		fmt.Fprintf(&out, "%X %X", e.off, e.length)
		for _, s := range e.syms {
			out.WriteString(" ")
			out.WriteString(s)
		}
		out.WriteString("\n")
	}

	dir := basepath
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrIO, dir, err)
	}
	outPath := filepath.Join(dir, libname)
	if err := os.WriteFile(outPath, []byte(out.String()), 0o644); err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrIO, outPath, err)
	}
	return nil
}
