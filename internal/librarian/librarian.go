// Package librarian implements the thin orchestration spec.md §4.8
// describes: parse a set of objects and write them out in one of the two
// static-library layouts, or describe a shared library's exports as a stub
// directory. Grounded on yld/main.go's thin load-call-core-write shape and
// on original_source/librarian.rs's MAP/LIBRARY_NAME conventions.
package librarian

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gmofishsauce/ylink/internal/library"
	"github.com/gmofishsauce/ylink/internal/linker"
	"github.com/gmofishsauce/ylink/internal/logging"
)

// Librarian wraps the library package's writers with logging, matching
// cmd/ylink's narrow-collaborator pattern for the linker.
type Librarian struct {
	logger logging.Logger
}

// New builds a Librarian; a nil logger defaults to logging.Nop{}.
func New(logger logging.Logger) *Librarian {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Librarian{logger: logger}
}

// BuildDir writes a DirLib (one object file per module plus a MAP) at
// basepath/libname from the given object file paths.
func (lb *Librarian) BuildDir(basepath, libname string, objectPaths []string) error {
	lb.logger.Info("building directory library", logging.F("name", libname), logging.F("members", len(objectPaths)))
	if err := library.WriteDirLib(basepath, libname, objectPaths); err != nil {
		lb.logger.Error("build-dir failed", logging.F("name", libname), logging.F("err", err.Error()))
		return err
	}
	return nil
}

// BuildFile writes a FileLib (single packed file with a trailing directory)
// at basepath/libname from the given object file paths.
func (lb *Librarian) BuildFile(basepath, libname string, objectPaths []string) error {
	lb.logger.Info("building file library", logging.F("name", libname), logging.F("members", len(objectPaths)))
	if err := library.WriteFileLib(basepath, libname, objectPaths); err != nil {
		lb.logger.Error("build-file failed", logging.F("name", libname), logging.F("err", err.Error()))
		return err
	}
	return nil
}

// BuildSharedLib writes a StubLib directory describing out's exported
// symbols: LIBRARY_NAME (libname plus deps), MAP, and one stub member file
// per exported symbol recording its final absolute address. out must come
// from a Linker.Link call made with LinkObjectType = SharedLib, i.e.
// out.Globals must be populated.
func (lb *Librarian) BuildSharedLib(basepath, libname string, deps []string, out *linker.ObjectOut) error {
	if out.Globals == nil {
		return fmt.Errorf("librarian: BuildSharedLib requires a SharedLib-mode link output")
	}
	dir := filepath.Join(basepath, libname)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("librarian: creating %s: %w", dir, err)
	}

	nameLines := append([]string{libname}, deps...)
	if err := os.WriteFile(filepath.Join(dir, "LIBRARY_NAME"), []byte(strings.Join(nameLines, "\n")+"\n"), 0o644); err != nil {
		return fmt.Errorf("librarian: writing LIBRARY_NAME: %w", err)
	}

	keys := make([]string, 0, len(out.Globals))
	for k := range out.Globals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var mapLines []string
	for _, key := range keys {
		defn := out.Globals[key]
		name := out.GlobalNames[key].DefinedString()
		member := fmt.Sprintf("STUB\n%s %X\n", name, defn.FinalAddress)
		if err := os.WriteFile(filepath.Join(dir, name), []byte(member), 0o644); err != nil {
			return fmt.Errorf("librarian: writing stub member %s: %w", name, err)
		}
		mapLines = append(mapLines, fmt.Sprintf("%s %s", name, name))
	}
	if err := os.WriteFile(filepath.Join(dir, "MAP"), []byte(strings.Join(mapLines, "\n")+"\n"), 0o644); err != nil {
		return fmt.Errorf("librarian: writing MAP: %w", err)
	}

	lb.logger.Info("built shared-lib stub directory", logging.F("name", libname), logging.F("exports", len(keys)))
	return nil
}

// List sniffs path's layout (a directory means DirLib, a regular file means
// FileLib) and renders "modname: sym1 sym2 ..." one line per module, per
// spec.md §4.8's additive ar list operation. FileLib modules carry no names
// and are listed as "mod[i]". A stub-library directory is read as a DirLib,
// so its non-object members make List fail.
func List(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("librarian: stat %s: %w", path, err)
	}

	if info.IsDir() {
		dir, err := library.ParseDirLib(path)
		if err != nil {
			return "", err
		}
		var b strings.Builder
		for _, modname := range dir.Order {
			names := make([]string, 0, len(dir.Map[modname]))
			for _, sym := range dir.Map[modname] {
				names = append(names, sym.String())
			}
			fmt.Fprintf(&b, "%s: %s\n", modname, strings.Join(names, " "))
		}
		return b.String(), nil
	}

	file, err := library.ParseFileLib(path)
	if err != nil {
		return "", err
	}
	byModule := make(map[int][]string)
	for sym, idx := range file.Symbols {
		byModule[idx] = append(byModule[idx], sym)
	}
	var b strings.Builder
	for i := range file.Modules {
		names := byModule[i]
		sort.Strings(names)
		fmt.Fprintf(&b, "mod[%d]: %s\n", i, strings.Join(names, " "))
	}
	return b.String(), nil
}
