// Package printer serializes a linked output (linker.ObjectOut) back to the
// canonical ASCII object text form, per spec.md §4.6 Phase 8 and §4.7.
// Grounded on yld/output.go's header-then-sections writer and on
// internal/objfile.Print's per-module rendering, generalized from "print one
// parsed module" to "print one linked session's output."
package printer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gmofishsauce/ylink/internal/linker"
	"github.com/gmofishsauce/ylink/internal/objfile"
)

// Print renders out in the object text layout: LINK magic, header, the
// segment table in .text/.got/.data/.bss order, the global symbol table
// (only present for a SharedLib link — out.Globals is nil otherwise), then
// per-segment data. Final symbol addresses are absolute, so each printed
// entry uses segment index 0 and kind D.
func Print(out *linker.ObjectOut) string {
	var b strings.Builder
	b.WriteString(objfile.Magic)
	b.WriteString("\n")

	names := sortedGlobalKeys(out.Globals)
	fmt.Fprintf(&b, "%X %X %X\n", len(out.Segments), len(names), 0)

	for _, seg := range out.Segments {
		fmt.Fprintf(&b, "%s %X %X %s\n", seg.Name, seg.Start, seg.Len, seg.Flags.String())
	}

	for _, key := range names {
		defn := out.Globals[key]
		name := out.GlobalNames[key]
		fmt.Fprintf(&b, "%s %X %X D\n", name.DefinedString(), defn.FinalAddress, 0)
	}

	for _, seg := range out.Segments {
		data, ok := out.Data[seg.Name]
		if !ok {
			continue
		}
		bs := data.Bytes()
		parts := make([]string, len(bs))
		for i, by := range bs {
			parts[i] = fmt.Sprintf("%02X", by)
		}
		b.WriteString(strings.Join(parts, " "))
		b.WriteString("\n")
	}

	return b.String()
}

func sortedGlobalKeys(globals map[string]*linker.Defn) []string {
	if len(globals) == 0 {
		return nil
	}
	keys := make([]string, 0, len(globals))
	for k := range globals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
