// Package library implements the two static-library on-disk formats
// (DirLib and FileLib) and the stub-library format that describes a shared
// library's exports, per spec §4.4. Grounded on yld's object-level
// read/write split (reader.go vs output.go) lifted to the library level,
// and on the original Rust librarian.rs for the MAP/LIBRARY-header
// conventions.
package library

import (
	"errors"
	"fmt"
)

// ErrIO is the catch-all for filesystem failures reading or writing a
// library, per spec §7.
var ErrIO = errors.New("library: I/O error")

// ErrParseLib covers malformed library headers (bad LIBRARY line, bad
// directory entry, etc.) that aren't object-parse failures.
var ErrParseLib = errors.New("library: malformed library header")

// ObjectParseError wraps an objfile parse failure encountered while reading
// a library member.
type ObjectParseError struct {
	Member string
	Err    error
}

func (e *ObjectParseError) Error() string {
	return fmt.Sprintf("library: object parse failure in member %q: %v", e.Member, e.Err)
}
func (e *ObjectParseError) Unwrap() error { return e.Err }

// StubMemberParseError wraps a stub-member parse failure.
type StubMemberParseError struct {
	Member string
	Err    error
}

func (e *StubMemberParseError) Error() string {
	return fmt.Sprintf("library: stub member parse failure in member %q: %v", e.Member, e.Err)
}
func (e *StubMemberParseError) Unwrap() error { return e.Err }
