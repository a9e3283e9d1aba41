// Package linker implements the core link-editor: module ingestion, library
// satisfaction, segment layout, common-block coalescing, symbol resolution,
// relocation application, and output construction. Grounded on yld/linker.go's
// three-phase Linker (resolveSymbols/layout/relocate), expanded to the full
// wrapping-through-emit pipeline.
package linker

import (
	"errors"
	"fmt"
)

// ErrUndefinedSymbol and ErrAddressOverflow are sentinels callers can match
// with errors.Is; the typed errors below carry the structured detail tests
// assert on via errors.As.
var (
	ErrUndefinedSymbol = errors.New("linker: undefined symbol")
	ErrAddressOverflow = errors.New("linker: address overflow")
)

// MultipleSymbolDefinitionsError reports two modules defining the same name.
type MultipleSymbolDefinitionsError struct {
	Name string
}

func (e *MultipleSymbolDefinitionsError) Error() string {
	return fmt.Sprintf("linker: multiple definitions of symbol %q", e.Name)
}

// UndefinedSymbolError reports every global-table entry still missing a
// definition after library satisfaction (Phase 5).
type UndefinedSymbolError struct {
	Names []string
}

func (e *UndefinedSymbolError) Error() string {
	return fmt.Sprintf("linker: undefined symbols: %v", e.Names)
}

func (e *UndefinedSymbolError) Unwrap() error { return ErrUndefinedSymbol }

// AddressOverflowError reports a computed value that doesn't fit in 32
// unsigned bits where an absolute address was required.
type AddressOverflowError struct {
	Value int64
}

func (e *AddressOverflowError) Error() string {
	return fmt.Sprintf("linker: address overflow: %d does not fit in 32 bits", e.Value)
}

func (e *AddressOverflowError) Unwrap() error { return ErrAddressOverflow }

// DuplicateObjectError reports two modules registered under the same id.
type DuplicateObjectError struct {
	ID string
}

func (e *DuplicateObjectError) Error() string {
	return fmt.Sprintf("linker: duplicate object id %q", e.ID)
}

// WrappedSymbolNameAlreadyExistsError reports a wrap_X/real_X collision, or a
// name requested for wrapping more than once.
type WrappedSymbolNameAlreadyExistsError struct {
	Name string
}

func (e *WrappedSymbolNameAlreadyExistsError) Error() string {
	return fmt.Sprintf("linker: wrapped symbol name already exists: %q", e.Name)
}

// SharedLibRefDefnNotFoundError reports a stub member pointing at another
// library that doesn't actually export the symbol.
type SharedLibRefDefnNotFoundError struct {
	Symbol  string
	Library string
}

func (e *SharedLibRefDefnNotFoundError) Error() string {
	return fmt.Sprintf("linker: shared-lib definition for %q not found via %q", e.Symbol, e.Library)
}

// SharedLibsReferenceCycleError reports a cycle in the StubLib cross-reference
// graph discovered while chasing a symbol through other-library pointers.
type SharedLibsReferenceCycleError struct {
	Cycle []string
}

func (e *SharedLibsReferenceCycleError) Error() string {
	return fmt.Sprintf("linker: shared-lib reference cycle: %v", e.Cycle)
}

// UnexpectedLinkError covers programmer-error conditions (target-kind/variant
// mismatches that should have been rejected by the parser) that spec.md §7
// says implementations may report rather than abort on.
type UnexpectedLinkError struct {
	Detail string
}

func (e *UnexpectedLinkError) Error() string {
	return fmt.Sprintf("linker: unexpected internal error: %s", e.Detail)
}
