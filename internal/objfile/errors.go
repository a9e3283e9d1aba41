package objfile

import "errors"

// Parse error taxonomy, one sentinel per malformedness class named in
// spec.md §4.1. Tests match these with errors.Is; call sites that need extra
// context wrap them with fmt.Errorf("...: %w", ErrXxx).
var (
	ErrMissingMagicNumber     = errors.New("objfile: missing magic number")
	ErrInvalidMagicNumber     = errors.New("objfile: invalid magic number")
	ErrMissingNSegsNSymsNRels = errors.New("objfile: missing nsegs/nsyms/nrels header line")
	ErrInvalidNSegsValue      = errors.New("objfile: invalid nsegs value")
	ErrInvalidNSymsValue      = errors.New("objfile: invalid nsyms value")
	ErrInvalidNRelsValue      = errors.New("objfile: invalid nrels value")

	ErrInvalidSegmentName  = errors.New("objfile: invalid segment name")
	ErrInvalidSegmentStart = errors.New("objfile: invalid segment start")
	ErrInvalidSegmentLen   = errors.New("objfile: invalid segment length")
	ErrInvalidSegmentDescr = errors.New("objfile: invalid segment descriptor")
	ErrInvalidNumOfSegments = errors.New("objfile: invalid number of segment lines")

	ErrInvalidSTEValue         = errors.New("objfile: invalid symbol-table-entry value")
	ErrInvalidSTESegment       = errors.New("objfile: invalid symbol-table-entry segment field")
	ErrInvalidSTEType          = errors.New("objfile: invalid symbol-table-entry type field")
	ErrSTESegmentRefOutOfRange = errors.New("objfile: symbol-table-entry segment reference out of range")
	ErrInvalidNumOfSymbols     = errors.New("objfile: invalid number of symbol lines")
	ErrNonZeroSegmentForUndefinedSTE = errors.New("objfile: undefined symbol-table entry has non-zero segment")

	ErrInvalidRelRef        = errors.New("objfile: invalid relocation ref field")
	ErrInvalidRelSegment    = errors.New("objfile: invalid relocation segment field")
	ErrInvalidRelType       = errors.New("objfile: invalid relocation type field")
	ErrRelSegmentOutOfRange = errors.New("objfile: relocation segment reference out of range")
	ErrRelSymbolOutOfRange  = errors.New("objfile: relocation symbol reference out of range")
	ErrInvalidNumOfRelocations = errors.New("objfile: invalid number of relocation lines")

	ErrInvalidObjectData         = errors.New("objfile: invalid object data line")
	ErrSegmentDataLengthMismatch = errors.New("objfile: segment data length mismatch")
	ErrSegmentDataOutOfBounds    = errors.New("objfile: segment data out of bounds")
)
