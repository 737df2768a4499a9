package elf64

import "errors"

// Error taxonomy for the codec. All failures are returned to the caller so a
// directory-scanning driver can skip a bad file and keep going; nothing in
// this package terminates the process.
var (
	// ErrMalformedHeader indicates bad magic bytes or an invalid version
	// field in the executable header.
	ErrMalformedHeader = errors.New("malformed ELF header")

	// ErrUnsupportedClass indicates a valid ELF file that is not ELFCLASS64.
	ErrUnsupportedClass = errors.New("unsupported ELF class")

	// ErrTruncatedFile indicates a declared offset plus size that exceeds
	// the physical file length.
	ErrTruncatedFile = errors.New("truncated ELF file")

	// ErrWriteFailure indicates a short write or a write error while
	// serializing a binary.
	ErrWriteFailure = errors.New("ELF write failure")

	// ErrBadLayout indicates a model whose declared offsets do not fit the
	// writer's assumed layout (executable header, program headers, sections
	// in file order, section headers last).
	ErrBadLayout = errors.New("inconsistent ELF layout")
)
