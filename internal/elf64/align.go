package elf64

// AlignUp rounds v up to the nearest multiple of align, which must be a power
// of two.
func AlignUp(v, align uint64) uint64 {
	return (v + align - 1) &^ (align - 1)
}

// AlignLoadSegments rounds the file size and memory size of every PT_LOAD
// program header up to that segment's own alignment, mutating the binary in
// place. The operation is a fixed point: applying it twice yields the same
// sizes as applying it once.
//
// File offsets of subsequent segments and sections are NOT recomputed. The
// output is only layout-consistent when the original link already reserved
// alignment padding between segments; the writer rejects models whose
// declared offsets end up contradicting the section layout.
func AlignLoadSegments(b *Binary) {
	for i := range b.Phdrs {
		phdr := &b.Phdrs[i]
		if !phdr.Loadable() || phdr.Align <= 1 {
			continue
		}
		phdr.Filesz = AlignUp(phdr.Filesz, phdr.Align)
		phdr.Memsz = AlignUp(phdr.Memsz, phdr.Align)
	}
}
