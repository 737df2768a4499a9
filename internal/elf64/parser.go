package elf64

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
)

var elfMagic = []byte{0x7f, 'E', 'L', 'F'}

// ParseEhdr reads only the executable header of the file. It validates the
// magic bytes but not the class, so callers probing a directory full of mixed
// binaries can inspect Ehdr.Class() themselves before paying for a full parse.
func ParseEhdr(path string) (Ehdr, error) {
	f, err := os.Open(path)
	if err != nil {
		return Ehdr{}, err
	}
	defer f.Close()

	return readEhdr(f, path)
}

// Parse reads the file at path and populates a Binary, validating structural
// invariants as it goes: magic/version (ErrMalformedHeader), 64-bit class
// (ErrUnsupportedClass), and every declared offset+size against the physical
// file length (ErrTruncatedFile).
func Parse(path string) (*Binary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	fileSize := uint64(fi.Size())

	ehdr, err := readEhdr(f, path)
	if err != nil {
		return nil, err
	}
	if ehdr.Class() != Class64 {
		return nil, fmt.Errorf("%w: %s: %s", ErrUnsupportedClass, path, ClassString(ehdr.Class()))
	}
	if ehdr.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: %s: e_version %d", ErrMalformedHeader, path, ehdr.Version)
	}

	b := &Binary{
		Path:  path,
		Order: ehdr.ByteOrder(),
		Ehdr:  ehdr,
	}

	if err := parsePhdrs(f, b, fileSize); err != nil {
		return nil, err
	}
	if err := parseShdrs(f, b, fileSize); err != nil {
		return nil, err
	}
	if err := parseSections(f, b, fileSize); err != nil {
		return nil, err
	}
	b.ResolveSectionNames()

	return b, nil
}

// readEhdr reads and decodes the fixed-size executable header, honoring the
// byte order declared by EI_DATA.
func readEhdr(f *os.File, path string) (Ehdr, error) {
	raw := make([]byte, EhdrSize)
	if _, err := f.ReadAt(raw, 0); err != nil {
		return Ehdr{}, fmt.Errorf("%w: %s: shorter than an ELF64 header", ErrMalformedHeader, path)
	}
	if !bytes.Equal(raw[:4], elfMagic) {
		return Ehdr{}, fmt.Errorf("%w: %s: bad magic bytes", ErrMalformedHeader, path)
	}
	if v := raw[IdentVersion]; v != CurrentVersion {
		return Ehdr{}, fmt.Errorf("%w: %s: EI_VERSION %d", ErrMalformedHeader, path, v)
	}

	var order binary.ByteOrder
	switch raw[IdentData] {
	case Data2LSB:
		order = binary.LittleEndian
	case Data2MSB:
		order = binary.BigEndian
	default:
		return Ehdr{}, fmt.Errorf("%w: %s: EI_DATA %d", ErrMalformedHeader, path, raw[IdentData])
	}

	var ehdr Ehdr
	if err := binary.Read(bytes.NewReader(raw), order, &ehdr); err != nil {
		return Ehdr{}, fmt.Errorf("%w: %s: %v", ErrMalformedHeader, path, err)
	}
	return ehdr, nil
}

// parsePhdrs reads Ehdr.Phnum program headers of Ehdr.Phentsize bytes each,
// in file order. The order is significant: later stages index by position.
func parsePhdrs(f *os.File, b *Binary, fileSize uint64) error {
	num := uint64(b.Ehdr.Phnum)
	if num == 0 {
		return nil
	}
	entSize := uint64(b.Ehdr.Phentsize)
	if entSize < PhdrSize {
		return fmt.Errorf("%w: %s: e_phentsize %d", ErrMalformedHeader, b.Path, entSize)
	}
	if err := checkBounds(b.Path, "program header table", b.Ehdr.Phoff, num*entSize, fileSize); err != nil {
		return err
	}

	raw := make([]byte, PhdrSize)
	b.Phdrs = make([]Phdr, 0, num)
	for i := uint64(0); i < num; i++ {
		off := b.Ehdr.Phoff + i*entSize
		if _, err := f.ReadAt(raw, int64(off)); err != nil {
			return fmt.Errorf("%w: %s: program header %d: %v", ErrTruncatedFile, b.Path, i, err)
		}
		var phdr Phdr
		if err := binary.Read(bytes.NewReader(raw), b.Order, &phdr); err != nil {
			return fmt.Errorf("%w: %s: program header %d: %v", ErrMalformedHeader, b.Path, i, err)
		}
		b.Phdrs = append(b.Phdrs, phdr)
	}
	return nil
}

// parseShdrs reads Ehdr.Shnum section headers, likewise in file order.
func parseShdrs(f *os.File, b *Binary, fileSize uint64) error {
	num := uint64(b.Ehdr.Shnum)
	if num == 0 {
		return nil
	}
	entSize := uint64(b.Ehdr.Shentsize)
	if entSize < ShdrSize {
		return fmt.Errorf("%w: %s: e_shentsize %d", ErrMalformedHeader, b.Path, entSize)
	}
	if err := checkBounds(b.Path, "section header table", b.Ehdr.Shoff, num*entSize, fileSize); err != nil {
		return err
	}

	raw := make([]byte, ShdrSize)
	b.Shdrs = make([]Shdr, 0, num)
	for i := uint64(0); i < num; i++ {
		off := b.Ehdr.Shoff + i*entSize
		if _, err := f.ReadAt(raw, int64(off)); err != nil {
			return fmt.Errorf("%w: %s: section header %d: %v", ErrTruncatedFile, b.Path, i, err)
		}
		var shdr Shdr
		if err := binary.Read(bytes.NewReader(raw), b.Order, &shdr); err != nil {
			return fmt.Errorf("%w: %s: section header %d: %v", ErrMalformedHeader, b.Path, i, err)
		}
		b.Shdrs = append(b.Shdrs, shdr)
	}
	return nil
}

// parseSections reads the content of every section that has file bits.
// SHT_NOBITS sections keep a nil buffer; their size is remembered but
// represents virtual-only space.
func parseSections(f *os.File, b *Binary, fileSize uint64) error {
	b.Sections = make([]Section, 0, len(b.Shdrs))
	for i := range b.Shdrs {
		shdr := &b.Shdrs[i]
		section := Section{Size: shdr.Size, Index: i}

		if shdr.Type != SHTNobits {
			if err := checkBounds(b.Path, fmt.Sprintf("section %d", i), shdr.Off, shdr.Size, fileSize); err != nil {
				return err
			}
			section.Data = make([]byte, shdr.Size)
			if _, err := f.ReadAt(section.Data, int64(shdr.Off)); err != nil && shdr.Size > 0 {
				return fmt.Errorf("%w: %s: section %d: %v", ErrTruncatedFile, b.Path, i, err)
			}
		}

		b.Sections = append(b.Sections, section)
	}
	return nil
}

// checkBounds fails with ErrTruncatedFile when off+size overflows or exceeds
// the physical file length.
func checkBounds(path, what string, off, size, fileSize uint64) error {
	end := off + size
	if end < off || end > fileSize {
		return fmt.Errorf("%w: %s: %s at offset 0x%x size 0x%x exceeds file size 0x%x",
			ErrTruncatedFile, path, what, off, size, fileSize)
	}
	return nil
}
