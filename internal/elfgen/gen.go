// Package elfgen synthesizes small ELF64 shared objects with the canonical
// layout the codec assumes (executable header, program headers, sections in
// file order, section headers last), plus the invalid variants used to
// exercise structural checks. It backs both the test fixtures and the
// elf64-gen tool.
package elfgen

import (
	"encoding/binary"

	"github.com/msft-mirror-aosp/platform.system.memory.libmeminfo/internal/elf64"
)

const (
	etDyn     = 3
	emX86_64  = 0x3e
	vaddrBase = 0x400000
)

// SectionSpec describes one synthesized section. Data is ignored for
// SHT_NOBITS sections, which use Size instead. Addralign aligns the section's
// file offset; the first section after the program headers and any section
// following a no-file-bits section must keep the default alignment of 1, or
// the canonical layout cannot hold.
type SectionSpec struct {
	Name      string
	Type      uint32
	Flags     uint64
	Data      []byte
	Size      uint64
	Addralign uint64
}

// SegmentSpec describes one synthesized program header. When Filesz or Memsz
// is zero it is derived from the covered file range.
type SegmentSpec struct {
	Type   uint32
	Flags  uint32
	Off    uint64
	Vaddr  uint64
	Filesz uint64
	Memsz  uint64
	Align  uint64
}

// Library builds a consistent Binary from the given sections and segments.
// Section file offsets are assigned contiguously after the program header
// table; the section name table is appended automatically and the section
// header table is placed last.
func Library(sections []SectionSpec, segments []SegmentSpec) *elf64.Binary {
	shstrtab := []byte{0}
	nameOff := func(name string) uint32 {
		off := uint32(len(shstrtab))
		shstrtab = append(shstrtab, name...)
		shstrtab = append(shstrtab, 0)
		return off
	}

	phnum := len(segments)
	cur := uint64(elf64.EhdrSize) + uint64(phnum)*elf64.PhdrSize

	b := &elf64.Binary{Order: binary.LittleEndian}
	// The null section owns zero file bytes; only NOBITS sections carry a
	// nil buffer.
	b.Shdrs = append(b.Shdrs, elf64.Shdr{Type: elf64.SHTNull})
	b.Sections = append(b.Sections, elf64.Section{Index: 0, Data: []byte{}})

	for _, spec := range sections {
		align := spec.Addralign
		if align > 1 {
			cur = elf64.AlignUp(cur, align)
		} else {
			align = 1
		}

		shdr := elf64.Shdr{
			Name:      nameOff(spec.Name),
			Type:      spec.Type,
			Flags:     spec.Flags,
			Addr:      vaddrBase + cur,
			Off:       cur,
			Addralign: align,
		}
		section := elf64.Section{Name: spec.Name, Index: len(b.Shdrs)}

		if spec.Type == elf64.SHTNobits {
			shdr.Size = spec.Size
			section.Size = spec.Size
		} else {
			shdr.Size = uint64(len(spec.Data))
			section.Size = shdr.Size
			section.Data = make([]byte, len(spec.Data))
			copy(section.Data, spec.Data)
			cur += shdr.Size
		}

		b.Shdrs = append(b.Shdrs, shdr)
		b.Sections = append(b.Sections, section)
	}

	// Appended name table, always the last section with file bits. Its own
	// name is added before the size is fixed.
	strtabIdx := len(b.Shdrs)
	strtabName := nameOff(".shstrtab")
	b.Shdrs = append(b.Shdrs, elf64.Shdr{
		Name:      strtabName,
		Type:      elf64.SHTStrtab,
		Off:       cur,
		Size:      uint64(len(shstrtab)),
		Addralign: 1,
	})
	b.Sections = append(b.Sections, elf64.Section{
		Data:  shstrtab,
		Size:  uint64(len(shstrtab)),
		Name:  ".shstrtab",
		Index: strtabIdx,
	})
	cur += uint64(len(shstrtab))

	shoff := elf64.AlignUp(cur, 8)

	for _, spec := range segments {
		phdr := elf64.Phdr{
			Type:   spec.Type,
			Flags:  spec.Flags,
			Off:    spec.Off,
			Vaddr:  spec.Vaddr,
			Paddr:  spec.Vaddr,
			Filesz: spec.Filesz,
			Memsz:  spec.Memsz,
			Align:  spec.Align,
		}
		b.Phdrs = append(b.Phdrs, phdr)
	}

	b.Ehdr = elf64.Ehdr{
		Ident: [16]byte{
			0x7f, 'E', 'L', 'F',
			elf64.Class64, elf64.Data2LSB, elf64.CurrentVersion,
		},
		Type:      etDyn,
		Machine:   emX86_64,
		Version:   elf64.CurrentVersion,
		Entry:     vaddrBase,
		Phoff:     elf64.EhdrSize,
		Shoff:     shoff,
		Ehsize:    elf64.EhdrSize,
		Phentsize: elf64.PhdrSize,
		Phnum:     uint16(len(b.Phdrs)),
		Shentsize: elf64.ShdrSize,
		Shnum:     uint16(len(b.Shdrs)),
		Shstrndx:  uint16(strtabIdx),
	}
	return b
}

// DefaultLibrary builds a small shared object shaped like a linker's output:
// read-exec and read-write PT_LOAD segments, a GNU stack note header,
// .text/.rodata/.data sections and a no-file-bits .bss.
func DefaultLibrary() *elf64.Binary {
	text := make([]byte, 0x180)
	for i := range text {
		text[i] = 0x90
	}
	rodata := []byte("fragmentation test payload\x00")
	data := make([]byte, 0x60)
	for i := range data {
		data[i] = byte(i)
	}

	sections := []SectionSpec{
		{Name: ".text", Type: elf64.SHTProgbits, Flags: 0x6, Data: text},
		{Name: ".rodata", Type: elf64.SHTProgbits, Flags: 0x2, Data: rodata, Addralign: 8},
		{Name: ".data", Type: elf64.SHTProgbits, Flags: 0x3, Data: data},
		{Name: ".bss", Type: elf64.SHTNobits, Flags: 0x3, Size: 0x120},
	}

	// Derived offsets for the canonical layout above: sections start right
	// after the three program headers.
	headerEnd := uint64(elf64.EhdrSize) + 3*elf64.PhdrSize
	textEnd := elf64.AlignUp(headerEnd+uint64(len(text)), 8) + uint64(len(rodata))
	dataOff := textEnd

	segments := []SegmentSpec{
		{
			Type: elf64.PTLoad, Flags: elf64.PFRead | elf64.PFExec,
			Off: 0, Vaddr: vaddrBase,
			Filesz: textEnd, Memsz: textEnd,
			Align: elf64.PageSize4K,
		},
		{
			Type: elf64.PTLoad, Flags: elf64.PFRead | elf64.PFWrite,
			Off: dataOff, Vaddr: vaddrBase + dataOff,
			Filesz: uint64(len(data)), Memsz: uint64(len(data)) + 0x120,
			Align: elf64.PageSize4K,
		},
		{
			Type: elf64.PTGNUStack, Flags: elf64.PFRead | elf64.PFWrite,
			Align: 0x10,
		},
	}

	return Library(sections, segments)
}

// Clone deep-copies a binary so invalid variants can be derived without
// touching the reference model.
func Clone(b *elf64.Binary) *elf64.Binary {
	c := &elf64.Binary{
		Path:  b.Path,
		Order: b.Order,
		Ehdr:  b.Ehdr,
		Phdrs: append([]elf64.Phdr(nil), b.Phdrs...),
		Shdrs: append([]elf64.Shdr(nil), b.Shdrs...),
	}
	c.Sections = make([]elf64.Section, len(b.Sections))
	for i := range b.Sections {
		c.Sections[i] = b.Sections[i]
		if b.Sections[i].Data != nil {
			// A non-nil empty buffer means zero file bytes owned, not
			// NOBITS; the copy must stay non-nil.
			c.Sections[i].Data = make([]byte, len(b.Sections[i].Data))
			copy(c.Sections[i].Data, b.Sections[i].Data)
		}
	}
	return c
}

// MakeExecSegmentsWritable marks every executable segment writable, producing
// a library with a forbidden write-exec load segment.
func MakeExecSegmentsWritable(b *elf64.Binary) {
	for i := range b.Phdrs {
		if b.Phdrs[i].Flags&elf64.PFExec != 0 {
			b.Phdrs[i].Flags |= elf64.PFWrite
		}
	}
}

// ZeroShentsize clears the declared section header entry size.
func ZeroShentsize(b *elf64.Binary) {
	b.Ehdr.Shentsize = 0
}

// ZeroShstrndx clears the section name table index.
func ZeroShstrndx(b *elf64.Binary) {
	b.Ehdr.Shstrndx = 0
}
