package elf64

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Sizes of the fixed on-disk structures of the 64-bit ELF format.
const (
	EhdrSize = 64
	PhdrSize = 56
	ShdrSize = 64
)

// Indexes into Ehdr.Ident.
const (
	IdentClass   = 4
	IdentData    = 5
	IdentVersion = 6
)

// Values of the identification bytes this package cares about.
const (
	Class64        = 2
	Data2LSB       = 1
	Data2MSB       = 2
	CurrentVersion = 1
)

// Program header types.
const (
	PTNull    uint32 = 0
	PTLoad    uint32 = 1
	PTDynamic uint32 = 2
	PTInterp  uint32 = 3
	PTNote    uint32 = 4
	PTShlib   uint32 = 5
	PTPhdr    uint32 = 6
	PTTLS     uint32 = 7

	PTGNUEHFrame  uint32 = 0x6474e550
	PTGNUStack    uint32 = 0x6474e551
	PTGNURelro    uint32 = 0x6474e552
	PTGNUProperty uint32 = 0x6474e553
)

// Program header permission flags.
const (
	PFExec  uint32 = 0x1
	PFWrite uint32 = 0x2
	PFRead  uint32 = 0x4
)

// Section header types.
const (
	SHTNull     uint32 = 0
	SHTProgbits uint32 = 1
	SHTSymtab   uint32 = 2
	SHTStrtab   uint32 = 3
	SHTRela     uint32 = 4
	SHTHash     uint32 = 5
	SHTDynamic  uint32 = 6
	SHTNote     uint32 = 7
	SHTNobits   uint32 = 8
	SHTRel      uint32 = 9
	SHTDynsym   uint32 = 11
)

// Ehdr is the ELF64 executable header. Field order and widths match the
// on-disk layout, so the struct can be decoded and encoded directly with
// encoding/binary.
type Ehdr struct {
	Ident     [16]byte
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint64
	Phoff     uint64
	Shoff     uint64
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

// Class returns the EI_CLASS identification byte.
func (e *Ehdr) Class() byte { return e.Ident[IdentClass] }

// Data returns the EI_DATA identification byte.
func (e *Ehdr) Data() byte { return e.Ident[IdentData] }

// ByteOrder returns the byte order declared by EI_DATA. Little endian is the
// default for an unrecognized value; callers that care validate EI_DATA first.
func (e *Ehdr) ByteOrder() binary.ByteOrder {
	if e.Data() == Data2MSB {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Phdr is an ELF64 program (segment) header, on-disk layout.
type Phdr struct {
	Type   uint32
	Flags  uint32
	Off    uint64
	Vaddr  uint64
	Paddr  uint64
	Filesz uint64
	Memsz  uint64
	Align  uint64
}

// Loadable reports whether the segment is mapped at process load time.
func (p *Phdr) Loadable() bool { return p.Type == PTLoad }

// Shdr is an ELF64 section header, on-disk layout.
type Shdr struct {
	Name      uint32
	Type      uint32
	Flags     uint64
	Addr      uint64
	Off       uint64
	Size      uint64
	Link      uint32
	Info      uint32
	Addralign uint64
	Entsize   uint64
}

// Section holds the content of one section. Data is nil for SHT_NOBITS
// sections, which occupy memory at runtime but no bytes in the file; Size
// still records the declared size in that case.
type Section struct {
	Data  []byte
	Size  uint64
	Name  string
	Index int
}

// NoBits reports whether the section owns no file content.
func (s *Section) NoBits() bool { return s.Data == nil }

// Digest returns the xxhash64 digest of the section content. Used to label
// content mismatches without dumping section bytes.
func (s *Section) Digest() uint64 { return xxhash.Sum64(s.Data) }

// Binary is the in-memory representation of a parsed ELF64 file. It
// exclusively owns its headers and section content; Sections is index-aligned
// with Shdrs. A Binary is built fresh per parsed file and never shared.
type Binary struct {
	Path     string
	Order    binary.ByteOrder
	Ehdr     Ehdr
	Phdrs    []Phdr
	Shdrs    []Shdr
	Sections []Section
}

// ResolveSectionNames fills in Section.Name for every section by indexing the
// section-name string table (the section at Ehdr.Shstrndx) at each header's
// name offset, up to the first NUL. Out-of-range name offsets leave the name
// empty so scanning tools can keep going past unusual files.
func (b *Binary) ResolveSectionNames() {
	idx := int(b.Ehdr.Shstrndx)
	if idx >= len(b.Sections) {
		return
	}
	strtab := b.Sections[idx].Data
	for i := range b.Shdrs {
		off := int(b.Shdrs[i].Name)
		if off < 0 || off >= len(strtab) {
			continue
		}
		end := bytes.IndexByte(strtab[off:], 0)
		if end < 0 {
			end = len(strtab) - off
		}
		b.Sections[i].Name = string(strtab[off : off+end])
	}
}

// SegmentTypeString maps a program header type code to its symbolic name.
// Unknown codes are rendered, not rejected.
func SegmentTypeString(t uint32) string {
	switch t {
	case PTNull:
		return "PT_NULL"
	case PTLoad:
		return "PT_LOAD"
	case PTDynamic:
		return "PT_DYNAMIC"
	case PTInterp:
		return "PT_INTERP"
	case PTNote:
		return "PT_NOTE"
	case PTShlib:
		return "PT_SHLIB"
	case PTPhdr:
		return "PT_PHDR"
	case PTTLS:
		return "PT_TLS"
	case PTGNUEHFrame:
		return "PT_GNU_EH_FRAME"
	case PTGNUStack:
		return "PT_GNU_STACK"
	case PTGNURelro:
		return "PT_GNU_RELRO"
	case PTGNUProperty:
		return "PT_GNU_PROPERTY"
	default:
		return fmt.Sprintf("unrecognized type 0x%x", t)
	}
}

// SectionTypeString maps a section header type code to its symbolic name.
func SectionTypeString(t uint32) string {
	switch t {
	case SHTNull:
		return "SHT_NULL"
	case SHTProgbits:
		return "SHT_PROGBITS"
	case SHTSymtab:
		return "SHT_SYMTAB"
	case SHTStrtab:
		return "SHT_STRTAB"
	case SHTRela:
		return "SHT_RELA"
	case SHTHash:
		return "SHT_HASH"
	case SHTDynamic:
		return "SHT_DYNAMIC"
	case SHTNote:
		return "SHT_NOTE"
	case SHTNobits:
		return "SHT_NOBITS"
	case SHTRel:
		return "SHT_REL"
	case SHTDynsym:
		return "SHT_DYNSYM"
	default:
		return fmt.Sprintf("unrecognized type 0x%x", t)
	}
}

// ClassString maps an EI_CLASS byte to its symbolic name.
func ClassString(c byte) string {
	switch c {
	case 1:
		return "ELFCLASS32"
	case Class64:
		return "ELFCLASS64"
	default:
		return fmt.Sprintf("unrecognized class %d", c)
	}
}

// SegmentFlagsString renders program header permission flags readelf-style.
func SegmentFlagsString(flags uint32) string {
	buf := []byte("---")
	if flags&PFRead != 0 {
		buf[0] = 'R'
	}
	if flags&PFWrite != 0 {
		buf[1] = 'W'
	}
	if flags&PFExec != 0 {
		buf[2] = 'E'
	}
	return string(buf)
}
