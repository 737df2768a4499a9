package checks

import (
	"fmt"

	"github.com/msft-mirror-aosp/platform.system.memory.libmeminfo/internal/elf64"
)

// HeaderSanityCheck validates the executable header's declared table
// geometry: entry sizes match the ELF64 fixed layouts and counts agree with
// the parsed tables.
type HeaderSanityCheck struct{}

func (c *HeaderSanityCheck) ID() string { return "header-sanity" }

func (c *HeaderSanityCheck) Description() string {
	return "Executable header geometry (entry sizes, table counts, name table index)"
}

func (c *HeaderSanityCheck) Execute(binary *elf64.Binary) CheckResult {
	result := CheckResult{ID: c.ID(), Description: c.Description(), Status: StatusPass}

	ehdr := &binary.Ehdr
	if ehdr.Phnum > 0 && ehdr.Phentsize != elf64.PhdrSize {
		result.Details = append(result.Details,
			fmt.Sprintf("e_phentsize is %d, want %d", ehdr.Phentsize, elf64.PhdrSize))
	}
	if ehdr.Shnum > 0 && ehdr.Shentsize != elf64.ShdrSize {
		result.Details = append(result.Details,
			fmt.Sprintf("e_shentsize is %d, want %d", ehdr.Shentsize, elf64.ShdrSize))
	}
	if int(ehdr.Phnum) != len(binary.Phdrs) {
		result.Details = append(result.Details,
			fmt.Sprintf("e_phnum is %d but %d program headers parsed", ehdr.Phnum, len(binary.Phdrs)))
	}
	if int(ehdr.Shnum) != len(binary.Shdrs) {
		result.Details = append(result.Details,
			fmt.Sprintf("e_shnum is %d but %d section headers parsed", ehdr.Shnum, len(binary.Shdrs)))
	}
	if ehdr.Shnum > 0 {
		if int(ehdr.Shstrndx) >= len(binary.Shdrs) {
			result.Details = append(result.Details,
				fmt.Sprintf("e_shstrndx %d out of range", ehdr.Shstrndx))
		} else if idx := int(ehdr.Shstrndx); idx == 0 || binary.Shdrs[idx].Type != elf64.SHTStrtab {
			result.Details = append(result.Details,
				fmt.Sprintf("e_shstrndx %d does not reference a string table", ehdr.Shstrndx))
		}
	}

	if len(result.Details) > 0 {
		result.Status = StatusFail
		result.Message = "executable header is inconsistent"
	}
	return result
}

// SegmentAlignmentCheck validates every loadable segment's alignment: the
// value must be a power of two and the file offset must be congruent to the
// virtual address modulo the alignment.
type SegmentAlignmentCheck struct{}

func (c *SegmentAlignmentCheck) ID() string { return "load-segment-alignment" }

func (c *SegmentAlignmentCheck) Description() string {
	return "PT_LOAD alignment is a power of two and offset ≡ vaddr (mod align)"
}

func (c *SegmentAlignmentCheck) Execute(binary *elf64.Binary) CheckResult {
	result := CheckResult{ID: c.ID(), Description: c.Description(), Status: StatusPass}

	checked := false
	for i := range binary.Phdrs {
		phdr := &binary.Phdrs[i]
		if !phdr.Loadable() {
			continue
		}
		checked = true

		if phdr.Align&(phdr.Align-1) != 0 {
			result.Details = append(result.Details,
				fmt.Sprintf("segment %d: p_align 0x%x is not a power of two", i, phdr.Align))
			continue
		}
		if phdr.Align > 1 && phdr.Off%phdr.Align != phdr.Vaddr%phdr.Align {
			result.Details = append(result.Details,
				fmt.Sprintf("segment %d: p_offset 0x%x and p_vaddr 0x%x are not congruent mod 0x%x",
					i, phdr.Off, phdr.Vaddr, phdr.Align))
		}
	}

	if !checked {
		result.Status = StatusSkip
		result.Message = "no loadable segments"
		return result
	}
	if len(result.Details) > 0 {
		result.Status = StatusFail
		result.Message = "loadable segment alignment violated"
	}
	return result
}

// WritableExecSegmentCheck flags loadable segments that are both writable and
// executable.
type WritableExecSegmentCheck struct{}

func (c *WritableExecSegmentCheck) ID() string { return "writable-exec-segment" }

func (c *WritableExecSegmentCheck) Description() string {
	return "No loadable segment is both writable and executable"
}

func (c *WritableExecSegmentCheck) Execute(binary *elf64.Binary) CheckResult {
	result := CheckResult{ID: c.ID(), Description: c.Description(), Status: StatusPass}

	for i := range binary.Phdrs {
		phdr := &binary.Phdrs[i]
		if !phdr.Loadable() {
			continue
		}
		const wx = elf64.PFWrite | elf64.PFExec
		if phdr.Flags&wx == wx {
			result.Details = append(result.Details,
				fmt.Sprintf("segment %d: flags %s", i, elf64.SegmentFlagsString(phdr.Flags)))
		}
	}

	if len(result.Details) > 0 {
		result.Status = StatusFail
		result.Message = "write+exec load segment found"
	}
	return result
}

// SectionTableCheck validates that sections with file bits appear in
// increasing file-offset order and that table-like sections declare a
// nonzero entry size.
type SectionTableCheck struct{}

func (c *SectionTableCheck) ID() string { return "section-table-order" }

func (c *SectionTableCheck) Description() string {
	return "Sections with file bits are ordered by increasing file offset"
}

func (c *SectionTableCheck) Execute(binary *elf64.Binary) CheckResult {
	result := CheckResult{ID: c.ID(), Description: c.Description(), Status: StatusPass}

	var prevOff uint64
	var prevIdx int
	seen := false
	for i := 1; i < len(binary.Shdrs); i++ {
		shdr := &binary.Shdrs[i]
		if shdr.Type == elf64.SHTNobits {
			continue
		}
		if seen && shdr.Off < prevOff {
			result.Details = append(result.Details,
				fmt.Sprintf("section %d at offset 0x%x precedes section %d at 0x%x",
					i, shdr.Off, prevIdx, prevOff))
		}
		prevOff, prevIdx, seen = shdr.Off, i, true

		switch shdr.Type {
		case elf64.SHTSymtab, elf64.SHTDynsym, elf64.SHTRela, elf64.SHTRel, elf64.SHTDynamic:
			if shdr.Entsize == 0 {
				result.Details = append(result.Details,
					fmt.Sprintf("section %d (%s): table section with sh_entsize 0",
						i, elf64.SectionTypeString(shdr.Type)))
			}
		}
	}

	if len(result.Details) > 0 {
		result.Status = StatusFail
		result.Message = "section table is inconsistent"
	}
	return result
}

// SectionBoundsCheck validates that no section's file range overlaps the
// section header table.
type SectionBoundsCheck struct{}

func (c *SectionBoundsCheck) ID() string { return "section-bounds" }

func (c *SectionBoundsCheck) Description() string {
	return "Section content ends before the section header table"
}

func (c *SectionBoundsCheck) Execute(binary *elf64.Binary) CheckResult {
	result := CheckResult{ID: c.ID(), Description: c.Description(), Status: StatusPass}

	if binary.Ehdr.Shnum == 0 {
		result.Status = StatusSkip
		result.Message = "no section header table"
		return result
	}

	for i := 1; i < len(binary.Shdrs); i++ {
		shdr := &binary.Shdrs[i]
		if shdr.Type == elf64.SHTNobits {
			continue
		}
		if shdr.Off+shdr.Size > binary.Ehdr.Shoff {
			result.Details = append(result.Details,
				fmt.Sprintf("section %d ends at 0x%x past e_shoff 0x%x",
					i, shdr.Off+shdr.Size, binary.Ehdr.Shoff))
		}
	}

	if len(result.Details) > 0 {
		result.Status = StatusFail
		result.Message = "section content overlaps the section header table"
	}
	return result
}
