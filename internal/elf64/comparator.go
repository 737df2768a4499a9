package elf64

import (
	"bytes"
	"fmt"
)

// Diff categories, one per compared part of the binary.
const (
	DiffEhdr    = "ehdr"
	DiffPhdr    = "phdr"
	DiffShdr    = "shdr"
	DiffSection = "section"
)

// FieldDiff records one differing field between two binaries. Index is the
// table position for program/section header and content diffs, -1 for the
// executable header.
type FieldDiff struct {
	Category string `json:"category"`
	Index    int    `json:"index"`
	Field    string `json:"field"`
	A        string `json:"a"`
	B        string `json:"b"`
}

func (d FieldDiff) String() string {
	if d.Index < 0 {
		return fmt.Sprintf("%s.%s: %s != %s", d.Category, d.Field, d.A, d.B)
	}
	return fmt.Sprintf("%s[%d].%s: %s != %s", d.Category, d.Index, d.Field, d.A, d.B)
}

// Result reports per-category equality plus every differing field.
// Structural inequality is a normal, reportable outcome, never an error.
type Result struct {
	EhdrsEqual    bool        `json:"ehdrs_equal"`
	PhdrsEqual    bool        `json:"phdrs_equal"`
	ShdrsEqual    bool        `json:"shdrs_equal"`
	SectionsEqual bool        `json:"sections_equal"`
	Diffs         []FieldDiff `json:"diffs,omitempty"`
}

// Equal reports whether all four categories matched.
func (r *Result) Equal() bool {
	return r.EhdrsEqual && r.PhdrsEqual && r.ShdrsEqual && r.SectionsEqual
}

// Compare diffs two binaries across the executable header, program headers,
// section headers, and section content.
func Compare(a, b *Binary) *Result {
	r := &Result{}
	r.EhdrsEqual = compareEhdrs(&a.Ehdr, &b.Ehdr, r)
	r.PhdrsEqual = comparePhdrs(a.Phdrs, b.Phdrs, r)
	r.ShdrsEqual = compareShdrs(a.Shdrs, b.Shdrs, r)
	r.SectionsEqual = compareSections(a.Sections, b.Sections, r)
	return r
}

func (r *Result) add(category string, index int, field string, a, b uint64) {
	r.Diffs = append(r.Diffs, FieldDiff{
		Category: category,
		Index:    index,
		Field:    field,
		A:        fmt.Sprintf("0x%x", a),
		B:        fmt.Sprintf("0x%x", b),
	})
}

// compareEhdrs compares every identification byte and every scalar field.
// Each mismatch is reported independently; there is no short-circuit within
// the header.
func compareEhdrs(a, b *Ehdr, r *Result) bool {
	equal := true
	for i := range a.Ident {
		if a.Ident[i] != b.Ident[i] {
			r.add(DiffEhdr, -1, fmt.Sprintf("e_ident[%d]", i), uint64(a.Ident[i]), uint64(b.Ident[i]))
			equal = false
		}
	}

	fields := []struct {
		name string
		a, b uint64
	}{
		{"e_type", uint64(a.Type), uint64(b.Type)},
		{"e_machine", uint64(a.Machine), uint64(b.Machine)},
		{"e_version", uint64(a.Version), uint64(b.Version)},
		{"e_entry", a.Entry, b.Entry},
		{"e_phoff", a.Phoff, b.Phoff},
		{"e_shoff", a.Shoff, b.Shoff},
		{"e_flags", uint64(a.Flags), uint64(b.Flags)},
		{"e_ehsize", uint64(a.Ehsize), uint64(b.Ehsize)},
		{"e_phentsize", uint64(a.Phentsize), uint64(b.Phentsize)},
		{"e_phnum", uint64(a.Phnum), uint64(b.Phnum)},
		{"e_shentsize", uint64(a.Shentsize), uint64(b.Shentsize)},
		{"e_shnum", uint64(a.Shnum), uint64(b.Shnum)},
		{"e_shstrndx", uint64(a.Shstrndx), uint64(b.Shstrndx)},
	}
	for _, f := range fields {
		if f.a != f.b {
			r.add(DiffEhdr, -1, f.name, f.a, f.b)
			equal = false
		}
	}
	return equal
}

// comparePhdrs compares counts first; a count mismatch short-circuits without
// per-field diffing. Entries are compared positionally.
func comparePhdrs(a, b []Phdr, r *Result) bool {
	if len(a) != len(b) {
		r.add(DiffPhdr, -1, "count", uint64(len(a)), uint64(len(b)))
		return false
	}

	equal := true
	for i := range a {
		fields := []struct {
			name string
			a, b uint64
		}{
			{"p_type", uint64(a[i].Type), uint64(b[i].Type)},
			{"p_flags", uint64(a[i].Flags), uint64(b[i].Flags)},
			{"p_offset", a[i].Off, b[i].Off},
			{"p_vaddr", a[i].Vaddr, b[i].Vaddr},
			{"p_paddr", a[i].Paddr, b[i].Paddr},
			{"p_filesz", a[i].Filesz, b[i].Filesz},
			{"p_memsz", a[i].Memsz, b[i].Memsz},
			{"p_align", a[i].Align, b[i].Align},
		}
		for _, f := range fields {
			if f.a != f.b {
				r.add(DiffPhdr, i, f.name, f.a, f.b)
				equal = false
			}
		}
	}
	return equal
}

// compareShdrs uses the same count-then-positional-field strategy as
// comparePhdrs.
func compareShdrs(a, b []Shdr, r *Result) bool {
	if len(a) != len(b) {
		r.add(DiffShdr, -1, "count", uint64(len(a)), uint64(len(b)))
		return false
	}

	equal := true
	for i := range a {
		fields := []struct {
			name string
			a, b uint64
		}{
			{"sh_name", uint64(a[i].Name), uint64(b[i].Name)},
			{"sh_type", uint64(a[i].Type), uint64(b[i].Type)},
			{"sh_flags", a[i].Flags, b[i].Flags},
			{"sh_addr", a[i].Addr, b[i].Addr},
			{"sh_offset", a[i].Off, b[i].Off},
			{"sh_size", a[i].Size, b[i].Size},
			{"sh_link", uint64(a[i].Link), uint64(b[i].Link)},
			{"sh_info", uint64(a[i].Info), uint64(b[i].Info)},
			{"sh_addralign", a[i].Addralign, b[i].Addralign},
			{"sh_entsize", a[i].Entsize, b[i].Entsize},
		}
		for _, f := range fields {
			if f.a != f.b {
				r.add(DiffShdr, i, f.name, f.a, f.b)
				equal = false
			}
		}
	}
	return equal
}

// compareSections compares declared sizes first; on size mismatch content is
// not compared for that index. Two no-file-bits sections are equal; exactly
// one no-file-bits section is a mismatch (the two files place their .bss at
// different indexes). Otherwise content is compared byte-exact, with xxhash
// digests recorded for differing content.
func compareSections(a, b []Section, r *Result) bool {
	if len(a) != len(b) {
		r.add(DiffSection, -1, "count", uint64(len(a)), uint64(len(b)))
		return false
	}

	equal := true
	for i := range a {
		if a[i].Size != b[i].Size {
			r.add(DiffSection, i, "size", a[i].Size, b[i].Size)
			equal = false
			continue
		}
		if a[i].NoBits() && b[i].NoBits() {
			continue
		}
		if a[i].NoBits() != b[i].NoBits() {
			r.Diffs = append(r.Diffs, FieldDiff{
				Category: DiffSection,
				Index:    i,
				Field:    "data",
				A:        sectionDataLabel(&a[i]),
				B:        sectionDataLabel(&b[i]),
			})
			equal = false
			continue
		}
		if !bytes.Equal(a[i].Data, b[i].Data) {
			r.Diffs = append(r.Diffs, FieldDiff{
				Category: DiffSection,
				Index:    i,
				Field:    "data",
				A:        sectionDataLabel(&a[i]),
				B:        sectionDataLabel(&b[i]),
			})
			equal = false
		}
	}
	return equal
}

func sectionDataLabel(s *Section) string {
	if s.NoBits() {
		return fmt.Sprintf("%s (no file bits)", s.Name)
	}
	return fmt.Sprintf("%s xxh64:%016x", s.Name, s.Digest())
}
