package elf64_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/msft-mirror-aosp/platform.system.memory.libmeminfo/internal/elf64"
	"github.com/msft-mirror-aosp/platform.system.memory.libmeminfo/internal/elfgen"
)

func TestSegmentTypeString(t *testing.T) {
	assert.Equal(t, "PT_LOAD", elf64.SegmentTypeString(elf64.PTLoad))
	assert.Equal(t, "PT_GNU_RELRO", elf64.SegmentTypeString(elf64.PTGNURelro))

	// Unknown codes are rendered as data, never rejected.
	assert.Equal(t, "unrecognized type 0x70000001", elf64.SegmentTypeString(0x70000001))
}

func TestSectionTypeString(t *testing.T) {
	assert.Equal(t, "SHT_NOBITS", elf64.SectionTypeString(elf64.SHTNobits))
	assert.Equal(t, "unrecognized type 0x6ffffff6", elf64.SectionTypeString(0x6ffffff6))
}

func TestClassString(t *testing.T) {
	assert.Equal(t, "ELFCLASS64", elf64.ClassString(elf64.Class64))
	assert.Equal(t, "ELFCLASS32", elf64.ClassString(1))
	assert.Equal(t, "unrecognized class 9", elf64.ClassString(9))
}

func TestSegmentFlagsString(t *testing.T) {
	assert.Equal(t, "R-E", elf64.SegmentFlagsString(elf64.PFRead|elf64.PFExec))
	assert.Equal(t, "RW-", elf64.SegmentFlagsString(elf64.PFRead|elf64.PFWrite))
	assert.Equal(t, "---", elf64.SegmentFlagsString(0))
}

func TestResolveSectionNamesToleratesBadIndexes(t *testing.T) {
	binary := elfgen.DefaultLibrary()

	// Name offset past the end of the string table: the name stays empty,
	// nothing blows up.
	binary.Shdrs[1].Name = 0xffff
	binary.Sections[1].Name = ""
	binary.ResolveSectionNames()
	assert.Empty(t, binary.Sections[1].Name)

	// Name table index out of range: resolution is a no-op.
	binary.Ehdr.Shstrndx = 42
	binary.ResolveSectionNames()
}

func TestSectionDigestDistinguishesContent(t *testing.T) {
	a := elf64.Section{Data: []byte("abc")}
	b := elf64.Section{Data: []byte("abd")}
	assert.NotEqual(t, a.Digest(), b.Digest())
}
