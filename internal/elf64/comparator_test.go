package elf64_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msft-mirror-aosp/platform.system.memory.libmeminfo/internal/elf64"
	"github.com/msft-mirror-aosp/platform.system.memory.libmeminfo/internal/elfgen"
)

func diffsForCategory(result *elf64.Result, category string) []elf64.FieldDiff {
	var out []elf64.FieldDiff
	for _, diff := range result.Diffs {
		if diff.Category == category {
			out = append(out, diff)
		}
	}
	return out
}

func TestCompareSelfEquality(t *testing.T) {
	path := writeFixture(t)

	a, err := elf64.Parse(path)
	require.NoError(t, err)
	b, err := elf64.Parse(path)
	require.NoError(t, err)

	result := elf64.Compare(a, b)
	assert.True(t, result.EhdrsEqual)
	assert.True(t, result.PhdrsEqual)
	assert.True(t, result.ShdrsEqual)
	assert.True(t, result.SectionsEqual)
	assert.True(t, result.Equal())
	assert.Empty(t, result.Diffs)
}

func TestCompareEhdrReportsEveryMismatch(t *testing.T) {
	a := elfgen.DefaultLibrary()
	b := elfgen.Clone(a)
	b.Ehdr.Entry += 0x1000
	b.Ehdr.Flags = 0xdead
	b.Ehdr.Ident[elf64.IdentData] = elf64.Data2MSB

	result := elf64.Compare(a, b)
	assert.False(t, result.EhdrsEqual)

	// No short-circuit within the header: all three mismatches show up.
	diffs := diffsForCategory(result, elf64.DiffEhdr)
	require.Len(t, diffs, 3)
	fields := []string{diffs[0].Field, diffs[1].Field, diffs[2].Field}
	assert.Contains(t, fields, "e_ident[5]")
	assert.Contains(t, fields, "e_entry")
	assert.Contains(t, fields, "e_flags")
}

func TestComparePhdrFieldDiffs(t *testing.T) {
	a := elfgen.DefaultLibrary()
	b := elfgen.Clone(a)
	b.Phdrs[1].Memsz += 64
	b.Phdrs[1].Flags |= elf64.PFExec

	result := elf64.Compare(a, b)
	assert.False(t, result.PhdrsEqual)

	diffs := diffsForCategory(result, elf64.DiffPhdr)
	require.Len(t, diffs, 2)
	for _, diff := range diffs {
		assert.Equal(t, 1, diff.Index, "entry 1 is compared only against entry 1")
	}
}

func TestComparePhdrCountShortCircuits(t *testing.T) {
	a := elfgen.DefaultLibrary()
	b := elfgen.Clone(a)
	b.Phdrs = b.Phdrs[:len(b.Phdrs)-1]
	// Field differences beyond the count must not be reported.
	if len(b.Phdrs) > 0 {
		b.Phdrs[0].Flags = 0
	}

	result := elf64.Compare(a, b)
	assert.False(t, result.PhdrsEqual)

	diffs := diffsForCategory(result, elf64.DiffPhdr)
	require.Len(t, diffs, 1)
	assert.Equal(t, "count", diffs[0].Field)
}

func TestCompareShdrCountShortCircuits(t *testing.T) {
	a := elfgen.DefaultLibrary()
	b := elfgen.Clone(a)
	b.Shdrs = b.Shdrs[:len(b.Shdrs)-1]

	result := elf64.Compare(a, b)
	assert.False(t, result.ShdrsEqual)

	diffs := diffsForCategory(result, elf64.DiffShdr)
	require.Len(t, diffs, 1)
	assert.Equal(t, "count", diffs[0].Field)
}

func TestCompareSectionSizeMismatchSkipsContent(t *testing.T) {
	a := elfgen.DefaultLibrary()
	b := elfgen.Clone(a)
	b.Sections[1].Size += 8
	b.Sections[1].Data = append(b.Sections[1].Data, 1, 2, 3)

	result := elf64.Compare(a, b)
	assert.False(t, result.SectionsEqual)

	diffs := diffsForCategory(result, elf64.DiffSection)
	require.Len(t, diffs, 1)
	assert.Equal(t, "size", diffs[0].Field, "content must not be compared when sizes differ")
}

func TestCompareSectionContent(t *testing.T) {
	a := elfgen.DefaultLibrary()
	b := elfgen.Clone(a)
	b.Sections[1].Data[0] ^= 0xff

	result := elf64.Compare(a, b)
	assert.False(t, result.SectionsEqual)
	assert.True(t, result.EhdrsEqual)
	assert.True(t, result.PhdrsEqual)
	assert.True(t, result.ShdrsEqual)

	diffs := diffsForCategory(result, elf64.DiffSection)
	require.Len(t, diffs, 1)
	assert.Equal(t, "data", diffs[0].Field)
	assert.NotEqual(t, diffs[0].A, diffs[0].B, "digests label the differing content")
}

func TestCompareNoBitsSections(t *testing.T) {
	a := elfgen.DefaultLibrary()
	b := elfgen.Clone(a)

	// Both .bss sections own no bytes: equal.
	result := elf64.Compare(a, b)
	assert.True(t, result.SectionsEqual)

	// Exactly one side owns no bytes: unequal.
	bssIdx := 4
	require.True(t, a.Sections[bssIdx].NoBits())
	b.Sections[bssIdx].Data = make([]byte, b.Sections[bssIdx].Size)

	result = elf64.Compare(a, b)
	assert.False(t, result.SectionsEqual)
}
