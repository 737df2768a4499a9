package elf64_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/msft-mirror-aosp/platform.system.memory.libmeminfo/internal/elf64"
	"github.com/msft-mirror-aosp/platform.system.memory.libmeminfo/internal/elfgen"
)

func TestAlignUp(t *testing.T) {
	tests := []struct {
		v, align, want uint64
	}{
		{0, 4096, 0},
		{1, 4096, 4096},
		{4095, 4096, 4096},
		{4096, 4096, 4096},
		{4097, 4096, 8192},
		{67834, 16384, 81920},
		{0x120, 16, 0x120},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, elf64.AlignUp(tt.v, tt.align), "AlignUp(%d, %d)", tt.v, tt.align)
	}
}

func TestAlignLoadSegments(t *testing.T) {
	binary := elfgen.DefaultLibrary()
	elf64.AlignLoadSegments(binary)

	for i, phdr := range binary.Phdrs {
		if !phdr.Loadable() {
			continue
		}
		assert.Zero(t, phdr.Filesz%phdr.Align, "segment %d p_filesz not aligned", i)
		assert.Zero(t, phdr.Memsz%phdr.Align, "segment %d p_memsz not aligned", i)
	}
}

func TestAlignLeavesNonLoadSegmentsAlone(t *testing.T) {
	binary := elfgen.DefaultLibrary()
	stack := binary.Phdrs[2]

	elf64.AlignLoadSegments(binary)

	assert.Equal(t, stack, binary.Phdrs[2], "PT_GNU_STACK must not be touched")
}

func TestAlignIsIdempotent(t *testing.T) {
	once := elfgen.DefaultLibrary()
	elf64.AlignLoadSegments(once)

	twice := elfgen.Clone(once)
	elf64.AlignLoadSegments(twice)

	if diff := cmp.Diff(once.Phdrs, twice.Phdrs); diff != "" {
		t.Errorf("second alignment changed program headers (-once +twice):\n%s", diff)
	}
}

func TestAlignDoesNotTouchOffsets(t *testing.T) {
	binary := elfgen.DefaultLibrary()
	before := append([]elf64.Phdr(nil), binary.Phdrs...)

	elf64.AlignLoadSegments(binary)

	for i := range before {
		assert.Equal(t, before[i].Off, binary.Phdrs[i].Off, "segment %d offset", i)
		assert.Equal(t, before[i].Vaddr, binary.Phdrs[i].Vaddr, "segment %d vaddr", i)
	}
}
