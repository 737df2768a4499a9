package elf64_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msft-mirror-aosp/platform.system.memory.libmeminfo/internal/elf64"
	"github.com/msft-mirror-aosp/platform.system.memory.libmeminfo/internal/elfgen"
)

func TestSegmentFragArithmetic(t *testing.T) {
	pages, frag := elf64.SegmentFrag(67834, 4096)
	assert.Equal(t, uint64(17), pages)
	assert.Equal(t, uint64(2566), frag, "4096 - (67834 mod 4096)")

	pages, frag = elf64.SegmentFrag(1, 65536)
	assert.Equal(t, uint64(1), pages)
	assert.Equal(t, uint64(65535), frag)
}

// A memory size that is already an exact page multiple yields a full page of
// fragmentation under the accumulation formula, not zero. That mirrors the
// shipped tool's totals and is relied on by downstream diffing of its output.
func TestSegmentFragExactMultiple(t *testing.T) {
	pages, frag := elf64.SegmentFrag(8192, 4096)
	assert.Equal(t, uint64(2), pages)
	assert.Equal(t, uint64(4096), frag)
}

func TestClassifySegment(t *testing.T) {
	tests := []struct {
		flags uint32
		want  elf64.SegmentClass
	}{
		{elf64.PFRead | elf64.PFExec, elf64.ClassExec},
		{elf64.PFRead | elf64.PFWrite | elf64.PFExec, elf64.ClassExec},
		{elf64.PFRead | elf64.PFWrite, elf64.ClassReadWrite},
		{elf64.PFWrite, elf64.ClassReadWrite},
		{elf64.PFRead, elf64.ClassReadOnly},
		{0, elf64.ClassReadOnly},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, elf64.ClassifySegment(tt.flags),
			"flags %s", elf64.SegmentFlagsString(tt.flags))
	}
}

func TestFragStatsAddBinary(t *testing.T) {
	binary := elfgen.DefaultLibrary()
	stats := elf64.NewFragStats()
	stats.AddBinary(binary)

	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, uint64(2), stats.TotalSegments(), "only PT_LOAD segments count")

	exec := stats.Class(elf64.ClassExec)
	require.Equal(t, uint64(1), exec.Segments)

	rw := stats.Class(elf64.ClassReadWrite)
	require.Equal(t, uint64(1), rw.Segments)

	ro := stats.Class(elf64.ClassReadOnly)
	assert.Zero(t, ro.Segments)

	for _, ps := range elf64.PageSizes {
		wantPages, wantFrag := elf64.SegmentFrag(exec.MemSize, ps)
		assert.Equal(t, wantPages, exec.Pages[ps])
		assert.Equal(t, wantFrag, exec.Frag[ps])

		assert.Equal(t, exec.Frag[ps]+rw.Frag[ps], stats.TotalFrag(ps))
		assert.Equal(t, exec.Pages[ps]+rw.Pages[ps], stats.TotalPages(ps))
	}
}

func TestFragStatsMerge(t *testing.T) {
	binary := elfgen.DefaultLibrary()

	single := elf64.NewFragStats()
	single.AddBinary(binary)

	a := elf64.NewFragStats()
	a.AddBinary(binary)
	b := elf64.NewFragStats()
	b.AddBinary(binary)
	a.Merge(b)

	assert.Equal(t, 2, a.Files)
	assert.Equal(t, 2*single.TotalSegments(), a.TotalSegments())
	for _, ps := range elf64.PageSizes {
		assert.Equal(t, 2*single.TotalFrag(ps), a.TotalFrag(ps))
		assert.Equal(t, 2*single.TotalPages(ps), a.TotalPages(ps))
	}
}
