package report_test

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msft-mirror-aosp/platform.system.memory.libmeminfo/internal/elf64"
	"github.com/msft-mirror-aosp/platform.system.memory.libmeminfo/internal/elfgen"
	"github.com/msft-mirror-aosp/platform.system.memory.libmeminfo/internal/report"
)

func sampleStats() *elf64.FragStats {
	stats := elf64.NewFragStats()
	stats.AddBinary(elfgen.DefaultLibrary())
	return stats
}

func TestNewFragReport(t *testing.T) {
	r := report.NewFragReport("/vendor/lib64", sampleStats())

	assert.Equal(t, "/vendor/lib64", r.Root)
	assert.Equal(t, 1, r.Files)
	assert.False(t, r.Generated.IsZero())

	require.Len(t, r.Classes, 3)
	assert.Equal(t, "executable", r.Classes[0].Class)
	assert.Equal(t, "read-only", r.Classes[1].Class)
	assert.Equal(t, "read-write", r.Classes[2].Class)
	for _, cr := range r.Classes {
		require.Len(t, cr.Pages, 3)
		assert.Equal(t, elf64.PageSize4K, cr.Pages[0].PageSize)
		assert.Equal(t, elf64.PageSize64K, cr.Pages[2].PageSize)
	}

	// Totals are the sum of the class rows at each page size.
	require.Len(t, r.Totals, 3)
	for i, ps := range elf64.PageSizes {
		var frag uint64
		for _, cr := range r.Classes {
			frag += cr.Pages[i].FragBytes
		}
		assert.Equal(t, ps, r.Totals[i].PageSize)
		assert.Equal(t, frag, r.Totals[i].FragBytes)
	}
}

func TestRenderJSONRoundTrip(t *testing.T) {
	r := report.NewFragReport("/vendor/lib64", sampleStats())

	var buf bytes.Buffer
	require.NoError(t, r.RenderJSON(&buf))

	var decoded report.FragReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, r.Root, decoded.Root)
	assert.Equal(t, r.Files, decoded.Files)
	assert.Equal(t, r.Classes, decoded.Classes)
	assert.Equal(t, r.Totals, decoded.Totals)
}

func TestRenderTextMentionsTotals(t *testing.T) {
	r := report.NewFragReport("/vendor/lib64", sampleStats())

	var buf bytes.Buffer
	r.RenderText(&buf)

	out := buf.String()
	assert.Contains(t, out, "Fragmentation results (unused bytes)")
	assert.Contains(t, out, "executable")
	assert.Contains(t, out, "ELF 64 shared libraries processed: 1")
}

func TestWriteToFile(t *testing.T) {
	dir := t.TempDir()
	r := report.NewFragReport("/vendor/lib64", sampleStats())

	path, err := r.WriteToFile(dir)
	require.NoError(t, err)
	assert.FileExists(t, path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded report.FragReport
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, 1, decoded.Files)
}

func TestWriteToFileMissingDir(t *testing.T) {
	r := report.NewFragReport("/vendor/lib64", sampleStats())
	_, err := r.WriteToFile("/nonexistent/dir")
	assert.Error(t, err)
}
