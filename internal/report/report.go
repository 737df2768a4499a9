// Package report renders fragmentation scan results for humans (text table)
// and machines (JSON file or stream).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/msft-mirror-aosp/platform.system.memory.libmeminfo/internal/elf64"
)

// FragReport is the serializable form of one fragmentation scan.
type FragReport struct {
	Root      string           `json:"root"`
	Generated time.Time        `json:"generated"`
	Files     int              `json:"files_analyzed"`
	Classes   []ClassReport    `json:"classes"`
	Totals    []PageSizeReport `json:"totals"`
}

// ClassReport aggregates one permission class.
type ClassReport struct {
	Class    string           `json:"class"`
	Segments uint64           `json:"segments"`
	MemSize  uint64           `json:"mem_size"`
	Pages    []PageSizeReport `json:"pages"`
}

// PageSizeReport carries the page count and fragmentation bytes for one
// candidate page size.
type PageSizeReport struct {
	PageSize  uint64 `json:"page_size"`
	Pages     uint64 `json:"pages"`
	FragBytes uint64 `json:"frag_bytes"`
}

// NewFragReport builds a report from accumulated scan statistics.
func NewFragReport(root string, stats *elf64.FragStats) *FragReport {
	report := &FragReport{
		Root:      root,
		Generated: time.Now().UTC(),
		Files:     stats.Files,
	}

	for _, class := range []elf64.SegmentClass{elf64.ClassExec, elf64.ClassReadOnly, elf64.ClassReadWrite} {
		st := stats.Class(class)
		cr := ClassReport{
			Class:    class.String(),
			Segments: st.Segments,
			MemSize:  st.MemSize,
		}
		for _, ps := range elf64.PageSizes {
			cr.Pages = append(cr.Pages, PageSizeReport{
				PageSize:  ps,
				Pages:     st.Pages[ps],
				FragBytes: st.Frag[ps],
			})
		}
		report.Classes = append(report.Classes, cr)
	}

	for _, ps := range elf64.PageSizes {
		report.Totals = append(report.Totals, PageSizeReport{
			PageSize:  ps,
			Pages:     stats.TotalPages(ps),
			FragBytes: stats.TotalFrag(ps),
		})
	}

	return report
}

// RenderText writes the human-readable report: a per-class breakdown table
// and the page-size totals.
func (r *FragReport) RenderText(w io.Writer) {
	fmt.Fprintf(w, "\nFragmentation results (unused bytes)\n")

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Class", "Segments", "Mem Size", "Page Size", "Pages", "Fragmentation"})
	table.SetAutoMergeCells(true)
	table.SetRowLine(false)
	for _, cr := range r.Classes {
		for _, ps := range cr.Pages {
			table.Append([]string{
				cr.Class,
				humanize.Comma(int64(cr.Segments)),
				humanize.IBytes(cr.MemSize),
				humanize.Comma(int64(ps.PageSize)),
				humanize.Comma(int64(ps.Pages)),
				humanize.Comma(int64(ps.FragBytes)),
			})
		}
	}
	table.Render()

	totals := tablewriter.NewWriter(w)
	totals.SetHeader([]string{"Page Size", "Total Fragmentation (bytes)"})
	for _, ps := range r.Totals {
		totals.Append([]string{
			humanize.Comma(int64(ps.PageSize)),
			humanize.Comma(int64(ps.FragBytes)),
		})
	}
	totals.Render()

	fmt.Fprintf(w, "\nELF 64 shared libraries processed: %d\n", r.Files)
}

// RenderJSON writes the report as indented JSON.
func (r *FragReport) RenderJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// WriteToFile writes the JSON report to dir/elf64-frag-report.json and
// returns the written path.
func (r *FragReport) WriteToFile(dir string) (string, error) {
	path := filepath.Join(dir, "elf64-frag-report.json")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	if err := r.RenderJSON(f); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
