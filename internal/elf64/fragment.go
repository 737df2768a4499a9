package elf64

// Candidate page sizes used for fragmentation analysis.
const (
	PageSize4K  uint64 = 4096
	PageSize16K uint64 = 16384
	PageSize64K uint64 = 65536
)

// PageSizes lists the candidate page sizes in ascending order.
var PageSizes = []uint64{PageSize4K, PageSize16K, PageSize64K}

// SegmentClass buckets loadable segments by their permission flags.
type SegmentClass int

const (
	ClassExec SegmentClass = iota
	ClassReadOnly
	ClassReadWrite
	numSegmentClasses
)

func (c SegmentClass) String() string {
	switch c {
	case ClassExec:
		return "executable"
	case ClassReadOnly:
		return "read-only"
	case ClassReadWrite:
		return "read-write"
	default:
		return "unknown"
	}
}

// ClassifySegment buckets a segment by its permission flags. The executable
// flag wins over write, which wins over pure read.
func ClassifySegment(flags uint32) SegmentClass {
	switch {
	case flags&PFExec != 0:
		return ClassExec
	case flags&PFWrite != 0:
		return ClassReadWrite
	default:
		return ClassReadOnly
	}
}

// SegmentFrag returns the page count and fragmentation bytes for one segment
// at one candidate page size. Pages is the true ceiling of memSize over
// pageSize. Frag uses the literal formula pageSize - (memSize % pageSize),
// which yields a full page when memSize is already an exact multiple; that
// matches the original tool's accumulation and is pinned by tests.
func SegmentFrag(memSize, pageSize uint64) (pages, frag uint64) {
	pages = (memSize + pageSize - 1) / pageSize
	frag = pageSize - memSize%pageSize
	return pages, frag
}

// SegmentStats aggregates loadable segments of one permission class.
type SegmentStats struct {
	Segments uint64            `json:"segments"`
	MemSize  uint64            `json:"mem_size"`
	Pages    map[uint64]uint64 `json:"pages"`
	Frag     map[uint64]uint64 `json:"frag"`
}

func newSegmentStats() SegmentStats {
	return SegmentStats{
		Pages: make(map[uint64]uint64, len(PageSizes)),
		Frag:  make(map[uint64]uint64, len(PageSizes)),
	}
}

func (s *SegmentStats) add(memSize uint64) {
	s.Segments++
	s.MemSize += memSize
	for _, ps := range PageSizes {
		pages, frag := SegmentFrag(memSize, ps)
		s.Pages[ps] += pages
		s.Frag[ps] += frag
	}
}

func (s *SegmentStats) merge(o *SegmentStats) {
	s.Segments += o.Segments
	s.MemSize += o.MemSize
	for ps, v := range o.Pages {
		s.Pages[ps] += v
	}
	for ps, v := range o.Frag {
		s.Frag[ps] += v
	}
}

// FragStats accumulates per-class fragmentation totals across all scanned
// files, plus the count of files analyzed.
type FragStats struct {
	Files   int                             `json:"files"`
	Classes [numSegmentClasses]SegmentStats `json:"classes"`
}

// NewFragStats returns an empty accumulator.
func NewFragStats() *FragStats {
	fs := &FragStats{}
	for i := range fs.Classes {
		fs.Classes[i] = newSegmentStats()
	}
	return fs
}

// Class returns the accumulated stats for one permission class.
func (fs *FragStats) Class(c SegmentClass) *SegmentStats {
	return &fs.Classes[c]
}

// AddBinary folds every loadable segment of the binary into the per-class
// totals and counts the file as analyzed.
func (fs *FragStats) AddBinary(b *Binary) {
	for i := range b.Phdrs {
		phdr := &b.Phdrs[i]
		if !phdr.Loadable() {
			continue
		}
		fs.Classes[ClassifySegment(phdr.Flags)].add(phdr.Memsz)
	}
	fs.Files++
}

// Merge folds another accumulator into this one.
func (fs *FragStats) Merge(o *FragStats) {
	fs.Files += o.Files
	for i := range fs.Classes {
		fs.Classes[i].merge(&o.Classes[i])
	}
}

// TotalSegments returns the loadable segment count across all classes.
func (fs *FragStats) TotalSegments() uint64 {
	var n uint64
	for i := range fs.Classes {
		n += fs.Classes[i].Segments
	}
	return n
}

// TotalFrag returns the fragmentation bytes across all classes at one page
// size.
func (fs *FragStats) TotalFrag(pageSize uint64) uint64 {
	var n uint64
	for i := range fs.Classes {
		n += fs.Classes[i].Frag[pageSize]
	}
	return n
}

// TotalPages returns the page count across all classes at one page size.
func (fs *FragStats) TotalPages(pageSize uint64) uint64 {
	var n uint64
	for i := range fs.Classes {
		n += fs.Classes[i].Pages[pageSize]
	}
	return n
}
