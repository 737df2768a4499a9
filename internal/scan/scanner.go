// Package scan discovers ELF64 shared libraries under a directory tree and
// accumulates fragmentation statistics across them. Traversal and analysis
// are separate steps: WalkLibraries produces candidate paths, Scanner
// consumes them, so each can be tested without the other.
package scan

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/msft-mirror-aosp/platform.system.memory.libmeminfo/internal/elf64"
	"github.com/msft-mirror-aosp/platform.system.memory.libmeminfo/internal/utils"
)

// DefaultLibSuffix is the shared-object suffix candidate files must carry.
const DefaultLibSuffix = ".so"

// WalkLibraries walks root recursively and sends every regular, non-symlink
// file whose name ends in suffix to out. The channel is not closed; the
// caller owns it.
func WalkLibraries(root, suffix string, out chan<- string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			// Directories descend; symlinks and other non-regular
			// entries are skipped.
			return nil
		}
		if strings.HasSuffix(d.Name(), suffix) {
			out <- path
		}
		return nil
	})
}

// Scanner consumes candidate library paths one at a time, parses each and
// folds its loadable segments into a FragStats accumulator. Files that fail
// to parse, or are not 64-bit ELF, are logged and skipped; the scan
// continues.
type Scanner struct {
	Suffix string
	Logger *utils.Logger
}

// NewScanner returns a scanner with the given logger and the default
// shared-object suffix.
func NewScanner(logger *utils.Logger) *Scanner {
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}
	return &Scanner{Suffix: DefaultLibSuffix, Logger: logger}
}

// Scan walks root and returns the accumulated fragmentation statistics.
// One file's parse runs to completion before the next is started.
func (s *Scanner) Scan(root string) (*elf64.FragStats, error) {
	paths := make(chan string)
	walkErr := make(chan error, 1)
	go func() {
		walkErr <- WalkLibraries(root, s.Suffix, paths)
		close(paths)
	}()

	stats := elf64.NewFragStats()
	for path := range paths {
		s.AnalyzeFile(path, stats)
	}
	return stats, <-walkErr
}

// AnalyzeFile probes the header of one candidate file and, when it is an
// ELF64 binary, parses it fully and folds it into stats.
func (s *Scanner) AnalyzeFile(path string, stats *elf64.FragStats) {
	log := s.Logger.WithComponent("scan").WithField("file", path)

	ehdr, err := elf64.ParseEhdr(path)
	if err != nil {
		if errors.Is(err, elf64.ErrMalformedHeader) {
			log.Debug("Not an ELF file, skipping")
		} else {
			log.Warnf("Failed to probe file: %v", err)
		}
		return
	}
	if ehdr.Class() != elf64.Class64 {
		log.Debugf("Skipping %s", elf64.ClassString(ehdr.Class()))
		return
	}

	log.Info("Analyzing elf64 shared library")
	binary, err := elf64.Parse(path)
	if err != nil {
		log.Warnf("Failed to parse: %v", err)
		return
	}
	stats.AddBinary(binary)
}
