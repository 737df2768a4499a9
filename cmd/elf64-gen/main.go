package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/msft-mirror-aosp/platform.system.memory.libmeminfo/internal/elf64"
	"github.com/msft-mirror-aosp/platform.system.memory.libmeminfo/internal/elfgen"
)

var (
	// Version information (set via ldflags during build)
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "elf64-gen <shared-lib> <out-dir>",
		Short: "Generate invalid ELF64 shared libraries for loader testing",
		Long: `elf64-gen takes a reference shared library and writes variants with targeted
structural defects into the output directory:

  libtest_invalid-rw_load_segment.so   executable segments marked writable
  libtest_invalid-zero_shentsize.so    section header entry size of zero
  libtest_invalid-zero_shstrndx.so     section name table index of zero

Exit codes:
  0 - All variants written
  1 - Parse or write failure`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(args[0], args[1])
		},
	}

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("elf64-gen version %s\n", version)
			fmt.Printf("Commit: %s\n", commit)
			fmt.Printf("Built: %s\n", buildDate)
		},
	}
}

func runGen(refPath, outDir string) error {
	reference, err := elf64.Parse(refPath)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", refPath, err)
	}

	variants := []struct {
		name   string
		mutate func(*elf64.Binary)
	}{
		{"libtest_invalid-rw_load_segment.so", elfgen.MakeExecSegmentsWritable},
		{"libtest_invalid-zero_shentsize.so", elfgen.ZeroShentsize},
		{"libtest_invalid-zero_shstrndx.so", elfgen.ZeroShstrndx},
	}

	for _, variant := range variants {
		binary := elfgen.Clone(reference)
		variant.mutate(binary)

		outPath := filepath.Join(outDir, variant.name)
		if err := elf64.WriteFile(outPath, binary); err != nil {
			return fmt.Errorf("failed to write %s: %w", outPath, err)
		}
		fmt.Printf("Wrote %s\n", outPath)
	}

	return nil
}
