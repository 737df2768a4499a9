package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/msft-mirror-aosp/platform.system.memory.libmeminfo/internal/elf64"
	"github.com/msft-mirror-aosp/platform.system.memory.libmeminfo/internal/utils"
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
	var verbose bool

	cmd := &cobra.Command{
		Use:   "elf64-align <elf-file> <out-file>",
		Short: "Align PT_LOAD segment sizes of an ELF64 binary",
		Long: `elf64-align parses an ELF64 executable or shared library, rounds the file
size and memory size of every PT_LOAD program header up to that segment's own
alignment, and writes the corrected binary to a new file.

Shared libraries linked with -Wl,-z,max-page-size=[16384|65536] on a 4k page
size kernel leave unaligned holes between segments that cost the dynamic
linker an extra mapping per hole. Extending p_filesz/p_memsz to a p_align
boundary removes the hole.

File offsets of subsequent segments and sections are not recomputed; the tool
refuses to emit a file whose declared section layout no longer fits.

Exit codes:
  0 - Aligned binary written
  1 - Parse or write failure`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlign(args[0], args[1], verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("elf64-align version %s\n", version)
			fmt.Printf("Commit: %s\n", commit)
			fmt.Printf("Built: %s\n", buildDate)
		},
	}
}

func runAlign(inputPath, outputPath string, verbose bool) error {
	loggerConfig := utils.LoggerConfig{Level: utils.LogLevelInfo, Format: utils.LogFormatText}
	if verbose {
		loggerConfig.Level = utils.LogLevelDebug
	}
	logger := utils.NewLogger(loggerConfig)
	log := logger.WithComponent("elf64-align")

	binary, err := elf64.Parse(inputPath)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", inputPath, err)
	}

	for i := range binary.Phdrs {
		phdr := &binary.Phdrs[i]
		if phdr.Loadable() {
			log.Debugf("PT_LOAD segment %d: p_filesz=0x%x p_memsz=0x%x p_align=0x%x",
				i, phdr.Filesz, phdr.Memsz, phdr.Align)
		}
	}

	elf64.AlignLoadSegments(binary)

	if err := elf64.WriteFile(outputPath, binary); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	log.Infof("Wrote aligned binary to %s", outputPath)
	return nil
}
