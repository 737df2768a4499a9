package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/msft-mirror-aosp/platform.system.memory.libmeminfo/internal/elf64"
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
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "elf64-compare <elf-file-A> <elf-file-B>",
		Short: "Structurally compare two ELF64 binaries",
		Long: `elf64-compare parses two ELF64 binaries and reports field-level structural
differences across four categories: the executable header, the program
headers, the section headers, and section content.

Structural inequality is a normal, reportable outcome, not a failure: the
exit status is 0 whenever both files parsed, equal or not.

Exit codes:
  0 - Both files parsed; differences (if any) reported
  1 - Parse or I/O failure`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(args[0], args[1], outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format (text, json)")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("elf64-compare version %s\n", version)
			fmt.Printf("Commit: %s\n", commit)
			fmt.Printf("Built: %s\n", buildDate)
		},
	}
}

func runCompare(pathA, pathB, outputFormat string) error {
	binaryA, err := elf64.Parse(pathA)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", pathA, err)
	}
	binaryB, err := elf64.Parse(pathB)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", pathB, err)
	}

	result := elf64.Compare(binaryA, binaryB)

	switch outputFormat {
	case "json":
		return outputJSON(result)
	case "text":
		outputText(pathA, pathB, result)
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}

func outputJSON(result *elf64.Result) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputText(pathA, pathB string, result *elf64.Result) {
	equalMark := color.New(color.FgGreen).SprintFunc()
	diffMark := color.New(color.FgRed).SprintFunc()

	fmt.Printf("Comparing ELF64 binaries\n")
	fmt.Printf("  A: %s\n", pathA)
	fmt.Printf("  B: %s\n\n", pathB)

	categories := []struct {
		name  string
		equal bool
	}{
		{"Executable headers", result.EhdrsEqual},
		{"Program headers", result.PhdrsEqual},
		{"Section headers", result.ShdrsEqual},
		{"Section content", result.SectionsEqual},
	}
	for _, cat := range categories {
		if cat.equal {
			fmt.Printf("%s %s\n", equalMark("EQUAL  "), cat.name)
		} else {
			fmt.Printf("%s %s\n", diffMark("DIFFER "), cat.name)
		}
	}

	if len(result.Diffs) > 0 {
		fmt.Printf("\nDifferences:\n")
		for _, diff := range result.Diffs {
			fmt.Printf("  %s\n", diffMark(diff.String()))
		}
	}

	if result.Equal() {
		fmt.Printf("\nBinaries are structurally identical\n")
	}
}
