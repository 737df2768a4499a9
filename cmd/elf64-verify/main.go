package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/msft-mirror-aosp/platform.system.memory.libmeminfo/internal/checks"
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
	var (
		outputFormat string
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "elf64-verify <elf-file>",
		Short: "Run structural consistency checks against an ELF64 binary",
		Long: `elf64-verify parses an ELF64 binary and runs structural checks over the
result: executable header geometry, loadable segment alignment, write+exec
segments, section ordering and section bounds.

Only structural (header/offset/size) consistency is validated, never the
semantic correctness of code or data.

Exit codes:
  0 - All checks passed
  1 - One or more checks failed, or the file did not parse`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(args[0], outputFormat, verbose)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format (text, json)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("elf64-verify version %s\n", version)
			fmt.Printf("Commit: %s\n", commit)
			fmt.Printf("Built: %s\n", buildDate)
		},
	}
}

func runVerify(binaryPath, outputFormat string, verbose bool) error {
	loggerConfig := utils.LoggerConfig{Level: utils.LogLevelInfo, Format: utils.LogFormatText}
	if verbose {
		loggerConfig.Level = utils.LogLevelDebug
	}
	logger := utils.NewLogger(loggerConfig)
	log := logger.WithComponent("elf64-verify")

	binary, err := elf64.Parse(binaryPath)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", binaryPath, err)
	}

	runner := checks.NewCheckRunner(checks.DefaultRegistry())
	checkReport := runner.RunAll(binary)

	switch outputFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(checkReport); err != nil {
			return err
		}
	case "text":
		outputText(checkReport)
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}

	if checkReport.FailedChecks > 0 {
		log.Errorf("Structural checks failed: %d/%d passed",
			checkReport.PassedChecks, checkReport.TotalChecks)
		os.Exit(1)
	}
	log.Infof("All structural checks passed: %d/%d",
		checkReport.PassedChecks, checkReport.TotalChecks)
	return nil
}

func outputText(checkReport *checks.CheckReport) {
	fmt.Printf("Structural check report\n")
	fmt.Printf("Binary: %s\n\n", checkReport.BinaryPath)

	for _, result := range checkReport.Results {
		fmt.Printf("[%s] %s: %s\n", result.Status, result.ID, result.Description)
		if result.Message != "" {
			fmt.Printf("    %s\n", result.Message)
		}
		for _, detail := range result.Details {
			fmt.Printf("    - %s\n", detail)
		}
	}

	fmt.Printf("\nPassed %d/%d checks\n", checkReport.PassedChecks, checkReport.TotalChecks)
}
