package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/msft-mirror-aosp/platform.system.memory.libmeminfo/internal/report"
	"github.com/msft-mirror-aosp/platform.system.memory.libmeminfo/internal/scan"
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
		configFile   string
		writeReport  bool
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "elf64-frag <directory>",
		Short: "Calculate page-size memory fragmentation of ELF64 shared libraries",
		Long: `elf64-frag recursively searches a directory for ELF64 shared libraries and
calculates, for each candidate page size (4096, 16384 and 65536 bytes), the
memory wasted by PT_LOAD segments whose memory size is not a page-size
multiple.

Segments are bucketed by permission class (executable, read-only,
read-write); files that fail to parse are skipped and the scan continues.

Exit codes:
  0 - Scan completed
  1 - Directory unreadable or configuration error`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFrag(args[0], outputFormat, configFile, writeReport, verbose)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Output format (text, json); overrides config")
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	cmd.Flags().BoolVar(&writeReport, "report", false, "Also write a JSON report file to the configured output dir")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("elf64-frag version %s\n", version)
			fmt.Printf("Commit: %s\n", commit)
			fmt.Printf("Built: %s\n", buildDate)
		},
	}
}

func runFrag(rootDir, outputFormat, configFile string, writeReport, verbose bool) error {
	var config *utils.Config
	var err error

	if configFile != "" {
		config, err = utils.LoadConfigFromFile(configFile)
	} else {
		config, err = utils.LoadDefaultConfig()
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if outputFormat == "" {
		outputFormat = config.Report.Format
	}

	loggerConfig := utils.LoggerConfig{
		Level:  utils.LogLevel(config.LogLevel),
		Format: utils.LogFormat(config.LogFormat),
	}
	if verbose {
		loggerConfig.Level = utils.LogLevelDebug
	}
	logger := utils.NewLogger(loggerConfig)

	fi, err := os.Stat(rootDir)
	if err != nil {
		return fmt.Errorf("cannot stat %s: %w", rootDir, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("provided path is not a directory: %s", rootDir)
	}

	scanner := scan.NewScanner(logger)
	scanner.Suffix = config.Scan.LibSuffix

	stats, err := scanner.Scan(rootDir)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	fragReport := report.NewFragReport(rootDir, stats)

	switch outputFormat {
	case "json":
		if err := fragReport.RenderJSON(os.Stdout); err != nil {
			return fmt.Errorf("failed to output report: %w", err)
		}
	case "text":
		fragReport.RenderText(os.Stdout)
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}

	if writeReport {
		path, err := fragReport.WriteToFile(config.Report.OutputDir)
		if err != nil {
			return err
		}
		logger.WithComponent("elf64-frag").Infof("Report written to %s", path)
	}

	return nil
}
