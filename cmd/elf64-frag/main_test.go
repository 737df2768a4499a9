package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/msft-mirror-aosp/platform.system.memory.libmeminfo/internal/elf64"
	"github.com/msft-mirror-aosp/platform.system.memory.libmeminfo/internal/elfgen"
	"github.com/msft-mirror-aosp/platform.system.memory.libmeminfo/internal/report"
)

func TestRootCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantErr  bool
		contains string
	}{
		{
			name:     "help flag",
			args:     []string{"--help"},
			wantErr:  false,
			contains: "memory wasted by PT_LOAD segments",
		},
		{
			name:    "missing directory argument",
			args:    []string{},
			wantErr: true,
		},
		{
			name:     "invalid flag",
			args:     []string{"--invalid", "."},
			wantErr:  true,
			contains: "unknown flag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rootCmd := newRootCmd()

			var buf bytes.Buffer
			rootCmd.SetOut(&buf)
			rootCmd.SetErr(&buf)
			rootCmd.SetArgs(tt.args)

			err := rootCmd.Execute()
			if tt.wantErr && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.contains != "" && !strings.Contains(buf.String(), tt.contains) {
				t.Errorf("output does not contain %q:\n%s", tt.contains, buf.String())
			}
		})
	}
}

func TestRunFrag(t *testing.T) {
	root := t.TempDir()
	if err := elf64.WriteFile(filepath.Join(root, "liba.so"), elfgen.DefaultLibrary()); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	if err := runFrag(root, "text", "", false, false); err != nil {
		t.Fatalf("runFrag failed: %v", err)
	}
	if err := runFrag(root, "json", "", false, true); err != nil {
		t.Fatalf("runFrag failed: %v", err)
	}
}

func TestRunFragWritesReport(t *testing.T) {
	root := t.TempDir()
	outDir := t.TempDir()
	if err := elf64.WriteFile(filepath.Join(root, "liba.so"), elfgen.DefaultLibrary()); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	config := "report:\n  output_dir: " + outDir + "\n"
	if err := os.WriteFile(configPath, []byte(config), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if err := runFrag(root, "json", configPath, true, false); err != nil {
		t.Fatalf("runFrag failed: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(outDir, "elf64-frag-report.json"))
	if err != nil {
		t.Fatalf("report file not written: %v", err)
	}
	var decoded report.FragReport
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if decoded.Files != 1 {
		t.Errorf("report counted %d files, want 1", decoded.Files)
	}
}

func TestRunFragErrors(t *testing.T) {
	root := t.TempDir()

	if err := runFrag(filepath.Join(root, "absent"), "text", "", false, false); err == nil {
		t.Error("expected error for missing directory")
	}

	file := filepath.Join(root, "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := runFrag(file, "text", "", false, false); err == nil {
		t.Error("expected error for non-directory path")
	}

	if err := runFrag(root, "yaml", "", false, false); err == nil {
		t.Error("expected error for unsupported format")
	}
}
