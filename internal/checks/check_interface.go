package checks

import (
	"github.com/msft-mirror-aosp/platform.system.memory.libmeminfo/internal/elf64"
)

// StructuralCheck defines the interface that all structural checks implement.
// Checks validate header/offset/size consistency of a parsed binary, never
// semantic correctness of code or data.
type StructuralCheck interface {
	// ID returns the unique identifier for this check (e.g., "load-segment-alignment")
	ID() string

	// Description returns a detailed description of what this check validates
	Description() string

	// Execute runs the structural check against a parsed binary
	Execute(binary *elf64.Binary) CheckResult
}

// CheckStatus represents the possible outcomes of a structural check
type CheckStatus string

const (
	StatusPass CheckStatus = "pass"
	StatusFail CheckStatus = "fail"
	StatusSkip CheckStatus = "skip"
)

// CheckResult contains the outcome of a structural check execution
type CheckResult struct {
	ID          string      `json:"id"`
	Description string      `json:"description"`
	Status      CheckStatus `json:"status"`
	Message     string      `json:"message,omitempty"`
	Details     []string    `json:"details,omitempty"`
}

// CheckRegistry manages a collection of structural checks
type CheckRegistry struct {
	checks []StructuralCheck
	byID   map[string]StructuralCheck
}

// NewCheckRegistry creates a new check registry
func NewCheckRegistry() *CheckRegistry {
	return &CheckRegistry{byID: make(map[string]StructuralCheck)}
}

// Register adds a structural check to the registry. Registration order is
// preserved in reports.
func (r *CheckRegistry) Register(check StructuralCheck) {
	if _, exists := r.byID[check.ID()]; exists {
		return
	}
	r.byID[check.ID()] = check
	r.checks = append(r.checks, check)
}

// Get retrieves a check by ID
func (r *CheckRegistry) Get(id string) (StructuralCheck, bool) {
	check, exists := r.byID[id]
	return check, exists
}

// List returns all registered checks in registration order
func (r *CheckRegistry) List() []StructuralCheck {
	return append([]StructuralCheck(nil), r.checks...)
}

// CheckReport contains the results of running multiple checks
type CheckReport struct {
	BinaryPath   string        `json:"binary_path"`
	Results      []CheckResult `json:"results"`
	TotalChecks  int           `json:"total_checks"`
	PassedChecks int           `json:"passed_checks"`
	FailedChecks int           `json:"failed_checks"`
}

// CheckRunner executes structural checks
type CheckRunner struct {
	registry *CheckRegistry
}

// NewCheckRunner creates a new check runner
func NewCheckRunner(registry *CheckRegistry) *CheckRunner {
	return &CheckRunner{registry: registry}
}

// RunAll executes all registered checks against a parsed binary
func (r *CheckRunner) RunAll(binary *elf64.Binary) *CheckReport {
	checks := r.registry.List()
	report := &CheckReport{
		BinaryPath: binary.Path,
		Results:    make([]CheckResult, 0, len(checks)),
	}

	for _, check := range checks {
		result := check.Execute(binary)
		report.Results = append(report.Results, result)

		report.TotalChecks++
		switch result.Status {
		case StatusPass:
			report.PassedChecks++
		case StatusFail:
			report.FailedChecks++
		}
	}

	return report
}

// DefaultRegistry returns a registry with every structural check registered.
func DefaultRegistry() *CheckRegistry {
	registry := NewCheckRegistry()
	registry.Register(&HeaderSanityCheck{})
	registry.Register(&SegmentAlignmentCheck{})
	registry.Register(&WritableExecSegmentCheck{})
	registry.Register(&SectionTableCheck{})
	registry.Register(&SectionBoundsCheck{})
	return registry
}
