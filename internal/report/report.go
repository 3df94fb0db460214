// Package report builds, persists, and summarizes the per-run Report
// produced by internal/controller.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"

	"github.com/codehealer/autofix-engine/internal/autofix"
)

// BuildReport assembles the final Report artifact for a run, tagging it with
// runID. RedisReportStore keys the stored report by it; FileReportStore and
// S3ReportStore name their files by timestamp instead.
func BuildReport(status string, iterations []autofix.IterationRecord, changes []autofix.ChangeEntry, runID string) autofix.Report {
	return autofix.Report{
		RunID:           runID,
		FinalStatus:     status,
		TotalIterations: len(iterations),
		Iterations:      iterations,
		Changes:         changes,
	}
}

// Store persists a finished Report somewhere durable and returns a
// locator string (a file path, a key, a URL) the caller can surface to a
// user or operator.
type Store interface {
	Save(r autofix.Report) (string, error)
}

// FileReportStore writes reports as indented JSON to timestamped files under
// Dir, matching save_full_report's report_<YYYYMMDD_HHMMSS>.json naming.
type FileReportStore struct {
	Dir string
}

func NewFileReportStore(dir string) *FileReportStore {
	return &FileReportStore{Dir: dir}
}

func (s *FileReportStore) Save(r autofix.Report) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("report: create dir: %w", err)
	}
	name := fmt.Sprintf("report_%s.json", timestampName())
	path := filepath.Join(s.Dir, name)

	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return "", fmt.Errorf("report: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("report: write %s: %w", path, err)
	}
	return path, nil
}

func timestampName() string {
	return time.Now().Format("20060102_150405")
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("report: create dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func jsonMarshalIndent(r autofix.Report) ([]byte, error) {
	return json.MarshalIndent(r, "", "    ")
}

// PrintSummary writes a short, colorized console summary of a finished run,
// adapted from print_report_summary; errors in red, successes in green.
func PrintSummary(r autofix.Report) {
	statusColor := color.New(color.FgGreen)
	if r.FinalStatus != autofix.StatusSuccess {
		statusColor = color.New(color.FgRed)
	}

	fmt.Println("\n=== Debugging Report Summary ===")
	statusColor.Printf("Final Status: %s\n", r.FinalStatus)
	fmt.Printf("Total Iterations: %d\n", r.TotalIterations)

	for _, it := range r.Iterations {
		fmt.Printf("\n--- Iteration %d ---\n", it.Index)
		fmt.Printf("Fix Method: %s\n", it.MethodApplied)
		fmt.Printf("Error Kind: %s\n", it.ErrorKind)
		fmt.Printf("Success: %t\n", it.Success)
		if it.ExecutionTime != nil {
			fmt.Printf("Execution Time: %.2fs\n", it.ExecutionTime.Seconds())
		}
	}
}
