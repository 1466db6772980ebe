package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Use-Tusk/redirect-check/internal/version"
)

// RunRecord is the file written by SaveResults.
type RunRecord struct {
	RunID      string       `json:"run_id"`
	CLIVersion string       `json:"cli_version"`
	Target     string       `json:"target"`
	Remote     bool         `json:"remote"`
	StartedAt  time.Time    `json:"started_at"`
	Summary    Summary      `json:"summary"`
	Results    []resultJSON `json:"results"`
}

// SaveResults writes a run record into dir as
// results-<timestamp>-<run id prefix>.json and returns the file path.
func (e *Executor) SaveResults(dir string, startedAt time.Time, results []Result) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("results directory is not set")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create results dir: %w", err)
	}

	runID := uuid.NewString()
	record := RunRecord{
		RunID:      runID,
		CLIVersion: version.Version,
		Target:     e.target,
		Remote:     e.remote,
		StartedAt:  startedAt.UTC(),
		Summary:    Summarize(results),
		Results:    make([]resultJSON, len(results)),
	}
	for i, r := range results {
		record.Results[i] = toJSON(r)
	}

	name := fmt.Sprintf("results-%s-%s.json", startedAt.UTC().Format("20060102T150405Z"), runID[:8])
	outPath := filepath.Join(dir, name)
	f, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) // #nosec G304
	if err != nil {
		return "", fmt.Errorf("failed to create results file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		return "", fmt.Errorf("failed to write results: %w", err)
	}

	return outPath, nil
}
