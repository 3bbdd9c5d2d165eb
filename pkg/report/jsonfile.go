package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/supporttools/wifi-doctor/pkg/types"
)

// JSONFile persists the session report as indented JSON. Path "-" writes to
// stdout instead of a file.
type JSONFile struct {
	// Path is the destination file.
	Path string
}

// NewJSONFile returns a JSON file reporter for the given path.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{Path: path}
}

// Report implements Reporter.
func (j *JSONFile) Report(report *types.SessionReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session report: %w", err)
	}
	data = append(data, '\n')

	if j.Path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}

	if dir := filepath.Dir(j.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(j.Path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write session report: %w", err)
	}
	return nil
}
