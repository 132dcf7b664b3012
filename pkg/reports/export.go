package reports

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"auditai/pkg/api"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ExportFilename names an export after the model and report date.
func ExportFilename(rep *api.Report) string {
	name := strings.Trim(unsafeName.ReplaceAllString(firstNonEmpty(rep.ModelName, rep.FullReport.System.ModelName), "-"), "-")
	if name == "" {
		name = "report"
	}
	return fmt.Sprintf("audit-%s-%s.json", name, reportDate(rep))
}

// Export writes the full report as indented JSON into dir and returns the path.
func Export(rep *api.Report, dir string) (string, error) {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, ExportFilename(rep))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
